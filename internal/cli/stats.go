package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kislerdm/dk-utils/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag == "text" {
		writeStatsText(cmd.OutOrStdout(), stats)
		return
	}

	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func writeStatsText(w io.Writer, st *store.Stats) {
	fmt.Fprintf(w, "db:       %s (%s)\n", st.DBPath, humanize.Bytes(uint64(st.DBSizeBytes)))
	fmt.Fprintf(w, "records:  %s active / %s total\n", humanize.Comma(int64(st.ActiveRecords)), humanize.Comma(int64(st.TotalRecords)))
	fmt.Fprintf(w, "fields:   %s\n", humanize.Comma(int64(st.TotalFields)))
	for _, ns := range st.Namespaces {
		fmt.Fprintf(w, "  %-20s %d records, %d keys\n", ns.NS, ns.Count, ns.Keys)
	}
}
