package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kislerdm/dk-utils/internal/downcast"
)

func init() {
	cmd := &cobra.Command{
		Use:   "downcast [csv]",
		Short: "Report the narrowest numeric dtype per CSV column",
		Long:  "Infer column dtypes of a CSV (file or stdin), narrow numeric columns and report memory before and after.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runDowncast,
	}

	RootCmd.AddCommand(cmd)
}

type downcastReport struct {
	Rows        int               `json:"rows"`
	BytesBefore int64             `json:"bytes_before"`
	BytesAfter  int64             `json:"bytes_after"`
	Columns     []downcast.Change `json:"columns"`
}

func runDowncast(cmd *cobra.Command, args []string) {
	in, name, err := openInput(cmd, args)
	if err != nil {
		exitErr("open input", err)
	}
	defer in.Close()

	rep, err := downcastCSV(in)
	if err != nil {
		exitErr("downcast", err)
	}
	logger.Debug("downcast", zap.String("input", name), zap.Int("rows", rep.Rows),
		zap.Int64("bytes_before", rep.BytesBefore), zap.Int64("bytes_after", rep.BytesAfter))

	if err := writeDowncast(cmd.OutOrStdout(), rep, formatFlag); err != nil {
		exitErr("write", err)
	}
}

func downcastCSV(r io.Reader) (*downcastReport, error) {
	t, err := downcast.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	rep := &downcastReport{BytesBefore: t.MemoryBytes()}
	if len(t.Columns) > 0 {
		rep.Rows = t.Columns[0].Len()
	}
	rep.Columns = downcast.Downcast(t)
	rep.BytesAfter = t.MemoryBytes()
	return rep, nil
}

func writeDowncast(w io.Writer, rep *downcastReport, format string) error {
	if format == "text" {
		for _, c := range rep.Columns {
			fmt.Fprintf(w, "%-20s %-8s -> %s\n", c.Column, c.From, c.To)
		}
		fmt.Fprintf(w, "memory: %s -> %s (%d rows)\n",
			humanize.Bytes(uint64(rep.BytesBefore)), humanize.Bytes(uint64(rep.BytesAfter)), rep.Rows)
		return nil
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
