package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kislerdm/dk-utils/internal/model"
	"github.com/kislerdm/dk-utils/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Retrieve a record",
		Run:   runGet,
	}

	cmd.Flags().StringP("ns", "n", "", "Namespace (required)")
	cmd.Flags().StringP("key", "k", "", "Key (required)")
	cmd.Flags().Bool("history", false, "Return all versions (newest first)")
	cmd.Flags().IntP("version", "v", 0, "Specific version number")
	cmd.Flags().Bool("flat", false, "Print only the flattened fields as one JSON object")

	cmd.MarkFlagRequired("ns")
	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	key, _ := cmd.Flags().GetString("key")
	history, _ := cmd.Flags().GetBool("history")
	version, _ := cmd.Flags().GetInt("version")
	flat, _ := cmd.Flags().GetBool("flat")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := s.Get(cmd.Context(), store.GetParams{
		NS:      ns,
		Key:     key,
		History: history,
		Version: version,
	})
	if err != nil {
		exitErr("get", err)
	}

	out := cmd.OutOrStdout()
	if flat {
		for _, r := range records {
			fmt.Fprintln(out, string(model.FieldsObject(r.Fields)))
		}
		return
	}

	if history || len(records) > 1 {
		b, _ := json.MarshalIndent(records, "", "  ")
		fmt.Fprintln(out, string(b))
	} else {
		b, _ := json.MarshalIndent(records[0], "", "  ")
		fmt.Fprintln(out, string(b))
	}
}
