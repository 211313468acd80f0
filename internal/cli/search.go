package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kislerdm/dk-utils/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [path-prefix]",
		Short: "Search records by flattened field",
		Long: `Find records whose latest version has a field under the given path prefix.
--value matches the field value exactly; it is parsed as JSON, and taken
as a plain string when it is not valid JSON.`,
		Args: cobra.MaximumNArgs(1),
		Run:  runSearch,
	}

	cmd.Flags().StringP("ns", "n", "", "Filter by namespace")
	cmd.Flags().String("value", "", "Exact field value")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	limit, _ := cmd.Flags().GetInt("limit")

	p := store.SearchParams{NS: ns, Limit: limit}
	if len(args) > 0 {
		p.Path = args[0]
	}
	if cmd.Flags().Changed("value") {
		v, _ := cmd.Flags().GetString("value")
		p.Value = searchValue(v)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), p)
	if err != nil {
		exitErr("search", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

// searchValue keeps valid JSON as is and quotes anything else.
func searchValue(v string) json.RawMessage {
	if json.Valid([]byte(v)) {
		return json.RawMessage(v)
	}
	b, _ := json.Marshal(v)
	return b
}
