package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	nsCmd := &cobra.Command{
		Use:   "ns",
		Short: "Namespace management",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List namespaces with live record counts",
		Run:   runNSList,
	}

	nsCmd.AddCommand(listCmd)
	RootCmd.AddCommand(nsCmd)
}

func runNSList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	namespaces, err := s.ListNamespaces(cmd.Context())
	if err != nil {
		exitErr("list namespaces", err)
	}

	out := cmd.OutOrStdout()
	if formatFlag == "text" {
		for _, ns := range namespaces {
			fmt.Fprintf(out, "%s\t%d\t%d\n", ns.NS, ns.Count, ns.Keys)
		}
		return
	}

	b, _ := json.MarshalIndent(namespaces, "", "  ")
	fmt.Fprintln(out, string(b))
}
