package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kislerdm/dk-utils/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [file]",
		Short: "Flatten and store a record",
		Long:  "Flatten a JSON or YAML document and store it as a new version of ns/key. Reads the file argument or stdin.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runPut,
	}

	cmd.Flags().StringP("ns", "n", "", "Namespace (required)")
	cmd.Flags().StringP("key", "k", "", "Key (required)")
	cmd.Flags().String("in", "", "Input format: json or yaml (default: from file extension, else json)")
	cmd.Flags().BoolP("simplify-arrays", "s", false, "Expand arrays into key_<index> entries")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")

	cmd.MarkFlagRequired("ns")
	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	key, _ := cmd.Flags().GetString("key")
	format, _ := cmd.Flags().GetString("in")
	simplify, _ := cmd.Flags().GetBool("simplify-arrays")
	tagsStr, _ := cmd.Flags().GetString("tags")

	in, name, err := openInput(cmd, args)
	if err != nil {
		exitErr("open input", err)
	}
	defer in.Close()
	if format == "" {
		format = formatFromPath(name)
	}

	src, err := readDocument(in, format)
	if err != nil {
		exitErr("read document", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rec, err := s.Put(cmd.Context(), store.PutParams{
		NS:             ns,
		Key:            key,
		Source:         src,
		SimplifyArrays: simplify,
		Tags:           splitList(tagsStr),
	})
	if err != nil {
		exitErr("put", err)
	}
	for _, k := range rec.Collisions {
		logger.Warn("key path collision, last value kept", zap.String("ns", ns), zap.String("key", key), zap.String("path", k))
	}
	logger.Info("stored record", zap.String("ns", ns), zap.String("key", key),
		zap.Int("version", rec.Version), zap.Int("fields", rec.FieldCount))

	rec.Fields = nil
	b, _ := json.Marshal(rec)
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
