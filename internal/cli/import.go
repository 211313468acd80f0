package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kislerdm/dk-utils/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import records from JSON",
		Long:  "Import records from JSON (file or stdin). Expects the format produced by export.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	in, _, err := openInput(cmd, args)
	if err != nil {
		exitErr("open input", err)
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		exitErr("read input", err)
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		exitErr("parse json", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), records)
	if err != nil {
		exitErr("import", err)
	}
	logger.Info("imported records", zap.Int("count", imported))

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", imported)
}
