package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kislerdm/dk-utils/internal/flatten"
)

func init() {
	cmd := &cobra.Command{
		Use:   "flatten [file]",
		Short: "Flatten a nested JSON or YAML document",
		Long: `Flatten a nested JSON or YAML object into dot-joined key paths.
Reads the file argument, or stdin when omitted or "-".`,
		Args: cobra.MaximumNArgs(1),
		Run:  runFlatten,
	}

	cmd.Flags().String("in", "", "Input format: json or yaml (default: from file extension, else json)")
	cmd.Flags().String("out", "json", "Output format: json or yaml")
	cmd.Flags().BoolP("simplify-arrays", "s", false, "Expand arrays into key_<index> entries")
	cmd.Flags().Bool("strict", false, "Fail on key path collisions")
	cmd.Flags().Bool("sanitize-keys", false, "Replace '.' with '_' and drop '@' in output keys")
	cmd.Flags().String("only", "", "Keep only these comma-separated keys")
	cmd.Flags().Bool("pretty", false, "Indent JSON output")

	RootCmd.AddCommand(cmd)
}

type flattenRequest struct {
	In, Out        string
	SimplifyArrays bool
	Strict         bool
	SanitizeKeys   bool
	Only           []string
	Pretty         bool
}

func runFlatten(cmd *cobra.Command, args []string) {
	var req flattenRequest
	req.In, _ = cmd.Flags().GetString("in")
	req.Out, _ = cmd.Flags().GetString("out")
	req.SimplifyArrays, _ = cmd.Flags().GetBool("simplify-arrays")
	req.Strict, _ = cmd.Flags().GetBool("strict")
	req.SanitizeKeys, _ = cmd.Flags().GetBool("sanitize-keys")
	req.Pretty, _ = cmd.Flags().GetBool("pretty")
	only, _ := cmd.Flags().GetString("only")
	req.Only = splitList(only)

	in, name, err := openInput(cmd, args)
	if err != nil {
		exitErr("open input", err)
	}
	defer in.Close()
	if req.In == "" {
		req.In = formatFromPath(name)
	}

	flat, err := flattenDocument(in, cmd.OutOrStdout(), req)
	if err != nil {
		exitErr("flatten", err)
	}
	for _, k := range flat.Collisions() {
		logger.Warn("key path collision, last value kept", zap.String("key", k))
	}
	logger.Debug("flattened",
		zap.String("input", name),
		zap.Int("keys", flat.Len()),
		zap.Int("passes", flat.Passes()))
}

// openInput returns the file named by args[0], or stdin.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "-", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, args[0], err
	}
	return f, args[0], nil
}

func formatFromPath(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func readDocument(r io.Reader, format string) (flatten.Mapping, error) {
	switch format {
	case "", "json":
		return flatten.DecodeJSON(r)
	case "yaml", "yml":
		return flatten.DecodeYAML(r)
	}
	return nil, fmt.Errorf("unknown input format %q (valid: json, yaml)", format)
}

func flattenDocument(r io.Reader, w io.Writer, req flattenRequest) (*flatten.Flat, error) {
	if req.Out != "json" && req.Out != "yaml" {
		return nil, fmt.Errorf("unknown output format %q (valid: json, yaml)", req.Out)
	}

	src, err := readDocument(r, req.In)
	if err != nil {
		return nil, err
	}
	flat, err := flatten.Flatten(src, flatten.Options{
		SimplifyArrays: req.SimplifyArrays,
		Strict:         req.Strict,
	})
	if err != nil {
		return nil, err
	}
	if req.SanitizeKeys {
		if flat, err = flatten.SanitizeKeys(flat, req.Strict); err != nil {
			return nil, err
		}
	}
	if len(req.Only) > 0 {
		flat = flatten.Subset(flat, req.Only...)
	}

	return flat, writeFlat(w, flat, req.Out, req.Pretty)
}

func writeFlat(w io.Writer, flat *flatten.Flat, format string, pretty bool) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(flat); err != nil {
			return err
		}
		return enc.Close()
	}

	b, err := json.Marshal(flat)
	if err != nil {
		return err
	}
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, b, "", "  "); err != nil {
			return err
		}
		b = buf.Bytes()
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
