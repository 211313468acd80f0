// Package cli implements the dk-utils CLI commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kislerdm/dk-utils/internal/config"
	"github.com/kislerdm/dk-utils/internal/logging"
	"github.com/kislerdm/dk-utils/internal/store"
)

var (
	dbPath     string
	formatFlag string
	logLevel   string
	logFormat  string
	logFile    string

	cfg    config.Config
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "dk-utils",
	Short: "Personal data utilities",
	Long:  "Flatten nested JSON/YAML records, keep them in SQLite, and a few numeric helpers.",

	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $DK_UTILS_DB or ~/.dk-utils/records.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $DK_UTILS_LOG_LEVEL or info)")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (default: $DK_UTILS_LOG_FORMAT or console)")
	RootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")
}

// setup loads env config, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	l, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	logger = l.With(zap.String("cmd", cmd.Name()))
	return nil
}

func getDBPath() string {
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	return config.DefaultDBPath()
}

func openStore() (*store.SQLiteStore, error) {
	path := getDBPath()
	logger.Debug("opening store", zap.String("db", path))
	return store.NewSQLiteStore(path)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func exitErr(msg string, err error) {
	logger.Debug(msg, zap.Error(err))
	_ = logger.Sync()
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
