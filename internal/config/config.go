// Package config loads dk-utils settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide settings. Command-line flags override these.
type Config struct {
	DBPath    string `env:"DK_UTILS_DB"`
	LogLevel  string `env:"DK_UTILS_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"DK_UTILS_LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"DK_UTILS_LOG_FILE"`
}

// Load parses the environment into a Config and fills the default DB path.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	return cfg, nil
}

// DefaultDBPath is ~/.dk-utils/records.db.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dk-utils", "records.db")
}
