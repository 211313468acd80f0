// Package logging builds the zap logger shared by dk-utils commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout matches "2006-01-02 15:04:05.000" style log timestamps.
const TimeLayout = "2006-01-02 15:04:05.000"

// Config selects level, encoding and sink.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // appended to when set, stderr otherwise
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.DisableStacktrace = true
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)

	switch cfg.Format {
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		zc.Encoding = "json"
	default:
		return nil, fmt.Errorf("invalid log format %q (valid: console, json)", cfg.Format)
	}

	zc.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
	}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
