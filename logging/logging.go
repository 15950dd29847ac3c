// Package logging builds the zap logger used across the experiment
// system. Output goes to the console and, like the original deployment,
// optionally to a rotating log file.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level: debug, info, warn, or error.
	// Default: info
	Level string `toml:"level"`

	// Format is "console" or "json".
	// Default: console
	Format string `toml:"format"`

	// Outputs lists destinations: "stdout", "stderr", or a file path.
	// File outputs rotate via lumberjack.
	// Default: stdout
	Outputs []string `toml:"outputs"`

	// MaxSizeMB, MaxBackups, and MaxAgeDays bound file rotation.
	MaxSizeMB  int `toml:"max_size_mb"`
	MaxBackups int `toml:"max_backups"`
	MaxAgeDays int `toml:"max_age_days"`
}

// DefaultConfig returns the logging defaults.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "console",
		Outputs: []string{"stdout"},
	}
}

// New builds a zap.Logger from the configuration and redirects the
// stdlib log package to it. The caller should defer logger.Sync().
func New(c Config) *zap.Logger {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(c.Level) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}

	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	outputs := c.Outputs
	if len(outputs) == 0 {
		outputs = DefaultConfig().Outputs
	}

	var cores []zapcore.Core
	for _, out := range outputs {
		var ws zapcore.WriteSyncer
		switch strings.ToLower(out) {
		case "stdout":
			ws = zapcore.AddSync(os.Stdout)
		case "stderr":
			ws = zapcore.AddSync(os.Stderr)
		default:
			ws = zapcore.AddSync(&lumberjack.Logger{
				Filename:   out,
				MaxSize:    orDefault(c.MaxSizeMB, 10),
				MaxBackups: orDefault(c.MaxBackups, 3),
				MaxAge:     orDefault(c.MaxAgeDays, 7),
			})
		}
		cores = append(cores, zapcore.NewCore(encoder, ws, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel))
	zap.ReplaceGlobals(logger)
	_, _ = zap.RedirectStdLogAt(logger, zap.InfoLevel)
	return logger
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
