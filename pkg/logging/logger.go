// Package logging provides structured logging configuration using zerolog,
// with optional size-based rotation of a log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	// Ignored when FilePath is set.
	Output io.Writer

	// FilePath sends logs to a rotated file instead of Output.
	FilePath   string
	MaxSizeMB  int  // size in MB before rotation
	MaxBackups int  // rotated files to keep
	MaxAgeDays int  // days to keep rotated files
	Compress   bool // gzip rotated files
}

// DefaultConfig returns a default logger configuration.
// Logs go to stderr so stdout only carries the report.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Pretty:     false,
		Output:     os.Stderr,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// Setup configures the global zerolog logger. The returned cleanup function
// closes the log file, if any, and should be called on exit.
func Setup(cfg Config) (zerolog.Logger, func() error, error) {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	cleanup := func() error { return nil }

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		output = lj
		cleanup = lj.Close
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, NoColor: cfg.FilePath != ""}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger, cleanup, nil
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow and pacing
//   - Each outbound request (method, path)
//   - Pacing delays (delay, last_request)
//   - Each fetched page (page, items, remaining)
//
// Info: run milestones
//   - Collection start (total_results) and completion (items, duration)
//   - Report summary (collected, reported)
//
// Warn: failed replies
//   - HTTP statuses outside the success set
//   - Failure reply codes (reply_code, reply_text)
//
// Error: conditions that abort the run
//   - Requests that could not be sent
//   - Stalled pagination or page limit reached
//   - Configuration errors
