// Package config loads the activity report configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/leankit-activity/pkg/report"
)

// Config holds all configuration for the activity report.
type Config struct {
	// LeanKit connection
	Account     string        // LEANKIT_ACCOUNT, required unless LEANKIT_BASE_URL is set
	BaseURL     string        // LEANKIT_BASE_URL, default "" (derived from account)
	Username    string        // LEANKIT_USERNAME
	Password    string        // LEANKIT_PASSWORD
	MinInterval time.Duration // LEANKIT_MIN_INTERVAL_MS, default 1000ms
	HTTPTimeout time.Duration // LEANKIT_HTTP_TIMEOUT_MS, default 0 (none)

	// Search
	UserID              int64 // LEANKIT_USER_ID, required
	SearchBoard         bool  // LEANKIT_SEARCH_BOARD, default true
	SearchRecentArchive bool  // LEANKIT_SEARCH_RECENT_ARCHIVE, default true
	SearchOldArchive    bool  // LEANKIT_SEARCH_OLD_ARCHIVE, default true
	MaxPages            int   // MAX_PAGES, default 10000, 0 = unlimited

	// Report window [REPORT_START, REPORT_END), YYYY-MM-DD, both required
	Window report.Window

	// Shared pacing state
	RedisURL string // REDIS_URL, default "" (in-memory pacing)

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogPretty     bool   // LOG_PRETTY, default false
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true

	// MetricsFile receives a Prometheus textfile dump on exit.
	MetricsFile string // METRICS_FILE, default "" (disabled)
}

// Load reads configuration from environment variables. Variables that are
// set but cannot be parsed are reported as errors.
func Load() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		Account:     env.String("LEANKIT_ACCOUNT", ""),
		BaseURL:     env.String("LEANKIT_BASE_URL", ""),
		Username:    env.String("LEANKIT_USERNAME", ""),
		Password:    env.String("LEANKIT_PASSWORD", ""),
		MinInterval: env.DurationMs("LEANKIT_MIN_INTERVAL_MS", 1000),
		HTTPTimeout: env.DurationMs("LEANKIT_HTTP_TIMEOUT_MS", 0),

		SearchBoard:         env.Bool("LEANKIT_SEARCH_BOARD", true),
		SearchRecentArchive: env.Bool("LEANKIT_SEARCH_RECENT_ARCHIVE", true),
		SearchOldArchive:    env.Bool("LEANKIT_SEARCH_OLD_ARCHIVE", true),
		MaxPages:            env.Int("MAX_PAGES", 10000),

		RedisURL: env.String("REDIS_URL", ""),

		LogLevel:      env.String("LOG_LEVEL", "info"),
		LogPretty:     env.Bool("LOG_PRETTY", false),
		LogFile:       env.String("LOG_FILE", ""),
		LogMaxSizeMB:  env.Int("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: env.Int("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: env.Int("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   env.Bool("LOG_COMPRESS", true),

		MetricsFile: env.String("METRICS_FILE", ""),
	}
	if env.err != nil {
		return nil, env.err
	}

	if cfg.Account == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("LEANKIT_ACCOUNT is required")
	}

	userID := os.Getenv("LEANKIT_USER_ID")
	if userID == "" {
		return nil, fmt.Errorf("LEANKIT_USER_ID is required")
	}
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse LEANKIT_USER_ID: %w", err)
	}
	cfg.UserID = id

	start, end := os.Getenv("REPORT_START"), os.Getenv("REPORT_END")
	if start == "" || end == "" {
		return nil, fmt.Errorf("REPORT_START and REPORT_END are required")
	}
	window, err := report.ParseWindow(start, end)
	if err != nil {
		return nil, err
	}
	cfg.Window = window

	if cfg.MinInterval < 0 {
		return nil, fmt.Errorf("LEANKIT_MIN_INTERVAL_MS must be >= 0")
	}

	return cfg, nil
}

// envReader reads typed variables and keeps the first parse error.
type envReader struct {
	err error
}

func (e *envReader) fail(key, value, kind string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("parse %s=%q as %s: %w", key, value, kind, err)
	}
}

func (e *envReader) Bool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, "bool", err)
		return defaultVal
	}
	return b
}

func (e *envReader) String(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (e *envReader) Int(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, "int", err)
		return defaultVal
	}
	return i
}

func (e *envReader) DurationMs(key string, defaultMs int) time.Duration {
	return time.Duration(e.Int(key, defaultMs)) * time.Millisecond
}
