// Command activity-report prints the LeanKit cards assigned to a user whose
// last activity falls inside a date window, oldest first.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/leankit-activity/internal/config"
	"github.com/Sternrassler/leankit-activity/pkg/leankit"
	"github.com/Sternrassler/leankit-activity/pkg/logging"
	"github.com/Sternrassler/leankit-activity/pkg/metrics"
	"github.com/Sternrassler/leankit-activity/pkg/pagination"
	"github.com/Sternrassler/leankit-activity/pkg/ratelimit"
	"github.com/Sternrassler/leankit-activity/pkg/report"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.LogLevel)
	logCfg.Pretty = cfg.LogPretty
	logCfg.FilePath = cfg.LogFile
	logCfg.MaxSizeMB = cfg.LogMaxSizeMB
	logCfg.MaxBackups = cfg.LogMaxBackups
	logCfg.MaxAgeDays = cfg.LogMaxAgeDays
	logCfg.Compress = cfg.LogCompress

	logger, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	runErr := run(ctx, cfg, os.Stdout)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics")
		}
	}

	if runErr != nil {
		logger.Error().Err(runErr).Msg("Activity report failed")
		closeLog()
		os.Exit(1)
	}
	closeLog()
}

// run fetches, filters and prints the report to stdout.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	logger := logging.NewLogger("activity-report")

	var store ratelimit.StateStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		store = ratelimit.NewRedisStore(redisClient, pacingScope(cfg), cfg.MinInterval)
		logger.Debug().Str("addr", opts.Addr).Msg("Using Redis pacing state")
	}

	conn, err := leankit.New(leankit.Config{
		Account:     cfg.Account,
		BaseURL:     cfg.BaseURL,
		Username:    cfg.Username,
		Password:    cfg.Password,
		MinInterval: cfg.MinInterval,
		HTTPTimeout: cfg.HTTPTimeout,
		PacingStore: store,
	})
	if err != nil {
		return fmt.Errorf("create leankit connector: %w", err)
	}
	defer conn.Close()

	fetcher := conn.SearchPages(leankit.SearchParams{
		AssignedUserIds:       []int64{cfg.UserID},
		SearchInRecentArchive: cfg.SearchRecentArchive,
		SearchInOldArchive:    cfg.SearchOldArchive,
		SearchInBoard:         cfg.SearchBoard,
	})

	collector := pagination.NewCollector[leankit.Card](fetcher, pagination.Config{MaxPages: cfg.MaxPages}, logger)
	cards, err := collector.CollectAll(ctx)
	if err != nil {
		return fmt.Errorf("collect cards: %w", err)
	}

	lines, err := report.Build(cards, cfg.Window)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	logger.Info().
		Int("collected", len(cards)).
		Int("reported", len(lines)).
		Time("start", cfg.Window.Start).
		Time("end", cfg.Window.End).
		Msg("Report built")

	return report.Write(stdout, lines)
}

// pacingScope names the shared pacing state; one per LeanKit account.
func pacingScope(cfg *config.Config) string {
	if cfg.Account != "" {
		return cfg.Account
	}
	return cfg.BaseURL
}
