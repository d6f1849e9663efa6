package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// ErrStalled is returned when a page is empty but results remain.
	ErrStalled = errors.New("pagination stalled")

	// ErrPageLimit is returned when MaxPages pages did not exhaust the total.
	ErrPageLimit = errors.New("page limit reached")
)

// Prometheus metrics for pagination.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leankit_pages_fetched_total",
		Help: "Total number of search result pages fetched",
	})

	itemsCollected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leankit_items_collected",
		Help: "Number of items collected by the last completed collection",
	})
)

// Config holds collector configuration.
type Config struct {
	// MaxPages bounds the number of pages requested. 0 disables the bound.
	MaxPages int
}

// DefaultConfig returns the default collector configuration.
func DefaultConfig() Config {
	return Config{
		MaxPages: 10000,
	}
}

// PageFetcher fetches a single 1-based page and returns its items together
// with the server-reported total result count.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (items []T, total int, err error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, page int) ([]T, int, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, page int) ([]T, int, error) {
	return f(ctx, page)
}

// Collector drains a paginated search sequentially.
type Collector[T any] struct {
	fetcher PageFetcher[T]
	config  Config
	logger  zerolog.Logger
}

// NewCollector creates a collector. A negative MaxPages is treated as 0.
func NewCollector[T any](fetcher PageFetcher[T], config Config, logger zerolog.Logger) *Collector[T] {
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}
	return &Collector[T]{
		fetcher: fetcher,
		config:  config,
		logger:  logger,
	}
}

// CollectAll fetches pages until the total reported with the first page is
// used up and returns the items in page order. Any error aborts the run and
// no partial result is returned.
func (c *Collector[T]) CollectAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	var (
		all       []T
		remaining int
		total     int
	)

	for page := 1; ; page++ {
		if c.config.MaxPages > 0 && page > c.config.MaxPages {
			c.logger.Error().
				Int("max_pages", c.config.MaxPages).
				Int("collected", len(all)).
				Int("remaining", remaining).
				Msg("Page limit reached before all results were collected")
			return nil, fmt.Errorf("%w: %d pages, %d of %d results collected",
				ErrPageLimit, c.config.MaxPages, len(all), total)
		}

		items, reported, err := c.fetcher.FetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		pagesFetchedTotal.Inc()

		if page == 1 {
			total = reported
			remaining = reported
			c.logger.Info().
				Int("total_results", total).
				Msg("Starting paginated collection")
		}

		remaining -= len(items)
		all = append(all, items...)

		c.logger.Debug().
			Int("page", page).
			Int("items", len(items)).
			Int("remaining", remaining).
			Msg("Fetched page")

		if remaining < 1 {
			break
		}

		if len(items) == 0 {
			c.logger.Error().
				Int("page", page).
				Int("remaining", remaining).
				Msg("Empty page while results remain")
			return nil, fmt.Errorf("%w: page %d was empty with %d of %d results outstanding",
				ErrStalled, page, remaining, total)
		}
	}

	itemsCollected.Set(float64(len(all)))

	c.logger.Info().
		Int("items", len(all)).
		Int("total_results", total).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return all, nil
}
