package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for request pacing.
var (
	pacerWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leankit_pacer_waits_total",
		Help: "Total number of requests delayed by the pacer",
	})

	pacerDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leankit_pacer_delay_seconds",
		Help:    "Delay imposed on requests by the pacer",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Pacer.
type Option func(*Pacer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pacer) { p.now = now }
}

// WithSleeper replaces the context-aware timer sleep.
func WithSleeper(sleep Sleeper) Option {
	return func(p *Pacer) { p.sleep = sleep }
}

// Pacer serializes request initiations at least Interval apart.
type Pacer struct {
	interval time.Duration
	store    StateStore
	now      func() time.Time
	sleep    Sleeper
	logger   zerolog.Logger
}

// NewPacer creates a pacer. A nil store falls back to a MemoryStore.
func NewPacer(interval time.Duration, store StateStore, logger zerolog.Logger, opts ...Option) *Pacer {
	if store == nil {
		store = NewMemoryStore()
	}
	p := &Pacer{
		interval: interval,
		store:    store,
		now:      time.Now,
		sleep:    sleepContext,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the minimum gap between request initiations.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait reserves the next request slot and blocks until it arrives.
// Callers issue the request right after Wait returns, so pacing runs from
// initiation to initiation. Concurrent callers sharing a store receive
// distinct slots.
func (p *Pacer) Wait(ctx context.Context) error {
	delay, err := p.store.Reserve(ctx, p.now(), p.interval)
	if err != nil {
		return fmt.Errorf("reserve request slot: %w", err)
	}
	if delay <= 0 {
		return nil
	}

	p.logger.Debug().
		Dur("delay", delay).
		Msg("Pacing request")

	pacerWaitsTotal.Inc()
	pacerDelaySeconds.Observe(delay.Seconds())

	return p.sleep(ctx, delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
