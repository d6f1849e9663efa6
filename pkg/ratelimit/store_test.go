package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})

	t.Cleanup(func() {
		rc.Close()
		m.Close()
	})
	return m, rc
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	last, err := store.LastRequest(ctx)
	if err != nil {
		t.Fatalf("LastRequest() error = %v", err)
	}
	if !last.IsZero() {
		t.Errorf("empty store LastRequest() = %v, want zero", last)
	}

	now := time.Date(2016, 1, 2, 3, 4, 5, 0, time.UTC)
	delay, err := store.Reserve(ctx, now, time.Second)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if delay != 0 {
		t.Errorf("first Reserve() = %v, want 0", delay)
	}

	delay, _ = store.Reserve(ctx, now.Add(300*time.Millisecond), time.Second)
	if delay != 700*time.Millisecond {
		t.Errorf("second Reserve() = %v, want 700ms", delay)
	}

	last, _ = store.LastRequest(ctx)
	if want := now.Add(time.Second); !last.Equal(want) {
		t.Errorf("LastRequest() = %v, want %v", last, want)
	}
}

// reserveConcurrently runs n Reserve calls at the same instant, each through
// its own store, and returns the sorted waits.
func reserveConcurrently(t *testing.T, n int, interval time.Duration, newStore func() StateStore) []time.Duration {
	t.Helper()

	now := time.Date(2015, 4, 1, 9, 30, 0, 0, time.UTC)
	var (
		mu     sync.Mutex
		delays []time.Duration
		wg     sync.WaitGroup
	)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		store := newStore()
		wg.Add(1)
		go func() {
			defer wg.Done()
			delay, err := store.Reserve(context.Background(), now, interval)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			delays = append(delays, delay)
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("Reserve() error = %v", err)
	}

	sort.Slice(delays, func(i, j int) bool { return delays[i] < delays[j] })
	return delays
}

func TestMemoryStore_ConcurrentReservations(t *testing.T) {
	const interval = 200 * time.Millisecond
	shared := NewMemoryStore()

	delays := reserveConcurrently(t, 8, interval, func() StateStore { return shared })
	for i, d := range delays {
		if want := time.Duration(i) * interval; d != want {
			t.Errorf("delays[%d] = %v, want %v", i, d, want)
		}
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	m, rc := setupMiniredis(t)
	ctx := context.Background()
	store := NewRedisStore(rc, "canonical", time.Minute)

	last, err := store.LastRequest(ctx)
	if err != nil {
		t.Fatalf("LastRequest() error = %v", err)
	}
	if !last.IsZero() {
		t.Errorf("missing key LastRequest() = %v, want zero", last)
	}

	now := time.Date(2016, 1, 2, 3, 4, 5, 6000, time.UTC)
	m.SetTime(now)

	delay, err := store.Reserve(ctx, time.Time{}, time.Second)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if delay != 0 {
		t.Errorf("first Reserve() = %v, want 0", delay)
	}

	last, err = store.LastRequest(ctx)
	if err != nil {
		t.Fatalf("LastRequest() error = %v", err)
	}
	if !last.Equal(now) {
		t.Errorf("LastRequest() = %v, want %v", last, now)
	}

	if !m.Exists(store.Key()) {
		t.Errorf("key %q not written", store.Key())
	}
	if ttl := m.TTL(store.Key()); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}
}

func TestRedisStore_TTLCoversQueuedSlot(t *testing.T) {
	m, rc := setupMiniredis(t)
	ctx := context.Background()
	m.SetTime(time.Date(2016, 1, 2, 3, 4, 5, 0, time.UTC))
	store := NewRedisStore(rc, "canonical", time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := store.Reserve(ctx, time.Time{}, time.Second); err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
	}

	// The third slot lies 2s ahead, so the key must outlive it by the ttl.
	if ttl := m.TTL(store.Key()); ttl != time.Minute+2*time.Second {
		t.Errorf("TTL = %v, want 1m2s", ttl)
	}
}

func TestRedisStore_ExpiredStateDoesNotDelay(t *testing.T) {
	m, rc := setupMiniredis(t)
	ctx := context.Background()
	store := NewRedisStore(rc, "canonical", time.Second)

	if _, err := store.Reserve(ctx, time.Time{}, time.Second); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	m.FastForward(2 * time.Second)

	last, err := store.LastRequest(ctx)
	if err != nil {
		t.Fatalf("LastRequest() error = %v", err)
	}
	if !last.IsZero() {
		t.Errorf("expired LastRequest() = %v, want zero", last)
	}
}

func TestRedisStore_SharedBetweenPacers(t *testing.T) {
	m, rc := setupMiniredis(t)
	ctx := context.Background()
	clock := newFakeClock()
	m.SetTime(clock.Now())

	first := NewPacer(time.Second, NewRedisStore(rc, "canonical", 0), zerolog.Nop(),
		WithClock(clock.Now), WithSleeper(clock.Sleep))
	second := NewPacer(time.Second, NewRedisStore(rc, "canonical", 0), zerolog.Nop(),
		WithClock(clock.Now), WithSleeper(clock.Sleep))

	if err := first.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	if err := second.Wait(ctx); err != nil {
		t.Fatalf("second Wait() error = %v", err)
	}

	if len(clock.sleeps) != 1 || clock.sleeps[0] != time.Second {
		t.Errorf("sleeps = %v, want [1s]", clock.sleeps)
	}
}

func TestRedisStore_ConcurrentProcessesGetDistinctSlots(t *testing.T) {
	m, rc := setupMiniredis(t)
	m.SetTime(time.Date(2015, 4, 1, 9, 30, 0, 0, time.UTC))
	const interval = 200 * time.Millisecond

	delays := reserveConcurrently(t, 8, interval, func() StateStore {
		return NewRedisStore(rc, "canonical", 0)
	})

	if len(delays) != 8 {
		t.Fatalf("got %d reservations, want 8", len(delays))
	}
	for i, d := range delays {
		if want := time.Duration(i) * interval; d != want {
			t.Errorf("delays[%d] = %v, want %v", i, d, want)
		}
	}
}

func TestRedisStore_ConcurrentPacersSleepDistinctDelays(t *testing.T) {
	m, rc := setupMiniredis(t)
	m.SetTime(time.Date(2015, 4, 1, 9, 30, 0, 0, time.UTC))
	const interval = 200 * time.Millisecond

	var (
		mu     sync.Mutex
		sleeps []time.Duration
		wg     sync.WaitGroup
	)
	record := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		sleeps = append(sleeps, d)
		return nil
	}

	for i := 0; i < 4; i++ {
		pacer := NewPacer(interval, NewRedisStore(rc, "canonical", 0), zerolog.Nop(), WithSleeper(record))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pacer.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error = %v", err)
			}
		}()
	}
	wg.Wait()

	// The first slot is free, the rest queue behind it.
	sort.Slice(sleeps, func(i, j int) bool { return sleeps[i] < sleeps[j] })
	want := []time.Duration{interval, 2 * interval, 3 * interval}
	if len(sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", sleeps, want)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("sleeps[%d] = %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	m, rc := setupMiniredis(t)
	m.Close()

	store := NewRedisStore(rc, "canonical", 0)
	if _, err := store.LastRequest(context.Background()); err == nil {
		t.Error("Expected error when Redis is unavailable")
	}
	if _, err := store.Reserve(context.Background(), time.Now(), time.Second); err == nil {
		t.Error("Expected Reserve error when Redis is unavailable")
	}
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil, "canonical", 0)
}
