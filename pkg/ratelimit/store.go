package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore holds the pacing state of a connection.
type StateStore interface {
	// LastRequest returns the most recently reserved request time, or the
	// zero time if none.
	LastRequest(ctx context.Context) (time.Time, error)

	// Reserve atomically claims the next request slot, at least interval
	// after the previous one, and returns how long the caller must wait
	// before starting its request. now is the caller's clock; stores with
	// a clock of their own may use that instead.
	Reserve(ctx context.Context, now time.Time, interval time.Duration) (time.Duration, error)
}

// MemoryStore keeps pacing state for the lifetime of the process.
type MemoryStore struct {
	mu   sync.Mutex
	last time.Time
}

// NewMemoryStore returns an empty store; the first request is not delayed.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LastRequest implements StateStore.
func (m *MemoryStore) LastRequest(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

// Reserve implements StateStore.
func (m *MemoryStore) Reserve(_ context.Context, now time.Time, interval time.Duration) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delay := State{LastRequest: m.last, Interval: interval}.DelayAt(now)
	m.last = now.Add(delay)
	return delay, nil
}

// reserveScript claims the next slot in Redis server time (microseconds).
// KEYS[1] = state key, ARGV[1] = interval (us), ARGV[2] = ttl (ms, 0 = none).
// Returns the wait in microseconds.
var reserveScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000000 + tonumber(t[2])
local slot = now
local last = redis.call('GET', KEYS[1])
if last then
	local nextAllowed = tonumber(last) + tonumber(ARGV[1])
	if nextAllowed > slot then
		slot = nextAllowed
	end
end
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	local px = ttl + math.ceil((slot - now) / 1000)
	redis.call('SET', KEYS[1], string.format('%d', slot), 'PX', string.format('%d', px))
else
	redis.call('SET', KEYS[1], string.format('%d', slot))
end
return slot - now
`)

// RedisStore shares pacing state between processes talking to the same
// account. Slots are reserved by a Lua script against the Redis clock, so
// concurrent callers on different hosts never receive the same slot.
type RedisStore struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store for scope. The state expires ttl
// after the last reserved slot, since an expired slot can no longer delay
// anything; 0 disables expiry.
func NewRedisStore(redisClient *redis.Client, scope string, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   RedisKey(scope),
		ttl:   ttl,
	}
}

// Key returns the Redis key the store writes to.
func (s *RedisStore) Key() string {
	return s.key
}

// LastRequest implements StateStore.
func (s *RedisStore) LastRequest(ctx context.Context) (time.Time, error) {
	micros, err := s.redis.Get(ctx, s.key).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return time.UnixMicro(micros), nil
}

// Reserve implements StateStore. now is ignored in favour of the Redis
// server clock, which all sharing processes agree on.
func (s *RedisStore) Reserve(ctx context.Context, _ time.Time, interval time.Duration) (time.Duration, error) {
	waitMicros, err := reserveScript.Run(ctx, s.redis, []string{s.key},
		ceilMicros(interval), s.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis reserve %s: %w", s.key, err)
	}
	return time.Duration(waitMicros) * time.Microsecond, nil
}

func ceilMicros(d time.Duration) int64 {
	return int64((d + time.Microsecond - 1) / time.Microsecond)
}
