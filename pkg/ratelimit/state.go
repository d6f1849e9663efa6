// Package ratelimit paces outbound LeanKit requests so that no two requests
// on one connection begin less than a minimum interval apart.
package ratelimit

import (
	"fmt"
	"time"
)

// RedisKeyPrefix prefixes the Redis key holding the last-request timestamp.
const RedisKeyPrefix = "leankit:pacer"

// RedisKey returns the Redis key for the pacing state of a scope (usually the account).
func RedisKey(scope string) string {
	return fmt.Sprintf("%s:%s:last_request", RedisKeyPrefix, scope)
}

// State is the pacing state of one connection.
type State struct {
	// LastRequest is when the previous request was initiated.
	// The zero value means no request has been made yet.
	LastRequest time.Time

	// Interval is the minimum gap between request initiations.
	Interval time.Duration
}

// NextAllowed returns the earliest time the next request may begin.
func (s State) NextAllowed() time.Time {
	if s.LastRequest.IsZero() {
		return time.Time{}
	}
	return s.LastRequest.Add(s.Interval)
}

// DelayAt returns how long a request issued at now must wait.
// Returns 0 if the interval has already elapsed.
func (s State) DelayAt(now time.Time) time.Duration {
	if s.LastRequest.IsZero() {
		return 0
	}
	delay := s.NextAllowed().Sub(now)
	if delay < 0 {
		return 0
	}
	return delay
}
