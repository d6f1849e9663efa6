package ratelimit

import (
	"testing"
	"time"
)

func TestState_DelayAt(t *testing.T) {
	base := time.Date(2015, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		state    State
		now      time.Time
		expected time.Duration
	}{
		{
			name:     "no previous request",
			state:    State{Interval: time.Second},
			now:      base,
			expected: 0,
		},
		{
			name:     "interval not yet elapsed",
			state:    State{LastRequest: base, Interval: time.Second},
			now:      base.Add(300 * time.Millisecond),
			expected: 700 * time.Millisecond,
		},
		{
			name:     "interval exactly elapsed",
			state:    State{LastRequest: base, Interval: time.Second},
			now:      base.Add(time.Second),
			expected: 0,
		},
		{
			name:     "interval long past",
			state:    State{LastRequest: base, Interval: time.Second},
			now:      base.Add(time.Hour),
			expected: 0,
		},
		{
			name:     "zero interval",
			state:    State{LastRequest: base},
			now:      base,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.DelayAt(tt.now); got != tt.expected {
				t.Errorf("DelayAt() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_NextAllowed(t *testing.T) {
	base := time.Date(2015, 4, 1, 12, 0, 0, 0, time.UTC)

	s := State{LastRequest: base, Interval: 2 * time.Second}
	if got := s.NextAllowed(); !got.Equal(base.Add(2 * time.Second)) {
		t.Errorf("NextAllowed() = %v, want %v", got, base.Add(2*time.Second))
	}

	if got := (State{Interval: time.Second}).NextAllowed(); !got.IsZero() {
		t.Errorf("NextAllowed() without previous request = %v, want zero time", got)
	}
}

func TestRedisKey(t *testing.T) {
	if got := RedisKey("canonical"); got != "leankit:pacer:canonical:last_request" {
		t.Errorf("RedisKey() = %q", got)
	}
}
