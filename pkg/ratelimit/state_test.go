package ratelimit

import (
	"testing"
	"time"
)

func TestRateLimitState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *RateLimitState
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh state",
			state:    &RateLimitState{LastUpdate: time.Now()},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name:     "stale state",
			state:    &RateLimitState{LastUpdate: time.Now().Add(-10 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRateLimitState_IsExhausted(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		state    RateLimitState
		expected bool
	}{
		{"budget left", RateLimitState{Remaining: 10, ResetAt: now.Add(time.Hour)}, false},
		{"exhausted", RateLimitState{Remaining: 0, ResetAt: now.Add(time.Minute)}, true},
		{"exhausted but window reset", RateLimitState{Remaining: 0, ResetAt: now.Add(-time.Second)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsExhausted(now); got != tt.expected {
				t.Errorf("IsExhausted() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRateLimitState_Thresholds(t *testing.T) {
	s := &RateLimitState{Remaining: 5}
	if !s.NeedsWarning() {
		t.Error("5 remaining should warn")
	}
	s.UpdateHealth()
	if s.IsHealthy {
		t.Error("5 remaining should not be healthy")
	}

	s.Remaining = 4000
	s.UpdateHealth()
	if !s.IsHealthy || s.NeedsWarning() {
		t.Error("4000 remaining should be healthy without warning")
	}
}

func TestRateLimitState_TimeUntilReset(t *testing.T) {
	past := &RateLimitState{ResetAt: time.Now().Add(-time.Minute)}
	if d := past.TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0", d)
	}

	future := &RateLimitState{ResetAt: time.Now().Add(time.Minute)}
	if d := future.TimeUntilReset(); d <= 0 || d > time.Minute {
		t.Errorf("TimeUntilReset() = %v", d)
	}
}
