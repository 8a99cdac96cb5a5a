// Package ratelimit tracks the GitHub REST API request budget.
// It reads the X-RateLimit-Remaining and X-RateLimit-Reset headers of every
// response and gates requests while the budget is exhausted.
package ratelimit

import (
	"time"
)

// GitHub rate limit response headers.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderResource  = "X-RateLimit-Resource"
)

// Thresholds for rate limit decisions.
const (
	// ThresholdWarning logs a warning when remaining requests fall below this value.
	ThresholdWarning = 10

	// ThresholdHealthy indicates normal operation.
	ThresholdHealthy = 100
)

// RateLimitState represents the last known GitHub rate limit state.
type RateLimitState struct {
	// Limit is the request budget of the current window (X-RateLimit-Limit).
	Limit int `json:"limit"`

	// Remaining is the number of requests left (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (X-RateLimit-Reset, epoch seconds).
	ResetAt time.Time `json:"reset_at"`

	// Resource is the rate limit bucket (e.g., "core").
	Resource string `json:"resource"`

	// LastUpdate is the timestamp when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy indicates Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsExhausted returns true if no requests remain before ResetAt.
func (s *RateLimitState) IsExhausted(now time.Time) bool {
	return s.Remaining <= 0 && now.Before(s.ResetAt)
}

// NeedsWarning returns true if the budget is low but not exhausted.
func (s *RateLimitState) NeedsWarning() bool {
	return s.Remaining > 0 && s.Remaining < ThresholdWarning
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
