package ratelimit

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrRateLimited is returned when the request budget is exhausted.
var ErrRateLimited = errors.New("github rate limit exhausted")

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gitnotes_github_rate_limit_remaining",
		Help: "Requests remaining in the current GitHub rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gitnotes_github_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the rate limit was exhausted",
	})
)

// Tracker monitors GitHub rate limits and gates requests.
type Tracker struct {
	mu     sync.RWMutex
	state  *RateLimitState
	now    func() time.Time
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		now:    time.Now,
		logger: logger,
	}
}

// GetState returns a copy of the current state.
// Before the first response it reports a healthy default.
func (t *Tracker) GetState() RateLimitState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.state == nil {
		return RateLimitState{
			Limit:      60,
			Remaining:  60,
			ResetAt:    t.now().Add(time.Hour),
			LastUpdate: t.now(),
		}
	}
	return *t.state
}

// UpdateFromHeaders parses GitHub rate limit headers.
// Responses without rate limit headers (e.g., raw file content) are ignored.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}
	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	limit, _ := strconv.Atoi(headers.Get(HeaderLimit))

	state := &RateLimitState{
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    time.Unix(resetEpoch, 0),
		Resource:   headers.Get(HeaderResource),
		LastUpdate: t.now(),
	}
	state.UpdateHealth()

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	rateLimitRemaining.Set(float64(remain))

	switch {
	case state.Remaining <= 0:
		t.logger.Error().
			Time("reset_at", state.ResetAt).
			Str("resource", state.Resource).
			Msg("GitHub rate limit exhausted - requests will be blocked")
	case state.NeedsWarning():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("GitHub rate limit low")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Bool("is_healthy", state.IsHealthy).
			Msg("GitHub rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now.
// It returns false while the budget is exhausted and the window has not reset.
func (t *Tracker) ShouldAllowRequest() bool {
	state := t.GetState()

	if state.IsExhausted(t.now()) {
		t.logger.Warn().
			Dur("wait_duration", state.ResetAt.Sub(t.now())).
			Msg("GitHub rate limit exhausted - blocking request")
		rateLimitBlocksTotal.Inc()
		return false
	}

	return true
}
