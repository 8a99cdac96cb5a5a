package cache

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

const (
	backoffMultiplier = 2.0
	maxBackoff        = 30 * time.Second
)

// retryWithBackoff runs fn once plus policy.Retries more times on failure,
// waiting an exponentially growing, jittered delay between attempts.
func retryWithBackoff(ctx context.Context, logger zerolog.Logger, family Family, policy Policy, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	attempts := policy.Retries + 1
	backoff := policy.RetryDelay
	if backoff <= 0 {
		backoff = DefaultRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("family", string(family)).
					Int("attempt", attempt).
					Msg("Fetch succeeded after retry")
			}
			return data, nil
		}
		lastErr = err

		if attempt >= attempts {
			break
		}

		FetchRetries.WithLabelValues(string(family)).Inc()

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))

		logger.Debug().
			Err(err).
			Str("family", string(family)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying fetch after backoff")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * backoffMultiplier)
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return nil, lastErr
}
