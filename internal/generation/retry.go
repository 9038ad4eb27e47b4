package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// defaultRetryDelay is used when a RetryPolicy has no base delay.
const defaultRetryDelay = 500 * time.Millisecond

// RetryPolicy bounds the retries of transient backend failures within a
// single model call.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// WithRetry calls fn until it succeeds, fails permanently or the policy is
// exhausted. Only errors wrapping ErrTransientFailure are retried, and never
// once ctx is done: a call that ran out of time moves on to the next fallback
// instead.
func WithRetry(
	ctx context.Context,
	policy RetryPolicy,
	logger *slog.Logger,
	fn func(context.Context) (string, error),
) (string, error) {
	base := policy.BaseDelay
	if base <= 0 {
		base = defaultRetryDelay
	}

	for attempt := 0; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrTransientFailure) || ctx.Err() != nil || attempt >= policy.MaxRetries {
			return "", err
		}

		// delay = base * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(base) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rand.Float64()*0.5))

		logger.InfoContext(ctx, "Retrying model call after delay",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrTransientFailure, ctx.Err())
		}
	}
}
