package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}

	t.Run("transient errors are retried", func(t *testing.T) {
		t.Parallel()
		calls := 0
		out, err := WithRetry(context.Background(), policy, logger, func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", ErrTransientFailure
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, 3, calls)
	})

	t.Run("retries are bounded", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := WithRetry(context.Background(), policy, logger, func(context.Context) (string, error) {
			calls++
			return "", ErrTransientFailure
		})
		assert.ErrorIs(t, err, ErrTransientFailure)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors are returned at once", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := WithRetry(context.Background(), policy, logger, func(context.Context) (string, error) {
			calls++
			return "", ErrContentBlocked
		})
		assert.ErrorIs(t, err, ErrContentBlocked)
		assert.Equal(t, 1, calls)
	})

	t.Run("no retry after the deadline", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := WithRetry(ctx, policy, logger, func(context.Context) (string, error) {
			calls++
			cancel()
			return "", errors.Join(ErrTransientFailure, context.Canceled)
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
