package ingest

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// retryConfig holds the parameters for the fetch retry strategy.
type retryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func defaultRetry() retryConfig {
	return retryConfig{MaxAttempts: 3, BaseDelay: 2 * time.Second}
}

// do executes fn with exponential back-off and jitter. The jitter keeps
// concurrent workers from hammering a recovering endpoint in lockstep.
func (r retryConfig) do(ctx context.Context, logger *zap.Logger, operation string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < r.MaxAttempts {
			wait := delay + time.Duration(rand.Int63n(int64(delay/2)+1))
			logger.Warn("fetch failed, retrying",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.MaxAttempts),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return lastErr
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, r.MaxAttempts, lastErr)
}
