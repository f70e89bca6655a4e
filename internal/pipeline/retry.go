package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/gedgest/internal/pathstore"
)

const MaxRetries = 3

// IsRetryable checks if an export error is worth retrying.
func IsRetryable(err error) bool {
	var statusErr *pathstore.StatusError
	return errors.As(err, &statusErr) && statusErr.Temporary()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// withRetry runs op up to MaxRetries times while it fails with a retryable
// error.
func withRetry(ctx context.Context, backoff func(int) time.Duration, op func() error) error {
	var err error
	for attempt := range MaxRetries {
		err = op()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
