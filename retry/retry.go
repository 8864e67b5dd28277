// Package retry runs operations with capped exponential backoff.
package retry

import (
	"context"
	"time"
)

// Policy configures retry attempts and backoff.
type Policy struct {
	MaxRetries int
	Backoff    time.Duration
	BackoffMax time.Duration
}

// Delay returns the wait before retry number attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := p.Backoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := p.BackoffMax; max > 0 && (delay > max || delay <= 0) {
		delay = max
	}
	return delay
}

// Do calls fn until it succeeds, retryable reports false, retries run out or
// ctx is done. onRetry, if set, is called before each wait. The last error
// from fn is returned; a cancelled context returns ctx.Err() only when fn
// never ran.
func Do(ctx context.Context, p Policy, fn func(attempt int) error, retryable func(error) bool, onRetry func(attempt int, delay time.Duration, err error)) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt >= p.MaxRetries || (retryable != nil && !retryable(lastErr)) {
			return lastErr
		}

		delay := p.Delay(attempt + 1)
		if onRetry != nil {
			onRetry(attempt+1, delay, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
}
