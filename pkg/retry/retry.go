// Package retry provides a bounded retry policy parameterized by a
// failure classifier, shared by every call site that talks to a backend.
package retry

import (
	"context"
	"time"
)

// Policy describes how often and on which errors an operation is retried.
// Retries is the number of attempts after the first one.
type Policy struct {
	Retries   int
	Backoff   time.Duration
	Retryable func(error) bool
}

// Do runs fn, retrying it according to the policy. It returns the first
// success, the first non-retryable error, or the last error once the
// attempts are exhausted.
func Do(ctx context.Context, p Policy, fn func() error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if !retryable(lastErr) || attempt == p.Retries {
			return lastErr
		}

		if p.Backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Backoff):
			}
		}
	}
	return lastErr
}
