package core

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetryPolicy is the single place retry-vs-fail gets decided. Backoff is
// exponential from BaseDelay, capped at MaxDelay. A non-transient error stops
// the loop immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    15 * time.Second,
	}
}

// Backoff returns the delay before the given retry. attempt is zero-based:
// the delay after the first failure is Backoff(0).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.BaseDelay << uint(attempt)
	if d <= 0 || d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn up to MaxAttempts times. Transient failures sleep on the backoff
// curve (or the service's retry-after hint, whichever is longer); anything
// else escalates on the spot.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		retryable, hint := IsTransient(err)
		if !retryable {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.Backoff(attempt)
		if hint > delay {
			delay = hint
		}
		log.Printf("[Retry] %s attempt %d/%d failed, retrying in %s: %v", op, attempt+1, attempts, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
}
