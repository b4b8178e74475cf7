package core

import (
	"context"
	"errors"
	"net"
	"time"
)

var (
	ErrMalformedInput = errors.New("malformed document input")
	ErrNotFound       = errors.New("object not found")
	ErrConfig         = errors.New("configuration error")
)

// TransientError marks a failure the coordinator may retry. RetryAfter is a
// hint from the remote service (rate limits); zero means use the policy curve.
type TransientError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so IsTransient reports it retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// TransientAfter wraps err with a server-provided retry hint.
func TransientAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err, RetryAfter: after}
}

// IsTransient reports whether err is retryable and any retry-after hint.
// Deadline expiry and network timeouts count as transient; cancellation,
// malformed input, and configuration defects never do.
func IsTransient(err error) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}
	if errors.Is(err, context.Canceled) {
		return false, 0
	}
	if errors.Is(err, ErrMalformedInput) || errors.Is(err, ErrConfig) || errors.Is(err, ErrNotFound) {
		return false, 0
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true, te.RetryAfter
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, 0
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true, 0
	}
	return false, 0
}
