package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that turn a miss into an error.
var ErrCacheMiss = errors.New("cache miss")

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryDelay is the wait before the first retry; it doubles per attempt.
var RetryDelay = 100 * time.Millisecond

// RetryWithBackoff retries fn up to 3 times with exponential backoff.
// Only errors wrapped with Retryable trigger retries; the wrapper is
// stripped from the returned error.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := RetryDelay
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	var re *RetryableError
	if errors.As(lastErr, &re) {
		return re.Err
	}
	return lastErr
}
