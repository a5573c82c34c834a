package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks failures to reach a cache backend.
var ErrNetwork = errors.New("network error")

// RetryableError marks a transient failure that [RetryWithBackoff] retries.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err, or an error it wraps, was marked with
// [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// backoff is the retry schedule of backend connections: three attempts,
// waiting one second and then two.
var backoff = struct {
	attempts int
	first    time.Duration
}{3, time.Second}

// RetryWithBackoff calls fn until it succeeds, fails with an error not
// marked [Retryable], or runs out of attempts. It returns the last error, or
// ctx.Err() when ctx ends during a wait.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	wait := backoff.first
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == backoff.attempts {
			return err
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}
