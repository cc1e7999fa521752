package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBackend marks a failure talking to a remote cache.
	ErrBackend = errors.New("cache backend error")

	// ErrCorrupt marks a stored value that no longer decodes.
	ErrCorrupt = errors.New("corrupt cache entry")
)

// transient marks an error worth retrying.
type transient struct{ err error }

func (t transient) Error() string { return t.err.Error() }
func (t transient) Unwrap() error { return t.err }

// Retryable marks err as transient. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return transient{err}
}

// IsRetryable reports whether err or anything it wraps was marked by
// Retryable.
func IsRetryable(err error) bool {
	var t transient
	return errors.As(err, &t)
}

// Backoff retries transient failures with a doubling delay.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is used by the Redis backend: three attempts, waiting 200ms
// then 400ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 200 * time.Millisecond}

// Do runs fn until it succeeds, fails with an error not marked Retryable, or
// runs out of attempts. It returns ctx's error if ctx ends while waiting.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || attempt >= b.Attempts || !IsRetryable(err) {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}

// RetryWithBackoff runs fn under DefaultBackoff.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Do(ctx, fn)
}
