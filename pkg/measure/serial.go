package measure

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Serial lets one measurement run at a time. The host that renders text is
// a single exclusive resource; every call against it goes through here.
type Serial struct {
	inner Measurer
	sem   *semaphore.Weighted
}

// NewSerial wraps inner with its own exclusive lock.
func NewSerial(inner Measurer) *Serial {
	return NewSerialShared(inner, semaphore.NewWeighted(1))
}

// NewSerialShared wraps inner with a lock shared with other users of the
// same host, such as the realizer.
func NewSerialShared(inner Measurer, sem *semaphore.Weighted) *Serial {
	return &Serial{inner: inner, sem: sem}
}

// Measure waits for the host and measures. It returns ctx.Err() if the
// context ends while waiting.
func (s *Serial) Measure(ctx context.Context, req Request) (Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer s.sem.Release(1)
	return s.inner.Measure(ctx, req)
}
