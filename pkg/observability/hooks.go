// Package observability lets a host process watch a slotfit run without the
// libraries depending on any metrics or tracing backend.
//
// Libraries emit events through the package-level accessors:
//
//	observability.Pipeline().OnSolveStart(ctx, inv.Key(), len(notes), inv.Len())
//	observability.Cache().OnCacheHit(ctx, "measure")
//
// Until a binary registers something, every accessor returns a no-op. The CLI
// registers a [Counters] for the duration of a solve:
//
//	stats := observability.NewCounters()
//	defer observability.Register(stats)()
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives per-inventory events from the pipeline runner and
// the realizer.
type PipelineHooks interface {
	OnSolveStart(ctx context.Context, pageKey string, notes, slots int)
	OnSolveComplete(ctx context.Context, pageKey string, overflow int, duration time.Duration, err error)
	OnRealizeComplete(ctx context.Context, pageKey string, warnings int, duration time.Duration, err error)
}

// MeasureHooks receives events from measurement and search.
type MeasureHooks interface {
	// OnMeasure fires once per measurement that missed every cache. part is
	// "body", "title" or "photo".
	OnMeasure(ctx context.Context, part string, overflow int, duration time.Duration, err error)

	// OnExpand reports the running expansion count of one search.
	OnExpand(ctx context.Context, strategy string, expanded, frontier int)
}

// CacheHooks receives measure and plan cache traffic. keyType is "measure"
// or "plan".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives one event per API response. path is the route pattern.
type HTTPHooks interface {
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnSolveStart(context.Context, string, int, int)                       {}
func (NoopPipelineHooks) OnSolveComplete(context.Context, string, int, time.Duration, error)   {}
func (NoopPipelineHooks) OnRealizeComplete(context.Context, string, int, time.Duration, error) {}

type NoopMeasureHooks struct{}

func (NoopMeasureHooks) OnMeasure(context.Context, string, int, time.Duration, error) {}
func (NoopMeasureHooks) OnExpand(context.Context, string, int, int)                   {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// hook holds one registered implementation, falling back to noop.
type hook[T any] struct {
	cur  atomic.Pointer[T]
	noop T
}

func (h *hook[T]) get() T {
	if p := h.cur.Load(); p != nil {
		return *p
	}
	return h.noop
}

// set installs v and returns the previous value. A nil v restores the no-op.
func (h *hook[T]) set(v T) T {
	prev := h.get()
	if any(v) == nil {
		h.cur.Store(nil)
	} else {
		h.cur.Store(&v)
	}
	return prev
}

var (
	pipelineHooks = &hook[PipelineHooks]{noop: NoopPipelineHooks{}}
	measureHooks  = &hook[MeasureHooks]{noop: NoopMeasureHooks{}}
	cacheHooks    = &hook[CacheHooks]{noop: NoopCacheHooks{}}
	httpHooks     = &hook[HTTPHooks]{noop: NoopHTTPHooks{}}
)

func SetPipelineHooks(h PipelineHooks) { pipelineHooks.set(h) }
func SetMeasureHooks(h MeasureHooks)   { measureHooks.set(h) }
func SetCacheHooks(h CacheHooks)       { cacheHooks.set(h) }
func SetHTTPHooks(h HTTPHooks)         { httpHooks.set(h) }

func Pipeline() PipelineHooks { return pipelineHooks.get() }
func Measure() MeasureHooks   { return measureHooks.get() }
func Cache() CacheHooks       { return cacheHooks.get() }
func HTTP() HTTPHooks         { return httpHooks.get() }

// Register installs h for every hook interface it implements and returns a
// function that puts the previous hooks back.
func Register(h any) (restore func()) {
	var undo []func()
	if v, ok := h.(PipelineHooks); ok {
		prev := pipelineHooks.set(v)
		undo = append(undo, func() { pipelineHooks.set(prev) })
	}
	if v, ok := h.(MeasureHooks); ok {
		prev := measureHooks.set(v)
		undo = append(undo, func() { measureHooks.set(prev) })
	}
	if v, ok := h.(CacheHooks); ok {
		prev := cacheHooks.set(v)
		undo = append(undo, func() { cacheHooks.set(prev) })
	}
	if v, ok := h.(HTTPHooks); ok {
		prev := httpHooks.set(v)
		undo = append(undo, func() { httpHooks.set(prev) })
	}
	return func() {
		for _, f := range undo {
			f()
		}
	}
}

// Reset restores every no-op.
func Reset() {
	pipelineHooks.set(nil)
	measureHooks.set(nil)
	cacheHooks.set(nil)
	httpHooks.set(nil)
}
