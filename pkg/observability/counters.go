package observability

import (
	"context"
	"sync"
	"time"
)

// Counters is an in-memory hooks implementation that tallies events.
// The CLI registers one to print run statistics.
type Counters struct {
	mu           sync.Mutex
	s            Stats
	lastExpanded int
}

// Stats is a snapshot of Counters.
type Stats struct {
	Pages         int
	Measurements  int
	MeasureErrors int
	MeasureTime   time.Duration
	Expanded      int
	CacheHits     map[string]int
	CacheMisses   map[string]int
	Warnings      int
	Requests      int
}

// NewCounters creates zeroed counters.
func NewCounters() *Counters {
	return &Counters{s: Stats{CacheHits: map[string]int{}, CacheMisses: map[string]int{}}}
}

// Snapshot returns a copy of the current counts.
func (c *Counters) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.s
	out.CacheHits = make(map[string]int, len(c.s.CacheHits))
	for k, v := range c.s.CacheHits {
		out.CacheHits[k] = v
	}
	out.CacheMisses = make(map[string]int, len(c.s.CacheMisses))
	for k, v := range c.s.CacheMisses {
		out.CacheMisses[k] = v
	}
	return out
}

func (c *Counters) OnSolveStart(context.Context, string, int, int) {}

func (c *Counters) OnSolveComplete(context.Context, string, int, time.Duration, error) {
	c.mu.Lock()
	c.s.Pages++
	c.mu.Unlock()
}

func (c *Counters) OnRealizeComplete(_ context.Context, _ string, warnings int, _ time.Duration, _ error) {
	c.mu.Lock()
	c.s.Warnings += warnings
	c.mu.Unlock()
}

func (c *Counters) OnMeasure(_ context.Context, _ string, _ int, d time.Duration, err error) {
	c.mu.Lock()
	c.s.Measurements++
	c.s.MeasureTime += d
	if err != nil {
		c.s.MeasureErrors++
	}
	c.mu.Unlock()
}

// OnExpand adds the expansions since the previous report. A count lower
// than the previous one starts a new search.
func (c *Counters) OnExpand(_ context.Context, _ string, expanded, _ int) {
	c.mu.Lock()
	if expanded >= c.lastExpanded {
		c.s.Expanded += expanded - c.lastExpanded
	} else {
		c.s.Expanded += expanded
	}
	c.lastExpanded = expanded
	c.mu.Unlock()
}

func (c *Counters) OnCacheHit(_ context.Context, keyType string) {
	c.mu.Lock()
	c.s.CacheHits[keyType]++
	c.mu.Unlock()
}

func (c *Counters) OnCacheMiss(_ context.Context, keyType string) {
	c.mu.Lock()
	c.s.CacheMisses[keyType]++
	c.mu.Unlock()
}

func (c *Counters) OnCacheSet(context.Context, string, int) {}

func (c *Counters) OnResponse(context.Context, string, string, int, time.Duration) {
	c.mu.Lock()
	c.s.Requests++
	c.mu.Unlock()
}

var (
	_ PipelineHooks = (*Counters)(nil)
	_ MeasureHooks  = (*Counters)(nil)
	_ CacheHooks    = (*Counters)(nil)
	_ HTTPHooks     = (*Counters)(nil)
)
