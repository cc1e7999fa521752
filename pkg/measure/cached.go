package measure

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slotfit/pkg/cache"
	"github.com/matzehuels/slotfit/pkg/observability"
	"github.com/matzehuels/slotfit/pkg/style"
)

// Key identifies a measurement within one inventory. Slot geometry is not
// part of the key, so a Cached measurer must not outlive its inventory.
type Key struct {
	NoteID  string
	SlotID  string
	Part    Part
	Profile style.Profile
	Span    int
}

// KeyOf returns the memo key of req.
func KeyOf(req Request) Key {
	return Key{NoteID: req.NoteID, SlotID: req.SlotID, Part: req.Part, Profile: req.Profile, Span: req.Span}
}

// CacheOptions configure persistence for Cached.
type CacheOptions struct {
	// Store persists results across runs. Nil or a NullCache keeps results
	// in memory only.
	Store cache.Cache
	// Keyer builds persistent keys. Defaults to cache.NewDefaultKeyer.
	Keyer cache.Keyer
	// Scope is the inventory geometry hash; persisted keys are prefixed with
	// it so different geometries never share entries.
	Scope string
	// Variant distinguishes measurer stacks (e.g. "capacity" vs "typeset"
	// and their relaxation bounds).
	Variant string
	// TTL for persisted entries. Zero uses cache.MeasureTTL.
	TTL time.Duration
	// Logger receives cache read/write failures. Defaults to discarding.
	Logger *log.Logger
}

// Cached memoises measurements by [Key]. Errors are never cached.
type Cached struct {
	inner Measurer
	opts  CacheOptions
	keyer cache.Keyer

	mu    sync.Mutex
	memo  map[Key]Result
	hits  int
	calls int
}

// NewCached wraps inner. Use one Cached per inventory.
func NewCached(inner Measurer, opts CacheOptions) *Cached {
	if opts.TTL == 0 {
		opts.TTL = cache.MeasureTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if opts.Scope != "" {
		keyer = cache.GeometryKeyer(keyer, opts.Scope)
	}
	return &Cached{inner: inner, opts: opts, keyer: keyer, memo: make(map[Key]Result)}
}

// Measure returns the memoised result for req, measuring on a miss.
func (c *Cached) Measure(ctx context.Context, req Request) (Result, error) {
	key := KeyOf(req)

	c.mu.Lock()
	c.calls++
	if r, ok := c.memo[key]; ok {
		c.hits++
		c.mu.Unlock()
		observability.Cache().OnCacheHit(ctx, "measure")
		return r, nil
	}
	c.mu.Unlock()

	pkey := ""
	if cache.Enabled(c.opts.Store) {
		pkey = c.persistentKey(req)
		if r, ok := c.load(ctx, pkey); ok {
			c.remember(key, r, true)
			observability.Cache().OnCacheHit(ctx, "measure")
			return r, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "measure")

	start := time.Now()
	r, err := c.inner.Measure(ctx, req)
	observability.Measure().OnMeasure(ctx, string(req.Part), r.Overflow, time.Since(start), err)
	if err != nil {
		return Result{}, err
	}
	c.remember(key, r, false)

	if pkey != "" {
		c.store(ctx, pkey, r)
	}
	return r, nil
}

// Stats returns how many calls were answered and how many were hits.
func (c *Cached) Stats() (calls, hits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls, c.hits
}

func (c *Cached) remember(key Key, r Result, hit bool) {
	c.mu.Lock()
	c.memo[key] = r
	if hit {
		c.hits++
	}
	c.mu.Unlock()
}

func (c *Cached) persistentKey(req Request) string {
	return c.keyer.MeasureKey(cache.MeasureKeyOpts{
		NoteID:      req.NoteID,
		SlotID:      req.SlotID,
		Part:        string(req.Part),
		Body:        req.Profile.Body,
		Title:       req.Profile.Title,
		Span:        req.Span,
		ContentHash: cache.Hash([]byte(fmt.Sprintf("%s\x00%s", req.Title, req.Body))),
		Relax:       c.opts.Variant,
	})
}

func (c *Cached) load(ctx context.Context, key string) (Result, bool) {
	var r Result
	ok, err := cache.GetJSON(ctx, c.opts.Store, key, &r)
	if err != nil {
		c.opts.Logger.Debug("measure cache read failed", "error", err)
		return Result{}, false
	}
	return r, ok
}

func (c *Cached) store(ctx context.Context, key string, r Result) {
	n, err := cache.SetJSON(ctx, c.opts.Store, key, r, c.opts.TTL)
	if err != nil {
		c.opts.Logger.Debug("measure cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "measure", n)
}
