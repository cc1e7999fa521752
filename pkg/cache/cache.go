// Package cache provides the key/value caches behind measurement and plan
// reuse.
//
// Measurements are the expensive part of a solve: every option the solver
// ranks costs one or two text layouts. Caching them across runs makes
// re-solving a page after a small edit cheap. Whole page plans are cached
// too, keyed by a hash of their inputs.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [MemoryCache]: in-process map, used by the HTTP server and tests
//   - [FileCache]: JSON files under a directory, used by the CLI
//   - [RedisCache]: shared cache for several workers
//
// # Keys
//
// A [Keyer] builds keys. Measurement keys must never be shared across slot
// geometries, so callers wrap the default keyer in a [ScopedKeyer] whose
// prefix is the inventory's geometry hash.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	MeasureTTL = 30 * 24 * time.Hour
	PlanTTL    = 7 * 24 * time.Hour
)

// GetJSON decodes the entry under key into v. An entry that does not decode
// is deleted and reported as a miss wrapping ErrCorrupt.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// SetJSON stores the JSON encoding of v and returns its size.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(data), c.Set(ctx, key, data, ttl)
}
