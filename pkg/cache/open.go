package cache

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
)

// Open creates the backend selected by cfg. An empty file directory
// resolves to the user cache directory.
func Open(ctx context.Context, cfg config.Cache) (Cache, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return NewNullCache(), nil
	case config.BackendMemory:
		return NewMemoryCache(), nil
	case config.BackendRedis:
		c, err := NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "open redis cache")
		}
		return c, nil
	case config.BackendFile:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir()
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "open file cache %s", dir)
		}
		return c, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
	}
}

// DefaultDir returns the default cache directory, respecting XDG_CACHE_HOME.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "slotfit")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "slotfit")
	}
	return filepath.Join(os.TempDir(), "slotfit-cache")
}
