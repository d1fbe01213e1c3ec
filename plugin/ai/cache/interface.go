// Package cache provides an in-process byte cache that fronts the session store.
package cache

import (
	"context"
	"time"
)

// CacheService defines the cache service interface.
type CacheService interface {
	// Get retrieves a value from cache.
	// Returns: value, whether it exists and is unexpired
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache. A non-positive ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes one key, or every key sharing a prefix when
	// pattern ends in "*" (session:*).
	Invalidate(ctx context.Context, pattern string) error
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}
