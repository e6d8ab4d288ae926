// Package cache provides pluggable byte caches and key derivation for
// expensive editor computations, primarily auto-layout results.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// LayoutKey derives a cache key for a layout computation. Any change to the
// graph topology, node dimensions, or layout options produces a new key.
func LayoutKey(parts ...any) string {
	return hashKey("layout", parts...)
}
