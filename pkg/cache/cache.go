// Package cache stores pipeline results by content hash.
//
// # Overview
//
// Loading a trace, settling its layout and rendering frames are all pure
// functions of their inputs, so each stage's output is cached under a key
// derived from a hash of those inputs. A [Keyer] builds the keys; a [Cache]
// stores the bytes.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for multi-instance servers
//   - [MemoryCache]: process-local, for tests and single servers
//   - [NullCache]: caching disabled
//
// [CompressedCache] wraps any backend with snappy compression and
// [InstrumentedCache] reports hits and misses to the observability hooks.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss
	// (false) and not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Entry lifetimes per stage.
const (
	TTLTrace    = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)
