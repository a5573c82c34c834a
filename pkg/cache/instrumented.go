package cache

import (
	"context"
	"time"

	"github.com/matzehuels/flowscope/pkg/observability"
)

// InstrumentedCache reports every lookup and write to the registered
// observability cache hooks, labeled by key kind.
type InstrumentedCache struct {
	inner Cache
}

// NewInstrumentedCache wraps inner.
func NewInstrumentedCache(inner Cache) *InstrumentedCache {
	return &InstrumentedCache{inner: inner}
}

// Get looks key up and records a hit or miss.
func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KindOf(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KindOf(key))
		}
	}
	return data, hit, err
}

// Set stores data and records its size.
func (c *InstrumentedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.inner.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KindOf(key), len(data))
	return nil
}

// Delete removes key.
func (c *InstrumentedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Close closes the wrapped cache.
func (c *InstrumentedCache) Close() error {
	return c.inner.Close()
}

var _ Cache = (*InstrumentedCache)(nil)
