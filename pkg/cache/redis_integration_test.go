//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisCache_Integration(t *testing.T) {
	url := os.Getenv("FLOWSCOPE_REDIS_URL")
	if url == "" {
		t.Skip("FLOWSCOPE_REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := NewRedisCache(ctx, RedisConfig{URL: url, Prefix: "flowscope-test:" + uuid.NewString() + ":"})
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	defer c.Close()

	exercise(t, c)
	exercise(t, NewCompressedCache(c))

	if err := c.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatal(err)
	}
	if ttl := c.Client().TTL(ctx, c.prefix+"short").Val(); ttl <= 0 || ttl > time.Second {
		t.Errorf("TTL = %v, want (0, 1s]", ttl)
	}
}
