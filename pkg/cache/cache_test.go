package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowscope/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// exercise runs the shared contract every backend must meet.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) hit=%v err=%v", hit, err)
	}

	payload := []byte(strings.Repeat("<line/>", 100))
	if err := c.Set(ctx, "artifact:abc", payload, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "artifact:abc")
	if err != nil || !hit || !bytes.Equal(got, payload) {
		t.Fatalf("Get = %d bytes, hit=%v, err=%v", len(got), hit, err)
	}

	if err := c.Delete(ctx, "artifact:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:abc"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "artifact:abc"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestBackends(t *testing.T) {
	file, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		cache Cache
	}{
		{"file", file},
		{"memory", NewMemoryCache()},
		{"compressed", NewCompressedCache(NewMemoryCache())},
		{"instrumented", NewInstrumentedCache(NewMemoryCache())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.cache.Close()
			exercise(t, tt.cache)
		})
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not an entry"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileEntryEncoding(t *testing.T) {
	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		data    []byte
		expires time.Time
	}{
		{"no expiry", []byte("<svg/>"), time.Time{}},
		{"expiry", []byte("digraph {}"), expires},
		{"empty value", nil, expires},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, exp, ok := decodeFileEntry(encodeFileEntry(tt.data, tt.expires))
			if !ok {
				t.Fatal("entry did not decode")
			}
			if !bytes.Equal(data, tt.data) || !exp.Equal(tt.expires) {
				t.Errorf("got %q expiring %v", data, exp)
			}
		})
	}
	if _, _, ok := decodeFileEntry([]byte("FSC1")); ok {
		t.Error("truncated header decoded")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("cache dir gone after Clear: %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	now = now.Add(30 * time.Second)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("entry expired early")
	}
	now = now.Add(time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry outlived its ttl")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after expiry", c.Len())
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	in := []byte("abc")
	_ = c.Set(ctx, "k", in, 0)
	in[0] = 'x'
	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
}

func TestCompressedCache(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryCache()
	c := NewCompressedCache(inner)

	payload := []byte(strings.Repeat(`<circle r="5"/>`, 200))
	if err := c.Set(ctx, "k", payload, 0); err != nil {
		t.Fatal(err)
	}
	stored, _, _ := inner.Get(ctx, "k")
	if len(stored) >= len(payload) {
		t.Errorf("stored %d bytes for a %d byte payload", len(stored), len(payload))
	}

	_ = inner.Set(ctx, "bad", []byte("\xff\xff\xff\xff"), 0)
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("undecodable entry: hit=%v err=%v", hit, err)
	}
	if _, hit, _ := inner.Get(ctx, "bad"); hit {
		t.Error("undecodable entry not deleted")
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses map[string]int
	bytes        int
}

func (h *countingHooks) OnCacheHit(_ context.Context, kind string)  { h.hits[kind]++ }
func (h *countingHooks) OnCacheMiss(_ context.Context, kind string) { h.misses[kind]++ }
func (h *countingHooks) OnCacheSet(_ context.Context, _ string, n int) {
	h.bytes += n
}

func TestInstrumentedCache(t *testing.T) {
	defer observability.Reset()
	h := &countingHooks{hits: map[string]int{}, misses: map[string]int{}}
	observability.SetCacheHooks(h)

	ctx := context.Background()
	k := NewDefaultKeyer()
	c := NewInstrumentedCache(NewMemoryCache())
	key := k.LayoutKey("abc", LayoutKeyOpts{})

	_, _, _ = c.Get(ctx, key)
	_ = c.Set(ctx, key, []byte("1234"), 0)
	_, _, _ = c.Get(ctx, key)
	_, _, _ = c.Get(ctx, k.TraceKey("abc"))

	if h.misses[KindLayout] != 1 || h.hits[KindLayout] != 1 || h.misses[KindTrace] != 1 || h.bytes != 4 {
		t.Errorf("hooks saw hits=%v misses=%v bytes=%d", h.hits, h.misses, h.bytes)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	type cfg struct{ A int }
	j1, err := HashJSON(cfg{1})
	if err != nil {
		t.Fatal(err)
	}
	if j2, _ := HashJSON(cfg{2}); j1 == j2 {
		t.Error("HashJSON ignores field values")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("HashJSON accepted an unencodable value")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.TraceKey("abc"); got != "trace:abc" {
		t.Errorf("TraceKey = %s", got)
	}

	lk1 := k.LayoutKey("abc", LayoutKeyOpts{ConfigHash: "c1", MaxTicks: 300})
	lk2 := k.LayoutKey("abc", LayoutKeyOpts{ConfigHash: "c2", MaxTicks: 300})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey = %s", lk1)
	}

	ak1 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg", Frame: 1})
	ak2 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg", Frame: 2})
	ak3 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "png", Frame: 1})
	if ak1 == ak2 || ak1 == ak3 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "team:123:")
	if got := scoped.TraceKey("abc"); got != "team:123:trace:abc" {
		t.Errorf("TraceKey = %s", got)
	}
	if got := scoped.LayoutKey("abc", LayoutKeyOpts{}); !strings.HasPrefix(got, "team:123:layout:") {
		t.Errorf("LayoutKey = %s", got)
	}

	if got := NewScopedKeyer(nil, "p:").TraceKey("x"); got != "p:trace:x" {
		t.Errorf("nil inner: %s", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		key, want string
	}{
		{"trace:abc", KindTrace},
		{"team:1:layout:abc", KindLayout},
		{"artifact:abc", KindArtifact},
		{"something", "other"},
	}
	for _, tt := range tests {
		if got := KindOf(tt.key); got != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error lost its identity")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error() = %q, want the wrapped message", err.Error())
	}
	if IsRetryable(ErrNetwork) {
		t.Error("unmarked error reported as retryable")
	}
	if !IsRetryable(fmt.Errorf("ping: %w", err)) {
		t.Error("marker lost through wrapping")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { backoff.first = d }(backoff.first)
	backoff.first = time.Millisecond
	ctx := context.Background()
	errPermanent := errors.New("bad credentials")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantErr   error
		wantCalls int
	}{
		{"success", 0, nil, nil, 1},
		{"permanent", 5, errPermanent, errPermanent, 1},
		{"recovers", 1, Retryable(ErrNetwork), nil, 2},
		{"exhausted", 5, Retryable(ErrNetwork), ErrNetwork, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
