// Package observability carries instrumentation events out of flowscope
// without tying any package to a metrics backend.
//
// Each event category (batch pipeline, live sessions, caches, HTTP) has a
// hook interface and a no-op implementation that is installed by default.
// Producers fetch the current hooks on every event:
//
//	observability.Session().OnTick(id, alpha, elapsed)
//
// [Prometheus] implements all four interfaces on a Prometheus registry;
// `flowscope serve` installs it and exposes the registry on /metrics:
//
//	prom := observability.NewPrometheus(prometheus.NewRegistry())
//	prom.Install()
//	defer observability.Reset()
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the batch pipeline.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, nodeCount, frameCount int, duration time.Duration, err error)

	// Settle events
	OnSettleStart(ctx context.Context, nodeCount int)
	OnSettleComplete(ctx context.Context, ticks int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from live sessions. Ticks are frequent;
// implementations must be cheap.
type SessionHooks interface {
	// OnTick records one simulation step.
	OnTick(sessionID string, alpha float64, duration time.Duration)

	// OnFrameChange records a playback move.
	OnFrameChange(sessionID string, prev, cur int)

	// OnDrag records a drag phase ("start", "move", "end" or "place").
	OnDrag(sessionID, nodeID, phase string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records a completed request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)

	// OnError records a request that failed with an error code.
	OnError(ctx context.Context, method, route string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnSettleStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnSettleComplete(context.Context, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnTick(string, float64, time.Duration) {}
func (NoopSessionHooks) OnFrameChange(string, int, int)        {}
func (NoopSessionHooks) OnDrag(string, string, string)         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds the installed implementation of one hook interface.
type slot[H any] struct {
	mu   sync.RWMutex
	h    H
	noop H
}

func newSlot[H any](noop H) *slot[H] { return &slot[H]{h: noop, noop: noop} }

func (s *slot[H]) get() H {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h
}

func (s *slot[H]) set(h H) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h = h
}

func (s *slot[H]) reset() { s.set(s.noop) }

var (
	pipelineSlot = newSlot[PipelineHooks](NoopPipelineHooks{})
	sessionSlot  = newSlot[SessionHooks](NoopSessionHooks{})
	cacheSlot    = newSlot[CacheHooks](NoopCacheHooks{})
	httpSlot     = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetPipelineHooks installs pipeline hooks. A nil h is ignored. Call it at
// startup, before the first pipeline run.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.set(h)
	}
}

// SetSessionHooks installs session hooks. A nil h is ignored.
func SetSessionHooks(h SessionHooks) {
	if h != nil {
		sessionSlot.set(h)
	}
}

// SetCacheHooks installs cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetHTTPHooks installs HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.set(h)
	}
}

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Session returns the installed session hooks.
func Session() SessionHooks { return sessionSlot.get() }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return httpSlot.get() }

// Reset puts every no-op implementation back. Tests and `flowscope serve`
// call it on shutdown.
func Reset() {
	pipelineSlot.reset()
	sessionSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
