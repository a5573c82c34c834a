package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
)

// Prometheus implements every hook interface with Prometheus collectors.
type Prometheus struct {
	registry *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec
	TracesLoaded  *prometheus.CounterVec
	SettleTicks   prometheus.Histogram

	Ticks        *prometheus.CounterVec
	TickDuration prometheus.Histogram
	Alpha        *prometheus.GaugeVec
	FrameChanges *prometheus.CounterVec
	Drags        *prometheus.CounterVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheBytes  *prometheus.HistogramVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPErrors           *prometheus.CounterVec
}

// NewPrometheus registers the flowscope collectors on reg.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	p := &Prometheus{registry: reg}
	p.initPipelineMetrics()
	p.initSessionMetrics()
	p.initCacheMetrics()
	p.initHTTPMetrics()
	return p
}

// Install registers p as the pipeline, session, cache and HTTP hooks.
func (p *Prometheus) Install() {
	SetPipelineHooks(p)
	SetSessionHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) initPipelineMetrics() {
	p.StageDuration = promauto.With(p.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowscope_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	p.StageErrors = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_pipeline_stage_errors_total",
			Help: "Total number of failed pipeline stages",
		},
		[]string{"stage", "code"},
	)

	p.TracesLoaded = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_traces_loaded_total",
			Help: "Total number of traces loaded",
		},
		[]string{"source"},
	)

	p.SettleTicks = promauto.With(p.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowscope_settle_ticks",
			Help:    "Simulation steps needed to settle a layout",
			Buckets: []float64{10, 50, 100, 200, 300, 500, 1000},
		},
	)
}

func (p *Prometheus) initSessionMetrics() {
	p.Ticks = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_session_ticks_total",
			Help: "Total number of simulation steps taken by live sessions",
		},
		[]string{"session"},
	)

	p.TickDuration = promauto.With(p.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowscope_session_tick_duration_seconds",
			Help:    "Duration of a single simulation step in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05},
		},
	)

	p.Alpha = promauto.With(p.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flowscope_session_alpha",
			Help: "Current simulation temperature per session",
		},
		[]string{"session"},
	)

	p.FrameChanges = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_session_frame_changes_total",
			Help: "Total number of playback moves",
		},
		[]string{"session"},
	)

	p.Drags = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_session_drags_total",
			Help: "Total number of drag events by phase",
		},
		[]string{"phase"},
	)
}

func (p *Prometheus) initCacheMetrics() {
	p.CacheHits = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"type"},
	)

	p.CacheMisses = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"type"},
	)

	p.CacheBytes = promauto.With(p.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowscope_cache_write_bytes",
			Help:    "Size of cache writes in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"type"},
	)
}

func (p *Prometheus) initHTTPMetrics() {
	p.HTTPRequestsTotal = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	p.HTTPRequestDuration = promauto.With(p.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowscope_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	p.HTTPRequestsInFlight = promauto.With(p.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flowscope_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	p.HTTPErrors = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_http_errors_total",
			Help: "Total number of failed HTTP requests by error code",
		},
		[]string{"route", "code"},
	)
}

// =============================================================================
// PipelineHooks
// =============================================================================

func (p *Prometheus) OnLoadStart(context.Context, string) {}

func (p *Prometheus) OnLoadComplete(_ context.Context, source string, _, _ int, d time.Duration, err error) {
	p.observeStage("load", d, err)
	if err == nil {
		p.TracesLoaded.WithLabelValues(source).Inc()
	}
}

func (p *Prometheus) OnSettleStart(context.Context, int) {}

func (p *Prometheus) OnSettleComplete(_ context.Context, ticks int, d time.Duration, err error) {
	p.observeStage("settle", d, err)
	if err == nil {
		p.SettleTicks.Observe(float64(ticks))
	}
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	p.observeStage("render", d, err)
}

func (p *Prometheus) observeStage(stage string, d time.Duration, err error) {
	p.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		p.StageErrors.WithLabelValues(stage, string(ferrors.GetCode(err))).Inc()
	}
}

// =============================================================================
// SessionHooks
// =============================================================================

func (p *Prometheus) OnTick(sessionID string, alpha float64, d time.Duration) {
	p.Ticks.WithLabelValues(sessionID).Inc()
	p.TickDuration.Observe(d.Seconds())
	p.Alpha.WithLabelValues(sessionID).Set(alpha)
}

func (p *Prometheus) OnFrameChange(sessionID string, _, _ int) {
	p.FrameChanges.WithLabelValues(sessionID).Inc()
}

func (p *Prometheus) OnDrag(_, _, phase string) {
	p.Drags.WithLabelValues(phase).Inc()
}

// Forget drops the per-session series of a closed session.
func (p *Prometheus) Forget(sessionID string) {
	p.Ticks.DeleteLabelValues(sessionID)
	p.Alpha.DeleteLabelValues(sessionID)
	p.FrameChanges.DeleteLabelValues(sessionID)
}

// =============================================================================
// CacheHooks
// =============================================================================

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheHits.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheMisses.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheBytes.WithLabelValues(keyType).Observe(float64(size))
}

// =============================================================================
// HTTPHooks
// =============================================================================

func (p *Prometheus) OnRequest(context.Context, string, string) {
	p.HTTPRequestsInFlight.Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.HTTPRequestsInFlight.Dec()
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, route string, err error) {
	p.HTTPErrors.WithLabelValues(route, string(ferrors.GetCode(err))).Inc()
}
