package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewPrometheus(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	if p.StageDuration == nil || p.Ticks == nil || p.CacheHits == nil || p.HTTPRequestsTotal == nil {
		t.Fatal("collectors not initialized")
	}
	if p.Registry() == nil {
		t.Error("registry not kept")
	}
}

func TestPrometheusPipeline(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	ctx := context.Background()

	p.OnLoadComplete(ctx, "file", 3, 2, time.Millisecond, nil)
	p.OnLoadComplete(ctx, "file", 0, 0, time.Millisecond, ferrors.New(ferrors.ErrCodeInvalidDocument, "bad"))

	if got := counterValue(t, p.TracesLoaded.WithLabelValues("file")); got != 1 {
		t.Errorf("traces loaded = %v, want 1", got)
	}
	if got := counterValue(t, p.StageErrors.WithLabelValues("load", "INVALID_DOCUMENT")); got != 1 {
		t.Errorf("load errors = %v, want 1", got)
	}
}

func TestPrometheusSession(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())

	p.OnTick("s1", 0.5, time.Microsecond)
	p.OnTick("s1", 0.25, time.Microsecond)
	p.OnFrameChange("s1", 0, 1)
	p.OnDrag("s1", "a", "start")

	if got := counterValue(t, p.Ticks.WithLabelValues("s1")); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := gaugeValue(t, p.Alpha.WithLabelValues("s1")); got != 0.25 {
		t.Errorf("alpha = %v, want 0.25", got)
	}
	if got := counterValue(t, p.Drags.WithLabelValues("start")); got != 1 {
		t.Errorf("drags = %v, want 1", got)
	}

	p.Forget("s1")
	if got := counterValue(t, p.Ticks.WithLabelValues("s1")); got != 0 {
		t.Errorf("ticks after Forget = %v, want 0", got)
	}
}

func TestPrometheusHTTP(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	ctx := context.Background()

	p.OnRequest(ctx, "GET", "/healthz")
	if got := gaugeValue(t, p.HTTPRequestsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	p.OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)
	if got := gaugeValue(t, p.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := counterValue(t, p.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
	p.OnError(ctx, "GET", "/sessions/{id}", errors.New("plain"))
	if got := counterValue(t, p.HTTPErrors.WithLabelValues("/sessions/{id}", "")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestPrometheusHandler(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	p.OnCacheHit(context.Background(), "scene")

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `flowscope_cache_hits_total{type="scene"} 1`) {
		t.Errorf("exposition missing cache hit:\n%s", body)
	}
}

func TestInstall(t *testing.T) {
	defer Reset()
	p := NewPrometheus(prometheus.NewRegistry())
	p.Install()
	if Pipeline() != PipelineHooks(p) || Session() != SessionHooks(p) || Cache() != CacheHooks(p) || HTTP() != HTTPHooks(p) {
		t.Error("Install did not register every hook")
	}
}
