package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/cache"
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/observability"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → settle → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	g, traceHash, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Graph = g
	result.TraceHash = traceHash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.FrameCount = g.FrameCount()
	result.CacheInfo.LoadHit = loadHit

	r.Logger.Info("loaded trace",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"frames", g.FrameCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Settle
	settleStart := time.Now()
	l, settleHit, err := r.SettleWithCacheInfo(ctx, g, traceHash, opts)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	result.Layout = l
	result.Stats.Ticks = l.Ticks
	result.Stats.SettleTime = time.Since(settleStart)
	result.CacheInfo.SettleHit = settleHit

	r.Logger.Info("settled layout",
		"ticks", l.Ticks,
		"alpha", fmt.Sprintf("%.4f", l.Alpha),
		"duration", result.Stats.SettleTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered frames",
		"artifacts", len(artifacts),
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo reads and validates the trace, returning the graph, the
// hash of its normalized document and whether it came from cache.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (g *trace.Graph, traceHash string, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", false, err
	}

	source := opts.Trace
	if source == "" {
		source = "<source>"
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()
	defer func() {
		nodes, frames := 0, 0
		if g != nil {
			nodes, frames = g.NodeCount(), g.FrameCount()
		}
		hooks.OnLoadComplete(ctx, source, nodes, frames, time.Since(start), err)
	}()

	src, format, err := readSource(opts)
	if err != nil {
		return nil, "", false, err
	}
	cacheKey := r.Keyer.TraceKey(cache.Hash(src))

	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			if cached, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
				return cached, cache.Hash(data), true, nil
			}
			r.Logger.Debug("discarding unreadable cached trace", "key", cacheKey)
		}
	}

	g, err = Load(src, format, opts.Name)
	if err != nil {
		return nil, "", false, err
	}
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize trace: %w", err)
	}
	_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTrace)

	return g, cache.Hash(data), false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*trace.Graph, string, error) {
	g, hash, _, err := r.LoadWithCacheInfo(ctx, opts)
	return g, hash, err
}

// SettleWithCacheInfo runs the force layout on g and leaves the settled
// positions applied to its nodes.
func (r *Runner) SettleWithCacheInfo(ctx context.Context, g *trace.Graph, traceHash string, opts Options) (l graph.Layout, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSettle(); err != nil {
		return graph.Layout{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnSettleStart(ctx, g.NodeCount())
	start := time.Now()
	defer func() {
		hooks.OnSettleComplete(ctx, l.Ticks, time.Since(start), err)
	}()

	if opts.Layout != nil {
		if placed := opts.Layout.Apply(g); placed != g.NodeCount() {
			return graph.Layout{}, false, ferrors.New(ferrors.ErrCodeInvalidInput,
				"layout places %d of %d nodes", placed, g.NodeCount())
		}
		return *opts.Layout, false, nil
	}

	cacheKey := r.Keyer.LayoutKey(traceHash, opts.LayoutKeyOpts())
	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			if cached, err := graph.UnmarshalLayout(data); err == nil && cached.Apply(g) == g.NodeCount() {
				return cached, true, nil
			}
			r.Logger.Debug("discarding stale cached layout", "key", cacheKey)
		}
	}

	l, err = Settle(ctx, g, opts.Config, opts.MaxTicks)
	if err != nil {
		return graph.Layout{}, false, err
	}
	if data, err := graph.MarshalLayout(l); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
	}
	return l, false, nil
}

// Settle is a convenience wrapper that calls SettleWithCacheInfo and discards the cache hit info.
func (r *Runner) Settle(ctx context.Context, g *trace.Graph, traceHash string, opts Options) (graph.Layout, error) {
	l, _, err := r.SettleWithCacheInfo(ctx, g, traceHash, opts)
	return l, err
}

// RenderWithCacheInfo renders the selected frames of g, whose nodes must
// sit at the positions recorded in l. The hit flag is set when every
// artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *trace.Graph, l graph.Layout, opts Options) (artifacts []Artifact, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	frames, err := opts.FrameIndices(g.FrameCount())
	if err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	hit = true
	for _, i := range frames {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		cached, ok := r.cachedFrame(ctx, layoutHash, i, opts)
		if ok {
			for j := range cached {
				cached[j].Label = g.Frames[i].Label
			}
			artifacts = append(artifacts, cached...)
			continue
		}
		hit = false

		rendered, err := RenderFrame(g, i, opts)
		if err != nil {
			return nil, false, err
		}
		for _, a := range rendered {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(a.Format, i))
			_ = r.Cache.Set(ctx, key, a.Data, cache.TTLArtifact)
		}
		artifacts = append(artifacts, rendered...)
		r.Logger.Debug("rendered frame", "frame", i, "label", g.Frames[i].Label)
	}
	return artifacts, hit, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *trace.Graph, l graph.Layout, opts Options) ([]Artifact, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, l, opts)
	return artifacts, err
}

// cachedFrame returns every requested format of frame i, or false if any
// of them is missing.
func (r *Runner) cachedFrame(ctx context.Context, layoutHash string, i int, opts Options) ([]Artifact, bool) {
	if opts.Refresh {
		return nil, false
	}
	out := make([]Artifact, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format, i))
		data, ok, err := r.Cache.Get(ctx, key)
		if err != nil || !ok {
			return nil, false
		}
		out = append(out, Artifact{Frame: i, Format: format, Data: data})
	}
	return out, true
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
