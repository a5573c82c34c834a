// Package pipeline provides the batch load → settle → render pipeline.
//
// The CLI render command and the HTTP API both go through this package so a
// trace renders the same way regardless of entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a trace document or network text and validate the trace
//  2. Settle: run the force layout until it cools or hits the tick limit
//  3. Render: draw the selected frames in the requested formats
//
// Every stage is cached by content hash. The layout depends only on the
// trace and the configuration, so changing the output format or the frame
// selection reuses the settled positions.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Trace:   "examples/diamond.json",
//	    Formats: []string{"svg", "dot"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, a := range result.Artifacts {
//	    os.WriteFile(a.Filename("diamond"), a.Data, 0o644)
//	}
//
// Stages can also be run one at a time:
//
//	g, hash, err := runner.Load(ctx, opts)
//	l, err := runner.Settle(ctx, g, hash, opts)
//	artifacts, err := runner.Render(ctx, g, l, opts)
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/config"
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = render.FormatSVG
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Source takes precedence over Trace; Format applies to
	// Source and is sniffed when empty.
	Trace  string `json:"trace,omitempty"`
	Source []byte `json:"-"`
	Format string `json:"format,omitempty"`
	Name   string `json:"name,omitempty"`

	// Settle options. A zero Config means config.Default(); a zero MaxTicks
	// means Config.Simulation.MaxTicks.
	Config   config.Config `json:"config"`
	MaxTicks int           `json:"max_ticks,omitempty"`

	// Layout, when set, replaces the settle stage: its positions are
	// applied as they are. It must place every node.
	Layout *graph.Layout `json:"-"`

	// Render options. Empty Frames renders every frame.
	Frames   []int    `json:"frames,omitempty"`
	Formats  []string `json:"formats,omitempty"`
	Graphviz bool     `json:"graphviz,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Pinned   bool     `json:"pinned,omitempty"`
	Scale    float64  `json:"scale,omitempty"`

	// Refresh bypasses cached results of every stage.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded trace, with the settled positions applied.
	Graph *trace.Graph

	// TraceHash is the content hash of the normalized trace document.
	TraceHash string

	// Layout holds the settled node positions.
	Layout graph.Layout

	// Artifacts holds one entry per rendered frame and format, ordered by
	// frame, then by the order of Options.Formats.
	Artifacts []Artifact

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Artifact is one rendered frame in one format.
type Artifact struct {
	Frame  int
	Label  string
	Format string
	Data   []byte
}

// Filename returns "<base>-<frame>.<format>" with the frame zero-padded
// to three digits.
func (a Artifact) Filename(base string) string {
	return fmt.Sprintf("%s-%03d.%s", base, a.Frame, a.Format)
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	FrameCount int
	Ticks      int
	LoadTime   time.Duration
	SettleTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the trace came from cache
	SettleHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return ferrors.ValidateFormat(format, render.Formats...)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that there is something to load.
func (o *Options) ValidateForLoad() error {
	if o.Trace == "" && len(o.Source) == 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "trace path or source is required")
	}
	if o.Name == "" && o.Trace != "" {
		o.Name = strings.TrimSuffix(filepath.Base(o.Trace), filepath.Ext(o.Trace))
	}
	o.setLogger()
	return nil
}

// SetSettleDefaults fills in the configuration and tick limit.
func (o *Options) SetSettleDefaults() {
	if o.Config == (config.Config{}) {
		o.Config = config.Default()
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = o.Config.Simulation.MaxTicks
	}
	o.setLogger()
}

// ValidateForSettle validates and sets defaults for settling.
func (o *Options) ValidateForSettle() error {
	o.SetSettleDefaults()
	return o.Config.Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	o.SetSettleDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
}

// ValidateForRender validates and sets defaults for rendering. Frame
// indices are checked against the trace when rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := o.Config.Validate(); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// FrameIndices returns the frames to render out of n.
func (o *Options) FrameIndices(n int) ([]int, error) {
	if len(o.Frames) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, i := range o.Frames {
		if err := ferrors.ValidateFrameIndex(i, n); err != nil {
			return nil, err
		}
	}
	return o.Frames, nil
}

// ConfigHash returns the content hash of the configuration.
func (o *Options) ConfigHash() string {
	h, err := cache.HashJSON(o.Config)
	if err != nil {
		return ""
	}
	return h
}

// LayoutKeyOpts returns cache key options for settling.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ConfigHash: o.ConfigHash(),
		MaxTicks:   o.MaxTicks,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered frame.
func (o *Options) ArtifactKeyOpts(format string, frame int) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:     format,
		Frame:      frame,
		ConfigHash: o.ConfigHash(),
		Graphviz:   o.Graphviz,
		Detailed:   o.Detailed,
		Pinned:     o.Pinned,
	}
	if format == render.FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
