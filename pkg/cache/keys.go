package cache

import "strings"

// Key kinds, the leading segment of every key a [DefaultKeyer] builds.
const (
	KindTrace    = "trace"
	KindLayout   = "layout"
	KindArtifact = "artifact"
)

// Keyer builds cache keys for the pipeline stages.
type Keyer interface {
	// TraceKey keys a parsed trace by the hash of its source bytes.
	TraceKey(sourceHash string) string

	// LayoutKey keys a settled layout of a trace.
	LayoutKey(traceHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys one rendered frame of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs of a settled layout besides the trace.
type LayoutKeyOpts struct {
	ConfigHash string `json:"config"`
	MaxTicks   int    `json:"max_ticks"`
}

// ArtifactKeyOpts are the inputs of a rendered frame besides the layout.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Frame      int     `json:"frame"`
	ConfigHash string  `json:"config"`
	Graphviz   bool    `json:"graphviz,omitempty"`
	Detailed   bool    `json:"detailed,omitempty"`
	Pinned     bool    `json:"pinned,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TraceKey returns "trace:<sourceHash>".
func (DefaultKeyer) TraceKey(sourceHash string) string {
	return KindTrace + ":" + sourceHash
}

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(traceHash string, opts LayoutKeyOpts) string {
	return hashKey(KindLayout, traceHash, opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(KindArtifact, layoutHash, opts)
}

// KindOf returns the kind segment of key, looking past any scope prefix,
// or "other".
func KindOf(key string) string {
	for _, part := range strings.Split(key, ":") {
		switch part {
		case KindTrace, KindLayout, KindArtifact:
			return part
		}
	}
	return "other"
}
