// Package attrs derives how edges and vertices look in a given frame.
//
// Attributes are renderer-neutral: categories, dash kinds and markers are
// symbolic and every adapter maps them to its own colors and primitives.
// All results are recomputed from the graph and the current frame; there
// is no hidden state.
package attrs

import (
	"strconv"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// Category is the stroke class of an edge.
type Category string

// Edge categories, highest priority first.
const (
	CategoryAugmenting Category = "augmenting"
	CategorySaturated  Category = "saturated"
	CategoryUsed       Category = "used"
	CategoryPlain      Category = "plain"
)

// Dash is the stroke pattern of an edge.
type Dash string

const (
	DashSolid  Dash = "solid"
	DashDashed Dash = "dashed"
)

// Marker is an arrowhead.
type Marker string

const (
	MarkerNone  Marker = "none"
	MarkerArrow Marker = "arrow"
)

// Border is the outline class of a vertex.
type Border string

const (
	BorderNormal Border = "normal"
	BorderDead   Border = "dead"
)

// Role tells terminals apart from inner vertices.
type Role string

const (
	RoleSource Role = "source"
	RoleSink   Role = "sink"
	RoleInner  Role = "inner"
)

// EdgeAttributes describe how an edge is drawn in one frame.
type EdgeAttributes struct {
	Category    Category `json:"category"`
	Dash        Dash     `json:"dash"`
	StartMarker Marker   `json:"startMarker"`
	EndMarker   Marker   `json:"endMarker"`
	Width       float64  `json:"width"`
	Label       string   `json:"label,omitempty"`
	OnPath      bool     `json:"onPath,omitempty"`
}

// VertexAttributes describe how a vertex is drawn in one frame.
type VertexAttributes struct {
	Border      Border  `json:"border"`
	Opacity     float64 `json:"opacity"`
	Radius      float64 `json:"radius"`
	Role        Role    `json:"role"`
	Label       string  `json:"label,omitempty"`
	HeightLabel string  `json:"heightLabel,omitempty"`
	Height      int     `json:"height"`
	Alive       bool    `json:"alive"`
}

// Resolver maps frame state to attributes under the display toggles and
// style constants it was built with.
type Resolver struct {
	Display config.Display
	Style   config.Style
	Radius  float64
}

// NewResolver returns a resolver for cfg.
func NewResolver(cfg config.Config) Resolver {
	return Resolver{Display: cfg.Display, Style: cfg.Style, Radius: cfg.Forces.Collide.Radius}
}

// Classify returns the category of an edge: augmenting when it is on the
// path, otherwise saturated, used or plain, in that order.
func Classify(state trace.EdgeState, onPath bool) Category {
	switch {
	case onPath:
		return CategoryAugmenting
	case state.Saturated():
		return CategorySaturated
	case state.Flow > 0:
		return CategoryUsed
	default:
		return CategoryPlain
	}
}

// Edge returns the attributes of e in frame f. A frame without a state for
// e is an error.
func (r Resolver) Edge(e *trace.Edge, f *trace.Frame) (EdgeAttributes, error) {
	state, err := f.EdgeState(e.ID)
	if err != nil {
		return EdgeAttributes{}, err
	}
	onPath := f.OnPath(e.ID)

	a := EdgeAttributes{
		Category:    Classify(state, onPath),
		Dash:        DashDashed,
		StartMarker: MarkerNone,
		EndMarker:   MarkerArrow,
		Width:       r.Style.EdgeWidth,
		OnPath:      onPath,
	}
	if state.Admissible || state.ReverseAdmissible {
		a.Dash = DashSolid
	}
	if !state.Admissible && state.ReverseAdmissible {
		a.EndMarker = MarkerNone
	}
	if state.ReverseAdmissible {
		a.StartMarker = MarkerArrow
	}
	if onPath {
		a.Width *= r.Style.AugmentingWidthFactor
	}
	if r.Display.EdgeLabels {
		a.Label = r.edgeLabel(e, state)
	}
	return a, nil
}

func (r Resolver) edgeLabel(e *trace.Edge, state trace.EdgeState) string {
	if r.Display.ShowWeights && e.Weight != nil {
		return FormatNumber(*e.Weight)
	}
	return FormatNumber(state.Flow) + "/" + FormatNumber(e.Capacity)
}

// Vertex returns the attributes of n in frame f. A frame without a state
// for n is an error.
func (r Resolver) Vertex(n *trace.Node, f *trace.Frame) (VertexAttributes, error) {
	state, err := f.Vertex(n.ID)
	if err != nil {
		return VertexAttributes{}, err
	}

	a := VertexAttributes{
		Border:  BorderNormal,
		Opacity: 1,
		Radius:  layout.NodeRadius(n, r.Radius, r.Style.TerminalRadiusFactor),
		Role:    RoleOf(n),
		Height:  state.Height,
		Alive:   state.Alive,
	}
	if !state.Alive {
		a.Border = BorderDead
		a.Opacity = r.Style.DeadOpacity
	}
	if r.Display.VertexLabels {
		a.Label = n.ID
	}
	if r.Display.Heights {
		a.HeightLabel = strconv.Itoa(state.Height)
	}
	return a, nil
}

// RoleOf returns the role of n. A node flagged both ways counts as source.
func RoleOf(n *trace.Node) Role {
	switch {
	case n.IsSource:
		return RoleSource
	case n.IsSink:
		return RoleSink
	default:
		return RoleInner
	}
}

// FormatNumber prints v without trailing zeros: 10, 2.5, -0.125.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
