// Package scene assembles everything a renderer needs to draw one frame.
//
// A [Scene] is a snapshot: node positions, resolved edge segments and the
// render attributes of every element, computed from the graph at the
// moment [Build] ran. Adapters (SVG, DOT, terminal, HTTP) consume scenes
// and never reach back into the simulation.
package scene

import (
	"math"

	"github.com/matzehuels/flowscope/pkg/config"
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/render/attrs"
	"github.com/matzehuels/flowscope/pkg/render/geometry"
	"github.com/matzehuels/flowscope/pkg/trace"
	"github.com/matzehuels/flowscope/pkg/vec"
)

// padding is added around the node extent in [Scene.Bounds].
const padding = 20

// NodeView is a vertex ready to draw.
type NodeView struct {
	ID    string                 `json:"id"`
	Pos   vec.Vec                `json:"pos"`
	Group *int                   `json:"group,omitempty"`
	Attrs attrs.VertexAttributes `json:"attrs"`
}

// EdgeView is an edge ready to draw, with the state its labels derive from.
type EdgeView struct {
	ID      string               `json:"id"`
	Source  string               `json:"source"`
	Target  string               `json:"target"`
	Segment geometry.Segment     `json:"segment"`
	Attrs   attrs.EdgeAttributes `json:"attrs"`

	Capacity          float64  `json:"capacity"`
	Weight            *float64 `json:"weight,omitempty"`
	Flow              float64  `json:"flow"`
	RemainingCapacity float64  `json:"remainingCapacity"`
	Admissible        bool     `json:"admissible"`
	ReverseAdmissible bool     `json:"reverseAdmissible"`
	HasReversePartner bool     `json:"hasReversePartner"`
}

// Bounds is an axis-aligned box.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Scene is one frame of the trace, laid out and styled.
type Scene struct {
	Frame      int             `json:"frame"`
	FrameCount int             `json:"frameCount"`
	Label      string          `json:"label"`
	Kind       trace.FrameKind `json:"kind"`
	Path       []string        `json:"augmentingPath"`
	Bounds     Bounds          `json:"bounds"`
	Nodes      []NodeView      `json:"nodes"`
	Edges      []EdgeView      `json:"edges"`

	// Alpha is the simulation temperature when the scene was taken.
	Alpha float64 `json:"alpha"`
}

// Node returns the view of node id.
func (s *Scene) Node(id string) (NodeView, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// Edge returns the view of edge id.
func (s *Scene) Edge(id string) (EdgeView, bool) {
	for _, e := range s.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return EdgeView{}, false
}

// Build resolves frame index of g with the given resolvers. Nodes and edges
// keep the graph's order.
//
// An index outside the trace is an INVALID_INPUT error; a frame missing the
// state of a node or edge is a MISSING_FRAME_ENTRY error naming it.
func Build(g *trace.Graph, index int, geo geometry.Resolver, ar attrs.Resolver) (*Scene, error) {
	if err := ferrors.ValidateFrameIndex(index, g.FrameCount()); err != nil {
		return nil, err
	}
	f := g.Frame(index)

	s := &Scene{
		Frame:      index,
		FrameCount: g.FrameCount(),
		Label:      f.Label,
		Kind:       f.Kind(),
		Path:       make([]string, len(f.AugmentingPath)),
		Nodes:      make([]NodeView, 0, len(g.Nodes)),
		Edges:      make([]EdgeView, 0, len(g.Edges)),
	}
	for i, step := range f.AugmentingPath {
		s.Path[i] = step.String()
	}

	for _, n := range g.Nodes {
		va, err := ar.Vertex(n, f)
		if err != nil {
			return nil, ferrors.NewFrameError(ferrors.ErrCodeMissingFrameEntry, index, "vertex "+n.ID, "%v", err)
		}
		s.Nodes = append(s.Nodes, NodeView{ID: n.ID, Pos: vec.New(n.X, n.Y), Group: n.Group, Attrs: va})
	}

	for _, e := range g.Edges {
		st, err := f.EdgeState(e.ID)
		if err != nil {
			return nil, ferrors.NewFrameError(ferrors.ErrCodeMissingFrameEntry, index, "edge "+e.ID, "%v", err)
		}
		seg, err := geo.Endpoints(g, e, f)
		if err != nil {
			return nil, ferrors.NewFrameError(ferrors.ErrCodeMissingFrameEntry, index, "edge "+e.ID, "%v", err)
		}
		ea, err := ar.Edge(e, f)
		if err != nil {
			return nil, ferrors.NewFrameError(ferrors.ErrCodeMissingFrameEntry, index, "edge "+e.ID, "%v", err)
		}
		s.Edges = append(s.Edges, EdgeView{
			ID:                e.ID,
			Source:            e.Source,
			Target:            e.Target,
			Segment:           seg,
			Attrs:             ea,
			Capacity:          e.Capacity,
			Weight:            e.Weight,
			Flow:              st.Flow,
			RemainingCapacity: st.RemainingCapacity,
			Admissible:        st.Admissible,
			ReverseAdmissible: st.ReverseAdmissible,
			HasReversePartner: e.HasReversePartner,
		})
	}

	s.Bounds = s.extent()
	return s, nil
}

// FromConfig builds frame index of g with resolvers derived from cfg.
func FromConfig(g *trace.Graph, index int, cfg config.Config) (*Scene, error) {
	return Build(g, index, geometry.NewResolver(cfg), attrs.NewResolver(cfg))
}

// extent returns the padded box around every node disk.
func (s *Scene) extent() Bounds {
	if len(s.Nodes) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, n := range s.Nodes {
		r := n.Attrs.Radius
		b.MinX = min(b.MinX, n.Pos.X-r)
		b.MinY = min(b.MinY, n.Pos.Y-r)
		b.MaxX = max(b.MaxX, n.Pos.X+r)
		b.MaxY = max(b.MaxY, n.Pos.Y+r)
	}
	b.MinX -= padding
	b.MinY -= padding
	b.MaxX += padding
	b.MaxY += padding
	return b
}
