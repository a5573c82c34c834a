// Package geometry computes where edges are drawn.
//
// Edges run between the borders of their endpoint circles, not between the
// centers, so arrowheads land on the node outline. Antiparallel pairs are
// fanned out so the forward and reverse arc never overlap.
//
// Everything here is a pure function of node positions, node flags and the
// current frame, and is cheap enough to call on every animation tick.
package geometry

import (
	"fmt"
	"math"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/trace"
	"github.com/matzehuels/flowscope/pkg/vec"
)

// Segment is a drawn edge, from the source border to the target border.
type Segment struct {
	Start vec.Vec `json:"start"`
	End   vec.Vec `json:"end"`
}

// Mid returns the midpoint of the segment.
func (s Segment) Mid() vec.Vec { return s.Start.Add(s.End).Scale(0.5) }

// Angle returns the direction of the segment in radians.
func (s Segment) Angle() float64 {
	d := s.End.Sub(s.Start)
	return math.Atan2(d.Y, d.X)
}

// Resolver trims and fans edge segments.
type Resolver struct {
	Radius         float64 // base node radius
	TerminalFactor float64 // radius scale for source and sink
	StrokeWidth    float64 // node outline width
	PairAngle      float64 // fan-out angle for antiparallel pairs
}

// NewResolver returns a resolver for cfg.
func NewResolver(cfg config.Config) Resolver {
	return Resolver{
		Radius:         cfg.Forces.Collide.Radius,
		TerminalFactor: cfg.Style.TerminalRadiusFactor,
		StrokeWidth:    cfg.Style.StrokeWidth,
		PairAngle:      cfg.Style.PairAngle,
	}
}

// NodeRadius returns the radius n is drawn with. It matches the radius the
// collide force uses.
func (r Resolver) NodeRadius(n *trace.Node) float64 {
	return layout.NodeRadius(n, r.Radius, r.TerminalFactor)
}

// Endpoints returns the drawn segment of e in frame f.
//
// The start is pulled back from the source center by the source radius plus
// the stroke width, and one more unit when the reverse arrow is drawn. The
// end is pulled back by the target radius plus the stroke width, one unit
// less when only the reverse arrow is drawn. Edges with an antiparallel
// partner have their start offset rotated by +PairAngle and their end
// offset by -PairAngle.
//
// Coincident endpoints use the direction (1, 0). A frame without a state
// for e is an error.
func (r Resolver) Endpoints(g *trace.Graph, e *trace.Edge, f *trace.Frame) (Segment, error) {
	src, dst, err := g.Endpoints(e)
	if err != nil {
		return Segment{}, fmt.Errorf("edge %q: %w", e.ID, err)
	}
	state, err := f.EdgeState(e.ID)
	if err != nil {
		return Segment{}, err
	}

	ps, pt := vec.New(src.X, src.Y), vec.New(dst.X, dst.Y)
	dir := pt.Sub(ps).Unit()

	startTrim := r.NodeRadius(src) + r.StrokeWidth
	if state.ReverseAdmissible {
		startTrim++
	}
	endTrim := r.NodeRadius(dst) + r.StrokeWidth
	if !state.Admissible && state.ReverseAdmissible {
		endTrim--
	}

	startOff := dir.Scale(startTrim)
	endOff := dir.Scale(-endTrim)
	if e.HasReversePartner {
		startOff = startOff.Rotate(r.PairAngle)
		endOff = endOff.Rotate(-r.PairAngle)
	}
	return Segment{Start: ps.Add(startOff), End: pt.Add(endOff)}, nil
}

// All resolves every edge of g in frame f, keyed by edge id. The first
// missing state aborts.
func (r Resolver) All(g *trace.Graph, f *trace.Frame) (map[string]Segment, error) {
	out := make(map[string]Segment, len(g.Edges))
	for _, e := range g.Edges {
		seg, err := r.Endpoints(g, e, f)
		if err != nil {
			return nil, err
		}
		out[e.ID] = seg
	}
	return out, nil
}
