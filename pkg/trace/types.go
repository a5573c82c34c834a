package trace

import (
	"fmt"
	"math"
)

// Node is a vertex of the flow network.
//
// X and Y are the current layout position, VX and VY the simulation
// velocity. FixedX and FixedY pin the node on that axis; the simulation
// assigns the pinned value on every tick instead of integrating forces.
type Node struct {
	ID       string
	Group    *int
	IsSource bool
	IsSink   bool

	X, Y   float64
	VX, VY float64
	FixedX *float64
	FixedY *float64

	index int
}

// Index returns the node's position in [Graph.Nodes].
func (n *Node) Index() int { return n.index }

// IsTerminal reports whether the node is the source or the sink.
func (n *Node) IsTerminal() bool { return n.IsSource || n.IsSink }

// Pinned reports whether the node is pinned on either axis.
func (n *Node) Pinned() bool { return n.FixedX != nil || n.FixedY != nil }

// Pin fixes the node at (x, y).
func (n *Node) Pin(x, y float64) {
	n.FixedX, n.FixedY = &x, &y
}

// Unpin releases both axis pins.
func (n *Node) Unpin() {
	n.FixedX, n.FixedY = nil, nil
}

// SameGroup reports whether both nodes carry the same group tag.
// Nodes without a group never share one.
func SameGroup(a, b *Node) bool {
	return a.Group != nil && b.Group != nil && *a.Group == *b.Group
}

// Edge is a directed, capacitated arc of the flow network.
type Edge struct {
	ID       string
	Source   string
	Target   string
	Capacity float64
	Weight   *float64

	// HasReversePartner is true iff another edge runs Target -> Source.
	// It is derived once by New.
	HasReversePartner bool
}

// VertexState is the per-frame state of a vertex.
type VertexState struct {
	Alive  bool
	Height int
}

// EdgeState is the per-frame state of an edge.
type EdgeState struct {
	Flow              float64
	RemainingCapacity float64
	Admissible        bool
	ReverseAdmissible bool
}

// Saturated reports whether no residual capacity is left.
func (s EdgeState) Saturated() bool { return nearlyEqual(s.RemainingCapacity, 0) }

// PathStep is one entry of an augmenting path.
type PathStep struct {
	EdgeID   string
	Reversed bool // traversed against the edge's stored direction
}

// String renders the step the way traces encode it: a leading "-" marks a
// reversed traversal.
func (p PathStep) String() string {
	if p.Reversed {
		return "-" + p.EdgeID
	}
	return p.EdgeID
}

// ParsePathStep decodes a path entry such as "12" or "-12".
func ParsePathStep(s string) (PathStep, error) {
	if s == "" || s == "-" {
		return PathStep{}, fmt.Errorf("empty path entry %q", s)
	}
	if s[0] == '-' {
		return PathStep{EdgeID: s[1:], Reversed: true}, nil
	}
	return PathStep{EdgeID: s}, nil
}

// Frame is one snapshot of the algorithm state.
type Frame struct {
	Label          string
	Vertices       map[string]VertexState
	Edges          map[string]EdgeState
	AugmentingPath []PathStep
}

// Vertex returns the state of vertex id. A missing entry is an error, never
// a zero value.
func (f *Frame) Vertex(id string) (VertexState, error) {
	s, ok := f.Vertices[id]
	if !ok {
		return VertexState{}, fmt.Errorf("%w: vertex %q", ErrMissingState, id)
	}
	return s, nil
}

// EdgeState returns the state of edge id. A missing entry is an error,
// never a zero value.
func (f *Frame) EdgeState(id string) (EdgeState, error) {
	s, ok := f.Edges[id]
	if !ok {
		return EdgeState{}, fmt.Errorf("%w: edge %q", ErrMissingState, id)
	}
	return s, nil
}

// OnPath reports whether edge id (in either direction) is part of the
// frame's augmenting path.
func (f *Frame) OnPath(id string) bool {
	for _, step := range f.AugmentingPath {
		if step.EdgeID == id {
			return true
		}
	}
	return false
}

// Kind classifies the frame label.
func (f *Frame) Kind() FrameKind { return KindOf(f.Label) }

// capacityEpsilon bounds the rounding tolerated in remainingCapacity.
const capacityEpsilon = 1e-9

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= capacityEpsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
