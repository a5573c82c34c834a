package trace

import (
	"errors"
	"fmt"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
)

var (
	// ErrEmptyID is returned by [New] when a node or edge has no id.
	ErrEmptyID = errors.New("id must not be empty")

	// ErrDuplicateID is returned by [New] when two nodes or two edges share
	// an id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownNode is returned by [New] when an edge endpoint does not
	// name a node, and by lookups for unknown node ids.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownEdge is returned by lookups for unknown edge ids and when an
	// augmenting path names an edge that does not exist.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrNoFrames is returned by [New] when the trace is empty.
	ErrNoFrames = errors.New("trace has no frames")

	// ErrMissingState is returned when a frame lacks the state of a vertex
	// or edge of the graph.
	ErrMissingState = errors.New("missing frame state")

	// ErrInvalidTrace wraps all integrity faults found by [New].
	ErrInvalidTrace = errors.New("invalid trace")
)

// maxFaults bounds how many integrity faults New reports at once.
const maxFaults = 50

// Graph is the flow network plus its trace.
//
// The zero value is not usable; use [New].
type Graph struct {
	Nodes  []*Node
	Edges  []*Edge
	Frames []Frame

	nodes map[string]*Node
	edges map[string]*Edge
}

// New builds a graph from its parts, derives reverse partners and validates
// the trace. The node and edge values are copied; the frames are kept.
func New(nodes []Node, edges []Edge, frames []Frame) (*Graph, error) {
	g := &Graph{
		Nodes:  make([]*Node, 0, len(nodes)),
		Edges:  make([]*Edge, 0, len(edges)),
		Frames: frames,
		nodes:  make(map[string]*Node, len(nodes)),
		edges:  make(map[string]*Edge, len(edges)),
	}

	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, ErrEmptyID, "node #%d", i)
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, ErrDuplicateID, "node %q", n.ID)
		}
		n.index = len(g.Nodes)
		g.Nodes = append(g.Nodes, &n)
		g.nodes[n.ID] = &n
	}

	for i := range edges {
		e := edges[i]
		if e.ID == "" {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, ErrEmptyID, "edge #%d", i)
		}
		if _, dup := g.edges[e.ID]; dup {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, ErrDuplicateID, "edge %q", e.ID)
		}
		if _, ok := g.nodes[e.Source]; !ok {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, ErrUnknownNode, "edge %q source %q", e.ID, e.Source)
		}
		if _, ok := g.nodes[e.Target]; !ok {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, ErrUnknownNode, "edge %q target %q", e.ID, e.Target)
		}
		if e.Capacity < 0 {
			return nil, ferrors.NewFrameError(ferrors.ErrCodeInvariantViolation, -1, e.ID, "negative capacity %g", e.Capacity)
		}
		e.HasReversePartner = false
		g.Edges = append(g.Edges, &e)
		g.edges[e.ID] = &e
	}

	markReversePartners(g.Edges)

	if len(frames) == 0 {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, ErrNoFrames, "load trace")
	}
	if err := g.validateFrames(); err != nil {
		return nil, err
	}
	return g, nil
}

// markReversePartners flags every edge u->v for which some edge v->u exists.
// Self loops are their own reverse and are not flagged.
func markReversePartners(edges []*Edge) {
	type arc struct{ from, to string }
	seen := make(map[arc]bool, len(edges))
	for _, e := range edges {
		seen[arc{e.Source, e.Target}] = true
	}
	for _, e := range edges {
		if e.Source != e.Target && seen[arc{e.Target, e.Source}] {
			e.HasReversePartner = true
		}
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Endpoints resolves the source and target nodes of e.
func (g *Graph) Endpoints(e *Edge) (src, dst *Node, err error) {
	src, ok := g.nodes[e.Source]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownNode, e.Source)
	}
	dst, ok = g.nodes[e.Target]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownNode, e.Target)
	}
	return src, dst, nil
}

// Frame returns frame i, or nil when i is out of range.
func (g *Graph) Frame(i int) *Frame {
	if i < 0 || i >= len(g.Frames) {
		return nil
	}
	return &g.Frames[i]
}

// FrameCount returns the number of frames in the trace.
func (g *Graph) FrameCount() int { return len(g.Frames) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Source returns the first node flagged as source, if any.
func (g *Graph) Source() (*Node, bool) {
	for _, n := range g.Nodes {
		if n.IsSource {
			return n, true
		}
	}
	return nil, false
}

// Sink returns the first node flagged as sink, if any.
func (g *Graph) Sink() (*Node, bool) {
	for _, n := range g.Nodes {
		if n.IsSink {
			return n, true
		}
	}
	return nil, false
}

// Degree returns the number of edges incident to each node, indexed like
// [Graph.Nodes].
func (g *Graph) Degree() []int {
	deg := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		deg[g.nodes[e.Source].index]++
		deg[g.nodes[e.Target].index]++
	}
	return deg
}
