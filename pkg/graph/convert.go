package graph

import (
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// ToGraph validates a document and converts it into a [trace.Graph].
// Any structural or integrity fault aborts the conversion.
func ToGraph(doc Document) (*trace.Graph, error) {
	nodes := make([]trace.Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		nodes[i] = trace.Node{
			ID:       string(n.ID),
			Group:    n.Group,
			IsSource: n.Source,
			IsSink:   n.Sink,
		}
	}

	edges := make([]trace.Edge, len(doc.Links))
	for i, l := range doc.Links {
		edges[i] = trace.Edge{
			ID:       string(l.ID),
			Source:   string(l.Source),
			Target:   string(l.Target),
			Capacity: l.Capacity,
			Weight:   l.Weight,
		}
	}

	frames := make([]trace.Frame, len(doc.Frames))
	for i, f := range doc.Frames {
		tf, err := toFrame(i, f)
		if err != nil {
			return nil, err
		}
		frames[i] = tf
	}

	return trace.New(nodes, edges, frames)
}

func toFrame(index int, f Frame) (trace.Frame, error) {
	out := trace.Frame{
		Label:    f.Label,
		Vertices: make(map[string]trace.VertexState, len(f.Vertices)),
		Edges:    make(map[string]trace.EdgeState, len(f.Edges)),
	}
	for id, v := range f.Vertices {
		out.Vertices[id] = trace.VertexState{Alive: v.Alive, Height: v.Height}
	}
	for id, e := range f.Edges {
		out.Edges[id] = trace.EdgeState{
			Flow:              e.Flow,
			RemainingCapacity: e.RemainingCapacity,
			Admissible:        e.Admissible,
			ReverseAdmissible: e.ReverseAdmissible,
		}
	}
	for _, p := range f.AugmentingPath {
		step, err := trace.ParsePathStep(string(p))
		if err != nil {
			return trace.Frame{}, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, err, "frame %d", index)
		}
		out.AugmentingPath = append(out.AugmentingPath, step)
	}
	return out, nil
}

// FromGraph converts a graph back into its serialized form.
// Nodes and links keep their graph order; the output is deterministic.
func FromGraph(g *trace.Graph) Document {
	doc := Document{
		Nodes:  make([]Node, len(g.Nodes)),
		Links:  make([]Link, len(g.Edges)),
		Frames: make([]Frame, len(g.Frames)),
	}
	for i, n := range g.Nodes {
		doc.Nodes[i] = Node{ID: ID(n.ID), Group: n.Group, Source: n.IsSource, Sink: n.IsSink}
	}
	for i, e := range g.Edges {
		doc.Links[i] = Link{
			ID:       ID(e.ID),
			Source:   ID(e.Source),
			Target:   ID(e.Target),
			Capacity: e.Capacity,
			Weight:   e.Weight,
		}
	}
	for i, f := range g.Frames {
		doc.Frames[i] = fromFrame(f)
	}
	return doc
}

func fromFrame(f trace.Frame) Frame {
	out := Frame{
		Label:    f.Label,
		Vertices: make(map[string]VertexState, len(f.Vertices)),
		Edges:    make(map[string]EdgeState, len(f.Edges)),
	}
	for id, v := range f.Vertices {
		out.Vertices[id] = VertexState{Alive: v.Alive, Height: v.Height}
	}
	for id, e := range f.Edges {
		out.Edges[id] = EdgeState{
			Flow:              e.Flow,
			RemainingCapacity: e.RemainingCapacity,
			Admissible:        e.Admissible,
			ReverseAdmissible: e.ReverseAdmissible,
		}
	}
	for _, step := range f.AugmentingPath {
		out.AugmentingPath = append(out.AugmentingPath, PathEntry(step.String()))
	}
	return out
}
