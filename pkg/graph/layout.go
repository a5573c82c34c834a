package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/flowscope/pkg/trace"
)

// =============================================================================
// Layout - Settled Positions
// =============================================================================

// Layout records the node positions of a settled simulation together with
// the canvas they were computed for.
type Layout struct {
	Width     float64    `json:"width" bson:"width"`
	Height    float64    `json:"height" bson:"height"`
	Ticks     int        `json:"ticks" bson:"ticks"`
	Alpha     float64    `json:"alpha" bson:"alpha"`
	Positions []Position `json:"positions" bson:"positions"`
}

// Position is the location of one node. Pinned nodes are held at (X, Y)
// by the simulation.
type Position struct {
	ID     string  `json:"id" bson:"id"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Pinned bool    `json:"pinned,omitempty" bson:"pinned,omitempty"`
}

// LayoutOf captures the current node positions of g.
func LayoutOf(g *trace.Graph, width, height float64) Layout {
	l := Layout{
		Width:     width,
		Height:    height,
		Positions: make([]Position, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		p := Position{ID: n.ID, X: n.X, Y: n.Y}
		if n.FixedX != nil && n.FixedY != nil {
			p.X, p.Y, p.Pinned = *n.FixedX, *n.FixedY, true
		}
		l.Positions[i] = p
	}
	return l
}

// Matches returns how many recorded positions name a node of g.
func (l Layout) Matches(g *trace.Graph) int {
	n := 0
	for _, p := range l.Positions {
		if _, ok := g.Node(p.ID); ok {
			n++
		}
	}
	return n
}

// Apply moves the nodes of g to the recorded positions and clears their
// velocities. Recorded pins are restored and every other placed node is
// unpinned. It returns how many nodes were placed; positions for unknown
// ids are ignored.
func (l Layout) Apply(g *trace.Graph) int {
	placed := 0
	for _, p := range l.Positions {
		n, ok := g.Node(p.ID)
		if !ok {
			continue
		}
		n.X, n.Y = p.X, p.Y
		n.VX, n.VY = 0, 0
		if p.Pinned {
			n.Pin(p.X, p.Y)
		} else {
			n.Unpin()
		}
		placed++
	}
	return placed
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if len(l.Positions) == 0 {
		return Layout{}, fmt.Errorf("layout must contain positions")
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
