package scene

import (
	"testing"

	"github.com/matzehuels/flowscope/pkg/config"
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/render/attrs"
	"github.com/matzehuels/flowscope/pkg/trace"
)

func sampleGraph(t *testing.T) *trace.Graph {
	t.Helper()
	nodes := []trace.Node{
		{ID: "s", IsSource: true, X: 0, Y: 0},
		{ID: "a", X: 50, Y: 0},
		{ID: "t", IsSink: true, X: 100, Y: 20},
	}
	edges := []trace.Edge{
		{ID: "1", Source: "s", Target: "a", Capacity: 4},
		{ID: "2", Source: "a", Target: "t", Capacity: 2},
		{ID: "3", Source: "t", Target: "a", Capacity: 1},
	}
	alive := map[string]trace.VertexState{"s": {Alive: true, Height: 3}, "a": {Alive: true}, "t": {Alive: true}}
	frames := []trace.Frame{
		{
			Label:    "Initial",
			Vertices: alive,
			Edges: map[string]trace.EdgeState{
				"1": {RemainingCapacity: 4, Admissible: true},
				"2": {RemainingCapacity: 2},
				"3": {RemainingCapacity: 1},
			},
		},
		{
			Label:    "Traced path 1 2",
			Vertices: map[string]trace.VertexState{"s": {Alive: true, Height: 3}, "a": {Alive: false, Height: 1}, "t": {Alive: true}},
			Edges: map[string]trace.EdgeState{
				"1": {Flow: 2, RemainingCapacity: 2, Admissible: true, ReverseAdmissible: true},
				"2": {Flow: 2},
				"3": {RemainingCapacity: 1},
			},
			AugmentingPath: []trace.PathStep{{EdgeID: "1"}, {EdgeID: "2"}},
		},
	}
	g, err := trace.New(nodes, edges, frames)
	if err != nil {
		t.Fatalf("trace.New: %v", err)
	}
	return g
}

func TestBuild(t *testing.T) {
	g := sampleGraph(t)
	s, err := FromConfig(g, 1, config.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Frame != 1 || s.FrameCount != 2 || s.Kind != trace.KindPath {
		t.Errorf("header = %d/%d %v", s.Frame, s.FrameCount, s.Kind)
	}
	if len(s.Nodes) != 3 || len(s.Edges) != 3 {
		t.Fatalf("got %d nodes %d edges", len(s.Nodes), len(s.Edges))
	}
	if s.Nodes[0].ID != "s" || s.Edges[2].ID != "3" {
		t.Error("graph order not kept")
	}
	if len(s.Path) != 2 || s.Path[0] != "1" {
		t.Errorf("path = %v", s.Path)
	}

	a, _ := s.Node("a")
	if a.Attrs.Border != attrs.BorderDead {
		t.Errorf("a border = %v, want dead", a.Attrs.Border)
	}
	e2, _ := s.Edge("2")
	if e2.Attrs.Category != attrs.CategoryAugmenting || e2.Flow != 2 || !e2.HasReversePartner {
		t.Errorf("edge 2 = %+v", e2)
	}
	e3, _ := s.Edge("3")
	if e3.Attrs.Category != attrs.CategoryPlain || e3.Attrs.Dash != attrs.DashDashed {
		t.Errorf("edge 3 attrs = %+v", e3.Attrs)
	}
	if _, ok := s.Edge("9"); ok {
		t.Error("unknown edge found")
	}
}

func TestBounds(t *testing.T) {
	s, err := FromConfig(sampleGraph(t), 0, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	// Terminal radius 7.5, padding 20.
	want := Bounds{MinX: -27.5, MinY: -27.5, MaxX: 127.5, MaxY: 47.5}
	if s.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", s.Bounds, want)
	}
	if s.Bounds.Width() != 155 || s.Bounds.Height() != 75 {
		t.Errorf("size = %v x %v", s.Bounds.Width(), s.Bounds.Height())
	}
}

func TestBuildErrors(t *testing.T) {
	g := sampleGraph(t)
	for _, i := range []int{-1, 2} {
		if _, err := FromConfig(g, i, config.Default()); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
			t.Errorf("frame %d: err = %v, want INVALID_INPUT", i, err)
		}
	}

	delete(g.Frames[0].Edges, "2")
	_, err := FromConfig(g, 0, config.Default())
	if !ferrors.Is(err, ferrors.ErrCodeMissingFrameEntry) {
		t.Fatalf("err = %v, want MISSING_FRAME_ENTRY", err)
	}
	if got := err.Error(); got != "MISSING_FRAME_ENTRY: frame 0: edge 2: missing frame state: edge \"2\"" {
		t.Errorf("message = %q", got)
	}
}
