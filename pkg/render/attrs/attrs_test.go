package attrs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/trace"
)

func resolver() Resolver { return NewResolver(config.Default()) }

func edgeFrame(st trace.EdgeState, path ...trace.PathStep) *trace.Frame {
	return &trace.Frame{
		Vertices:       map[string]trace.VertexState{"A": {Alive: true}, "B": {Alive: true}},
		Edges:          map[string]trace.EdgeState{"0": st},
		AugmentingPath: path,
	}
}

var e0 = &trace.Edge{ID: "0", Source: "A", Target: "B", Capacity: 10}

func TestScenarioPlainEdge(t *testing.T) {
	f := edgeFrame(trace.EdgeState{RemainingCapacity: 10, Admissible: true})
	a, err := resolver().Edge(e0, f)
	if err != nil {
		t.Fatal(err)
	}
	if a.Category != CategoryPlain || a.Dash != DashSolid || a.EndMarker != MarkerArrow || a.StartMarker != MarkerNone {
		t.Errorf("attrs = %+v", a)
	}
	if a.Width != 1 {
		t.Errorf("width = %v, want 1", a.Width)
	}
}

func TestScenarioAugmentingEdge(t *testing.T) {
	f := edgeFrame(trace.EdgeState{Flow: 10}, trace.PathStep{EdgeID: "0"})
	a, err := resolver().Edge(e0, f)
	if err != nil {
		t.Fatal(err)
	}
	if a.Category != CategoryAugmenting {
		t.Errorf("category = %v, want augmenting", a.Category)
	}
	if a.Width != 1.5 || !a.OnPath {
		t.Errorf("width = %v onPath = %v, want 1.5 true", a.Width, a.OnPath)
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name   string
		state  trace.EdgeState
		onPath bool
		want   Category
	}{
		{"plain", trace.EdgeState{RemainingCapacity: 3}, false, CategoryPlain},
		{"used", trace.EdgeState{Flow: 1, RemainingCapacity: 2}, false, CategoryUsed},
		{"saturated", trace.EdgeState{Flow: 3}, false, CategorySaturated},
		{"saturated beats used", trace.EdgeState{Flow: 5, RemainingCapacity: 0}, false, CategorySaturated},
		{"saturated without flow", trace.EdgeState{}, false, CategorySaturated},
		{"path beats saturated", trace.EdgeState{Flow: 3}, true, CategoryAugmenting},
		{"path beats plain", trace.EdgeState{RemainingCapacity: 3}, true, CategoryAugmenting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.state, tt.onPath); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReversedPathStepIsAugmenting(t *testing.T) {
	f := edgeFrame(trace.EdgeState{Flow: 4, RemainingCapacity: 6}, trace.PathStep{EdgeID: "0", Reversed: true})
	a, err := resolver().Edge(e0, f)
	if err != nil {
		t.Fatal(err)
	}
	if a.Category != CategoryAugmenting {
		t.Errorf("category = %v, want augmenting", a.Category)
	}
}

func TestDashAndMarkers(t *testing.T) {
	tests := []struct {
		adm, rev   bool
		dash       Dash
		start, end Marker
	}{
		{true, false, DashSolid, MarkerNone, MarkerArrow},
		{true, true, DashSolid, MarkerArrow, MarkerArrow},
		{false, true, DashSolid, MarkerArrow, MarkerNone},
		{false, false, DashDashed, MarkerNone, MarkerArrow},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("adm=%v,rev=%v", tt.adm, tt.rev), func(t *testing.T) {
			f := edgeFrame(trace.EdgeState{Flow: 2, RemainingCapacity: 8, Admissible: tt.adm, ReverseAdmissible: tt.rev})
			a, err := resolver().Edge(e0, f)
			if err != nil {
				t.Fatal(err)
			}
			if a.Dash != tt.dash || a.StartMarker != tt.start || a.EndMarker != tt.end {
				t.Errorf("dash=%v start=%v end=%v, want %v %v %v", a.Dash, a.StartMarker, a.EndMarker, tt.dash, tt.start, tt.end)
			}
		})
	}
}

func TestEdgeLabels(t *testing.T) {
	w := 2.5
	weighted := &trace.Edge{ID: "0", Source: "A", Target: "B", Capacity: 10, Weight: &w}
	f := edgeFrame(trace.EdgeState{Flow: 4, RemainingCapacity: 6})

	tests := []struct {
		name   string
		edge   *trace.Edge
		labels bool
		weight bool
		want   string
	}{
		{"flow over capacity", weighted, true, false, "4/10"},
		{"weight", weighted, true, true, "2.5"},
		{"weight missing", e0, true, true, "4/10"},
		{"labels off", weighted, false, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolver()
			r.Display.EdgeLabels = tt.labels
			r.Display.ShowWeights = tt.weight
			a, err := r.Edge(tt.edge, f)
			if err != nil {
				t.Fatal(err)
			}
			if a.Label != tt.want {
				t.Errorf("label = %q, want %q", a.Label, tt.want)
			}
		})
	}
}

func TestEdgeMissingState(t *testing.T) {
	f := &trace.Frame{Edges: map[string]trace.EdgeState{}}
	if _, err := resolver().Edge(e0, f); !errors.Is(err, trace.ErrMissingState) {
		t.Errorf("err = %v, want ErrMissingState", err)
	}
}

func TestVertex(t *testing.T) {
	a := &trace.Node{ID: "A", IsSource: true}
	b := &trace.Node{ID: "B", X: 123, Y: -4}
	f := &trace.Frame{Vertices: map[string]trace.VertexState{
		"A": {Alive: true, Height: 2},
		"B": {Alive: false, Height: 1},
	}}

	r := resolver()
	va, err := r.Vertex(a, f)
	if err != nil {
		t.Fatal(err)
	}
	if va.Border != BorderNormal || va.Opacity != 1 || va.Role != RoleSource || va.Radius != 7.5 {
		t.Errorf("source attrs = %+v", va)
	}
	if va.Label != "A" || va.HeightLabel != "" {
		t.Errorf("labels = %q %q, want id and no height", va.Label, va.HeightLabel)
	}

	vb, err := r.Vertex(b, f)
	if err != nil {
		t.Fatal(err)
	}
	if vb.Border != BorderDead || vb.Opacity != 0.2 || vb.Role != RoleInner || vb.Radius != 5 {
		t.Errorf("dead attrs = %+v", vb)
	}

	r.Display.Heights = true
	r.Display.VertexLabels = false
	va, _ = r.Vertex(a, f)
	if va.HeightLabel != "2" || va.Label != "" {
		t.Errorf("labels = %q %q, want no id and height 2", va.Label, va.HeightLabel)
	}

	if _, err := r.Vertex(&trace.Node{ID: "C"}, f); !errors.Is(err, trace.ErrMissingState) {
		t.Errorf("err = %v, want ErrMissingState", err)
	}
}

func TestRoleOf(t *testing.T) {
	if RoleOf(&trace.Node{IsSink: true}) != RoleSink {
		t.Error("sink")
	}
	if RoleOf(&trace.Node{IsSource: true, IsSink: true}) != RoleSource {
		t.Error("source wins")
	}
}

func ExampleClassify() {
	full := trace.EdgeState{Flow: 10, RemainingCapacity: 0}
	fmt.Println(Classify(full, false))
	fmt.Println(Classify(full, true))
	// Output:
	// saturated
	// augmenting
}

func ExampleFormatNumber() {
	fmt.Println(FormatNumber(10), FormatNumber(2.5), FormatNumber(-0.125))
	// Output: 10 2.5 -0.125
}
