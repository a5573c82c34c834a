package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/trace"
	"github.com/matzehuels/flowscope/pkg/vec"
)

const eps = 1e-9

// pairGraph builds s -> t (edge "1") and, when antiparallel, t -> s
// (edge "2"), with one frame holding the given edge state for every edge.
func pairGraph(t *testing.T, antiparallel bool, st trace.EdgeState) *trace.Graph {
	t.Helper()
	nodes := []trace.Node{{ID: "s", IsSource: true}, {ID: "t", IsSink: true}}
	edges := []trace.Edge{{ID: "1", Source: "s", Target: "t", Capacity: 10}}
	states := map[string]trace.EdgeState{"1": st}
	if antiparallel {
		edges = append(edges, trace.Edge{ID: "2", Source: "t", Target: "s", Capacity: 10})
		states["2"] = st
	}
	frame := trace.Frame{
		Vertices: map[string]trace.VertexState{"s": {Alive: true}, "t": {Alive: true}},
		Edges:    states,
	}
	g, err := trace.New(nodes, edges, []trace.Frame{frame})
	if err != nil {
		t.Fatalf("trace.New: %v", err)
	}
	return g
}

func place(g *trace.Graph, sx, sy, tx, ty float64) {
	s, _ := g.Node("s")
	d, _ := g.Node("t")
	s.X, s.Y = sx, sy
	d.X, d.Y = tx, ty
}

func resolver() Resolver {
	return NewResolver(config.Default())
}

func TestEndpointsTrim(t *testing.T) {
	// Source and sink radius 7.5, stroke width 2.
	tests := []struct {
		name       string
		state      trace.EdgeState
		start, end float64
	}{
		{"forward only", trace.EdgeState{RemainingCapacity: 10, Admissible: true}, 9.5, 100 - 9.5},
		{"both directions", trace.EdgeState{Flow: 5, RemainingCapacity: 5, Admissible: true, ReverseAdmissible: true}, 10.5, 100 - 9.5},
		{"reverse only", trace.EdgeState{Flow: 10, ReverseAdmissible: true}, 10.5, 100 - 8.5},
		{"neither", trace.EdgeState{RemainingCapacity: 10}, 9.5, 100 - 9.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := pairGraph(t, false, tt.state)
			place(g, 0, 0, 100, 0)
			e, _ := g.Edge("1")
			seg, err := resolver().Endpoints(g, e, g.Frame(0))
			if err != nil {
				t.Fatalf("Endpoints: %v", err)
			}
			if math.Abs(seg.Start.X-tt.start) > eps || math.Abs(seg.Start.Y) > eps {
				t.Errorf("start = %v, want (%v, 0)", seg.Start, tt.start)
			}
			if math.Abs(seg.End.X-tt.end) > eps || math.Abs(seg.End.Y) > eps {
				t.Errorf("end = %v, want (%v, 0)", seg.End, tt.end)
			}
		})
	}
}

func TestEndpointsReversePartner(t *testing.T) {
	g := pairGraph(t, true, trace.EdgeState{RemainingCapacity: 10, Admissible: true})
	place(g, 0, 0, 100, 0)
	r := resolver()
	fwdEdge, _ := g.Edge("1")
	revEdge, _ := g.Edge("2")
	fwd, err := r.Endpoints(g, fwdEdge, g.Frame(0))
	if err != nil {
		t.Fatal(err)
	}
	rev, err := r.Endpoints(g, revEdge, g.Frame(0))
	if err != nil {
		t.Fatal(err)
	}

	// The forward start is rotated counter-clockwise from +x.
	want := vec.New(9.5, 0).Rotate(math.Pi / 10)
	if fwd.Start.Dist(want) > eps {
		t.Errorf("forward start = %v, want %v", fwd.Start, want)
	}
	if fwd.Start.Dist(rev.End) < 1 {
		t.Errorf("forward start %v and reverse end %v coincide", fwd.Start, rev.End)
	}
	if fwd.End.Dist(rev.Start) < 1 {
		t.Errorf("forward end %v and reverse start %v coincide", fwd.End, rev.Start)
	}
}

func TestEndpointsCoincident(t *testing.T) {
	g := pairGraph(t, false, trace.EdgeState{RemainingCapacity: 10, Admissible: true})
	place(g, 50, 50, 50, 50)
	e, _ := g.Edge("1")
	seg, err := resolver().Endpoints(g, e, g.Frame(0))
	if err != nil {
		t.Fatalf("Endpoints: %v", err)
	}
	if !seg.Start.Finite() || !seg.End.Finite() {
		t.Fatalf("non-finite segment %v", seg)
	}
	if seg.Start != vec.New(59.5, 50) || seg.End != vec.New(40.5, 50) {
		t.Errorf("segment = %v, want fallback direction (1, 0)", seg)
	}
}

func TestEndpointsMissingState(t *testing.T) {
	g := pairGraph(t, false, trace.EdgeState{RemainingCapacity: 10})
	e, _ := g.Edge("1")
	f := &trace.Frame{Vertices: g.Frame(0).Vertices, Edges: map[string]trace.EdgeState{}}
	if _, err := resolver().Endpoints(g, e, f); !errors.Is(err, trace.ErrMissingState) {
		t.Errorf("err = %v, want ErrMissingState", err)
	}
	if _, err := resolver().All(g, f); !errors.Is(err, trace.ErrMissingState) {
		t.Errorf("All err = %v, want ErrMissingState", err)
	}
}

func TestSegment(t *testing.T) {
	s := Segment{Start: vec.New(0, 0), End: vec.New(0, 4)}
	if s.Mid() != vec.New(0, 2) {
		t.Errorf("Mid = %v", s.Mid())
	}
	if math.Abs(s.Angle()-math.Pi/2) > eps {
		t.Errorf("Angle = %v", s.Angle())
	}
}

func TestEndpointProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	r := resolver()

	properties.Property("ends sit on the node borders", prop.ForAll(
		func(sx, sy, tx, ty float64, adm, rev, pair bool) bool {
			st := trace.EdgeState{RemainingCapacity: 10, Admissible: adm, ReverseAdmissible: rev}
			g := pairGraph(t, pair, st)
			place(g, sx, sy, tx, ty)
			e, _ := g.Edge("1")
			seg, err := r.Endpoints(g, e, g.Frame(0))
			if err != nil {
				return false
			}
			wantStart := 9.5
			if rev {
				wantStart++
			}
			wantEnd := 9.5
			if !adm && rev {
				wantEnd--
			}
			ds := seg.Start.Dist(vec.New(sx, sy))
			de := seg.End.Dist(vec.New(tx, ty))
			return math.Abs(ds-wantStart) < 1e-6 && math.Abs(de-wantEnd) < 1e-6
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("antiparallel strokes never coincide", prop.ForAll(
		func(sx, sy, tx, ty float64) bool {
			g := pairGraph(t, true, trace.EdgeState{RemainingCapacity: 10, Admissible: true})
			place(g, sx, sy, tx, ty)
			fwdEdge, _ := g.Edge("1")
			revEdge, _ := g.Edge("2")
			fwd, err1 := r.Endpoints(g, fwdEdge, g.Frame(0))
			rev, err2 := r.Endpoints(g, revEdge, g.Frame(0))
			if err1 != nil || err2 != nil {
				return false
			}
			return fwd.Start.Dist(rev.End) > 1 && fwd.End.Dist(rev.Start) > 1
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}
