// Package pkg holds the libraries behind flowscope, a viewer for recorded
// push-relabel max-flow runs.
//
// # Overview
//
// A trace is a flow network (vertices, capacitated edges, a source and a
// sink) plus a sequence of frames. Each frame records the state after one
// step of the algorithm: vertex heights and liveness, edge flows, residual
// capacities, admissibility and, on path frames, the augmenting path.
// flowscope does not run the algorithm; it lays the network out with a
// force simulation and shows the frames.
//
// The packages fall into four groups:
//
//  1. Model: [trace], [vec], [graph]
//  2. Core: [layout], [playback], [render/geometry], [render/attrs], [render/scene]
//  3. Adapters: [render/svg], [render/nodelink], [render], [io]
//  4. Services: [session], [pipeline], [api], [store], [cache], [config],
//     [errors], [observability], [buildinfo]
//
// # Data Flow
//
//	trace document (.json) or network text (.txt)
//	         ↓
//	    [io] + [graph] (decode, validate into a trace.Graph)
//	         ↓
//	    [layout] (force simulation: center, charge, collide, link, x, y)
//	         ↓
//	    [render/scene] (geometry + attributes for one frame)
//	         ↓
//	    SVG / DOT / JSON / PDF / PNG, terminal canvas, HTTP
//
// # Quick Start
//
// Load a trace, settle the layout and render the last frame:
//
//	doc, _ := io.ImportDocument("examples/diamond.json")
//	g, _ := graph.ToGraph(doc)
//
//	sim := layout.New(g, config.Default())
//	for sim.Running() {
//	    sim.Tick()
//	}
//
//	sc, _ := scene.FromConfig(g, g.FrameCount()-1, config.Default())
//	out := svg.Render(sc)
//
// Interactive use goes through a [session.Session], which owns the graph,
// the simulation and the frame cursor behind one lock:
//
//	s, _ := session.New(g, config.Default())
//	s.Settle(300)
//	s.Next()
//	sc, _ = s.Scene()
//
// # Testing
//
//	go test ./pkg/...                    # unit, example and property tests
//	go test -tags integration ./pkg/...  # also Redis and MongoDB (see FLOWSCOPE_REDIS_URL, FLOWSCOPE_MONGO_URI)
//
// [trace]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/trace
// [vec]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/vec
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/layout
// [playback]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/playback
// [render]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/render
// [render/geometry]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/render/geometry
// [render/attrs]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/render/attrs
// [render/scene]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/render/scene
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/render/svg
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/render/nodelink
// [io]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/io
// [session]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/session
// [session.Session]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/session#Session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/pipeline
// [api]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/api
// [store]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/buildinfo
package pkg
