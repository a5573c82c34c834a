// Package graph provides the serialization types for flow network traces
// and settled layouts.
//
// This package defines the wire format read from trace files, accepted by
// the HTTP API, stored in trace stores and cached by the pipeline.
//
// # Architecture
//
// The package sits at the serialization boundary between the external
// document and the validated in-memory model:
//
//   - [Document], [Layout]: Serialization types (this package)
//   - pkg/trace.Graph: Validated network and trace
//
// Use [ToGraph] and [FromGraph] to convert between them. ToGraph is the
// only way a document becomes a graph, so every document passes the trace
// integrity checks of [trace.New] before anything is laid out or drawn.
//
// # Document Format
//
// Documents use a node-link JSON format with one entry per frame:
//
//	{
//	  "nodes": [{"id": "s", "source": true}, {"id": "t", "sink": true}],
//	  "links": [{"id": 1, "source": "s", "target": "t", "capacity": 10}],
//	  "frames": [{
//	    "label": "Initial",
//	    "vertices": {"s": {"alive": true, "height": 2}, "t": {"alive": true, "height": 0}},
//	    "edges": {"1": {"flow": 0, "remainingCapacity": 10, "admissible": true, "reverseAdmissible": false}},
//	    "augmentingPath": [1]
//	  }]
//	}
//
// Node and link ids may be JSON numbers or strings; they are normalized to
// strings. Augmenting path entries may be numbers, where a negative number
// marks traversal against the link's direction, or strings with a leading
// "-" for the same purpose.
//
// # Layout Format
//
// A [Layout] records settled node positions so a layout computed once can
// be reused across renders:
//
//	{"width": 960, "height": 600, "ticks": 300, "positions": [{"id": "s", "x": 412.5, "y": 300.1}]}
package graph
