// Package io reads and writes flow networks and traces.
//
// # Formats
//
// Two input formats are recognized:
//
//   - JSON trace documents ([graph.Document]): nodes, links and frames
//
//   - network text, the plain format max-flow test inputs use: a header
//     "n m s t" followed by m lines "u-(c)>v"
//
//     6 3 0 5
//     0-(7)>1
//     1-(5)>5
//     0-(4)>5
//
// A network has no trace of its own. [ReadNetwork] turns it into a
// document with a single "Initial" frame: zero flow, every vertex alive at
// height 0 except the source at height n, no admissible edges. Vertex ids
// are the decimal indices and link ids count from 1 in input order.
//
// # Import
//
// [ImportDocument] picks the format by extension (.json, or .txt/.net/.flow
// for network text) and otherwise sniffs the content:
//
//	doc, err := io.ImportDocument("cp-algorithms.txt")
//
// # Export
//
// [ExportDocument] writes JSON or network text by extension; [WriteScene]
// encodes a laid-out frame as JSON for external renderers.
//
// [graph.Document]: github.com/matzehuels/flowscope/pkg/graph.Document
package io
