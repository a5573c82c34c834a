// Package nodelink renders frames through Graphviz.
//
// # Overview
//
// [ToDOT] writes one frame as DOT in the classic push-relabel frame-dump
// scheme: saturated edges firebrick3, used edges chartreuse4 (goldenrod
// and dashed once no admissible direction is left), untouched blocked
// edges gray and dashed, the augmenting path blue. Dead vertices are drawn
// dashed in firebrick3 and every vertex is labeled "id (height)".
//
// # Usage
//
//	dot := nodelink.ToDOT(sc, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot, nodelink.EngineDot)
//
// With [Options.Pinned] each node carries its simulated position as a
// pinned pos attribute, and [Render] lays the graph out with neato so the
// drawing matches the force layout:
//
//	svg, err := nodelink.Render(sc, nodelink.Options{Pinned: true})
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
