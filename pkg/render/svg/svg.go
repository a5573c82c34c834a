// Package svg draws a frame scene as a standalone SVG document.
//
// Edges are straight lines between the trimmed endpoints the scene
// already carries; arrowheads are SVG markers, one pair per stroke color.
// Vertices are circles with an optional label of the form "id (height)".
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/render/attrs"
	"github.com/matzehuels/flowscope/pkg/render/scene"
)

const (
	fontFamily    = "Helvetica, Arial, sans-serif"
	labelFontSize = 10.0
	titleFontSize = 12.0
	deadDash      = "4 2"
	edgeDash      = "6 3"
)

// Option configures SVG rendering.
type Option func(*renderer)

type renderer struct {
	strokeWidth float64
	title       bool
	background  string
}

// WithStrokeWidth sets the vertex outline width (default 2).
func WithStrokeWidth(w float64) Option { return func(r *renderer) { r.strokeWidth = w } }

// WithoutTitle omits the frame caption.
func WithoutTitle() Option { return func(r *renderer) { r.title = false } }

// WithBackground fills the canvas with color instead of leaving it
// transparent.
func WithBackground(color string) Option { return func(r *renderer) { r.background = color } }

// Render draws sc.
func Render(sc *scene.Scene, opts ...Option) []byte {
	r := renderer{strokeWidth: 2, title: true}
	for _, opt := range opts {
		opt(&r)
	}

	b := sc.Bounds
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		b.MinX, b.MinY, b.Width(), b.Height(), b.Width(), b.Height())

	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			b.MinX, b.MinY, b.Width(), b.Height(), escape(r.background))
	}
	renderDefs(&buf, sc)
	renderEdges(&buf, sc)
	renderNodes(&buf, sc, r.strokeWidth)
	if r.title {
		renderTitle(&buf, sc)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer, sc *scene.Scene) {
	var colors []render.Color
	for _, e := range sc.Edges {
		if c := render.EdgeColor(e.Attrs); !slices.Contains(colors, c) {
			colors = append(colors, c)
		}
	}
	if len(colors) == 0 {
		return
	}

	buf.WriteString("  <defs>\n")
	for _, c := range colors {
		fmt.Fprintf(buf, `    <marker id="%s" refX="3" refY="3" markerWidth="6" markerHeight="6" orient="auto">`+
			`<path d="M 0 0 6 3 0 6 1.5 3" fill="%s"/></marker>`+"\n", endMarkerID(c), c.Hex)
		fmt.Fprintf(buf, `    <marker id="%s" refX="3" refY="3" markerWidth="6" markerHeight="6" orient="auto-start-reverse">`+
			`<path d="M 0 0 6 3 0 6 1.5 3" fill="white" stroke="%s" stroke-width="0.8"/></marker>`+"\n", startMarkerID(c), c.Hex)
	}
	buf.WriteString("  </defs>\n")
}

func endMarkerID(c render.Color) string   { return "arrow-" + c.Name }
func startMarkerID(c render.Color) string { return "tail-" + c.Name }

func renderEdges(buf *bytes.Buffer, sc *scene.Scene) {
	buf.WriteString(`  <g class="edges">` + "\n")
	for _, e := range sc.Edges {
		c := render.EdgeColor(e.Attrs)
		s := e.Segment
		fmt.Fprintf(buf, `    <line id="edge-%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f"`,
			escape(e.ID), s.Start.X, s.Start.Y, s.End.X, s.End.Y, c.Hex, e.Attrs.Width)
		if e.Attrs.Dash == attrs.DashDashed {
			fmt.Fprintf(buf, ` stroke-dasharray="%s"`, edgeDash)
		}
		if e.Attrs.StartMarker == attrs.MarkerArrow {
			fmt.Fprintf(buf, ` marker-start="url(#%s)"`, startMarkerID(c))
		}
		if e.Attrs.EndMarker == attrs.MarkerArrow {
			fmt.Fprintf(buf, ` marker-end="url(#%s)"`, endMarkerID(c))
		}
		buf.WriteString("/>\n")

		if e.Attrs.Label != "" {
			mid := s.Mid()
			fmt.Fprintf(buf, `    <text class="edge-label" x="%.2f" y="%.2f" font-family="%s" font-size="%.0f" fill="%s" text-anchor="middle">%s</text>`+"\n",
				mid.X, mid.Y-2, fontFamily, labelFontSize, c.Hex, escape(e.Attrs.Label))
		}
	}
	buf.WriteString("  </g>\n")
}

func renderNodes(buf *bytes.Buffer, sc *scene.Scene, strokeWidth float64) {
	buf.WriteString(`  <g class="nodes">` + "\n")
	for _, n := range sc.Nodes {
		a := n.Attrs
		c := render.VertexColor(a)
		fmt.Fprintf(buf, `    <circle id="node-%s" class="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="white" stroke="%s" stroke-width="%.1f" opacity="%.2f"`,
			escape(n.ID), a.Role, n.Pos.X, n.Pos.Y, a.Radius, c.Hex, strokeWidth, a.Opacity)
		if a.Border == attrs.BorderDead {
			fmt.Fprintf(buf, ` stroke-dasharray="%s"`, deadDash)
		}
		fmt.Fprintf(buf, "><title>%s</title></circle>\n", escape(n.ID))

		if label := nodeLabel(a); label != "" {
			fmt.Fprintf(buf, `    <text class="node-label" x="%.2f" y="%.2f" font-family="%s" font-size="%.0f" fill="%s" opacity="%.2f">%s</text>`+"\n",
				n.Pos.X+a.Radius+2, n.Pos.Y-a.Radius, fontFamily, labelFontSize, c.Hex, a.Opacity, escape(label))
		}
	}
	buf.WriteString("  </g>\n")
}

func nodeLabel(a attrs.VertexAttributes) string {
	switch {
	case a.Label != "" && a.HeightLabel != "":
		return a.Label + " (" + a.HeightLabel + ")"
	case a.HeightLabel != "":
		return "(" + a.HeightLabel + ")"
	default:
		return a.Label
	}
}

func renderTitle(buf *bytes.Buffer, sc *scene.Scene) {
	title := fmt.Sprintf("Frame %d/%d", sc.Frame+1, sc.FrameCount)
	if sc.Label != "" {
		title += ": " + sc.Label
	}
	if len(sc.Path) > 0 {
		title += " [" + strings.Join(sc.Path, " ") + "]"
	}
	fmt.Fprintf(buf, `  <text class="title" x="%.1f" y="%.1f" font-family="%s" font-size="%.0f">%s</text>`+"\n",
		sc.Bounds.MinX+4, sc.Bounds.MinY+titleFontSize+2, fontFamily, titleFontSize, escape(title))
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
