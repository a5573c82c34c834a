package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/render/attrs"
	"github.com/matzehuels/flowscope/pkg/render/scene"
)

// Graphviz layout engines.
const (
	EngineDot   = "dot"
	EngineNeato = "neato"
)

// Options configures DOT generation.
type Options struct {
	// Detailed labels edges with residual capacities "c_f/c_f_rev/c" and
	// the weight, instead of the resolved display label.
	Detailed bool

	// Pinned emits each node's scene position so neato keeps the layout of
	// the force simulation.
	Pinned bool
}

// Engine returns the layout engine that honors these options.
func (o Options) Engine() string {
	if o.Pinned {
		return EngineNeato
	}
	return EngineDot
}

// ToDOT converts a frame scene to Graphviz DOT. Edge direction follows the
// residual capacities: "forward" while only the edge has capacity left,
// "back" once only its reverse does, "both" otherwise.
func ToDOT(sc *scene.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  labelloc=\"t\"; label=%q; ordering=out;\n", sc.Label)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Pinned {
		buf.WriteString("  inputscale=72; splines=true; overlap=true;\n")
		buf.WriteString("  node [shape=circle, fixedsize=true, width=0.3, fontsize=10];\n")
	}
	buf.WriteString("\n")

	for _, n := range sc.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range sc.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e, opts), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n scene.NodeView, opts Options) []string {
	a := n.Attrs
	color := render.VertexColor(a).Name
	style := "solid"
	if a.Border == attrs.BorderDead {
		style = "dashed"
	}
	out := []string{
		fmt.Sprintf("label=%q", fmt.Sprintf("%s (%2d)", n.ID, a.Height)),
		fmt.Sprintf("color=%q", color),
		fmt.Sprintf("fontcolor=%q", color),
		fmt.Sprintf("style=%q", style),
	}
	if a.Role != attrs.RoleInner {
		out = append(out, "penwidth=2")
	}
	if opts.Pinned {
		// Graphviz puts the origin bottom-left.
		out = append(out, fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.Pos.X, -n.Pos.Y))
	}
	return out
}

func edgeAttrs(e scene.EdgeView, opts Options) []string {
	style := "solid"
	if e.Attrs.Dash == attrs.DashDashed {
		style = "dashed"
	}
	return []string{
		"label=" + quote(edgeLabel(e, opts.Detailed)),
		fmt.Sprintf("color=%q", render.EdgeColor(e.Attrs).Name),
		fmt.Sprintf("style=%q", style),
		fmt.Sprintf("dir=%q", direction(e)),
		"arrowtail=\"empty\"",
		fmt.Sprintf("penwidth=%s", attrs.FormatNumber(2*e.Attrs.Width)),
	}
}

func direction(e scene.EdgeView) string {
	reverse := e.Flow > 0
	switch {
	case reverse && e.RemainingCapacity <= 0:
		return "back"
	case reverse:
		return "both"
	default:
		return "forward"
	}
}

func edgeLabel(e scene.EdgeView, detailed bool) string {
	if !detailed {
		return e.Attrs.Label
	}
	label := fmt.Sprintf("%s/%s/%s", attrs.FormatNumber(e.RemainingCapacity),
		attrs.FormatNumber(e.Flow), attrs.FormatNumber(e.Capacity))
	if e.Weight != nil {
		label += `\lw=` + attrs.FormatNumber(*e.Weight)
	}
	return label
}

// RenderSVG lays out a DOT graph with the given engine and renders it to
// SVG using Graphviz. An empty engine means [EngineDot].
func RenderSVG(dot, engine string) ([]byte, error) {
	if engine == "" {
		engine = EngineDot
	}
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render converts sc to DOT and renders it to SVG with the engine the
// options call for.
func Render(sc *scene.Scene, opts Options) ([]byte, error) {
	return RenderSVG(ToDOT(sc, opts), opts.Engine())
}

// quote wraps s for DOT, keeping escapes such as \l intact.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a scene as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(sc *scene.Scene, opts Options) ([]byte, error) {
	svg, err := Render(sc, opts)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a scene as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(sc *scene.Scene, opts Options, scale float64) ([]byte, error) {
	svg, err := Render(sc, opts)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
