package pipeline

import (
	"bytes"
	"fmt"

	flowio "github.com/matzehuels/flowscope/pkg/io"
	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/render/nodelink"
	"github.com/matzehuels/flowscope/pkg/render/scene"
	"github.com/matzehuels/flowscope/pkg/render/svg"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// RenderFrame draws frame i of g in every format of opts.Formats, using
// the node positions g currently holds.
func RenderFrame(g *trace.Graph, i int, opts Options) ([]Artifact, error) {
	sc, err := scene.FromConfig(g, i, opts.Config)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", i, err)
	}

	artifacts := make([]Artifact, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := RenderScene(sc, format, opts)
		if err != nil {
			return nil, fmt.Errorf("frame %d: render %s: %w", i, format, err)
		}
		artifacts = append(artifacts, Artifact{Frame: i, Label: sc.Label, Format: format, Data: data})
	}
	return artifacts, nil
}

// RenderScene draws one scene in one format. Graphviz selects the DOT
// renderer for svg, pdf and png; otherwise those are drawn directly and
// converted with rsvg-convert.
func RenderScene(sc *scene.Scene, format string, opts Options) ([]byte, error) {
	nl := nodelink.Options{Detailed: opts.Detailed, Pinned: opts.Pinned}

	switch format {
	case render.FormatDOT:
		return []byte(nodelink.ToDOT(sc, nl)), nil
	case render.FormatJSON:
		var buf bytes.Buffer
		if err := flowio.WriteScene(sc, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	if opts.Graphviz {
		switch format {
		case render.FormatSVG:
			return nodelink.Render(sc, nl)
		case render.FormatPDF:
			return nodelink.RenderPDF(sc, nl)
		case render.FormatPNG:
			return nodelink.RenderPNG(sc, nl, opts.Scale)
		}
	}

	drawn := svg.Render(sc, svg.WithStrokeWidth(opts.Config.Style.StrokeWidth))
	switch format {
	case render.FormatSVG:
		return drawn, nil
	case render.FormatPDF, render.FormatPNG:
		return render.Convert(drawn, format, opts.Scale)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
