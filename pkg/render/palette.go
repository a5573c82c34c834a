package render

import "github.com/matzehuels/flowscope/pkg/render/attrs"

// Output formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// Formats lists every output format in a stable order.
var Formats = []string{FormatSVG, FormatDOT, FormatJSON, FormatPDF, FormatPNG}

// Color is one palette entry under its Graphviz (X11) name and its SVG hex
// value, so DOT and SVG output look alike.
type Color struct {
	Name string
	Hex  string
}

// The Graphviz frame palette.
var (
	Black      = Color{"black", "#000000"}
	White      = Color{"white", "#ffffff"}
	Blue       = Color{"blue", "#0000ff"}
	Firebrick  = Color{"firebrick3", "#cd2626"}
	Chartreuse = Color{"chartreuse4", "#458b00"}
	Goldenrod  = Color{"goldenrod", "#daa520"}
	Gray       = Color{"gray", "#bebebe"}
)

// EdgeColor picks the stroke color of an edge. Used and plain edges are
// muted when no admissible direction is left, which the dashed stroke
// already signals.
func EdgeColor(a attrs.EdgeAttributes) Color {
	switch a.Category {
	case attrs.CategoryAugmenting:
		return Blue
	case attrs.CategorySaturated:
		return Firebrick
	case attrs.CategoryUsed:
		if a.Dash == attrs.DashDashed {
			return Goldenrod
		}
		return Chartreuse
	default:
		if a.Dash == attrs.DashDashed {
			return Gray
		}
		return Black
	}
}

// VertexColor picks the outline and label color of a vertex.
func VertexColor(a attrs.VertexAttributes) Color {
	if a.Border == attrs.BorderDead {
		return Firebrick
	}
	return Black
}
