package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/render/attrs"
	"github.com/matzehuels/flowscope/pkg/render/scene"
)

// Terminal cells are about twice as tall as wide; the canvas squeezes the
// vertical axis by this factor so layouts keep their shape.
const cellAspect = 2.0

type cell struct {
	ch    rune
	style *lipgloss.Style
}

// canvas is a character grid a scene is rasterized onto.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i].ch = ' '
	}
	return c
}

func (c *canvas) set(x, y int, ch rune, style *lipgloss.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{ch, style}
}

// line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int, ch rune, style *lipgloss.Style) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		c.set(x0, y0, ch, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// text writes s starting at (x, y), clipped to the grid.
func (c *canvas) text(x, y int, s string, style *lipgloss.Style) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r, style)
	}
}

// String renders the grid row by row, styling runs of equal style once.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		row := c.cells[y*c.w : (y+1)*c.w]
		for i := 0; i < len(row); {
			j := i
			var run strings.Builder
			for j < len(row) && row[j].style == row[i].style {
				run.WriteRune(row[j].ch)
				j++
			}
			if row[i].style != nil {
				b.WriteString(row[i].style.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			i = j
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Marker characters of the canvas.
const (
	edgeRune   = '·'
	arrowRune  = '•'
	sourceRune = '◆'
	sinkRune   = '■'
	vertexRune = '●'
)

var (
	styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Reverse(true)
	styleVertex   = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleDead     = lipgloss.NewStyle().Foreground(colorRed)
)

// drawScene rasterizes sc onto a w by h canvas: edges as dotted lines in
// their palette color with a dot near the head, then every vertex as a
// marker followed by its label. The selected vertex is highlighted.
func drawScene(sc *scene.Scene, w, h int, selected string) *canvas {
	c := newCanvas(w, h)
	if w < 3 || h < 3 {
		return c
	}
	project := projector(sc.Bounds, w, h)

	for i := range sc.Edges {
		e := &sc.Edges[i]
		style := edgeStyle(e.Attrs)
		x0, y0 := project(e.Segment.Start.X, e.Segment.Start.Y)
		x1, y1 := project(e.Segment.End.X, e.Segment.End.Y)
		c.line(x0, y0, x1, y1, edgeRune, style)
		if e.Attrs.EndMarker == attrs.MarkerArrow {
			c.set(near(x1, x0), near(y1, y0), arrowRune, style)
		}
		if e.Attrs.StartMarker == attrs.MarkerArrow {
			c.set(near(x0, x1), near(y0, y1), arrowRune, style)
		}
	}

	for _, n := range sc.Nodes {
		x, y := project(n.Pos.X, n.Pos.Y)
		style := &styleVertex
		if n.Attrs.Border == attrs.BorderDead {
			style = &styleDead
		}
		if n.ID == selected {
			style = &styleSelected
		}
		marker := vertexRune
		switch n.Attrs.Role {
		case attrs.RoleSource:
			marker = sourceRune
		case attrs.RoleSink:
			marker = sinkRune
		}
		c.set(x, y, marker, style)
		label := strings.TrimSpace(n.Attrs.Label + " " + n.Attrs.HeightLabel)
		c.text(x+1, y, label, style)
	}
	return c
}

// projector maps scene coordinates into the grid, keeping the aspect ratio
// of the bounds and centering the smaller axis.
func projector(b scene.Bounds, w, h int) func(x, y float64) (int, int) {
	bw, bh := math.Max(b.Width(), 1), math.Max(b.Height(), 1)
	// Leave room for labels on the right edge.
	gw, gh := float64(w-4), float64(h-1)
	scale := math.Min(gw/bw, gh*cellAspect/bh)
	ox := (gw - bw*scale) / 2
	oy := (gh - bh*scale/cellAspect) / 2
	return func(x, y float64) (int, int) {
		cx := ox + (x-b.MinX)*scale
		cy := oy + (y-b.MinY)*scale/cellAspect
		return int(math.Round(cx)), int(math.Round(cy))
	}
}

// edgeStyle returns the terminal style of an edge's palette color.
func edgeStyle(a attrs.EdgeAttributes) *lipgloss.Style {
	if s, ok := paletteStyles[render.EdgeColor(a)]; ok {
		return &s
	}
	return nil
}

// near returns the grid coordinate one step from a toward b.
func near(a, b int) int { return a + sign(b-a) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
