package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// ANSI 256 colors. Red, green, yellow and blue double as the terminal
// rendition of the frame palette.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("70")
	colorYellow = lipgloss.Color("178")
	colorRed    = lipgloss.Color("160")
	colorBlue   = lipgloss.Color("33")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// kindStyles colors frame-kind badges.
var kindStyles = map[trace.FrameKind]lipgloss.Style{
	trace.KindInitial: lipgloss.NewStyle().Foreground(colorGray),
	trace.KindRelabel: lipgloss.NewStyle().Foreground(colorYellow),
	trace.KindPath:    lipgloss.NewStyle().Foreground(colorBlue),
	trace.KindPush:    lipgloss.NewStyle().Foreground(colorGreen),
	trace.KindFinal:   lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
	trace.KindOther:   lipgloss.NewStyle().Foreground(colorDim),
}

// paletteStyles maps the frame palette onto terminal colors.
var paletteStyles = map[render.Color]lipgloss.Style{
	render.Blue:       lipgloss.NewStyle().Foreground(colorBlue).Bold(true),
	render.Firebrick:  lipgloss.NewStyle().Foreground(colorRed),
	render.Chartreuse: lipgloss.NewStyle().Foreground(colorGreen),
	render.Goldenrod:  lipgloss.NewStyle().Foreground(colorYellow),
	render.Gray:       lipgloss.NewStyle().Foreground(colorDim),
	render.Black:      lipgloss.NewStyle().Foreground(colorWhite),
}

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// stdout receives the human-readable status lines. Logs go to stderr.
var stdout io.Writer = os.Stdout

var styleKey = lipgloss.NewStyle().Foreground(colorGray).Width(12)

func statusLine(icon string, iconStyle lipgloss.Style, text string) {
	fmt.Fprintln(stdout, iconStyle.Render(icon)+" "+text)
}

func printSuccess(format string, args ...any) {
	statusLine(iconSuccess, styleIconSuccess, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	statusLine(iconWarning, styleIconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	statusLine(iconInfo, styleIconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line under the previous status.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// statsLine joins the sizes of a trace and one cache marker per stage, e.g.
// "6 nodes · 9 edges · 14 frames · load cached · settle fresh".
func statsLine(st pipeline.Stats, ci pipeline.CacheInfo) string {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d nodes", st.NodeCount)),
		StyleDim.Render(fmt.Sprintf("%d edges", st.EdgeCount)),
		StyleDim.Render(fmt.Sprintf("%d frames", st.FrameCount)),
	}
	for _, s := range []struct {
		name string
		hit  bool
	}{{"load", ci.LoadHit}, {"settle", ci.SettleHit}, {"render", ci.RenderHit}} {
		status, style := iconFresh, styleComputed
		if s.hit {
			status, style = iconCached, styleCached
		}
		parts = append(parts, StyleDim.Render(s.name+" ")+style.Render(status))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// printStats prints the pipeline statistics on a single indented line.
func printStats(st pipeline.Stats, ci pipeline.CacheInfo) {
	fmt.Fprintln(stdout, "  "+statsLine(st, ci))
}

// kindBadge renders a frame kind in its color, padded to a fixed width.
func kindBadge(k trace.FrameKind) string {
	style, ok := kindStyles[k]
	if !ok {
		style = kindStyles[trace.KindOther]
	}
	return style.Width(8).Render(string(k))
}
