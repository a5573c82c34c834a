package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/graph"
	flowio "github.com/matzehuels/flowscope/pkg/io"
	"github.com/matzehuels/flowscope/pkg/render/attrs"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var frames bool

	cmd := &cobra.Command{
		Use:   "validate <trace>",
		Short: "Check a trace and summarize its frames",
		Long: `Validate loads a trace document or network text file, checks that every
frame has a state for every vertex and edge and that flows respect
capacities, and prints a summary.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTraceFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadTrace(args[0])
			if err != nil {
				return err
			}
			printValidation(args[0], g, frames)
			return nil
		},
	}

	cmd.Flags().BoolVar(&frames, "frames", false, "list every frame")

	return cmd
}

// loadTrace imports and validates the trace at path.
func loadTrace(path string) (*trace.Graph, error) {
	doc, err := flowio.ImportDocument(path)
	if err != nil {
		return nil, err
	}
	return graph.ToGraph(doc)
}

func printValidation(path string, g *trace.Graph, listFrames bool) {
	printSuccess("%s is a valid trace", path)
	printKeyValue("Nodes", fmt.Sprint(g.NodeCount()))
	printKeyValue("Edges", fmt.Sprint(g.EdgeCount()))
	printKeyValue("Frames", fmt.Sprint(g.FrameCount()))
	if src, ok := g.Source(); ok {
		printKeyValue("Source", src.ID)
	}
	if snk, ok := g.Sink(); ok {
		printKeyValue("Sink", snk.ID)
	}
	last := g.Frame(g.FrameCount() - 1)
	printKeyValue("Flow", attrs.FormatNumber(flowValue(g, last)))
	printKeyValue("Steps", kindSummary(g))

	if !listFrames {
		return
	}
	fmt.Fprintln(stdout)
	for i := range g.Frames {
		f := g.Frame(i)
		line := fmt.Sprintf("%3d  %s %s", i, kindBadge(f.Kind()), f.Label)
		if len(f.AugmentingPath) > 0 {
			line += StyleDim.Render(fmt.Sprintf("  (path of %d)", len(f.AugmentingPath)))
		}
		fmt.Fprintln(stdout, "  "+line)
	}
}

// kindSummary counts frames per kind, e.g. "3 relabel, 2 path, 2 push".
func kindSummary(g *trace.Graph) string {
	order := []trace.FrameKind{trace.KindInitial, trace.KindRelabel, trace.KindPath, trace.KindPush, trace.KindFinal, trace.KindOther}
	counts := make(map[trace.FrameKind]int)
	for i := range g.Frames {
		counts[g.Frame(i).Kind()]++
	}
	var parts []string
	for _, k := range order {
		if counts[k] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
		}
	}
	return strings.Join(parts, ", ")
}

// flowValue is the net flow leaving the source in frame f, or zero when the
// graph has no source.
func flowValue(g *trace.Graph, f *trace.Frame) float64 {
	src, ok := g.Source()
	if !ok {
		return 0
	}
	var v float64
	for _, e := range g.Edges {
		st, err := f.EdgeState(e.ID)
		if err != nil {
			continue
		}
		switch src.ID {
		case e.Source:
			v += st.Flow
		case e.Target:
			v -= st.Flow
		}
	}
	return v
}
