package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/graph"
	flowio "github.com/matzehuels/flowscope/pkg/io"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var stdout bool

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert between network text and trace documents",
		Long: `Convert reads a trace document (.json) or a network text file (.txt, .net,
.flow) and writes it in the format named by the output extension.

Converting network text to JSON yields a one-frame trace with zero flow,
ready to be extended by a tracer. Converting a trace back to network text
keeps only the vertices, the terminals and the capacities.`,
		Example: `  flowscope convert network.txt network.json
  flowscope convert trace.json network.txt`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := flowio.ImportDocument(args[0])
			if err != nil {
				return err
			}
			// The document must describe a valid trace before it is written.
			if _, err := graph.ToGraph(doc); err != nil {
				return err
			}

			if stdout || len(args) == 1 {
				return graph.WriteDocument(doc, cmd.OutOrStdout())
			}
			if err := flowio.ExportDocument(doc, args[1]); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("converted", "from", args[0], "to", args[1],
				"nodes", len(doc.Nodes), "frames", len(doc.Frames))
			printSuccess("Converted %s", args[0])
			printFile(args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdout, "stdout", false, "write the JSON document to stdout")

	return cmd
}
