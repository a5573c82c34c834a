package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	outDir     string
	name       string
	formats    string
	frames     string
	graphviz   bool
	detailed   bool
	pinned     bool
	scale      float64
	noCache    bool
	refresh    bool
	saveLayout string
	loadLayout string
	config     configFlags
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render <trace>",
		Short: "Settle the layout and write frames to files",
		Long: `Render settles the force layout of a trace once, then draws the selected
frames in every requested format. Files are named <name>-<frame>.<format>.

Every stage is cached by content hash: rendering another format or frame of
an unchanged trace reuses the settled layout.`,
		Example: `  flowscope render examples/diamond.json
  flowscope render network.txt -f svg,dot --frames 0,5-8 -o out/
  flowscope render trace.json -f png --graphviz --pinned --scale 3
  flowscope render trace.json --save-layout pos.json && flowscope render trace.json --layout pos.json -f pdf`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTraceFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.outDir, "output", "o", ".", "output directory")
	f.StringVarP(&opts.name, "name", "n", "", "file name prefix (default: trace file name)")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, json, pdf, png (comma-separated)")
	f.StringVar(&opts.frames, "frames", "", "frames to render, e.g. 0,3-5 (default: all)")
	f.BoolVar(&opts.graphviz, "graphviz", false, "draw through graphviz instead of the built-in SVG renderer")
	f.BoolVar(&opts.detailed, "detailed", false, "graphviz: label edges with flow and both residual capacities")
	f.BoolVar(&opts.pinned, "pinned", false, "graphviz: keep the settled positions instead of a graphviz layout")
	f.Float64Var(&opts.scale, "scale", opts.scale, "png scale factor")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	f.BoolVar(&opts.refresh, "refresh", false, "recompute every stage and overwrite cached results")
	f.StringVar(&opts.saveLayout, "save-layout", "", "also write the settled node positions to this JSON file")
	f.StringVar(&opts.loadLayout, "layout", "", "use node positions from a --save-layout file instead of settling")
	opts.config.register(f)

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := opts.config.load(cmd.Flags())
	if err != nil {
		return err
	}
	frames, err := parseFrames(opts.frames)
	if err != nil {
		return err
	}
	var fixed *graph.Layout
	if opts.loadLayout != "" {
		l, err := graph.ReadLayoutFile(opts.loadLayout)
		if err != nil {
			return err
		}
		fixed = &l
	}
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	name := opts.name
	if name == "" {
		name = baseName(path)
	}
	popts := pipeline.Options{
		Trace:    path,
		Name:     name,
		Config:   cfg,
		MaxTicks: cfg.Simulation.MaxTicks,
		Layout:   fixed,
		Frames:   frames,
		Formats:  formats,
		Graphviz: opts.graphviz,
		Detailed: opts.detailed,
		Pinned:   opts.pinned,
		Scale:    opts.scale,
		Refresh:  opts.refresh,
		Logger:   logger,
	}

	result, err := executeWithSpinner(ctx, runner, popts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	prog := newProgress(logger)
	printSuccess("Rendered %d files", len(result.Artifacts))
	printStats(result.Stats, result.CacheInfo)
	for _, a := range result.Artifacts {
		out := a.Filename(filepath.Join(opts.outDir, name))
		if err := os.WriteFile(out, a.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		printFile(out)
	}
	if opts.saveLayout != "" {
		if err := graph.WriteLayoutFile(result.Layout, opts.saveLayout); err != nil {
			return err
		}
		printFile(opts.saveLayout)
	}
	prog.done("wrote artifacts", "dir", opts.outDir, "count", len(result.Artifacts))

	printNextStep("Step through it live", "flowscope play "+path)
	return nil
}

// executeWithSpinner runs the pipeline behind a spinner.
func executeWithSpinner(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	spinner := newSpinner(ctx, fmt.Sprintf("Settling and rendering %s...", opts.Name))
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	return result, err
}
