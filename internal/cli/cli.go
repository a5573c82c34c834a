// Package cli implements the flowscope command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/flowscope/pkg/buildinfo"
	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowscope"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Flowscope replays push-relabel max-flow traces",
		Long:         `Flowscope lays out a flow network with a force simulation and steps through a recorded push-relabel run frame by frame, in the terminal, as rendered files or over HTTP.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	fc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(fc, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowscope/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the directory for stored traces and play snapshots
// (~/.local/share/flowscope/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Configuration Flags
// =============================================================================

// configFlags are the configuration flags shared by render, play and serve.
// Flags the user set override the config file; the rest keep its values.
type configFlags struct {
	path     string
	width    float64
	height   float64
	seed     int64
	maxTicks int
	charge   float64
	distance float64
	heights  bool
	weights  bool
	direct   bool
}

func (f *configFlags) register(fs *pflag.FlagSet) {
	def := config.Default()
	fs.StringVarP(&f.path, "config", "c", "", "config file (.toml, .yaml or .json)")
	fs.Float64Var(&f.width, "width", def.Width, "canvas width")
	fs.Float64Var(&f.height, "height", def.Height, "canvas height")
	fs.Int64Var(&f.seed, "seed", def.Simulation.Seed, "simulation seed")
	fs.IntVar(&f.maxTicks, "max-ticks", def.Simulation.MaxTicks, "tick limit when settling")
	fs.Float64Var(&f.charge, "charge", def.Forces.Charge.Strength, "many-body strength (negative repels)")
	fs.Float64Var(&f.distance, "link-distance", def.Forces.Link.Distance, "link rest length")
	fs.BoolVar(&f.heights, "heights", def.Display.Heights, "show vertex heights")
	fs.BoolVar(&f.weights, "weights", def.Display.ShowWeights, "show edge weights")
	fs.BoolVar(&f.direct, "direct-drag", !def.Display.PhysicsDrag, "place dragged nodes on the grid instead of simulating")
}

// changed reports whether any configuration flag was set.
func (f *configFlags) changed(fs *pflag.FlagSet) bool {
	for _, name := range []string{"config", "width", "height", "seed", "max-ticks", "charge", "link-distance", "heights", "weights", "direct-drag"} {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

// load reads the config file, if any, applies the flags that were set and
// validates the result.
func (f *configFlags) load(fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if f.path != "" {
		var err error
		if cfg, err = config.Load(f.path); err != nil {
			return config.Config{}, err
		}
	}
	if fs.Changed("width") {
		cfg.Width = f.width
	}
	if fs.Changed("height") {
		cfg.Height = f.height
	}
	if fs.Changed("seed") {
		cfg.Simulation.Seed = f.seed
	}
	if fs.Changed("max-ticks") {
		cfg.Simulation.MaxTicks = f.maxTicks
	}
	if fs.Changed("charge") {
		cfg.Forces.Charge.Strength = f.charge
	}
	if fs.Changed("link-distance") {
		cfg.Forces.Link.Distance = f.distance
	}
	if fs.Changed("heights") {
		cfg.Display.Heights = f.heights
	}
	if fs.Changed("weights") {
		cfg.Display.ShowWeights = f.weights
	}
	if fs.Changed("direct-drag") {
		cfg.Display.PhysicsDrag = !f.direct
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// parseFrames parses a frame selection such as "0,3-5,9". An empty string
// selects every frame.
func parseFrames(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid frame %q", part)
		}
		if !isRange {
			out = append(out, first)
			continue
		}
		last, err := strconv.Atoi(hi)
		if err != nil || last < first {
			return nil, fmt.Errorf("invalid frame range %q", part)
		}
		for i := first; i <= last; i++ {
			out = append(out, i)
		}
	}
	return out, nil
}

// baseName strips the directory and extension of a trace path.
func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
