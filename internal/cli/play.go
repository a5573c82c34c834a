package cli

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/session"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// playOpts holds the command-line flags for the play command.
type playOpts struct {
	frame  int
	settle int
	resume bool
	save   bool
	config configFlags
}

// playCommand creates the play command.
func (c *CLI) playCommand() *cobra.Command {
	opts := playOpts{resume: true, save: true}

	cmd := &cobra.Command{
		Use:   "play <trace>",
		Short: "Step through a trace in the terminal",
		Long: `Play opens an interactive view of a trace: the layout keeps simulating
while you step through the frames, and nodes can be dragged with the
keyboard. Press ? for every key.

On exit the frame, configuration and node positions are saved and restored
the next time the same trace is played.`,
		Example: `  flowscope play examples/diamond.json
  flowscope play network.txt --frame 3 --no-resume`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTraceFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlay(cmd, args[0], &opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.frame, "frame", 0, "frame to start on")
	f.IntVar(&opts.settle, "settle", 0, "ticks to run before the view opens")
	f.BoolVar(&opts.resume, "resume", opts.resume, "restore the last saved state of this trace")
	f.BoolVar(&opts.save, "save", opts.save, "save the state on exit")
	opts.config.register(f)

	return cmd
}

func (c *CLI) runPlay(cmd *cobra.Command, path string, opts *playOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := opts.config.load(cmd.Flags())
	if err != nil {
		return err
	}
	g, err := loadTrace(path)
	if err != nil {
		return err
	}
	hash, err := traceHash(g)
	if err != nil {
		return err
	}

	sess, err := session.New(g, cfg, session.WithTraceID(hash), session.WithLogger(logger))
	if err != nil {
		return err
	}
	nodeIDs := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		nodeIDs[i] = n.ID
	}

	snaps, err := openSnapshots()
	if err != nil {
		logger.Warn("snapshots disabled", "err", err)
	}
	resumed := false
	if snaps != nil && opts.resume && !cmd.Flags().Changed("frame") && !opts.config.changed(cmd.Flags()) {
		resumed = restoreSnapshot(ctx, snaps, sess, hash)
	}
	if !resumed {
		sess.SetFrame(opts.frame)
		if opts.settle > 0 {
			sess.Settle(opts.settle)
		}
	}
	logger.Debug("playing", "trace", path, "hash", hash[:12], "resumed", resumed)

	if _, err := tea.NewProgram(newPlayerModel(sess, nodeIDs), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("player: %w", err)
	}

	if snaps != nil && opts.save {
		if err := snaps.Set(ctx, sess.Snapshot(hash, session.DefaultSnapshotTTL)); err != nil {
			return err
		}
		printSuccess("Saved state of %s", filepath.Base(path))
		_ = snaps.Cleanup(ctx)
	}
	return nil
}

// traceHash identifies a trace by the hash of its normalized document, so
// a network file and its JSON conversion share snapshots.
func traceHash(g *trace.Graph) (string, error) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

func openSnapshots() (*session.FileStore, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return session.NewFileStore(filepath.Join(dir, "snapshots"))
}

// restoreSnapshot applies the saved state of the trace, if any, and reports
// whether it did.
func restoreSnapshot(ctx context.Context, snaps session.Store, sess *session.Session, hash string) bool {
	snap, err := snaps.Get(ctx, hash)
	if err != nil {
		loggerFromContext(ctx).Debug("no saved state", "err", err)
		return false
	}
	if snap == nil {
		return false
	}
	if err := sess.Restore(snap); err != nil {
		printWarning("Ignoring saved state: %v", err)
		return false
	}
	printInfo("Resuming at frame %d (--resume=false to start over)", snap.Frame+1)
	return true
}
