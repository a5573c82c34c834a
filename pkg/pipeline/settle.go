package pipeline

import (
	"context"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// cancelCheckInterval is how many ticks run between context checks.
const cancelCheckInterval = 64

// Settle runs a fresh simulation on g until it cools or maxTicks steps
// have been taken, and records the resulting positions.
func Settle(ctx context.Context, g *trace.Graph, cfg config.Config, maxTicks int) (graph.Layout, error) {
	sim := layout.New(g, cfg)
	ticks := 0
	for ticks < maxTicks && sim.Running() {
		if ticks%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return graph.Layout{}, err
			}
		}
		sim.Tick()
		ticks++
	}

	l := graph.LayoutOf(g, cfg.Width, cfg.Height)
	l.Ticks = ticks
	l.Alpha = sim.Alpha()
	return l, nil
}
