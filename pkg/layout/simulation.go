package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// Phyllotaxis parameters for the initial placement of unplaced nodes.
const (
	initialRadius = 10
	initialAngle  = math.Pi * (3 - 2.23606797749979) // pi * (3 - sqrt(5))
)

// ErrNotDragging is returned by DragMove and DragEnd for a node that has no
// drag in progress.
var ErrNotDragging = errors.New("node is not being dragged")

// Stock force names, in application order.
const (
	ForceLink    = "link"
	ForceCharge  = "charge"
	ForceCollide = "collide"
	ForceCenter  = "center"
	ForceX       = "x"
	ForceY       = "y"
)

type namedForce struct {
	name  string
	force Force
}

// Simulation is a force-directed layout of one graph.
//
// A Simulation is not safe for concurrent use. Its owner serializes ticks,
// drags and configuration changes; readers of node positions must not run
// concurrently with Tick.
type Simulation struct {
	graph  *trace.Graph
	cfg    config.Config
	forces []namedForce
	jiggle *jiggler

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	dragging map[string]struct{}
	ticks    int
}

// New creates a simulation over g's nodes, places unplaced nodes on a
// spiral around the canvas anchor and starts it at alpha 1.
func New(g *trace.Graph, cfg config.Config) *Simulation {
	s := &Simulation{
		graph:    g,
		jiggle:   newJiggler(cfg.Simulation.Seed),
		dragging: make(map[string]struct{}),
	}
	s.Configure(cfg)
	s.place()
	return s
}

// Configure rebuilds every force from cfg and restarts the simulation at
// alpha 1. A drag in progress keeps its alpha target.
func (s *Simulation) Configure(cfg config.Config) {
	s.cfg = cfg
	s.alphaMin = cfg.Simulation.AlphaMin
	s.alphaDecay = cfg.Simulation.EffectiveAlphaDecay()
	s.velocityDecay = 1 - cfg.Simulation.VelocityDecay
	if len(s.dragging) > 0 {
		s.alphaTarget = cfg.Simulation.DragAlphaTarget
	}

	f := cfg.Forces
	collideRadius := func(n *trace.Node) float64 {
		return NodeRadius(n, f.Collide.Radius, cfg.Style.TerminalRadiusFactor)
	}
	s.forces = []namedForce{
		{ForceLink, newLinkForce(s.graph, cfg)},
		{ForceCharge, &manyBodyForce{
			strength:     f.Charge.EffectiveStrength(),
			distanceMin2: f.Charge.DistanceMin * f.Charge.DistanceMin,
			distanceMax2: f.Charge.DistanceMax * f.Charge.DistanceMax,
			theta2:       f.Charge.Theta * f.Charge.Theta,
		}},
		{ForceCollide, &collideForce{
			strength:   f.Collide.EffectiveStrength(),
			iterations: f.Collide.Iterations,
			radius:     collideRadius,
		}},
		{ForceCenter, &centerForce{
			x:        cfg.Width * f.Center.X,
			y:        cfg.Height * f.Center.Y,
			strength: f.Center.EffectiveStrength(),
		}},
		{ForceX, &axisForce{target: cfg.Width * f.X.Target, strength: f.X.EffectiveStrength()}},
		{ForceY, &axisForce{vertical: true, target: cfg.Height * f.Y.Target, strength: f.Y.EffectiveStrength()}},
	}
	for _, nf := range s.forces {
		nf.force.Initialize(s.graph.Nodes, s.jiggle.next)
	}
	s.alpha = 1
}

// place puts every node still at the origin on a phyllotaxis spiral around
// the center anchor. Pinned axes take their pin.
func (s *Simulation) place() {
	cx := s.cfg.Width * s.cfg.Forces.Center.X
	cy := s.cfg.Height * s.cfg.Forces.Center.Y
	for i, n := range s.graph.Nodes {
		if n.X == 0 && n.Y == 0 {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			n.X = cx + r*math.Cos(a)
			n.Y = cy + r*math.Sin(a)
		}
		if n.FixedX != nil {
			n.X = *n.FixedX
		}
		if n.FixedY != nil {
			n.Y = *n.FixedY
		}
		if !finite(n.VX) || !finite(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}
}

// Tick advances the layout by one step and reports whether the simulation
// is still warm.
func (s *Simulation) Tick() bool {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	for _, nf := range s.forces {
		nf.force.Apply(s.alpha)
	}

	for _, n := range s.graph.Nodes {
		if n.FixedX != nil {
			n.X, n.VX = *n.FixedX, 0
		} else {
			n.VX *= s.velocityDecay
			n.X += n.VX
		}
		if n.FixedY != nil {
			n.Y, n.VY = *n.FixedY, 0
		} else {
			n.VY *= s.velocityDecay
			n.Y += n.VY
		}
	}
	s.ticks++
	return s.Running()
}

// Run ticks until the simulation cools down or maxTicks steps have been
// taken, and returns the number of steps.
func (s *Simulation) Run(maxTicks int) int {
	n := 0
	for n < maxTicks && s.Running() {
		s.Tick()
		n++
	}
	return n
}

// Running reports whether alpha, or the target it drifts toward, is still
// at or above alphaMin.
func (s *Simulation) Running() bool {
	return s.alpha >= s.alphaMin || s.alphaTarget >= s.alphaMin
}

// Restart sets alpha, reheating (or cooling) the layout.
func (s *Simulation) Restart(alpha float64) {
	s.alpha = alpha
}

// Stop cools the simulation immediately. Positions are kept.
func (s *Simulation) Stop() {
	s.alpha = 0
	s.alphaTarget = 0
}

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// AlphaTarget returns the temperature alpha drifts toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the temperature alpha drifts toward.
func (s *Simulation) SetAlphaTarget(target float64) { s.alphaTarget = target }

// Ticks returns the number of steps taken since creation.
func (s *Simulation) Ticks() int { return s.ticks }

// Config returns the configuration the forces were built from.
func (s *Simulation) Config() config.Config { return s.cfg }

// Dragging reports whether any node is being dragged.
func (s *Simulation) Dragging() bool { return len(s.dragging) > 0 }

// =============================================================================
// Dragging
// =============================================================================

// DragStart pins node id at its current position. The first concurrent drag
// raises alphaTarget so the layout keeps moving around the pointer.
func (s *Simulation) DragStart(id string) error {
	n, err := s.node(id)
	if err != nil {
		return err
	}
	if len(s.dragging) == 0 {
		s.alphaTarget = s.cfg.Simulation.DragAlphaTarget
	}
	s.dragging[id] = struct{}{}
	n.Pin(n.X, n.Y)
	return nil
}

// DragMove moves the pin of a dragged node.
func (s *Simulation) DragMove(id string, x, y float64) error {
	n, err := s.node(id)
	if err != nil {
		return err
	}
	if _, ok := s.dragging[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotDragging, id)
	}
	n.Pin(x, y)
	return nil
}

// DragEnd releases a dragged node. When the last drag ends, alphaTarget
// returns to zero and the layout cools to rest.
func (s *Simulation) DragEnd(id string) error {
	n, err := s.node(id)
	if err != nil {
		return err
	}
	if _, ok := s.dragging[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotDragging, id)
	}
	delete(s.dragging, id)
	n.Unpin()
	if len(s.dragging) == 0 {
		s.alphaTarget = 0
	}
	return nil
}

// Place moves node id to (x, y) and pins it there without reheating the
// layout. It backs direct, non-physical dragging.
func (s *Simulation) Place(id string, x, y float64) error {
	n, err := s.node(id)
	if err != nil {
		return err
	}
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
	n.Pin(x, y)
	return nil
}

// Release unpins node id.
func (s *Simulation) Release(id string) error {
	n, err := s.node(id)
	if err != nil {
		return err
	}
	if _, ok := s.dragging[id]; ok {
		delete(s.dragging, id)
		if len(s.dragging) == 0 {
			s.alphaTarget = 0
		}
	}
	n.Unpin()
	return nil
}

func (s *Simulation) node(id string) (*trace.Node, error) {
	n, ok := s.graph.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", trace.ErrUnknownNode, id)
	}
	return n, nil
}

// Snap rounds v to the nearest multiple of grid. A non-positive grid
// disables snapping.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
