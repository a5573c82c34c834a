package layout

import (
	"math"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// contractFactor scales the link distance between nodes of the same group
// when group contraction is on.
const contractFactor = 0.4

// Force is one term of the simulation's force field.
//
// Initialize is called whenever the node set or the configuration changes.
// Apply is called once per tick with the current alpha and may change node
// velocities (or, for the center force, positions).
type Force interface {
	Initialize(nodes []*trace.Node, jiggle func() float64)
	Apply(alpha float64)
}

// NodeRadius returns the drawn and collision radius of n: the base radius,
// scaled by terminalFactor for the source and the sink.
func NodeRadius(n *trace.Node, base, terminalFactor float64) float64 {
	if n.IsTerminal() {
		return base * terminalFactor
	}
	return base
}

// =============================================================================
// Center
// =============================================================================

type centerForce struct {
	x, y     float64
	strength float64
	nodes    []*trace.Node
}

func (f *centerForce) Initialize(nodes []*trace.Node, _ func() float64) { f.nodes = nodes }

func (f *centerForce) Apply(float64) {
	if len(f.nodes) == 0 || f.strength == 0 {
		return
	}
	var sx, sy float64
	for _, n := range f.nodes {
		sx += n.X
		sy += n.Y
	}
	k := float64(len(f.nodes))
	sx = (sx/k - f.x) * f.strength
	sy = (sy/k - f.y) * f.strength
	for _, n := range f.nodes {
		n.X -= sx
		n.Y -= sy
	}
}

// =============================================================================
// Axis pull
// =============================================================================

type axisForce struct {
	vertical bool
	target   float64
	strength float64
	nodes    []*trace.Node
}

func (f *axisForce) Initialize(nodes []*trace.Node, _ func() float64) { f.nodes = nodes }

func (f *axisForce) Apply(alpha float64) {
	if f.strength == 0 {
		return
	}
	k := f.strength * alpha
	for _, n := range f.nodes {
		if f.vertical {
			n.VY += (f.target - n.Y) * k
		} else {
			n.VX += (f.target - n.X) * k
		}
	}
}

// =============================================================================
// Many-body
// =============================================================================

type manyBodyForce struct {
	strength     float64
	distanceMin2 float64
	distanceMax2 float64
	theta2       float64

	nodes  []*trace.Node
	jiggle func() float64
}

func (f *manyBodyForce) Initialize(nodes []*trace.Node, jiggle func() float64) {
	f.nodes, f.jiggle = nodes, jiggle
}

func (f *manyBodyForce) Apply(alpha float64) {
	if f.strength == 0 || len(f.nodes) < 2 {
		return
	}
	xs, ys := positions(f.nodes, false)
	tree := newQuadtree(xs, ys)
	tree.visitAfter(func(q *quad) { f.accumulate(tree, q) })

	for i, n := range f.nodes {
		f.applyTo(tree, i, n, alpha)
	}
}

// accumulate stores the total charge of q and its charge-weighted center.
func (f *manyBodyForce) accumulate(t *quadtree, q *quad) {
	if q.leaf() {
		var sx, sy float64
		for _, i := range q.items {
			sx += t.xs[i]
			sy += t.ys[i]
		}
		k := float64(len(q.items))
		q.cx, q.cy = sx/k, sy/k
		q.value = f.strength * k
		return
	}
	var value, weight, x, y float64
	for _, c := range q.children {
		if c == nil || c.value == 0 {
			continue
		}
		w := math.Abs(c.value)
		value += c.value
		weight += w
		x += w * c.cx
		y += w * c.cy
	}
	if weight > 0 {
		q.cx, q.cy = x/weight, y/weight
	}
	q.value = value
}

func (f *manyBodyForce) applyTo(t *quadtree, i int, n *trace.Node, alpha float64) {
	t.visit(func(q *quad) bool {
		if q.value == 0 {
			return true
		}
		x, y := q.cx-n.X, q.cy-n.Y
		w := q.size
		l := x*x + y*y

		// Far enough away: treat the cell as a single body.
		if w*w/f.theta2 < l {
			if l < f.distanceMax2 {
				x, y, l = f.separate(x, y, l)
				n.VX += x * q.value * alpha / l
				n.VY += y * q.value * alpha / l
			}
			return true
		}
		if !q.leaf() || l >= f.distanceMax2 {
			return false
		}

		if len(q.items) > 1 || q.items[0] != i {
			x, y, l = f.separate(x, y, l)
		}
		for _, j := range q.items {
			if j == i {
				continue
			}
			k := f.strength * alpha / l
			n.VX += x * k
			n.VY += y * k
		}
		return true
	})
}

// separate jiggles zero components and applies the distanceMin floor.
func (f *manyBodyForce) separate(x, y, l float64) (float64, float64, float64) {
	if x == 0 {
		x = f.jiggle()
		l += x * x
	}
	if y == 0 {
		y = f.jiggle()
		l += y * y
	}
	if l < f.distanceMin2 {
		l = math.Sqrt(f.distanceMin2 * l)
	}
	return x, y, l
}

// =============================================================================
// Collide
// =============================================================================

type collideForce struct {
	strength   float64
	iterations int
	radius     func(n *trace.Node) float64

	nodes  []*trace.Node
	radii  []float64
	jiggle func() float64
}

func (f *collideForce) Initialize(nodes []*trace.Node, jiggle func() float64) {
	f.nodes, f.jiggle = nodes, jiggle
	f.radii = make([]float64, len(nodes))
	for i, n := range nodes {
		f.radii[i] = f.radius(n)
	}
}

func (f *collideForce) Apply(float64) {
	if f.strength == 0 || len(f.nodes) < 2 {
		return
	}
	for range f.iterations {
		xs, ys := positions(f.nodes, true)
		tree := newQuadtree(xs, ys)
		tree.visitAfter(func(q *quad) {
			q.r = 0
			if q.leaf() {
				for _, i := range q.items {
					q.r = max(q.r, f.radii[i])
				}
				return
			}
			for _, c := range q.children {
				if c != nil {
					q.r = max(q.r, c.r)
				}
			}
		})
		for i := range f.nodes {
			f.resolve(tree, i)
		}
	}
}

func (f *collideForce) resolve(t *quadtree, i int) {
	n := f.nodes[i]
	ri := f.radii[i]
	ri2 := ri * ri
	xi, yi := n.X+n.VX, n.Y+n.VY

	t.visit(func(q *quad) bool {
		r := ri + q.r
		if !q.leaf() {
			return q.x0 > xi+r || q.x0+q.size < xi-r || q.y0 > yi+r || q.y0+q.size < yi-r
		}
		for _, j := range q.items {
			// Each pair is resolved once, by its lower index.
			if j <= i {
				continue
			}
			m := f.nodes[j]
			rj := f.radii[j]
			r := ri + rj
			x := xi - m.X - m.VX
			y := yi - m.Y - m.VY
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = f.jiggle()
				l += x * x
			}
			if y == 0 {
				y = f.jiggle()
				l += y * y
			}
			d := math.Sqrt(l)
			k := (r - d) / d * f.strength
			x *= k
			y *= k
			rj2 := rj * rj
			share := rj2 / (ri2 + rj2)
			n.VX += x * share
			n.VY += y * share
			m.VX -= x * (1 - share)
			m.VY -= y * (1 - share)
		}
		return true
	})
}

// =============================================================================
// Link
// =============================================================================

type link struct {
	source, target *trace.Node
	distance       float64
	strength       float64
	bias           float64
}

type linkForce struct {
	iterations int
	links      []link
	jiggle     func() float64
}

// newLinkForce resolves the graph's edges into springs. Strength and bias
// follow the endpoint degrees so hubs are not pulled apart by their many
// neighbours.
func newLinkForce(g *trace.Graph, cfg config.Config) *linkForce {
	f := &linkForce{iterations: cfg.Forces.Link.Iterations}
	scale := cfg.Forces.Link.StrengthScale()
	deg := g.Degree()

	for _, e := range g.Edges {
		src, dst, err := g.Endpoints(e)
		if err != nil {
			continue
		}
		ds, dt := float64(deg[src.Index()]), float64(deg[dst.Index()])
		distance := cfg.Forces.Link.Distance
		if cfg.Display.ContractSameGroup && trace.SameGroup(src, dst) {
			distance *= contractFactor
		}
		f.links = append(f.links, link{
			source:   src,
			target:   dst,
			distance: distance,
			strength: scale / min(ds, dt),
			bias:     ds / (ds + dt),
		})
	}
	return f
}

func (f *linkForce) Initialize(_ []*trace.Node, jiggle func() float64) { f.jiggle = jiggle }

func (f *linkForce) Apply(alpha float64) {
	for range f.iterations {
		for _, l := range f.links {
			if l.strength == 0 {
				continue
			}
			s, t := l.source, l.target
			x := t.X + t.VX - s.X - s.VX
			if x == 0 {
				x = f.jiggle()
			}
			y := t.Y + t.VY - s.Y - s.VY
			if y == 0 {
				y = f.jiggle()
			}
			d := math.Sqrt(x*x + y*y)
			k := (d - l.distance) / d * alpha * l.strength
			x *= k
			y *= k
			t.VX -= x * l.bias
			t.VY -= y * l.bias
			s.VX += x * (1 - l.bias)
			s.VY += y * (1 - l.bias)
		}
	}
}

// positions snapshots node coordinates, optionally advanced by one step of
// velocity.
func positions(nodes []*trace.Node, predicted bool) (xs, ys []float64) {
	xs = make([]float64, len(nodes))
	ys = make([]float64, len(nodes))
	for i, n := range nodes {
		xs[i], ys[i] = n.X, n.Y
		if predicted {
			xs[i] += n.VX
			ys[i] += n.VY
		}
	}
	return xs, ys
}
