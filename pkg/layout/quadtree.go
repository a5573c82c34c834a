package layout

// maxDepth bounds subdivision so nearly coincident points end up sharing a
// leaf instead of splitting forever.
const maxDepth = 32

// quad is a square cell of a point quadtree. A cell is a leaf when it has
// no children; leaves hold one or more point indices.
type quad struct {
	x0, y0, size float64
	children     [4]*quad
	items        []int

	// Aggregates filled by the forces that use the tree: charge and its
	// weighted center for many-body, the largest radius for collide.
	value  float64
	cx, cy float64
	r      float64
}

func (q *quad) leaf() bool {
	return q.children == [4]*quad{}
}

// quadtree indexes a fixed set of points. Positions are captured at build
// time; the forces are free to mutate node velocities while visiting.
type quadtree struct {
	root   *quad
	xs, ys []float64
}

func newQuadtree(xs, ys []float64) *quadtree {
	t := &quadtree{xs: xs, ys: ys}
	if len(xs) == 0 {
		return t
	}

	x0, y0, x1, y1 := xs[0], ys[0], xs[0], ys[0]
	for i := range xs {
		x0, x1 = min(x0, xs[i]), max(x1, xs[i])
		y0, y1 = min(y0, ys[i]), max(y1, ys[i])
	}
	size := max(x1-x0, y1-y0)
	if size <= 0 {
		size = 1
	}

	t.root = &quad{x0: x0, y0: y0, size: size}
	for i := range xs {
		t.insert(t.root, i, 0)
	}
	return t
}

func (t *quadtree) insert(q *quad, i, depth int) {
	for {
		if q.leaf() {
			if len(q.items) == 0 || depth >= maxDepth || t.coincident(q.items[0], i) {
				q.items = append(q.items, i)
				return
			}
			existing := q.items
			q.items = nil
			for _, j := range existing {
				t.child(q, j).items = append(t.child(q, j).items, j)
			}
		}
		q = t.child(q, i)
		depth++
	}
}

func (t *quadtree) coincident(i, j int) bool {
	return t.xs[i] == t.xs[j] && t.ys[i] == t.ys[j]
}

// child returns the quadrant of q containing point i, creating it on demand.
func (t *quadtree) child(q *quad, i int) *quad {
	half := q.size / 2
	xm, ym := q.x0+half, q.y0+half
	k := 0
	x0, y0 := q.x0, q.y0
	if t.xs[i] >= xm {
		k |= 1
		x0 = xm
	}
	if t.ys[i] >= ym {
		k |= 2
		y0 = ym
	}
	if q.children[k] == nil {
		q.children[k] = &quad{x0: x0, y0: y0, size: half}
	}
	return q.children[k]
}

// visit walks the tree pre-order. Returning true from fn skips the cell's
// children.
func (t *quadtree) visit(fn func(q *quad) bool) {
	if t.root == nil {
		return
	}
	stack := []*quad{t.root}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fn(q) {
			continue
		}
		for k := 3; k >= 0; k-- {
			if c := q.children[k]; c != nil {
				stack = append(stack, c)
			}
		}
	}
}

// visitAfter walks the tree post-order, so children are complete before
// their parent.
func (t *quadtree) visitAfter(fn func(q *quad)) {
	if t.root != nil {
		t.post(t.root, fn)
	}
}

func (t *quadtree) post(q *quad, fn func(q *quad)) {
	for _, c := range q.children {
		if c != nil {
			t.post(c, fn)
		}
	}
	fn(q)
}
