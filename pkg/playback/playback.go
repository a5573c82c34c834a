// Package playback keeps the current frame of a trace.
//
// The index is always valid: requests outside [0, n-1] saturate at the
// nearest bound instead of failing, and there is no wraparound.
package playback

import (
	"errors"
	"sort"
)

// ErrEmpty is returned by [New] for a trace without frames.
var ErrEmpty = errors.New("playback needs at least one frame")

// Listener is notified after every frame change request with the previous
// and the resulting index.
type Listener func(prev, cur int)

// Controller holds the current frame index of an n-frame trace.
//
// A Controller is not safe for concurrent use; the session owning it
// serializes access. Listeners run synchronously in subscription order.
type Controller struct {
	n         int
	index     int
	nextID    int
	listeners map[int]Listener
}

// New returns a controller positioned on frame 0 of an n-frame trace.
func New(n int) (*Controller, error) {
	if n < 1 {
		return nil, ErrEmpty
	}
	return &Controller{n: n, listeners: make(map[int]Listener)}, nil
}

// Clamp returns i saturated to [0, n-1].
func Clamp(i, n int) int {
	return max(0, min(i, n-1))
}

// SetFrame moves to frame i, clamped to the trace, notifies listeners and
// returns the resulting index.
func (c *Controller) SetFrame(i int) int {
	prev := c.index
	c.index = Clamp(i, c.n)
	c.notify(prev, c.index)
	return c.index
}

// Next moves one frame forward, stopping at the last frame.
func (c *Controller) Next() int { return c.SetFrame(c.index + 1) }

// Previous moves one frame back, stopping at the first frame.
func (c *Controller) Previous() int { return c.SetFrame(c.index - 1) }

// First moves to frame 0.
func (c *Controller) First() int { return c.SetFrame(0) }

// Last moves to the final frame.
func (c *Controller) Last() int { return c.SetFrame(c.n - 1) }

// Index returns the current frame index.
func (c *Controller) Index() int { return c.index }

// Len returns the number of frames.
func (c *Controller) Len() int { return c.n }

// AtStart reports whether the first frame is showing.
func (c *Controller) AtStart() bool { return c.index == 0 }

// AtEnd reports whether the last frame is showing.
func (c *Controller) AtEnd() bool { return c.index == c.n-1 }

// Subscribe registers fn and returns a function removing it again.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *Controller) notify(prev, cur int) {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := c.listeners[id]; ok {
			fn(prev, cur)
		}
	}
}
