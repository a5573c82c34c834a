// Package session owns one live visualization: a trace, its configuration,
// the layout simulation and the playback position.
//
// # Ownership
//
// Node positions are shared between the continuous simulation and every
// reader that draws them. A [Session] serializes all access behind a single
// mutex, so a tick always completes before a frame change, a drag or a
// scene build observes the positions:
//
//	s, err := session.New(g, cfg)
//	go session.Run(ctx, s, session.NewIntervalTicker(60))
//
//	s.Next()
//	sc, err := s.Scene()
//
// Configuration is a value owned by the session. [Session.UpdateConfig]
// validates the change and rebuilds the forces in one step.
//
// # Tick sources
//
// A [Ticker] decouples the physics from wall-clock scheduling. Production
// code uses [NewIntervalTicker]; tests drive a [ManualTicker] or call
// [Session.Tick] directly.
//
// # Snapshots
//
// A [Snapshot] captures the frame, configuration and node positions of a
// session so a later session over the same trace can resume it. [FileStore]
// keeps snapshots on disk for the CLI.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowscope/pkg/config"
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/observability"
	"github.com/matzehuels/flowscope/pkg/playback"
	"github.com/matzehuels/flowscope/pkg/render/scene"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// Drag phases reported to the session hooks.
const (
	DragPhaseStart = "start"
	DragPhaseMove  = "move"
	DragPhaseEnd   = "end"
	DragPhasePlace = "place"
)

// Session is a live visualization of one trace. It is safe for concurrent
// use.
type Session struct {
	mu sync.Mutex

	id      string
	traceID string
	graph   *trace.Graph
	cfg     config.Config
	sim     *layout.Simulation
	ctl     *playback.Controller
	logger  *log.Logger

	// direct holds nodes being dragged without physics.
	direct map[string]struct{}

	createdAt  time.Time
	lastActive time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id. The default is a random UUID.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithTraceID records which stored trace the session shows.
func WithTraceID(id string) Option {
	return func(s *Session) { s.traceID = id }
}

// WithLogger sets the logger. The default discards debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a session over g positioned on frame 0 with a freshly started
// simulation. The graph is owned by the session from here on.
func New(g *trace.Graph, cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctl, err := playback.New(g.FrameCount())
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, err, "new session")
	}

	now := time.Now()
	s := &Session{
		id:         uuid.NewString(),
		graph:      g,
		cfg:        cfg,
		ctl:        ctl,
		logger:     log.Default(),
		direct:     make(map[string]struct{}),
		createdAt:  now,
		lastActive: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sim = layout.New(g, cfg)
	ctl.Subscribe(func(prev, cur int) {
		observability.Session().OnFrameChange(s.id, prev, cur)
	})
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// TraceID returns the id of the stored trace, if any.
func (s *Session) TraceID() string { return s.traceID }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActive returns the time of the last user action.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// touch records user activity. Callers hold s.mu.
func (s *Session) touch() { s.lastActive = time.Now() }

// =============================================================================
// Simulation
// =============================================================================

// Tick advances a warm simulation by one step and reports whether it is
// still warm. A cold simulation is left untouched.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sim.Running() {
		return false
	}
	start := time.Now()
	running := s.sim.Tick()
	observability.Session().OnTick(s.id, s.sim.Alpha(), time.Since(start))
	return running
}

// Settle runs the simulation until it cools down or maxTicks steps have
// been taken, and returns the number of steps.
func (s *Session) Settle(maxTicks int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.sim.Run(maxTicks)
	s.logger.Debug("settled", "session", s.id, "ticks", n, "alpha", s.sim.Alpha())
	return n
}

// Running reports whether the simulation is warm.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Running()
}

// Alpha returns the simulation temperature.
func (s *Session) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Alpha()
}

// Reheat restarts the simulation at alpha 1.
func (s *Session) Reheat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.sim.Restart(1)
}

// =============================================================================
// Playback
// =============================================================================

// SetFrame moves to frame i, clamped to the trace, and returns the
// resulting index.
func (s *Session) SetFrame(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.ctl.SetFrame(i)
}

// Next moves one frame forward.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.ctl.Next()
}

// Previous moves one frame back.
func (s *Session) Previous() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.ctl.Previous()
}

// First moves to the first frame.
func (s *Session) First() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.ctl.First()
}

// Last moves to the last frame.
func (s *Session) Last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.ctl.Last()
}

// CurrentFrame returns the current index and frame.
func (s *Session) CurrentFrame() (int, *trace.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ctl.Index()
	return i, s.graph.Frame(i)
}

// Status is a consistent view of a session at one instant.
type Status struct {
	ID         string
	TraceID    string
	Frame      int
	FrameCount int
	Label      string
	Kind       trace.FrameKind
	AtStart    bool
	AtEnd      bool
	Alpha      float64
	Running    bool
	Dragging   bool
	Config     config.Config
	CreatedAt  time.Time
	LastActive time.Time
}

// Status reads the frame, the simulation state and the configuration under
// one lock, so no tick lands between them.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ctl.Index()
	label := s.graph.Frame(i).Label
	return Status{
		ID:         s.id,
		TraceID:    s.traceID,
		Frame:      i,
		FrameCount: s.ctl.Len(),
		Label:      label,
		Kind:       trace.KindOf(label),
		AtStart:    s.ctl.AtStart(),
		AtEnd:      s.ctl.AtEnd(),
		Alpha:      s.sim.Alpha(),
		Running:    s.sim.Running(),
		Dragging:   s.sim.Dragging() || len(s.direct) > 0,
		Config:     s.cfg,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
	}
}

// FrameCount returns the number of frames.
func (s *Session) FrameCount() int { return s.graph.FrameCount() }

// Subscribe registers fn for frame changes. fn runs while the session is
// locked and must not call back into it.
func (s *Session) Subscribe(fn playback.Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unsub := s.ctl.Subscribe(fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsub()
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config returns a copy of the current configuration.
func (s *Session) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig applies fn to a copy of the configuration, validates the
// result and rebuilds the forces, restarting the simulation. An invalid
// result leaves the session unchanged.
func (s *Session) UpdateConfig(fn func(*config.Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cfg
	fn(&next)
	return s.setConfig(next)
}

// SetConfig replaces the configuration.
func (s *Session) SetConfig(cfg config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setConfig(cfg)
}

func (s *Session) setConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.touch()
	s.cfg = cfg
	s.sim.Configure(cfg)
	s.logger.Debug("config updated", "session", s.id, "physics_drag", cfg.Display.PhysicsDrag)
	return nil
}

// =============================================================================
// Dragging
// =============================================================================

// DragStart begins dragging node id. With physics dragging the node is
// pinned under the pointer and the layout reheats; otherwise the node only
// moves where DragMove puts it.
func (s *Session) DragStart(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graph.Node(id); !ok {
		return ferrors.New(ferrors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	s.touch()
	observability.Session().OnDrag(s.id, id, DragPhaseStart)
	if !s.cfg.Display.PhysicsDrag {
		s.direct[id] = struct{}{}
		return nil
	}
	return s.sim.DragStart(id)
}

// DragMove moves a dragged node to (x, y). Direct dragging snaps the
// position to the display grid and pins the node there.
func (s *Session) DragMove(id string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if _, ok := s.direct[id]; ok {
		grid := s.cfg.Display.GridSize
		observability.Session().OnDrag(s.id, id, DragPhasePlace)
		return s.sim.Place(id, layout.Snap(x, grid), layout.Snap(y, grid))
	}
	observability.Session().OnDrag(s.id, id, DragPhaseMove)
	return s.wrapDragErr(id, s.sim.DragMove(id, x, y))
}

// DragEnd finishes dragging node id. A physically dragged node is released
// and the layout cools; a directly placed node stays pinned.
func (s *Session) DragEnd(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	observability.Session().OnDrag(s.id, id, DragPhaseEnd)
	if _, ok := s.direct[id]; ok {
		delete(s.direct, id)
		return nil
	}
	return s.wrapDragErr(id, s.sim.DragEnd(id))
}

// Release unpins node id, whichever way it was placed.
func (s *Session) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	delete(s.direct, id)
	return s.wrapDragErr(id, s.sim.Release(id))
}

func (s *Session) wrapDragErr(id string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := s.graph.Node(id); !ok {
		return ferrors.Wrap(ferrors.ErrCodeNodeNotFound, err, "drag")
	}
	return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "drag")
}

// =============================================================================
// Rendering
// =============================================================================

// Scene builds the current frame from the latest committed positions.
func (s *Session) Scene() (*scene.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sceneAt(s.ctl.Index())
}

// SceneAt builds frame i without moving the playback position.
func (s *Session) SceneAt(i int) (*scene.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sceneAt(i)
}

func (s *Session) sceneAt(i int) (*scene.Scene, error) {
	sc, err := scene.FromConfig(s.graph, i, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.id, err)
	}
	sc.Alpha = s.sim.Alpha()
	return sc, nil
}

// Layout captures the current node positions.
func (s *Session) Layout() graph.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := graph.LayoutOf(s.graph, s.cfg.Width, s.cfg.Height)
	l.Ticks = s.sim.Ticks()
	l.Alpha = s.sim.Alpha()
	return l
}

// Document returns the trace as a serializable document.
func (s *Session) Document() graph.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return graph.FromGraph(s.graph)
}
