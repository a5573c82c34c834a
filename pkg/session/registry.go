package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// DefaultIdleTTL is how long an untouched session survives Cleanup.
const DefaultIdleTTL = 30 * time.Minute

type entry struct {
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// Registry holds the live sessions of a server, each with its own tick
// loop.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	idleTTL  time.Duration
	onRemove func(id string)
}

// NewRegistry creates an empty registry. Sessions idle for longer than
// idleTTL are removed by Cleanup; zero uses [DefaultIdleTTL].
func NewRegistry(idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{sessions: make(map[string]*entry), idleTTL: idleTTL}
}

// OnRemove registers a callback run after a session has been removed.
func (r *Registry) OnRemove(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemove = fn
}

// Add registers s and starts ticking it with t until the session is
// removed or ctx is done.
func (r *Registry) Add(ctx context.Context, s *Session, t Ticker) {
	ctx, cancel := context.WithCancel(ctx)
	e := &entry{session: s, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(e.done)
		_ = Run(ctx, s, t)
	}()

	r.mu.Lock()
	old := r.sessions[s.ID()]
	r.sessions[s.ID()] = e
	r.mu.Unlock()

	if old != nil {
		old.stop()
	}
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.session, nil
}

// Delete stops and removes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	onRemove := r.onRemove
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	e.stop()
	if onRemove != nil {
		onRemove(id)
	}
	return nil
}

// List returns all sessions, oldest first.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.session)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cleanup removes sessions idle for longer than the idle TTL and returns
// how many were removed.
func (r *Registry) Cleanup() int {
	cutoff := time.Now().Add(-r.idleTTL)
	var stale []string
	for _, s := range r.List() {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s.ID())
		}
	}
	removed := 0
	for _, id := range stale {
		if r.Delete(id) == nil {
			removed++
		}
	}
	return removed
}

// Close stops every session.
func (r *Registry) Close() {
	for _, s := range r.List() {
		_ = r.Delete(s.ID())
	}
}

func (e *entry) stop() {
	e.cancel()
	<-e.done
}
