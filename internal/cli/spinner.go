package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a one-line progress indicator until it is stopped or its
// context is cancelled.
type Spinner struct {
	w      io.Writer
	msg    string
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	finished chan struct{}
	started  bool
	stopOnce sync.Once

	mu    sync.Mutex
	drawn int // runes on the line, for clearing
}

// newSpinner returns a stderr spinner that stops when ctx is cancelled.
func newSpinner(ctx context.Context, msg string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, msg)
}

func newSpinnerTo(ctx context.Context, w io.Writer, msg string) *Spinner {
	inner, cancel := context.WithCancel(ctx)
	return &Spinner{w: w, msg: msg, parent: ctx, ctx: inner, cancel: cancel, finished: make(chan struct{})}
}

// Start draws the first frame and animates in the background. Call it at
// most once.
func (s *Spinner) Start() {
	s.started = true
	s.draw(0)
	go func() {
		defer close(s.finished)
		t := time.NewTicker(spinnerInterval)
		defer t.Stop()
		for i := 1; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-t.C:
				s.draw(i)
			}
		}
	}()
}

func (s *Spinner) draw(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := string(spinnerFrames[i%len(spinnerFrames)])
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.msg))
	s.drawn = len([]rune(s.msg)) + 2
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.drawn))
		s.drawn = 0
	}
}

// Stop ends the animation and clears the line. Calling it again is a no-op.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.started {
			<-s.finished
		}
		s.clear()
	})
}

// Cancelled reports whether the context the spinner was created with was
// cancelled, as opposed to the spinner being stopped.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}
