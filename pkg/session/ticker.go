package session

import (
	"context"
	"time"
)

// Ticker is a source of simulation ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type intervalTicker struct {
	t *time.Ticker
}

// NewIntervalTicker returns a ticker firing rate times per second. Rates
// below one tick per second are raised to one.
func NewIntervalTicker(rate float64) Ticker {
	if rate < 1 {
		rate = 1
	}
	return &intervalTicker{t: time.NewTicker(time.Duration(float64(time.Second) / rate))}
}

func (t *intervalTicker) C() <-chan time.Time { return t.t.C }
func (t *intervalTicker) Stop()               { t.t.Stop() }

// ManualTicker fires only when told to. Fire blocks until the tick has been
// received, which makes it suitable for driving [Run] from tests.
type ManualTicker struct {
	ch chan time.Time
}

// NewManualTicker returns a ticker that fires on [ManualTicker.Fire].
func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time)}
}

func (t *ManualTicker) C() <-chan time.Time { return t.ch }
func (t *ManualTicker) Stop()               {}

// Fire delivers one tick.
func (t *ManualTicker) Fire() { t.ch <- time.Now() }

// Run ticks s on every tick of t until ctx is done. Cold simulations are
// skipped cheaply, so Run can stay attached for the life of the session.
func Run(ctx context.Context, s *Session, t Ticker) error {
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C():
			s.Tick()
		}
	}
}
