package player

import (
	"context"
	"sync"
	"time"
)

// Driver runs a Session off a wall-clock ticker, standing in for the media
// element: each tick adds one watch second and, while playing, moves the play
// head forward by the tick interval.
type Driver struct {
	mu       sync.Mutex
	s        *Session
	interval time.Duration
	advance  float64
	sink     func(ctx context.Context, events []Event)
}

func NewDriver(s *Session, interval time.Duration, sink func(ctx context.Context, events []Event)) *Driver {
	if interval <= 0 {
		interval = time.Second
	}
	return &Driver{s: s, interval: interval, advance: interval.Seconds(), sink: sink}
}

// WithAdvance sets how many media seconds each tick moves the play head,
// letting a simulation run faster than wall-clock time.
func (d *Driver) WithAdvance(seconds float64) *Driver {
	if seconds > 0 {
		d.advance = seconds
	}
	return d
}

// Do applies fn under the driver lock and flushes any events it emitted.
func (d *Driver) Do(ctx context.Context, fn func(*Session) error) error {
	d.mu.Lock()
	err := fn(d.s)
	events := d.s.Drain()
	d.mu.Unlock()
	d.flush(ctx, events)
	return err
}

// Run ticks until ctx is cancelled or the lecture finishes.
func (d *Driver) Run(ctx context.Context) error {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		done, err := d.step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (d *Driver) step(ctx context.Context) (bool, error) {
	d.mu.Lock()
	var err error
	if d.s.Playing() {
		if err = d.s.Tick(1); err == nil {
			err = d.s.TimeUpdate(d.s.st.CurrentTime + d.advance)
		}
	}
	done := d.s.Phase() == PhaseFinished
	events := d.s.Drain()
	d.mu.Unlock()
	d.flush(ctx, events)
	return done, err
}

func (d *Driver) flush(ctx context.Context, events []Event) {
	if d.sink != nil && len(events) > 0 {
		d.sink(ctx, events)
	}
}
