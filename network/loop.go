package network

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrLoopStopped = errors.New("loop stopped")

// Loop serializes every access to a view on one goroutine: queued
// events, physics ticks and reloads never interleave.
type Loop struct {
	view   *View
	events chan func(*View)
	tick   time.Duration
	after  func(*View)
	done   chan struct{}
	logger *slog.Logger
}

// NewLoop creates a loop ticking the view's physics every tick.
func NewLoop(v *View, tick time.Duration) *Loop {
	return &Loop{
		view:   v,
		events: make(chan func(*View), 64),
		tick:   tick,
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "loop"),
	}
}

// AfterEach registers fn to run on the loop after every event and every
// tick that advanced the simulation. Set it before Run.
func (l *Loop) AfterEach(fn func(*View)) { l.after = fn }

// Run processes events and ticks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.view.Simulation().Stop()
			return ctx.Err()

		case fn := <-l.events:
			fn(l.view)
			l.settled()

		case <-ticker.C:
			if !l.view.Simulation().Running() {
				continue
			}
			l.view.Tick()
			l.settled()
		}
	}
}

func (l *Loop) settled() {
	if l.after != nil {
		l.after(l.view)
	}
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(ctx context.Context, fn func(*View)) error {
	select {
	case l.events <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*View) error) error {
	result := make(chan error, 1)
	if err := l.Post(ctx, func(v *View) { result <- fn(v) }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-l.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
