package network

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopSerializesEventsAndTicks(t *testing.T) {
	v, r := newView(t, chain(10))
	r.Flush()
	l := NewLoop(v, time.Millisecond)
	var after atomic.Int64
	l.AfterEach(func(*View) { after.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	if err := l.Do(ctx, func(v *View) error { return v.SetNetworkThreshold(0.5) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := l.Do(ctx, func(*View) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected event error to propagate, got %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		var running bool
		_ = l.Do(ctx, func(v *View) error {
			running = v.Simulation().Running()
			return nil
		})
		if !running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("simulation did not settle on the loop")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if after.Load() < 3 {
		t.Errorf("expected the after hook to run, ran %d times", after.Load())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := l.Do(context.Background(), func(*View) error { return nil }); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("expected ErrLoopStopped, got %v", err)
	}
}
