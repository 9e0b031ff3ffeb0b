package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsTasksUntilCancelled(t *testing.T) {
	t.Parallel()
	p := New()

	var ok, failing, panicking atomic.Int32
	if err := p.Register("ok", 5*time.Millisecond, func(context.Context) error {
		ok.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_ = p.Register("failing", 5*time.Millisecond, func(context.Context) error {
		failing.Add(1)
		return errors.New("boom")
	})
	_ = p.Register("panicking", 5*time.Millisecond, func(context.Context) error {
		panicking.Add(1)
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for ok.Load() < 3 || failing.Load() < 3 || panicking.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("tasks did not keep running: ok=%d failing=%d panicking=%d",
				ok.Load(), failing.Load(), panicking.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestPool_RegisterRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()
	if err := New().Register("bad", 0, func(context.Context) error { return nil }); err == nil {
		t.Error("Register with zero interval: want error")
	}
}
