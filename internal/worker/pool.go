package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pool manages one goroutine per registered task.
type Pool struct {
	workerID string
	mu       sync.RWMutex
	tasks    map[string]task
}

// New creates an empty Pool. A random workerID tags its log lines.
func New() *Pool {
	return &Pool{
		workerID: uuid.New().String(),
		tasks:    make(map[string]task),
	}
}

// Register schedules h to run every interval under name. Must be called
// before Start; registering a name twice replaces the earlier task.
func (p *Pool) Register(name string, interval time.Duration, h Handler) error {
	if interval <= 0 {
		return fmt.Errorf("register task %s: interval must be positive", name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks[name] = task{name: name, interval: interval, run: h}
	return nil
}

// Start launches every registered task and blocks until ctx is cancelled.
// An in-flight run completes before Start returns.
func (p *Pool) Start(ctx context.Context) {
	p.mu.RLock()
	tasks := make([]task, 0, len(p.tasks))
	for _, t := range p.tasks {
		tasks = append(tasks, t)
	}
	p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			p.runTask(ctx, t)
		}(t)
	}
	wg.Wait()
	slog.Info("worker pool stopped", "worker_id", p.workerID)
}

// runTask ticks until ctx is cancelled. Uses time.NewTicker (not time.After)
// to avoid timer leaks.
func (p *Pool) runTask(ctx context.Context, t task) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	slog.Info("worker task started", "task", t.name, "interval", t.interval, "worker_id", p.workerID)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker task stopping", "task", t.name)
			return
		case <-ticker.C:
			p.runOnce(ctx, t)
		}
	}
}

// runOnce executes one run of t. Errors and panics are logged and do not stop
// the task loop.
func (p *Pool) runOnce(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker task panicked", "task", t.name, "panic", r)
		}
	}()
	if err := t.run(ctx); err != nil {
		slog.Error("worker task failed", "task", t.name, "error", err)
	}
}
