// Package worker runs named background tasks on fixed intervals inside the
// server process.
//
// Tasks are registered before calling Pool.Start. Each task gets a dedicated
// goroutine with its own ticker; a failing run is logged and retried on the
// next tick.
package worker

import (
	"context"
	"time"
)

// Handler is the function executed on every tick of a task.
type Handler func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	run      Handler
}
