// Package sched runs a task on a fixed interval without overlapping ticks:
// the next wait starts only after the previous run returns.
package sched

import (
	"context"
	"sync"
	"time"
)

// Runner invokes fn every interval. A slow run delays the next tick instead
// of stacking a second invocation behind it.
type Runner struct {
	interval time.Duration
	fn       func(context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewRunner(interval time.Duration, fn func(context.Context)) *Runner {
	if fn == nil {
		fn = func(context.Context) {}
	}
	return &Runner{interval: interval, fn: fn}
}

// Start launches the loop. The first run happens after one interval, not
// immediately. Calling Start on a running Runner is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		r.fn(ctx)

		if ctx.Err() != nil {
			return
		}
		timer.Reset(r.interval)
	}
}

// Stop cancels the loop and waits for an in-progress run to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()
	<-done
}
