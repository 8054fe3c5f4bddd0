// internal/lifecycle/task.go
package lifecycle

import (
	"context"
	"sync"
	"time"
)

// Task runs fn once immediately and then on every tick until stopped.
// fn receives a context that is cancelled by Stop, and must not call Stop itself.
type Task struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewTask creates a task that is not yet running.
func NewTask(interval time.Duration, fn func(ctx context.Context)) *Task {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Task{interval: interval, fn: fn}
}

// Start launches the loop. Starting twice, or after Stop, is a no-op.
func (t *Task) Start(parent context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil || t.stopped {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		t.fn(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				t.fn(ctx)
			}
		}
	}()
}

// Cancel signals the loop to exit without waiting for it.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.cancel != nil {
		t.cancel()
	}
}

// Stop cancels the loop and blocks until an in-flight fn has returned.
func (t *Task) Stop() {
	t.Cancel()
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Done is closed once the loop has exited. It is nil before Start.
func (t *Task) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
