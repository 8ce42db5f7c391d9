package swap

import (
	"context"
	"sync"
)

// Task is a cancellable handle over the goroutines of one polling run
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTask(parent context.Context) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{ctx: ctx, cancel: cancel}
}

// Go runs fn on the task's context
func (t *Task) Go(fn func(ctx context.Context)) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn(t.ctx)
	}()
}

// Cancel stops the task without waiting. Safe to call from inside it.
func (t *Task) Cancel() {
	t.cancel()
}

// Stop cancels the task and waits for its goroutines to return. Must not be
// called from one of them.
func (t *Task) Stop() {
	t.cancel()
	t.wg.Wait()
}
