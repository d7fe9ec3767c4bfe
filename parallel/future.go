package parallel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Future is the pending result of a submitted task.
type Future struct {
	task   Task
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool

	started atomic.Bool

	once sync.Once
	done chan struct{}
	err  error
}

func newFuture(ctx, poolctx context.Context, task Task) *Future {
	ctx, cancel := context.WithCancel(ctx)
	return &Future{
		task:   task,
		ctx:    ctx,
		cancel: cancel,
		stop:   context.AfterFunc(poolctx, cancel),
		done:   make(chan struct{}),
	}
}

func (f *Future) run() {
	if !f.started.CompareAndSwap(false, true) {
		return
	}
	if err := f.ctx.Err(); err != nil {
		f.complete(err)
		return
	}
	f.complete(f.task(f.ctx))
}

func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		f.stop()
		f.cancel()
		close(f.done)
	})
}

// Cancel cancels the context of the task. A task which is not started yet
// completes immediately with context.Canceled.
func (f *Future) Cancel() {
	f.cancel()

	if f.started.CompareAndSwap(false, true) {
		f.complete(context.Canceled)
	}
}

// Done returns a channel which is closed when the task completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the task has completed.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the error of a completed task. It returns nil while the task is
// running.
func (f *Future) Err() error {
	if !f.IsDone() {
		return nil
	}
	return f.err
}

// Wait blocks until the task completes or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
