// Package parallel runs tasks on a fixed number of workers fed by an
// unbounded FIFO queue.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrShutdown is the error of tasks which are dropped from the queue by
	// Shutdown.
	ErrShutdown = fmt.Errorf("parallel: pool is shut down: %w", context.Canceled)

	// ErrClosed is returned for tasks submitted after Close.
	ErrClosed = errors.New("parallel: pool is closed")
)

// Task is a unit of work. Tasks should return promptly once ctx is done.
type Task func(ctx context.Context) error

// Pool is the manager to run and manage workers.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	cond   *sync.Cond
	queue    []*Future
	closed   bool
	shutdown bool

	wg sync.WaitGroup
}

// New creates a pool with workercount workers. Tasks observe the cancelation
// of ctx.
func New(ctx context.Context, workercount int) *Pool {
	if workercount < 1 {
		workercount = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workercount)
	for i := 0; i < workercount; i++ {
		go p.worker()
	}
	return p
}

// Submit queues the task and returns its future. The task context is canceled
// when ctx is done, when the pool shuts down or when the future is canceled.
func (p *Pool) Submit(ctx context.Context, task Task) *Future {
	f := newFuture(ctx, p.ctx, task)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if p.shutdown {
			f.complete(ErrShutdown)
		} else {
			f.complete(ErrClosed)
		}
		return f
	}
	p.queue = append(p.queue, f)
	p.cond.Signal()
	p.mu.Unlock()

	return f
}

// Len returns the number of queued tasks which are not picked by a worker
// yet.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting new tasks, runs the queued ones and waits for the
// workers to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

// Shutdown cancels running tasks, fails the queued ones with ErrShutdown and
// waits for the workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()

	p.mu.Lock()
	p.closed = true
	p.shutdown = true
	pending := p.queue
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, f := range pending {
		f.complete(ErrShutdown)
	}

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		f := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		f.run()
	}
}
