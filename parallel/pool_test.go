package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := New(context.Background(), 4)
	defer pool.Close()

	var count int64
	var futures []*Future
	for i := 0; i < 100; i++ {
		futures = append(futures, pool.Submit(context.Background(), func(context.Context) error {
			atomic.AddInt64(&count, 1)
			return nil
		}))
	}

	for _, f := range futures {
		assert.NilError(t, f.Wait(context.Background()))
		assert.Assert(t, f.IsDone())
	}
	assert.Equal(t, atomic.LoadInt64(&count), int64(100))
}

func TestPoolLimitsConcurrency(t *testing.T) {
	const workers = 3

	pool := New(context.Background(), workers)
	defer pool.Close()

	var running, peak int64
	var mu sync.Mutex

	var futures []*Future
	for i := 0; i < 20; i++ {
		futures = append(futures, pool.Submit(context.Background(), func(context.Context) error {
			n := atomic.AddInt64(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
			return nil
		}))
	}

	for _, f := range futures {
		assert.NilError(t, f.Wait(context.Background()))
	}
	assert.Assert(t, peak <= workers, "peak concurrency %d", peak)
}

func TestFutureError(t *testing.T) {
	pool := New(context.Background(), 1)
	defer pool.Close()

	want := errors.New("boom")
	f := pool.Submit(context.Background(), func(context.Context) error { return want })

	assert.Equal(t, f.Wait(context.Background()), want)
	assert.Equal(t, f.Err(), want)
}

func TestFutureCancelQueued(t *testing.T) {
	pool := New(context.Background(), 1)
	defer pool.Close()

	release := make(chan struct{})
	blocker := pool.Submit(context.Background(), func(context.Context) error {
		<-release
		return nil
	})

	var ran int32
	queued := pool.Submit(context.Background(), func(context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	})

	queued.Cancel()
	assert.Assert(t, queued.IsDone())
	assert.Assert(t, errors.Is(queued.Err(), context.Canceled))

	close(release)
	assert.NilError(t, blocker.Wait(context.Background()))
	pool.Close()
	assert.Equal(t, atomic.LoadInt32(&ran), int32(0))
}

func TestFutureCancelRunning(t *testing.T) {
	pool := New(context.Background(), 1)
	defer pool.Close()

	started := make(chan struct{})
	f := pool.Submit(context.Background(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	f.Cancel()
	assert.Assert(t, errors.Is(f.Wait(context.Background()), context.Canceled))
}

func TestPoolShutdown(t *testing.T) {
	pool := New(context.Background(), 1)

	started := make(chan struct{})
	running := pool.Submit(context.Background(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	queued := pool.Submit(context.Background(), func(context.Context) error { return nil })

	pool.Shutdown()

	assert.Assert(t, errors.Is(running.Err(), context.Canceled))
	assert.Equal(t, queued.Err(), ErrShutdown)
	assert.Assert(t, errors.Is(queued.Err(), context.Canceled))

	late := pool.Submit(context.Background(), func(context.Context) error { return nil })
	assert.Equal(t, late.Err(), ErrShutdown)
}

func TestPoolCloseDrainsQueue(t *testing.T) {
	pool := New(context.Background(), 2)

	var count int64
	for i := 0; i < 10; i++ {
		pool.Submit(context.Background(), func(context.Context) error {
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&count, 1)
			return nil
		})
	}
	pool.Close()

	assert.Equal(t, atomic.LoadInt64(&count), int64(10))
	assert.Equal(t, pool.Len(), 0)

	late := pool.Submit(context.Background(), func(context.Context) error { return nil })
	assert.Equal(t, late.Err(), ErrClosed)
	assert.Assert(t, !errors.Is(late.Err(), context.Canceled))
}

func TestFutureWaitContext(t *testing.T) {
	pool := New(context.Background(), 1)
	defer pool.Shutdown()

	f := pool.Submit(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Equal(t, f.Wait(ctx), context.DeadlineExceeded)
	assert.Assert(t, !f.IsDone())
	assert.NilError(t, f.Err())
}
