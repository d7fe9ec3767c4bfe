package transfer

import (
	"sync"
	"testing"

	"gotest.tools/v3/assert"
)

func TestProgressConcurrentIncrements(t *testing.T) {
	const (
		workers    = 16
		increments = 1000
		delta      = 7
	)

	var tr transfer
	tr.init("concurrent", workers*increments*delta)

	var listened int64
	var mu sync.Mutex
	tr.AddProgressListener(ProgressListenerFunc(func(n int64) {
		mu.Lock()
		listened += n
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				tr.listeners.BytesTransferred(delta)
			}
		}()
	}
	wg.Wait()

	want := int64(workers * increments * delta)
	assert.Equal(t, tr.Progress().BytesTransferred(), want)
	assert.Equal(t, listened, want)
	assert.Equal(t, tr.Progress().Percent(), float64(100))
}

func TestProgressPercent(t *testing.T) {
	testcases := []struct {
		name        string
		total       int64
		transferred int64
		expected    float64
	}{
		{name: "unknown total", total: -1, transferred: 10, expected: 0},
		{name: "empty", total: 0, expected: 0},
		{name: "quarter", total: 400, transferred: 100, expected: 25},
		{name: "done", total: 400, transferred: 400, expected: 100},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			p := NewProgress(tc.total)
			p.add(tc.transferred)
			assert.Equal(t, p.Percent(), tc.expected)
		})
	}
}

func TestProgressIgnoresNonPositiveDeltas(t *testing.T) {
	p := NewProgress(10)
	p.add(4)
	p.add(0)
	p.add(-3)
	assert.Equal(t, p.BytesTransferred(), int64(4))
}

func TestListenerChainOrder(t *testing.T) {
	var chain listenerChain

	var got []string
	chain.add(ProgressListenerFunc(func(n int64) { got = append(got, "first") }))
	chain.add(nil)
	chain.add(ProgressListenerFunc(func(n int64) { got = append(got, "second") }))

	chain.BytesTransferred(1)
	chain.BytesTransferred(2)

	assert.DeepEqual(t, got, []string{"first", "second", "first", "second"})
}
