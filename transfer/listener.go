package transfer

import "sync"

// ProgressListener receives the number of bytes transferred by each
// completed unit of work: a part, a single request or a chunk of a download
// stream.
type ProgressListener interface {
	BytesTransferred(n int64)
}

// ProgressListenerFunc is an adapter to allow the use of ordinary functions as
// progress listeners.
type ProgressListenerFunc func(n int64)

// BytesTransferred calls f(n).
func (f ProgressListenerFunc) BytesTransferred(n int64) {
	f(n)
}

// listenerChain forwards events to its listeners one event at a time, in the
// order the listeners are added.
type listenerChain struct {
	mu        sync.Mutex
	listeners []ProgressListener

	deliverMu sync.Mutex
}

func (c *listenerChain) add(l ProgressListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

func (c *listenerChain) BytesTransferred(n int64) {
	c.mu.Lock()
	listeners := c.listeners
	c.mu.Unlock()

	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	for _, l := range listeners {
		l.BytesTransferred(n)
	}
}
