package transfer

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// leaf is a single-object transfer owned by a composite transfer.
type leaf interface {
	Transfer
	addStateListener(l stateListener)
	abort()
}

func (u *Upload) abort()   { u.Abort() }
func (d *Download) abort() { _ = d.Abort() }

// multipleFileTransfer derives its state from its sub-transfers. Children
// start before the enumeration ends, so their state callbacks block on the
// queued gate until every child is registered.
type multipleFileTransfer struct {
	transfer

	bucket    string
	keyPrefix string
	dir       string

	queued     chan struct{}
	queuedOnce sync.Once

	collateMu sync.Mutex
	children  []leaf
}

func (c *multipleFileTransfer) initMultiple(description, bucket, keyPrefix, dir string) {
	c.init(description, 0)
	c.bucket = bucket
	c.keyPrefix = keyPrefix
	c.dir = dir
	c.queued = make(chan struct{})
}

// Bucket returns the remote bucket.
func (c *multipleFileTransfer) Bucket() string { return c.bucket }

// KeyPrefix returns the common key prefix of the sub-transfers.
func (c *multipleFileTransfer) KeyPrefix() string { return c.keyPrefix }

// Directory returns the local directory.
func (c *multipleFileTransfer) Directory() string { return c.dir }

// register adds a child which is not started yet. Its progress is forwarded
// to the composite.
func (c *multipleFileTransfer) register(child leaf) {
	child.AddProgressListener(&c.listeners)
	child.addStateListener(c.onChildStateChange)

	c.collateMu.Lock()
	c.children = append(c.children, child)
	c.collateMu.Unlock()
}

// allQueued opens the gate once every child is registered. A composite
// without children completes immediately.
func (c *multipleFileTransfer) allQueued() {
	c.collateMu.Lock()
	var total int64
	for _, child := range c.children {
		if n := child.Progress().TotalBytes(); n > 0 {
			total += n
		}
	}
	c.progress.setTotal(total)
	empty := len(c.children) == 0
	c.collateMu.Unlock()

	c.queuedOnce.Do(func() { close(c.queued) })

	if empty {
		c.setState(Completed)
	}
}

// failQueuing ends an enumeration which could not finish. The composite
// fails with err and the children which are already started are canceled.
func (c *multipleFileTransfer) failQueuing(err error) {
	c.setStateWithError(Failed, err)
	c.queuedOnce.Do(func() { close(c.queued) })

	c.collateMu.Lock()
	children := c.children
	c.collateMu.Unlock()

	for _, child := range children {
		child.abort()
	}
}

func (c *multipleFileTransfer) onChildStateChange(s State) {
	<-c.queued

	c.collateMu.Lock()
	defer c.collateMu.Unlock()

	if c.State().IsTerminal() {
		return
	}

	if !s.IsTerminal() {
		if s == InProgress {
			c.setState(InProgress)
		}
		return
	}

	for _, child := range c.children {
		if !child.IsDone() {
			c.setState(InProgress)
			return
		}
	}
	c.collate()
}

// collate sets the final state: Completed if every child completed,
// otherwise the state of the first child which did not. The errors of the
// children are aggregated.
func (c *multipleFileTransfer) collate() {
	final := Completed
	var merr error
	for _, child := range c.children {
		state := child.State()
		if state != Completed && final == Completed {
			final = state
		}
		if state == Failed {
			merr = multierror.Append(merr, child.Wait(context.Background()))
		}
	}

	if final == Completed {
		c.setState(Completed)
		return
	}
	c.setStateWithError(final, merr)
}

// abortChildren cancels every child.
func (c *multipleFileTransfer) abortChildren() {
	c.collateMu.Lock()
	children := make([]leaf, len(c.children))
	copy(children, c.children)
	c.collateMu.Unlock()

	for _, child := range children {
		child.abort()
	}
}

// MultipleFileUpload is the upload of a local directory.
type MultipleFileUpload struct {
	multipleFileTransfer
	uploads []*Upload
}

// Uploads returns the sub-transfers in the order they are enumerated.
func (m *MultipleFileUpload) Uploads() []*Upload {
	m.collateMu.Lock()
	defer m.collateMu.Unlock()
	return append([]*Upload(nil), m.uploads...)
}

// Abort cancels every sub-transfer.
func (m *MultipleFileUpload) Abort() {
	m.abortChildren()
}

func (m *MultipleFileUpload) add(u *Upload) {
	m.register(u)
	m.collateMu.Lock()
	m.uploads = append(m.uploads, u)
	m.collateMu.Unlock()
}

// MultipleFileDownload is the download of a key prefix into a local
// directory.
type MultipleFileDownload struct {
	multipleFileTransfer
	downloads []*Download
}

// Downloads returns the sub-transfers in the order they are enumerated.
func (m *MultipleFileDownload) Downloads() []*Download {
	m.collateMu.Lock()
	defer m.collateMu.Unlock()
	return append([]*Download(nil), m.downloads...)
}

// Abort cancels every sub-transfer.
func (m *MultipleFileDownload) Abort() {
	m.abortChildren()
}

func (m *MultipleFileDownload) add(d *Download) {
	m.register(d)
	m.collateMu.Lock()
	m.downloads = append(m.downloads, d)
	m.collateMu.Unlock()
}
