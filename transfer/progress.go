package transfer

import "sync/atomic"

// Progress is a thread-safe counter of transferred bytes.
type Progress struct {
	transferred atomic.Int64
	total       atomic.Int64
}

// NewProgress returns a counter of the given total. A negative total is
// unknown.
func NewProgress(total int64) *Progress {
	p := &Progress{}
	p.total.Store(total)
	return p
}

// BytesTransferred returns the number of bytes transferred so far.
func (p *Progress) BytesTransferred() int64 {
	return p.transferred.Load()
}

// TotalBytes returns the total number of bytes to transfer. It is negative
// while the total is unknown.
func (p *Progress) TotalBytes() int64 {
	return p.total.Load()
}

// Percent returns the percentage of transferred bytes. It returns 0 if the
// total is unknown or zero.
func (p *Progress) Percent() float64 {
	total := p.TotalBytes()
	if total <= 0 {
		return 0
	}
	return float64(p.BytesTransferred()) / float64(total) * 100
}

func (p *Progress) add(n int64) {
	if n <= 0 {
		return
	}
	p.transferred.Add(n)
}

func (p *Progress) setTotal(n int64) {
	p.total.Store(n)
}

// progressUpdater is the first listener of every chain.
type progressUpdater struct {
	progress *Progress
}

func (u progressUpdater) BytesTransferred(n int64) {
	u.progress.add(n)
}
