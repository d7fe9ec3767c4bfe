package progressbar

import (
	"context"
	"fmt"
	"sync"

	"github.com/cheggaaa/pb/v3"

	"github.com/peak/s5transfer/transfer"
)

// ProgressBar renders the progress of a set of transfers. It receives the
// progress events of the tracked transfers.
type ProgressBar interface {
	transfer.ProgressListener

	Start()
	Finish()
	Track(t transfer.Transfer)
}

type NoOpProgressBar struct{}

func (pb *NoOpProgressBar) Start() {}

func (pb *NoOpProgressBar) Finish() {}

func (pb *NoOpProgressBar) Track(t transfer.Transfer) {}

func (pb *NoOpProgressBar) BytesTransferred(n int64) {}

type CommandProgressBar struct {
	totalObjects     int64
	completedObjects int64
	totalBytes       int64
	completedBytes   int64
	mu               sync.RWMutex
	wg               sync.WaitGroup
	progressbar      *pb.ProgressBar
}

var _ ProgressBar = (*CommandProgressBar)(nil)

const progressbarTemplate = `{{percent . | green}} {{bar . " " "━" "━" "─" " " | green}} {{counters . | green}} {{speed . "(%s/s)" | red}} {{rtime . "%s left" | blue}} {{ string . "objects" | yellow}}`

func NewCommandProgressBar() *CommandProgressBar {
	cp := &CommandProgressBar{}
	cp.progressbar = pb.New64(0)
	cp.progressbar.Set(pb.Bytes, true)
	cp.progressbar.Set(pb.SIBytesPrefix, true)
	cp.progressbar.SetWidth(128)
	cp.progressbar.SetTemplateString(progressbarTemplate)
	cp.progressbar.Set("objects", fmt.Sprintf("(%d/%d)", 0, 0))
	return cp
}

func (cp *CommandProgressBar) Start() {
	cp.progressbar.Start()
}

// Finish waits for the tracked transfers and stops rendering.
func (cp *CommandProgressBar) Finish() {
	cp.wg.Wait()
	cp.progressbar.Finish()
}

// Track adds the size of t to the total and receives its progress events
// from now on. The object counter is incremented once t completes.
func (cp *CommandProgressBar) Track(t transfer.Transfer) {
	cp.incrementTotalObjects()
	if total := t.Progress().TotalBytes(); total > 0 {
		cp.addTotalBytes(total)
	}
	t.AddProgressListener(cp)

	cp.wg.Add(1)
	go func() {
		defer cp.wg.Done()
		if err := t.Wait(context.Background()); err == nil {
			cp.incrementCompletedObjects()
		}
	}()
}

// BytesTransferred implements transfer.ProgressListener.
func (cp *CommandProgressBar) BytesTransferred(n int64) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.completedBytes += n
	cp.progressbar.Add64(n)
}

func (cp *CommandProgressBar) incrementCompletedObjects() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.completedObjects += 1
	cp.progressbar.Set("objects", fmt.Sprintf("(%d/%d)", cp.completedObjects, cp.totalObjects))
}

func (cp *CommandProgressBar) incrementTotalObjects() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.totalObjects += 1
	cp.progressbar.Set("objects", fmt.Sprintf("(%d/%d)", cp.completedObjects, cp.totalObjects))
}

func (cp *CommandProgressBar) addTotalBytes(bytes int64) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.totalBytes += bytes
	cp.progressbar.SetTotal(cp.totalBytes)
}
