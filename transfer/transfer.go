package transfer

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	errorpkg "github.com/peak/s5transfer/error"
)

var (
	// ErrCanceled is returned by Wait for transfers which end Canceled.
	ErrCanceled = errors.New("transfer canceled")

	// ErrShutdown is returned by a Manager which is closed or shut down.
	ErrShutdown = errors.New("transfer manager is shut down")
)

// Transfer is a single-object or a composite transfer.
type Transfer interface {
	// ID returns the unique id of the transfer.
	ID() string

	// Description returns a human readable description of the transfer.
	Description() string

	// State returns the current state of the transfer.
	State() State

	// Progress returns the progress counter of the transfer.
	Progress() *Progress

	// IsDone reports whether the transfer reached a terminal state.
	IsDone() bool

	// Wait blocks until the transfer reaches a terminal state or ctx is done.
	// It returns nil for Completed transfers, ErrCanceled for Canceled ones
	// and the failure otherwise.
	Wait(ctx context.Context) error

	// AddProgressListener registers a listener which receives every progress
	// event of the transfer from now on.
	AddProgressListener(l ProgressListener)
}

// stateListener is notified after every state change of a transfer, on the
// goroutine which changed the state.
type stateListener func(s State)

// transfer holds the state shared by every kind of transfer.
type transfer struct {
	id          string
	description string
	progress    *Progress
	listeners   listenerChain

	mu             sync.Mutex
	state          State
	err            error
	done           chan struct{}
	stateListeners []stateListener
}

// init prepares a zero transfer. The progress counter is the first listener
// of the chain.
func (t *transfer) init(description string, total int64) {
	t.id = uuid.NewString()
	t.description = description
	t.progress = NewProgress(total)
	t.done = make(chan struct{})
	t.listeners.add(progressUpdater{progress: t.progress})
}

func (t *transfer) ID() string { return t.id }

func (t *transfer) Description() string { return t.description }

func (t *transfer) Progress() *Progress { return t.progress }

func (t *transfer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *transfer) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *transfer) AddProgressListener(l ProgressListener) {
	t.listeners.add(l)
}

func (t *transfer) Wait(ctx context.Context) error {
	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case Completed:
		return nil
	case Canceled:
		if t.err != nil {
			return t.err
		}
		return ErrCanceled
	default:
		return t.err
	}
}

func (t *transfer) addStateListener(l stateListener) {
	t.mu.Lock()
	t.stateListeners = append(t.stateListeners, l)
	t.mu.Unlock()
}

// setState changes the state and notifies the state listeners. Terminal
// states are sticky: it returns false and changes nothing once the transfer
// is done.
func (t *transfer) setState(s State) bool {
	return t.setStateWithError(s, nil)
}

func (t *transfer) setStateWithError(s State, err error) bool {
	t.mu.Lock()
	if t.state.IsTerminal() || t.state == s {
		t.mu.Unlock()
		return false
	}
	t.state = s
	if s.IsTerminal() {
		t.err = err
		close(t.done)
	}
	listeners := t.stateListeners
	t.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
	return true
}

// finish moves the transfer to the terminal state matching err. Cancelation
// errors end the transfer Canceled, other errors are wrapped by wrap and end
// it Failed.
func (t *transfer) finish(err error, wrap func(error) error) State {
	switch {
	case err == nil:
		t.setState(Completed)
	case errorpkg.IsCancelation(err):
		t.setState(Canceled)
	default:
		t.setStateWithError(Failed, wrap(err))
	}
	return t.State()
}
