package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestStateIsTerminal(t *testing.T) {
	testcases := []struct {
		state    State
		terminal bool
	}{
		{Waiting, false},
		{InProgress, false},
		{Completed, true},
		{Canceled, true},
		{Failed, true},
	}

	for _, tc := range testcases {
		assert.Equal(t, tc.state.IsTerminal(), tc.terminal, tc.state.String())
	}
}

func TestStateMarshalJSON(t *testing.T) {
	b, err := InProgress.MarshalJSON()
	assert.NilError(t, err)
	assert.Equal(t, string(b), `"InProgress"`)
}

func TestTerminalStateIsSticky(t *testing.T) {
	var tr transfer
	tr.init("sticky", 0)

	var notified []State
	tr.addStateListener(func(s State) { notified = append(notified, s) })

	assert.Assert(t, tr.setState(InProgress))
	assert.Assert(t, tr.setState(Canceled))
	assert.Assert(t, !tr.setStateWithError(Failed, errors.New("late failure")))
	assert.Assert(t, !tr.setState(Completed))
	assert.Assert(t, !tr.setState(InProgress))

	assert.Equal(t, tr.State(), Canceled)
	assert.Assert(t, tr.IsDone())
	assert.Equal(t, tr.Wait(context.Background()), ErrCanceled)
	assert.DeepEqual(t, notified, []State{InProgress, Canceled})
}

func TestTransferFinish(t *testing.T) {
	wrap := func(err error) error { return &wrappedError{err} }

	testcases := []struct {
		name     string
		err      error
		expected State
	}{
		{name: "success", expected: Completed},
		{name: "cancelation", err: context.Canceled, expected: Canceled},
		{name: "failure", err: errors.New("boom"), expected: Failed},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var tr transfer
			tr.init(tc.name, 0)

			assert.Equal(t, tr.finish(tc.err, wrap), tc.expected)

			err := tr.Wait(context.Background())
			switch tc.expected {
			case Completed:
				assert.NilError(t, err)
			case Canceled:
				assert.Equal(t, err, ErrCanceled)
			case Failed:
				var werr *wrappedError
				assert.Assert(t, errors.As(err, &werr))
				assert.Equal(t, werr.err, tc.err)
			}
		})
	}
}

func TestTransferWaitContext(t *testing.T) {
	var tr transfer
	tr.init("pending", 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Equal(t, tr.Wait(ctx), context.DeadlineExceeded)
	assert.Assert(t, !tr.IsDone())
	assert.Equal(t, tr.State(), Waiting)
}

type wrappedError struct {
	err error
}

func (e *wrappedError) Error() string { return e.err.Error() }

func (e *wrappedError) Unwrap() error { return e.err }
