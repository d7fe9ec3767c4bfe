package transfer

import "encoding/json"

// State is the lifecycle state of a transfer.
type State int

const (
	// Waiting is the state of a transfer which is not dispatched to a worker
	// yet.
	Waiting State = iota
	// InProgress is the state of a transfer which is being transferred.
	InProgress
	// Completed is the state of a successfully finished transfer.
	Completed
	// Canceled is the state of an aborted transfer.
	Canceled
	// Failed is the state of a transfer which finished with an error.
	Failed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case Waiting:
		return "Waiting"
	case InProgress:
		return "InProgress"
	case Completed:
		return "Completed"
	case Canceled:
		return "Canceled"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether s is a final state. Terminal states never change.
func (s State) IsTerminal() bool {
	return s == Completed || s == Canceled || s == Failed
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
