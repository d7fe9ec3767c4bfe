package log

import (
	"fmt"

	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
	"github.com/peak/s5transfer/strutil"
)

// Message is an interface to print structured logs.
type Message interface {
	fmt.Stringer
	JSON() string
}

// InfoMessage is a generic message structure for successful operations.
type InfoMessage struct {
	Operation   string          `json:"operation"`
	Success     bool            `json:"success"`
	Source      *url.URL        `json:"source,omitempty"`
	Destination *url.URL        `json:"destination,omitempty"`
	Object      *storage.Object `json:"object,omitempty"`
}

// String is the string representation of InfoMessage.
func (i InfoMessage) String() string {
	src := "-"
	if i.Source != nil {
		src = i.Source.String()
	}
	if i.Destination == nil {
		return fmt.Sprintf("%v %v", i.Operation, src)
	}
	return fmt.Sprintf("%v %v %v", i.Operation, src, i.Destination)
}

// JSON is the JSON representation of InfoMessage.
func (i InfoMessage) JSON() string {
	i.Success = true
	return strutil.JSON(i)
}

// ErrorMessage is a generic message structure for unsuccessful operations.
type ErrorMessage struct {
	Operation string `json:"operation,omitempty"`
	Command   string `json:"command,omitempty"`
	Err       string `json:"error"`
}

// String is the string representation of ErrorMessage.
func (e ErrorMessage) String() string {
	if e.Command == "" {
		return e.Err
	}
	return fmt.Sprintf("%q: %v", e.Command, e.Err)
}

// JSON is the JSON representation of ErrorMessage.
func (e ErrorMessage) JSON() string {
	return strutil.JSON(e)
}

// WarningMessage is a generic message structure for operations that are
// skipped or partially applied.
type WarningMessage struct {
	Operation string `json:"operation,omitempty"`
	Command   string `json:"job,omitempty"`
	Err       string `json:"error"`
}

// String is the string representation of WarningMessage.
func (w WarningMessage) String() string {
	if w.Command == "" {
		return w.Err
	}
	return fmt.Sprintf("%q (%v)", w.Command, w.Err)
}

// JSON is the JSON representation of WarningMessage.
func (w WarningMessage) JSON() string {
	return strutil.JSON(w)
}

// DebugMessage is a generic message structure for debugging logs.
type DebugMessage struct {
	Content string `json:"content"`
}

// String is the string representation of DebugMessage.
func (d DebugMessage) String() string {
	return d.Content
}

// JSON is the JSON representation of DebugMessage.
func (d DebugMessage) JSON() string {
	return strutil.JSON(d)
}

// ProgressMessage reports the progress of an in-flight transfer.
type ProgressMessage struct {
	Transfer         string  `json:"transfer"`
	State            string  `json:"state"`
	BytesTransferred int64   `json:"bytes_transferred"`
	TotalBytes       int64   `json:"total_bytes"`
	Percent          float64 `json:"percent"`
}

// String is the string representation of ProgressMessage.
func (p ProgressMessage) String() string {
	return fmt.Sprintf(
		"%v [%v] %v/%v (%.1f%%)",
		p.Transfer,
		p.State,
		strutil.HumanizeBytes(p.BytesTransferred),
		strutil.HumanizeBytes(p.TotalBytes),
		p.Percent,
	)
}

// JSON is the JSON representation of ProgressMessage.
func (p ProgressMessage) JSON() string {
	return strutil.JSON(p)
}

// Debugf is the helper function to log debug messages.
func Debugf(format string, args ...interface{}) {
	content := fmt.Sprintf(format, args...)
	msg := DebugMessage{Content: content}
	Debug(msg)
}
