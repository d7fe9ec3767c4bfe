package error

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
)

// Error is the type that implements error interface.
type Error struct {
	// Op is the operation being performed, usually the name of the transfer
	// (upload, download, etc.)
	Op string
	// Src is the source argument
	Src *url.URL
	// Dst is the destination argument
	Dst *url.URL
	// The underlying error if any
	Err error
}

// FullCommand returns the command string that occurred at.
func (e *Error) FullCommand() string {
	src, dst := "-", "-"
	if e.Src != nil {
		src = e.Src.String()
	}
	if e.Dst != nil {
		dst = e.Dst.String()
	}
	return fmt.Sprintf("%v %v %v", e.Op, src, dst)
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap unwraps the error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the operation and its arguments. It returns nil if err is
// nil.
func New(op string, src, dst *url.URL, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:  op,
		Src: src,
		Dst: dst,
		Err: err,
	}
}

// IsCancelation reports whether if given error is a cancelation error.
func IsCancelation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return true
	}

	if storage.IsCancelationError(err) {
		return true
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return false
	}

	for _, err := range merr.Errors {
		if IsCancelation(err) {
			return true
		}
	}

	return false
}

var (
	// ErrNotDirectory indicates the given local path is not an existing
	// directory.
	ErrNotDirectory = storage.ErrNotDirectory

	// ErrObjectIsVirtualDirectory indicates a key is skipped because it
	// collides with a virtual directory of the same name.
	ErrObjectIsVirtualDirectory = fmt.Errorf("object is also a virtual directory")
)

// IsWarning checks if given error is informational and should not fail the
// command.
func IsWarning(err error) bool {
	return errors.Is(err, ErrObjectIsVirtualDirectory)
}
