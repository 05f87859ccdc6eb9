package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by every stage of the pipeline.
//
// Outcome values (EncodeResult, UploadResult, PipelineItem) carry errors that
// match one of these with errors.Is, so callers can branch on the kind without
// parsing messages.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrProcessFailure  = errors.New("process failure")
	ErrCancelled       = errors.New("cancelled")
	ErrNetworkFailure  = errors.New("network failure")
	ErrRemoteRejected  = errors.New("remote rejected")
	ErrPartialSuccess  = errors.New("partial success")
)

// Error describes a failed operation together with its kind.
type Error struct {
	Kind     error  // One of the Err* sentinels above
	Op       string // Operation that failed, e.g. "encode", "upload", "thumbnail"
	ExitCode int    // Process exit code, only meaningful for ErrProcessFailure
	Err      error  // Underlying cause, may be nil
}

// NewError wraps err with the given kind and operation name.
func NewError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Kind == ErrProcessFailure {
		msg = fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the taxonomy sentinel err matches, or nil if none does.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{
		ErrCancelled,
		ErrNotFound,
		ErrInvalidArgument,
		ErrProcessFailure,
		ErrNetworkFailure,
		ErrRemoteRejected,
		ErrPartialSuccess,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
