package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EncodeJob is one invocation of the encoder for a pipeline item.
//
// It is created when an item reaches the encode stage and discarded once the
// encoder process has terminated. The cancellation scope is the context passed
// alongside the job.
type EncodeJob struct {
	InputPath  string             `json:"input_path"`
	OutputPath string             `json:"output_path"`
	Transform  TransformationSpec `json:"transform"`
}

// Validate checks the job before any process is launched.
//
// Returns an error if:
//   - InputPath or OutputPath is empty or whitespace-only
//   - InputPath and OutputPath are the same file (the input is never mutated)
//   - the transformation spec is inconsistent
func (j *EncodeJob) Validate() error {
	if strings.TrimSpace(j.InputPath) == "" {
		return NewError(ErrInvalidArgument, "encode", fmt.Errorf("input_path cannot be empty"))
	}
	if strings.TrimSpace(j.OutputPath) == "" {
		return NewError(ErrInvalidArgument, "encode", fmt.Errorf("output_path cannot be empty"))
	}
	if j.InputPath == j.OutputPath {
		return NewError(ErrInvalidArgument, "encode", fmt.Errorf("output_path must differ from input_path"))
	}
	return j.Transform.Validate()
}

// EncodeStatus is the terminal state of an encoder invocation.
type EncodeStatus string

const (
	EncodeSucceeded EncodeStatus = "succeeded"
	EncodeFailed    EncodeStatus = "failed"
	EncodeCancelled EncodeStatus = "cancelled"
)

// EncodeResult represents the outcome of one encoder invocation.
//
// It enforces logical consistency: a successful result has an output path and
// no error, while failed and cancelled results carry an error and no output
// path. A failed result caused by a non-zero exit keeps the exit code.
//
// Use NewEncodeResultSuccess, NewEncodeResultFailure or NewEncodeResultCancelled
// to create consistent instances.
type EncodeResult struct {
	OutputPath string        `json:"output_path"`
	Status     EncodeStatus  `json:"status"`
	ExitCode   int           `json:"exit_code"`
	Err        error         `json:"-"`
	Elapsed    time.Duration `json:"elapsed"`
}

// NewEncodeResultSuccess creates a successful EncodeResult.
//
// Returns an error if outputPath is empty or whitespace-only.
func NewEncodeResultSuccess(outputPath string, elapsed time.Duration) (*EncodeResult, error) {
	er := &EncodeResult{
		OutputPath: outputPath,
		Status:     EncodeSucceeded,
		Elapsed:    elapsed,
	}
	if err := er.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encode result: %w", err)
	}
	return er, nil
}

// NewEncodeResultFailure creates a failed EncodeResult.
//
// A nil cause is replaced with a generic process failure so the result always
// explains itself. The exit code is lifted from a *Error when present.
func NewEncodeResultFailure(cause error, elapsed time.Duration) *EncodeResult {
	if cause == nil {
		cause = NewError(ErrProcessFailure, "encode", nil)
	}
	er := &EncodeResult{
		Status:  EncodeFailed,
		Err:     cause,
		Elapsed: elapsed,
	}
	var e *Error
	if errors.As(cause, &e) {
		er.ExitCode = e.ExitCode
	}
	return er
}

// NewEncodeResultCancelled creates a cancelled EncodeResult.
func NewEncodeResultCancelled(cause error, elapsed time.Duration) *EncodeResult {
	return &EncodeResult{
		Status:  EncodeCancelled,
		Err:     NewError(ErrCancelled, "encode", cause),
		Elapsed: elapsed,
	}
}

// Succeeded reports whether the encoder produced its output.
func (er *EncodeResult) Succeeded() bool {
	return er != nil && er.Status == EncodeSucceeded
}

// Validate checks if the EncodeResult has consistent state.
//
// Returns an error if:
//   - Status is succeeded but Err is set, or OutputPath is empty
//   - Status is failed or cancelled but Err is nil
//   - Status is failed or cancelled but OutputPath is set
func (er *EncodeResult) Validate() error {
	switch er.Status {
	case EncodeSucceeded:
		if er.Err != nil {
			return fmt.Errorf("inconsistent state: status is succeeded but error is set")
		}
		if strings.TrimSpace(er.OutputPath) == "" {
			return fmt.Errorf("output_path cannot be empty for successful result")
		}
	case EncodeFailed, EncodeCancelled:
		if er.Err == nil {
			return fmt.Errorf("%s result must have an error", er.Status)
		}
		if strings.TrimSpace(er.OutputPath) != "" {
			return fmt.Errorf("%s result should not have output_path", er.Status)
		}
	default:
		return fmt.Errorf("unknown status %q", er.Status)
	}
	return nil
}
