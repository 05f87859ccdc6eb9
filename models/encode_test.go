package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeJob_Validate(t *testing.T) {
	tests := []struct {
		name          string
		job           EncodeJob
		WantError     bool
		ErrorContains string
	}{
		{name: "Valid job", job: EncodeJob{InputPath: "in.mp4", OutputPath: "out.mp4"}, WantError: false},
		{name: "Empty input", job: EncodeJob{OutputPath: "out.mp4"}, WantError: true, ErrorContains: "input_path cannot be empty"},
		{name: "Whitespace output", job: EncodeJob{InputPath: "in.mp4", OutputPath: "  "}, WantError: true, ErrorContains: "output_path cannot be empty"},
		{name: "Same file", job: EncodeJob{InputPath: "a.mp4", OutputPath: "a.mp4"}, WantError: true, ErrorContains: "must differ"},
		{name: "Bad transform", job: EncodeJob{InputPath: "in.mp4", OutputPath: "out.mp4", Transform: TransformationSpec{Scale: Float(-1)}}, WantError: true, ErrorContains: "scale must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.WantError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("Expected ErrInvalidArgument, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.ErrorContains) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.ErrorContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestNewEncodeResultSuccess(t *testing.T) {
	result, err := NewEncodeResultSuccess("/out/video.mp4", time.Second)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Error("Expected succeeded result")
	}

	if _, err := NewEncodeResultSuccess("   ", 0); err == nil {
		t.Error("Expected error for empty output path")
	}
}

func TestNewEncodeResultFailure_KeepsExitCode(t *testing.T) {
	cause := &Error{Kind: ErrProcessFailure, Op: "encode", ExitCode: 3}
	result := NewEncodeResultFailure(cause, 0)

	if result.Succeeded() {
		t.Error("Failure must not report success")
	}
	if result.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", result.ExitCode)
	}
	if !errors.Is(result.Err, ErrProcessFailure) {
		t.Errorf("Expected ErrProcessFailure, got %v", result.Err)
	}
	if err := result.Validate(); err != nil {
		t.Errorf("Failure result should be valid: %v", err)
	}
}

func TestNewEncodeResultFailure_NilCause(t *testing.T) {
	result := NewEncodeResultFailure(nil, 0)
	if result.Err == nil {
		t.Fatal("Expected a generic error for nil cause")
	}
	if err := result.Validate(); err != nil {
		t.Errorf("Result should be valid: %v", err)
	}
}

func TestNewEncodeResultCancelled(t *testing.T) {
	result := NewEncodeResultCancelled(errors.New("context canceled"), 0)

	if result.Status != EncodeCancelled {
		t.Errorf("Expected cancelled status, got %s", result.Status)
	}
	if !errors.Is(result.Err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", result.Err)
	}
	if errors.Is(result.Err, ErrProcessFailure) {
		t.Error("Cancelled result must not be a process failure")
	}
}

func TestEncodeResult_Validate(t *testing.T) {
	tests := []struct {
		name      string
		result    EncodeResult
		wantError bool
	}{
		{"success", EncodeResult{Status: EncodeSucceeded, OutputPath: "o.mp4"}, false},
		{"success with error", EncodeResult{Status: EncodeSucceeded, OutputPath: "o.mp4", Err: errors.New("x")}, true},
		{"success without path", EncodeResult{Status: EncodeSucceeded}, true},
		{"failure without error", EncodeResult{Status: EncodeFailed}, true},
		{"failure with path", EncodeResult{Status: EncodeFailed, Err: errors.New("x"), OutputPath: "o.mp4"}, true},
		{"unknown status", EncodeResult{Status: "weird"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrNetworkFailure, "upload", cause)

	if !errors.Is(err, ErrNetworkFailure) {
		t.Error("Expected error to match its kind")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected error to match its cause")
	}
	if KindOf(err) != ErrNetworkFailure {
		t.Errorf("KindOf = %v; want %v", KindOf(err), ErrNetworkFailure)
	}
	if KindOf(errors.New("plain")) != nil {
		t.Error("KindOf should be nil for foreign errors")
	}
	if !strings.Contains(err.Error(), "upload: network failure: boom") {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}
