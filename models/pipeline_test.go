package models

import (
	"errors"
	"testing"
)

func TestStage_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Stage
		allowed  bool
	}{
		{StagePending, StageDownloading, true},
		{StagePending, StageEncoding, false},
		{StageDownloading, StageEncoding, true},
		{StageDownloading, StageUploading, true}, // encoding disabled
		{StageDownloading, StageDone, true},      // encoding and upload disabled
		{StageEncoding, StageUploading, true},
		{StageEncoding, StageDone, true},
		{StageUploading, StageDone, true},
		{StageUploading, StageEncoding, false},
		{StagePending, StageFailed, true},
		{StageEncoding, StageFailed, true},
		{StageDone, StageFailed, false},
		{StageFailed, StageDone, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s -> %s) = %v; want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestPipelineItem_Lifecycle(t *testing.T) {
	item := NewPipelineItem(0, Source{ID: "abc", Title: "A"})

	if item.Stage != StagePending {
		t.Fatalf("Expected pending, got %s", item.Stage)
	}
	for _, next := range []Stage{StageDownloading, StageEncoding, StageUploading, StageDone} {
		if err := item.Advance(next); err != nil {
			t.Fatalf("Advance(%s): %v", next, err)
		}
	}
	if item.StartedAt.IsZero() || item.FinishedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
	if err := item.Advance(StageUploading); err == nil {
		t.Error("Expected error advancing a terminal item")
	}
}

func TestPipelineItem_Fail(t *testing.T) {
	item := NewPipelineItem(1, Source{ID: "abc"})
	_ = item.Advance(StageDownloading)

	first := NewError(ErrNetworkFailure, "download", errors.New("reset"))
	item.Fail(first)
	item.Fail(errors.New("second"))

	if item.Stage != StageFailed {
		t.Errorf("Expected failed, got %s", item.Stage)
	}
	if item.Err != first {
		t.Errorf("Expected first reason to win, got %v", item.Err)
	}
	if item.Reason() == "" {
		t.Error("Expected a human-readable reason")
	}
}

func TestSource_Validate(t *testing.T) {
	if err := (Source{ID: "x"}).Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := (Source{ID: " "}).Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestBatchProgress_Fraction(t *testing.T) {
	tests := []struct {
		name     string
		progress BatchProgress
		expected float64
	}{
		{"empty batch", BatchProgress{}, 0},
		{"nothing done", BatchProgress{Total: 4}, 0},
		{"half item", BatchProgress{Total: 4, Current: 0.5}, 0.125},
		{"two done and half", BatchProgress{Completed: 2, Total: 4, Current: 0.5}, 0.625},
		{"all done", BatchProgress{Completed: 4, Total: 4}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.progress.Fraction(); got != tt.expected {
				t.Errorf("Fraction() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestParsePrivacy(t *testing.T) {
	for _, in := range []string{"public", "Private", " unlisted "} {
		if _, err := ParsePrivacy(in); err != nil {
			t.Errorf("ParsePrivacy(%q): %v", in, err)
		}
	}
	if _, err := ParsePrivacy("secret"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}
