package models

import (
	"strings"
	"testing"
	"time"
)

func TestNewEncodingProgress(t *testing.T) {
	progress := NewEncodingProgress(30.0)

	if progress == nil {
		t.Fatal("NewEncodingProgress returned nil")
	}
	if progress.TotalDuration != 30.0 {
		t.Errorf("Expected TotalDuration 30.00, got %.2f", progress.TotalDuration)
	}
	if progress.State != ProgressStateQueued {
		t.Errorf("Expected initial state %s, got %s", ProgressStateQueued, progress.State)
	}
	if progress.StartTime.IsZero() || progress.UpdatedAt.IsZero() {
		t.Error("StartTime and UpdatedAt should be set")
	}
}

func TestEncodingProgress_CalculateProgress(t *testing.T) {
	progress := NewEncodingProgress(30.0)

	tests := []struct {
		name             string
		currentSeconds   float64
		expectedFraction float64
	}{
		{"zero progress", 0, 0.0},
		{"halfway", 15.0, 0.5},
		{"complete", 30.0, 1.0},
		{"past the end", 35.0, 1.0},
		{"negative position", -3.0, 0.0},
		{"fractional", 10.5, 0.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress.CalculateProgress(tt.currentSeconds)

			if diff := progress.Fraction - tt.expectedFraction; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Expected fraction %.4f, got %.4f", tt.expectedFraction, progress.Fraction)
			}
			if progress.Position != tt.currentSeconds {
				t.Errorf("Expected position %.2f, got %.2f", tt.currentSeconds, progress.Position)
			}
		})
	}
}

func TestEncodingProgress_CalculateProgress_UnknownDuration(t *testing.T) {
	progress := NewEncodingProgress(0)
	progress.CalculateProgress(15.0)

	if progress.HasDuration() {
		t.Error("HasDuration should be false without a duration")
	}
	if progress.Fraction != 0 {
		t.Errorf("Expected fraction 0 with unknown duration, got %.2f", progress.Fraction)
	}
}

func TestEncodingProgress_EstimatedTimeRemaining(t *testing.T) {
	progress := NewEncodingProgress(30.0)
	progress.StartTime = time.Now().Add(-10 * time.Second)
	progress.UpdatedAt = time.Now()
	progress.Fraction = 0.5

	eta := progress.EstimatedTimeRemaining()

	if eta < 9*time.Second || eta > 11*time.Second {
		t.Errorf("Expected ETA around 10s, got %v", eta)
	}
}

func TestEncodingProgress_EstimatedTimeRemaining_NoProgress(t *testing.T) {
	progress := NewEncodingProgress(30.0)

	if eta := progress.EstimatedTimeRemaining(); eta != 0 {
		t.Errorf("Expected zero ETA before any progress, got %v", eta)
	}
}

func TestEncodingProgress_FormatSummary(t *testing.T) {
	progress := NewEncodingProgress(30.0)
	progress.CurrentTime = "00:00:15.00"
	progress.Fraction = 0.5
	progress.Speed = 2.5

	summary := progress.FormatSummary()

	for _, want := range []string{"50.0%", "00:00:15.00", "2.50x"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary %q should contain %q", summary, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "calculating..."},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m30s"},
		{3725 * time.Second, "1h2m5s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.expected {
			t.Errorf("formatDuration(%v) = %s; want %s", tt.d, got, tt.expected)
		}
	}
}
