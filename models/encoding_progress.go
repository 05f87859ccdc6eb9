package models

import (
	"fmt"
	"time"
)

// ProgressFunc receives a completion fraction in [0, 1].
type ProgressFunc func(fraction float64)

// EncodingProgress is the best-effort view of an encoder run reconstructed
// from its diagnostic stream.
type EncodingProgress struct {
	CurrentTime   string  // Last "time=" value seen (HH:MM:SS.ff)
	Position      float64 // Processed position in seconds
	TotalDuration float64 // Total media duration in seconds, 0 until known
	Fraction      float64 // Completion in [0, 1], 0 until TotalDuration is known
	Speed         float64 // Encoding speed multiplier, 0 if never reported

	State     ProgressState
	StartTime time.Time
	UpdatedAt time.Time
}

// ProgressState represents the current state of an encoding task
type ProgressState string

const (
	ProgressStateQueued    ProgressState = "queued"
	ProgressStateStarting  ProgressState = "starting"
	ProgressStateEncoding  ProgressState = "encoding"
	ProgressStateCompleted ProgressState = "completed"
	ProgressStateFailed    ProgressState = "failed"
	ProgressStateCancelled ProgressState = "cancelled"
)

// NewEncodingProgress creates a new progress tracker. totalDuration may be 0
// when the duration is only learned from the stream later.
func NewEncodingProgress(totalDuration float64) *EncodingProgress {
	now := time.Now()
	return &EncodingProgress{
		TotalDuration: totalDuration,
		State:         ProgressStateQueued,
		StartTime:     now,
		UpdatedAt:     now,
	}
}

// HasDuration reports whether a fraction can be derived yet.
func (ep *EncodingProgress) HasDuration() bool {
	return ep.TotalDuration > 0
}

// CalculateProgress records the processed position and recomputes Fraction,
// clamped to [0, 1]. Without a known duration only the position is stored.
func (ep *EncodingProgress) CalculateProgress(currentSeconds float64) {
	ep.Position = currentSeconds
	if ep.TotalDuration > 0 {
		ep.Fraction = clampFraction(currentSeconds / ep.TotalDuration)
	}
	ep.UpdatedAt = time.Now()
}

// EstimatedTimeRemaining extrapolates from elapsed wall time and Fraction.
func (ep *EncodingProgress) EstimatedTimeRemaining() time.Duration {
	if ep.Fraction <= 0 {
		return 0
	}

	elapsed := ep.UpdatedAt.Sub(ep.StartTime)
	totalEstimated := time.Duration(float64(elapsed) / ep.Fraction)
	remaining := totalEstimated - elapsed

	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatSummary returns a human-readable summary of the progress
func (ep *EncodingProgress) FormatSummary() string {
	return fmt.Sprintf(
		"Progress: %.1f%% | Time: %s | Speed: %.2fx | ETA: %s",
		ep.Fraction*100,
		ep.CurrentTime,
		ep.Speed,
		formatDuration(ep.EstimatedTimeRemaining()),
	)
}

func clampFraction(f float64) float64 {
	if f < 0 || f != f {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// formatDuration converts a duration to a human-readable string
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "calculating..."
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	seconds = seconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
