package ffmpeg

import (
	"regexp"
	"strconv"
	"sync"
	"time"

	"tubeforge/internal/timeutil"
	"tubeforge/models"
)

var (
	// ffmpeg prints the input duration once in its header, then a status
	// line with the current output position roughly twice a second.
	durationRegex = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	timeRegex     = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	speedRegex    = regexp.MustCompile(`(?:^|\s)speed=\s*([0-9.]+)x`)
)

// ProgressMonitor turns ffmpeg diagnostic lines into a completion fraction.
//
// It learns the total duration from the "Duration:" header and reports
// position/duration for every "time=" line after that. Lines that match
// neither pattern are ignored. Reported fractions are clamped to [0, 1] and
// never decrease.
//
// A ProgressMonitor is safe for concurrent use, though the supervisor feeds
// it from a single reader goroutine.
type ProgressMonitor struct {
	mu        sync.Mutex
	timeScale float64
	progress  *models.EncodingProgress
}

// NewProgressMonitor creates a monitor with no known duration.
func NewProgressMonitor() *ProgressMonitor {
	return &ProgressMonitor{
		timeScale: 1,
		progress:  models.NewEncodingProgress(0),
	}
}

// SetSpeed tells the monitor that the output plays at speed times the input,
// so the output timeline is duration/speed long.
func (m *ProgressMonitor) SetSpeed(speed float64) *ProgressMonitor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if speed > 0 {
		m.timeScale = speed
	}
	return m
}

// SetDuration sets the input duration in seconds, e.g. from ffprobe. A
// duration set here takes precedence over the encoder's header.
func (m *ProgressMonitor) SetDuration(seconds float64) *ProgressMonitor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seconds > 0 {
		m.progress.TotalDuration = seconds / m.timeScale
	}
	return m
}

// SetState records a lifecycle transition and returns the resulting snapshot.
// The encoding state is set by ParseLine itself.
func (m *ProgressMonitor) SetState(state models.ProgressState) models.EncodingProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress.State = state
	m.progress.UpdatedAt = time.Now()
	if state == models.ProgressStateCompleted && m.progress.HasDuration() {
		m.progress.Fraction = 1
	}
	return *m.progress
}

// ParseLine consumes one line of ffmpeg output.
//
// It returns the updated fraction and true when the line advanced progress,
// or 0 and false for headers, noise and lines seen before the duration.
func (m *ProgressMonitor) ParseLine(line string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.progress.HasDuration() {
		if match := durationRegex.FindStringSubmatch(line); match != nil {
			if seconds, err := timeutil.ClockSeconds(match[1], match[2], match[3], match[4]); err == nil && seconds > 0 {
				m.progress.TotalDuration = seconds / m.timeScale
			}
			return 0, false
		}
	}

	match := timeRegex.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	position, err := timeutil.ClockSeconds(match[1], match[2], match[3], match[4])
	if err != nil {
		return 0, false
	}

	if s := speedRegex.FindStringSubmatch(line); s != nil {
		if speed, err := strconv.ParseFloat(s[1], 64); err == nil {
			m.progress.Speed = speed
		}
	}
	m.progress.CurrentTime = match[1] + ":" + match[2] + ":" + match[3] + "." + match[4]
	m.progress.State = models.ProgressStateEncoding
	m.progress.UpdatedAt = time.Now()

	if !m.progress.HasDuration() {
		m.progress.Position = position
		return 0, false
	}

	previous := m.progress.Fraction
	m.progress.CalculateProgress(position)
	if m.progress.Fraction < previous {
		m.progress.Fraction = previous
	}
	return m.progress.Fraction, true
}

// Duration returns the total duration in seconds, 0 while unknown.
func (m *ProgressMonitor) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress.TotalDuration
}

// Position returns the last reported position in seconds.
func (m *ProgressMonitor) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress.Position
}

// Fraction returns the last reported fraction.
func (m *ProgressMonitor) Fraction() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress.Fraction
}

// Snapshot returns a copy of the current progress.
func (m *ProgressMonitor) Snapshot() models.EncodingProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.progress
}
