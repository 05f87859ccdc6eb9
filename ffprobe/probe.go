// Package ffprobe extracts stream metadata from media files using the
// ffprobe command-line tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tubeforge/internal/procexec"
	"tubeforge/models"
)

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// GetDuration returns the duration of the media file in seconds.
//
// Returns an error if the duration cannot be parsed.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}

	duration, err := strconv.ParseFloat(pr.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", pr.Format.Duration, err)
	}

	return duration, nil
}

// GetAudioStreams returns all audio streams from the media file.
func (pr *ProbeResult) GetAudioStreams() []Stream {
	return pr.streams("audio")
}

// AudioSampleRate returns the sample rate of the first audio stream.
//
// Returns an error if the file has no audio stream or its rate is unreadable.
func (pr *ProbeResult) AudioSampleRate() (int, error) {
	audio := pr.GetAudioStreams()
	if len(audio) == 0 {
		return 0, fmt.Errorf("no audio stream")
	}
	rate, err := strconv.Atoi(audio[0].SampleRate)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %q", audio[0].SampleRate)
	}
	return rate, nil
}

func (pr *ProbeResult) streams(codecType string) []Stream {
	var out []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == codecType {
			out = append(out, stream)
		}
	}
	return out
}

// ParseOutput parses the JSON printed by
// "ffprobe -print_format json -show_streams -show_format".
func ParseOutput(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}

// Prober runs ffprobe.
type Prober struct {
	executable string
}

// NewProber returns a Prober for the given ffprobe executable.
func NewProber(executable string) *Prober {
	return &Prober{executable: executable}
}

// Probe analyzes a media file and extracts its stream and format metadata.
//
// Returns an error if:
//   - sourcePath is empty (models.ErrInvalidArgument)
//   - ffprobe cannot be started (models.ErrNotFound)
//   - ffprobe exits non-zero or prints invalid JSON
//
// Example:
//
//	result, err := ffprobe.NewProber("ffprobe").Probe(ctx, "/path/to/video.mp4")
//	if err != nil {
//	    return err
//	}
//	rate, _ := result.AudioSampleRate()
func (p *Prober) Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return nil, models.NewError(models.ErrInvalidArgument, "probe", fmt.Errorf("source path cannot be empty"))
	}

	// -v quiet: suppress verbose output
	// -print_format json: output in JSON format
	// -show_streams, -show_format: stream and container information
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		sourcePath,
	}

	output, err := procexec.Output(ctx, procexec.Command{Path: p.executable, Args: args})
	if err != nil {
		return nil, err
	}
	return ParseOutput(output)
}

// SampleRate probes sourcePath and returns its audio sample rate.
func (p *Prober) SampleRate(ctx context.Context, sourcePath string) (int, error) {
	result, err := p.Probe(ctx, sourcePath)
	if err != nil {
		return 0, err
	}
	return result.AudioSampleRate()
}

// Duration probes sourcePath and returns its duration in seconds.
func (p *Prober) Duration(ctx context.Context, sourcePath string) (float64, error) {
	result, err := p.Probe(ctx, sourcePath)
	if err != nil {
		return 0, err
	}
	return result.GetDuration()
}
