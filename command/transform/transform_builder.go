// Package transform builds the ffmpeg invocation that re-encodes a video
// through a filter graph.
package transform

import (
	"fmt"
	"strconv"

	"tubeforge/command"
	"tubeforge/command/filtergraph"
	"tubeforge/models"
)

// Settings holds the fixed codec and quality arguments of every encode.
type Settings struct {
	VideoCodec   string `yaml:"video_codec"`   // e.g. "libx264"
	Preset       string `yaml:"preset"`        // ultrafast ... veryslow
	CRF          int    `yaml:"crf"`           // 0-51, lower is better quality
	AudioCodec   string `yaml:"audio_codec"`   // e.g. "aac"
	AudioBitrate string `yaml:"audio_bitrate"` // e.g. "192k"
	SampleRate   int    `yaml:"sample_rate"`   // assumed input sample rate for pitch shifting
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		VideoCodec:   "libx264",
		Preset:       "medium",
		CRF:          23,
		AudioCodec:   "aac",
		AudioBitrate: "192k",
		SampleRate:   filtergraph.DefaultSampleRate,
	}
}

// Validate checks the settings.
//
// Returns an error if:
//   - VideoCodec, Preset, AudioCodec or AudioBitrate is empty
//   - CRF is outside 0-51
//   - SampleRate is negative
func (s Settings) Validate() error {
	switch {
	case s.VideoCodec == "":
		return fmt.Errorf("video_codec cannot be empty")
	case s.Preset == "":
		return fmt.Errorf("preset cannot be empty")
	case s.CRF < 0 || s.CRF > 51:
		return fmt.Errorf("crf must be between 0 and 51, got %d", s.CRF)
	case s.AudioCodec == "":
		return fmt.Errorf("audio_codec cannot be empty")
	case s.AudioBitrate == "":
		return fmt.Errorf("audio_bitrate cannot be empty")
	case s.SampleRate < 0:
		return fmt.Errorf("sample_rate cannot be negative, got %d", s.SampleRate)
	}
	return nil
}

// Builder assembles the argument list for one EncodeJob.
type Builder struct {
	job        *models.EncodeJob
	settings   Settings
	executable string
}

// NewBuilder creates a builder for job using settings.
func NewBuilder(job *models.EncodeJob, settings Settings) *Builder {
	return &Builder{
		job:        job,
		settings:   settings,
		executable: "ffmpeg",
	}
}

// SetExecutable sets the executable shown by DryRun.
func (b *Builder) SetExecutable(path string) *Builder {
	b.executable = path
	return b
}

// Graph returns the filter graph for the job's transformation.
func (b *Builder) Graph() filtergraph.Graph {
	return filtergraph.Build(b.job.Transform, filtergraph.Options{SampleRate: b.settings.SampleRate})
}

// BuildArgs constructs the ffmpeg arguments:
//
//	-i <input> [-vf <video chain>] [-af <audio chain>] -c:v <codec> -preset <preset>
//	-crf <n> -c:a <codec> -b:a <bitrate> -y <output>
func (b *Builder) BuildArgs() []string {
	g := b.Graph()

	args := []string{"-i", b.job.InputPath}
	if chain := g.VideoChain(); chain != "" {
		args = append(args, "-vf", chain)
	}
	if chain := g.AudioChain(); chain != "" {
		args = append(args, "-af", chain)
	}
	args = append(args,
		"-c:v", b.settings.VideoCodec,
		"-preset", b.settings.Preset,
		"-crf", strconv.Itoa(b.settings.CRF),
		"-c:a", b.settings.AudioCodec,
		"-b:a", b.settings.AudioBitrate,
		"-y", b.job.OutputPath,
	)
	return args
}

// DryRun returns the command that would be executed without running it.
func (b *Builder) DryRun() (string, error) {
	if err := b.job.Validate(); err != nil {
		return "", err
	}
	if err := b.settings.Validate(); err != nil {
		return "", models.NewError(models.ErrInvalidArgument, "encode", err)
	}
	return command.FormatCommandLine(b.executable, b.BuildArgs()), nil
}

// GetTaskType returns TaskTypeTransform.
func (b *Builder) GetTaskType() command.TaskType {
	return command.TaskTypeTransform
}

// GetInputPath returns the file being transformed.
func (b *Builder) GetInputPath() string {
	return b.job.InputPath
}

// GetOutputPath returns the file being written.
func (b *Builder) GetOutputPath() string {
	return b.job.OutputPath
}

var _ command.Command = (*Builder)(nil)
