package transform

import (
	"errors"
	"strings"
	"testing"

	"tubeforge/command"
	"tubeforge/models"
)

func TestNewBuilder(t *testing.T) {
	job := &models.EncodeJob{InputPath: "/in/a.mp4", OutputPath: "/out/a.mp4"}

	builder := NewBuilder(job, DefaultSettings())

	if builder.job != job {
		t.Error("Expected job to be set")
	}
	if builder.executable != "ffmpeg" {
		t.Errorf("Expected default executable 'ffmpeg', got '%s'", builder.executable)
	}
	if builder.GetTaskType() != command.TaskTypeTransform {
		t.Errorf("Expected task type transform, got %s", builder.GetTaskType())
	}
	if builder.GetInputPath() != "/in/a.mp4" || builder.GetOutputPath() != "/out/a.mp4" {
		t.Error("Expected paths to be passed through")
	}
}

func TestBuilder_BuildArgs_NoFilters(t *testing.T) {
	job := &models.EncodeJob{InputPath: "in.mp4", OutputPath: "out.mp4"}

	args := NewBuilder(job, DefaultSettings()).BuildArgs()
	expected := []string{
		"-i", "in.mp4",
		"-c:v", "libx264", "-preset", "medium", "-crf", "23",
		"-c:a", "aac", "-b:a", "192k",
		"-y", "out.mp4",
	}

	if strings.Join(args, " ") != strings.Join(expected, " ") {
		t.Errorf("BuildArgs() = %v; want %v", args, expected)
	}
}

func TestBuilder_BuildArgs_WithFilters(t *testing.T) {
	job := &models.EncodeJob{
		InputPath:  "in.mp4",
		OutputPath: "out.mp4",
		Transform:  models.TransformationSpec{Scale: models.Float(0.96), Pitch: models.Float(1.04)},
	}

	settings := DefaultSettings()
	settings.CRF = 20
	settings.Preset = "fast"
	args := NewBuilder(job, settings).BuildArgs()
	argsStr := strings.Join(args, " ")

	if !strings.HasPrefix(argsStr, "-i in.mp4 -vf scale=") {
		t.Errorf("Expected -vf right after the input, got %s", argsStr)
	}
	if !strings.Contains(argsStr, "-af asetrate=44100*1.04,aresample=44100") {
		t.Errorf("Expected pitch filter, got %s", argsStr)
	}
	if !strings.Contains(argsStr, "-preset fast -crf 20") {
		t.Errorf("Expected configured preset and crf, got %s", argsStr)
	}
	if args[len(args)-2] != "-y" || args[len(args)-1] != "out.mp4" {
		t.Errorf("Expected forced overwrite of output last, got %v", args[len(args)-2:])
	}
}

func TestBuilder_BuildArgs_VideoOnly(t *testing.T) {
	job := &models.EncodeJob{
		InputPath:  "in.mp4",
		OutputPath: "out.mp4",
		Transform:  models.TransformationSpec{FlipHorizontal: true},
	}

	argsStr := strings.Join(NewBuilder(job, DefaultSettings()).BuildArgs(), " ")

	if !strings.Contains(argsStr, "-vf hflip") {
		t.Errorf("Expected hflip, got %s", argsStr)
	}
	if strings.Contains(argsStr, "-af") {
		t.Error("Expected no audio filter argument for an empty audio chain")
	}
}

func TestBuilder_DryRun(t *testing.T) {
	job := &models.EncodeJob{
		InputPath:  "my video.mp4",
		OutputPath: "out.mp4",
		Transform:  models.TransformationSpec{FlipVertical: true},
	}

	line, err := NewBuilder(job, DefaultSettings()).SetExecutable("/opt/ffmpeg").DryRun()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(line, "/opt/ffmpeg -i 'my video.mp4' -vf vflip") {
		t.Errorf("Unexpected dry run: %s", line)
	}
}

func TestBuilder_DryRun_InvalidJob(t *testing.T) {
	job := &models.EncodeJob{
		InputPath:  "in.mp4",
		OutputPath: "out.mp4",
		Transform:  models.TransformationSpec{Scale: models.Float(-1)},
	}

	_, err := NewBuilder(job, DefaultSettings()).DryRun()
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(*Settings)
		ErrorContains string
	}{
		{"Defaults", func(s *Settings) {}, ""},
		{"Empty codec", func(s *Settings) { s.VideoCodec = "" }, "video_codec"},
		{"Empty preset", func(s *Settings) { s.Preset = "" }, "preset"},
		{"CRF too high", func(s *Settings) { s.CRF = 52 }, "crf must be between"},
		{"Empty audio codec", func(s *Settings) { s.AudioCodec = "" }, "audio_codec"},
		{"Empty bitrate", func(s *Settings) { s.AudioBitrate = "" }, "audio_bitrate"},
		{"Negative rate", func(s *Settings) { s.SampleRate = -1 }, "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			err := s.Validate()
			if tt.ErrorContains == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.ErrorContains) {
				t.Errorf("Expected error containing '%s', got %v", tt.ErrorContains, err)
			}
		})
	}
}
