package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tubeforge/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Encode.Enabled || !cfg.Upload.Enabled || !cfg.History.Enabled {
		t.Error("Expected all stages and history enabled by default")
	}
	if cfg.Encode.Preset != "subtle" {
		t.Errorf("Expected preset 'subtle', got %s", cfg.Encode.Preset)
	}
	if cfg.Encode.Codec.VideoCodec != "libx264" {
		t.Errorf("Expected video codec 'libx264', got %s", cfg.Encode.Codec.VideoCodec)
	}
	if cfg.Upload.PacingDelay != 30*time.Second {
		t.Errorf("Expected pacing 30s, got %s", cfg.Upload.PacingDelay)
	}
	if cfg.Upload.Metadata.Privacy != "private" {
		t.Errorf("Expected privacy 'private', got %s", cfg.Upload.Metadata.Privacy)
	}
	if !cfg.Cleanup {
		t.Error("Expected cleanup to be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      func() *Config
		expectError bool
		errorText   string
	}{
		{
			name:   "defaults",
			config: DefaultConfig,
		},
		{
			name: "empty work dir",
			config: func() *Config {
				c := DefaultConfig()
				c.WorkDir = " "
				return c
			},
			expectError: true,
			errorText:   "work dir is required",
		},
		{
			name: "bad quality",
			config: func() *Config {
				c := DefaultConfig()
				c.Download.Quality = "huge"
				return c
			},
			expectError: true,
			errorText:   "invalid quality",
		},
		{
			name: "unknown preset",
			config: func() *Config {
				c := DefaultConfig()
				c.Encode.Preset = "sepia"
				return c
			},
			expectError: true,
			errorText:   `unknown preset "sepia"`,
		},
		{
			name: "unknown preset ignored when encoding is off",
			config: func() *Config {
				c := DefaultConfig()
				c.Encode.Preset = "sepia"
				c.Encode.Enabled = false
				return c
			},
		},
		{
			name: "override breaks preset",
			config: func() *Config {
				c := DefaultConfig()
				c.Encode.Transform.Pitch = models.Float(3)
				return c
			},
			expectError: true,
			errorText:   "pitch must be between",
		},
		{
			name: "bad crf",
			config: func() *Config {
				c := DefaultConfig()
				c.Encode.Codec.CRF = 60
				return c
			},
			expectError: true,
			errorText:   "crf must be between 0 and 51",
		},
		{
			name: "missing credentials",
			config: func() *Config {
				c := DefaultConfig()
				c.Upload.ClientSecrets = ""
				c.Upload.TokenPath = ""
				return c
			},
			expectError: true,
			errorText:   "client secrets path is required",
		},
		{
			name: "missing credentials without upload",
			config: func() *Config {
				c := DefaultConfig()
				c.Upload.ClientSecrets = ""
				c.Upload.Enabled = false
				return c
			},
		},
		{
			name: "bad privacy",
			config: func() *Config {
				c := DefaultConfig()
				c.Upload.Metadata.Privacy = "friends"
				return c
			},
			expectError: true,
			errorText:   `invalid privacy "friends"`,
		},
		{
			name: "bad publish time",
			config: func() *Config {
				c := DefaultConfig()
				c.Upload.Metadata.PublishAt = "next friday"
				return c
			},
			expectError: true,
			errorText:   "publish_at must be RFC 3339",
		},
		{
			name: "negative pacing",
			config: func() *Config {
				c := DefaultConfig()
				c.Upload.PacingDelay = -time.Second
				return c
			},
			expectError: true,
			errorText:   "pacing delay cannot be negative",
		},
		{
			name: "history without path",
			config: func() *Config {
				c := DefaultConfig()
				c.History.Path = ""
				return c
			},
			expectError: true,
			errorText:   "history path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config().Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorText) {
					t.Errorf("Expected error containing %q, got: %v", tt.errorText, err)
				}
				if models.KindOf(err) != models.ErrInvalidArgument {
					t.Errorf("Expected invalid argument, got: %v", err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	c := DefaultConfig()
	c.WorkDir = ""
	c.Encode.Codec.CRF = -1
	c.Upload.TokenPath = ""

	err := c.Validate()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	for _, want := range []string{"work dir", "crf", "token path"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q in error, got: %v", want, err)
		}
	}
}

func TestTransform_PresetWithOverrides(t *testing.T) {
	c := DefaultConfig()
	c.Encode.Transform.Pitch = models.Float(1.02)
	c.Encode.Transform.FlipHorizontal = true

	spec, err := c.Transform()
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if spec.Scale == nil || *spec.Scale != 0.96 {
		t.Errorf("Expected preset scale 0.96, got %v", spec.Scale)
	}
	if spec.Pitch == nil || *spec.Pitch != 1.02 {
		t.Errorf("Expected overridden pitch 1.02, got %v", spec.Pitch)
	}
	if !spec.FlipHorizontal {
		t.Error("Expected flip from override")
	}
}

func TestTransform_NoPreset(t *testing.T) {
	c := DefaultConfig()
	c.Encode.Preset = ""

	spec, err := c.Transform()
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if !spec.IsIdentity() {
		t.Errorf("Expected identity transform, got %+v", spec)
	}
}

func TestCopy(t *testing.T) {
	original := DefaultConfig()
	original.Encode.Transform.Scale = models.Float(0.9)
	original.Upload.Metadata.Tags = []string{"a"}

	copied := original.Copy()
	*copied.Encode.Transform.Scale = 0.5
	copied.Upload.Metadata.Tags[0] = "b"
	copied.WorkDir = "elsewhere"

	if *original.Encode.Transform.Scale != 0.9 {
		t.Error("Copy shares the transform pointers")
	}
	if original.Upload.Metadata.Tags[0] != "a" {
		t.Error("Copy shares the tag slice")
	}
	if original.WorkDir == "elsewhere" {
		t.Error("Copy shares fields")
	}
}

func TestExpandPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	c := DefaultConfig()
	c.WorkDir = "/abs/work"
	c.ExpandPaths()

	if c.Upload.TokenPath != filepath.Join(home, ".tubeforge", "token.json") {
		t.Errorf("Expected token under home, got %s", c.Upload.TokenPath)
	}
	if c.WorkDir != "/abs/work" {
		t.Errorf("Expected absolute path unchanged, got %s", c.WorkDir)
	}
}

func TestActions_Any(t *testing.T) {
	if (Actions{}).Any() {
		t.Error("Expected no action")
	}
	if !(Actions{History: 3}).Any() {
		t.Error("Expected history to be an action")
	}
	if !(Actions{AuthCode: "x"}).Any() {
		t.Error("Expected auth code to be an action")
	}
}
