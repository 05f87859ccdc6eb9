package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"tubeforge/command/transform"
	"tubeforge/models"
	"tubeforge/upload"
)

// Config holds all tubeforge configuration options
type Config struct {
	// Batch input and scratch space
	Sources string `yaml:"sources"`  // file with one "id[,title]" per line
	WorkDir string `yaml:"work_dir"` // downloads and encodes are written here
	Cleanup bool   `yaml:"cleanup"`  // remove intermediate files of finished items

	Tools    ToolsConfig    `yaml:"tools"`
	Download DownloadConfig `yaml:"download"`
	Encode   EncodeConfig   `yaml:"encode"`
	Upload   UploadConfig   `yaml:"upload"`
	History  HistoryConfig  `yaml:"history"`

	// Behavioral flags
	Verbose bool `yaml:"verbose"` // debug logging
	DryRun  bool `yaml:"dry_run"` // print config and commands, run nothing

	// Command line only
	Actions Actions  `yaml:"-"`
	Args    []string `yaml:"-"` // positional sources
}

// ToolsConfig holds explicit executable paths. Empty means search.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
	YTDLP   string `yaml:"yt_dlp"`
}

// DownloadConfig holds source download settings
type DownloadConfig struct {
	Quality   string `yaml:"quality"`    // e.g. "720p", "1080", "best"
	URLFormat string `yaml:"url_format"` // source id -> URL, empty = YouTube watch URL
}

// EncodeConfig holds transformation settings
type EncodeConfig struct {
	Enabled   bool                      `yaml:"enabled"`
	Preset    string                    `yaml:"preset"`    // named transformation, see models.PresetNames
	Transform models.TransformationSpec `yaml:"transform"` // applied on top of the preset
	Codec     transform.Settings        `yaml:"codec"`
}

// UploadConfig holds upload settings
type UploadConfig struct {
	Enabled       bool                    `yaml:"enabled"`
	ClientSecrets string                  `yaml:"client_secrets"` // OAuth2 client_secret.json
	TokenPath     string                  `yaml:"token"`          // cached user token
	PacingDelay   time.Duration           `yaml:"pacing_delay"`   // wait between uploads
	ChunkSizeMB   int                     `yaml:"chunk_size_mb"`  // resumable upload chunk size
	Metadata      upload.MetadataTemplate `yaml:"metadata"`
}

// HistoryConfig holds run ledger settings
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Actions are one-shot commands selected on the command line instead of a batch run.
type Actions struct {
	Verify        bool   // check tools and the upload session
	ListPlaylists bool   // print the channel's playlists
	History       int    // print the last N runs
	AuthURL       bool   // print the OAuth consent URL
	AuthCode      string // exchange a consent code for a token
	SaveConfig    string // write the effective configuration to this path
}

// Any reports whether an action replaces the batch run.
func (a Actions) Any() bool {
	return a.Verify || a.ListPlaylists || a.History > 0 || a.AuthURL || a.AuthCode != "" || a.SaveConfig != ""
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		WorkDir: "./tubeforge-work",
		Cleanup: true,

		Download: DownloadConfig{
			Quality: "1080p",
		},

		// the "subtle" preset is barely visible but changes every frame and sample
		Encode: EncodeConfig{
			Enabled: true,
			Preset:  "subtle",
			Codec:   transform.DefaultSettings(),
		},

		Upload: UploadConfig{
			Enabled:       true,
			ClientSecrets: "~/.tubeforge/client_secret.json",
			TokenPath:     "~/.tubeforge/token.json",
			PacingDelay:   30 * time.Second,
			ChunkSizeMB:   8,
			Metadata: upload.MetadataTemplate{
				Title:   "{title}",
				Privacy: string(models.PrivacyPrivate),
			},
		},

		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.tubeforge/history.db",
		},
	}
}

// Copy creates a deep copy of the config
func (c *Config) Copy() *Config {
	copy := *c
	copy.Encode.Transform = models.TransformationSpec{}.Merge(c.Encode.Transform)
	copy.Upload.Metadata.Tags = append([]string(nil), c.Upload.Metadata.Tags...)
	copy.Args = append([]string(nil), c.Args...)
	return &copy
}

// Transform returns the effective transformation: the preset with the
// configured overrides applied.
func (c *Config) Transform() (models.TransformationSpec, error) {
	base, err := models.Preset(c.Encode.Preset)
	if err != nil {
		return models.TransformationSpec{}, err
	}
	return base.Merge(c.Encode.Transform), nil
}

// Credentials returns the upload credentials.
func (c *Config) Credentials() upload.Credentials {
	return upload.Credentials{
		ClientSecretsPath: c.Upload.ClientSecrets,
		TokenPath:         c.Upload.TokenPath,
	}
}

// ExpandPaths replaces a leading "~" in every path setting with the home
// directory.
func (c *Config) ExpandPaths() {
	for _, p := range []*string{
		&c.Sources,
		&c.WorkDir,
		&c.Tools.FFmpeg,
		&c.Tools.FFprobe,
		&c.Tools.YTDLP,
		&c.Upload.ClientSecrets,
		&c.Upload.TokenPath,
		&c.Upload.Metadata.ThumbnailPath,
		&c.History.Path,
	} {
		*p = expandHome(*p)
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
