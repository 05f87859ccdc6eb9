package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TUBEFORGE_"

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set win. A missing file is not an error unless
// it was asked for explicitly.
func LoadDotEnv(path string, explicit bool) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values with TUBEFORGE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var problems []string
	boolean := func(name string, dst *bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s%s: %v", EnvPrefix, name, err))
			return
		}
		*dst = b
	}

	str("SOURCES", &c.Sources)
	str("WORK_DIR", &c.WorkDir)
	boolean("CLEANUP", &c.Cleanup)
	str("FFMPEG", &c.Tools.FFmpeg)
	str("FFPROBE", &c.Tools.FFprobe)
	str("YTDLP", &c.Tools.YTDLP)
	str("QUALITY", &c.Download.Quality)
	boolean("ENCODE", &c.Encode.Enabled)
	str("PRESET", &c.Encode.Preset)
	boolean("UPLOAD", &c.Upload.Enabled)
	str("CLIENT_SECRETS", &c.Upload.ClientSecrets)
	str("TOKEN", &c.Upload.TokenPath)
	str("PRIVACY", &c.Upload.Metadata.Privacy)
	str("PLAYLIST", &c.Upload.Metadata.PlaylistID)
	str("HISTORY_DB", &c.History.Path)

	if v, ok := lookup(EnvPrefix + "PACING_DELAY"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%sPACING_DELAY: %v", EnvPrefix, err))
		} else {
			c.Upload.PacingDelay = d
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(problems, "; "))
	}
	return nil
}
