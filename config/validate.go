package config

import (
	"errors"
	"fmt"
	"strings"

	"tubeforge/download"
	"tubeforge/models"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.WorkDir) == "" {
		problems = append(problems, "work dir is required")
	}

	if _, err := download.ParseQuality(c.Download.Quality); err != nil {
		problems = append(problems, fmt.Sprintf("download: %v", err))
	}

	if c.Encode.Enabled {
		if err := c.Encode.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("encode config: %v", err))
		}
	}

	if c.Upload.Enabled {
		if err := c.Upload.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("upload config: %v", err))
		}
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		problems = append(problems, "history path is required when history is enabled")
	}
	if c.Actions.History < 0 {
		problems = append(problems, "history count cannot be negative")
	}

	if len(problems) > 0 {
		return models.NewError(models.ErrInvalidArgument, "config",
			fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - ")))
	}

	return nil
}

// Validate checks the preset, the overrides on top of it and the codec settings
func (ec *EncodeConfig) Validate() error {
	var problems []string

	base, err := models.Preset(ec.Preset)
	if err != nil {
		problems = append(problems, kindless(err))
	} else if err := base.Merge(ec.Transform).Validate(); err != nil {
		problems = append(problems, kindless(err))
	}

	if err := ec.Codec.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, ", "))
	}

	return nil
}

// Validate checks if upload configuration is valid
func (uc *UploadConfig) Validate() error {
	var problems []string

	if strings.TrimSpace(uc.ClientSecrets) == "" {
		problems = append(problems, "client secrets path is required")
	}
	if strings.TrimSpace(uc.TokenPath) == "" {
		problems = append(problems, "token path is required")
	}
	if uc.PacingDelay < 0 {
		problems = append(problems, "pacing delay cannot be negative")
	}
	if uc.ChunkSizeMB < 0 {
		problems = append(problems, "chunk size cannot be negative (use 0 for the default)")
	}
	if err := uc.Metadata.Validate(); err != nil {
		problems = append(problems, kindless(err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, ", "))
	}

	return nil
}

// kindless strips the "op: kind: " prefix of a models.Error for messages
// that are aggregated under their own heading.
func kindless(err error) string {
	var e *models.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
