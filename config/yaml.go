package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile loads configuration from a YAML file on top of the defaults.
// Unknown keys are rejected so a misspelled setting never silently falls
// back to its default.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// configLocations lists the searched config files, most specific first.
func configLocations() []string {
	locations := []string{"./tubeforge.yaml", "./tubeforge.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".tubeforge", "config.yaml"),
			filepath.Join(home, ".tubeforge", "config.yml"))
	}
	return append(locations, "/etc/tubeforge/config.yaml", "/etc/tubeforge/config.yml")
}

// FindConfigFile returns the first existing file of configLocations, or ""
// when there is none.
func FindConfigFile() string {
	for _, path := range configLocations() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// SaveConfigFile writes cfg as YAML, creating the parent directory. Command
// line actions and positional sources are not persisted.
func SaveConfigFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
