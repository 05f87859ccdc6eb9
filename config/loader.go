package config

import (
	"fmt"
	"os"
	"strings"
)

// LoadConfig loads configuration with priority:
// CLI flags > environment (.env) > config file > defaults
func LoadConfig(args []string) (*Config, error) {
	// 1. Start with defaults
	cfg := DefaultConfig()

	// 2. -config and -env-file must be known before flags are merged
	configPath := flagValue(args, "config")
	envPath := flagValue(args, "env-file")

	if err := LoadDotEnv(envPath, envPath != ""); err != nil {
		return nil, err
	}

	if configPath == "" {
		configPath = os.Getenv(EnvPrefix + "CONFIG")
	}
	if configPath == "" {
		configPath = FindConfigFile()
	}

	if configPath != "" {
		fileCfg, err := LoadConfigFile(expandHome(configPath))
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg = fileCfg
	}

	// 3. Environment
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	// 4. CLI flags (highest priority, overwrites everything)
	if err := cfg.MergeFromFlags(args); err != nil {
		return nil, err
	}

	cfg.ExpandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// flagValue finds "-name value", "--name value" or "-name=value" in args.
func flagValue(args []string, name string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		trimmed := strings.TrimLeft(arg, "-")
		if trimmed == arg {
			continue
		}
		if trimmed == name && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(trimmed, name+"="); ok {
			return v
		}
	}
	return ""
}
