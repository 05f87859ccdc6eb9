package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		"TUBEFORGE_WORK_DIR":     "/env/work",
		"TUBEFORGE_FFMPEG":       "/env/ffmpeg",
		"TUBEFORGE_UPLOAD":       "false",
		"TUBEFORGE_PRIVACY":      "unlisted",
		"TUBEFORGE_PACING_DELAY": "1m30s",
		"TUBEFORGE_PRESET":       " ",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.WorkDir != "/env/work" || cfg.Tools.FFmpeg != "/env/ffmpeg" {
		t.Errorf("Unexpected paths: %s %s", cfg.WorkDir, cfg.Tools.FFmpeg)
	}
	if cfg.Upload.Enabled {
		t.Error("Expected upload disabled")
	}
	if cfg.Upload.Metadata.Privacy != "unlisted" {
		t.Errorf("Expected privacy 'unlisted', got %s", cfg.Upload.Metadata.Privacy)
	}
	if cfg.Upload.PacingDelay != 90*time.Second {
		t.Errorf("Expected pacing 90s, got %s", cfg.Upload.PacingDelay)
	}
	if cfg.Encode.Preset != "subtle" {
		t.Errorf("Expected blank variable to be ignored, got %q", cfg.Encode.Preset)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		"TUBEFORGE_ENCODE":       "maybe",
		"TUBEFORGE_PACING_DELAY": "soon",
	}))
	if err == nil {
		t.Fatal("Expected error for invalid values")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("TUBEFORGE_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TUBEFORGE_TEST_DOTENV") })

	if err := LoadDotEnv(path, true); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("TUBEFORGE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("Expected variable from file, got %q", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.env")
	if err := LoadDotEnv(missing, false); err != nil {
		t.Errorf("Expected missing implicit file to be ignored, got: %v", err)
	}
	if err := LoadDotEnv(missing, true); err == nil {
		t.Error("Expected error for missing explicit file")
	}
}
