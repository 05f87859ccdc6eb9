package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"tubeforge/config"
)

func TestRunAction_SaveConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := cfg.MergeFromFlags([]string{"-crf", "20", "-privacy", "unlisted", "-save-config", filepath.Join(t.TempDir(), "conf", "tubeforge.yaml")}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := runAction(context.Background(), cfg, zerolog.Nop()); err != nil {
		t.Fatalf("runAction failed: %v", err)
	}

	saved, err := config.LoadConfigFile(cfg.Actions.SaveConfig)
	if err != nil {
		t.Fatalf("Saved file does not load: %v", err)
	}
	if saved.Encode.Codec.CRF != 20 {
		t.Errorf("Expected crf 20, got %d", saved.Encode.Codec.CRF)
	}
	if saved.Upload.Metadata.Privacy != "unlisted" {
		t.Errorf("Expected privacy unlisted, got %q", saved.Upload.Metadata.Privacy)
	}
	if saved.Actions.Any() {
		t.Errorf("Actions must not be persisted: %+v", saved.Actions)
	}
}
