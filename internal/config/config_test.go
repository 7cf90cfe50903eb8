package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Generation.MaxRetries != 3 {
		t.Fatalf("expected default max retries 3, got %d", cfg.Generation.MaxRetries)
	}
	if cfg.Generation.DownloadTimeout != 60 {
		t.Fatalf("expected default download timeout 60, got %d", cfg.Generation.DownloadTimeout)
	}
}

func TestLoadParsesAndExpands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`output_dir = "` + filepath.Join(dir, "out") + `"`,
		"[generation]",
		"max_retries = 5",
		"retry_delay = 2",
		"[narration]",
		`voice = "en-GB-SoniaNeural"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Generation.MaxRetries != 5 {
		t.Fatalf("expected max retries 5, got %d", cfg.Generation.MaxRetries)
	}
	if cfg.Narration.Voice != "en-GB-SoniaNeural" {
		t.Fatalf("unexpected voice %q", cfg.Narration.Voice)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero images", func(c *config.Config) { c.Generation.ImagesPerScene = 0 }, "images_per_scene"},
		{"zero timeout", func(c *config.Config) { c.Generation.DownloadTimeout = 0 }, "download_timeout"},
		{"bad privacy", func(c *config.Config) { c.Upload.Privacy = "secret" }, "privacy"},
		{"bad hour", func(c *config.Config) { c.Upload.PublishHourUTC = 24 }, "publish_hour_utc"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"no driver", func(c *config.Config) { c.Generation.DriverCommand = "" }, "driver_command"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}
