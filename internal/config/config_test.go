package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Raster.Width != 256 || cfg.Raster.Height != 256 {
		t.Errorf("default resolution = %dx%d, want 256x256", cfg.Raster.Width, cfg.Raster.Height)
	}
	if cfg.Debug.SaveImages {
		t.Error("debug images enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sktransfer.yaml")
	data := []byte("raster:\n  width: 64\n  height: 32\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Raster.Width != 64 || cfg.Raster.Height != 32 {
		t.Errorf("resolution = %dx%d, want 64x32", cfg.Raster.Width, cfg.Raster.Height)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Debug.OutputDir != "." {
		t.Errorf("debug output dir = %q, want .", cfg.Debug.OutputDir)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load with missing explicit path should fail")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Raster.Width = 128
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if back.Raster.Width != 128 {
		t.Errorf("round-tripped width = %d, want 128", back.Raster.Width)
	}
}
