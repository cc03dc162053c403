package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORAGE_DIR", "CACHE_DIR", "STATIC_DIR", "PORT", "METRICS_PORT",
		"METRICS_ENABLED", "DEBOUNCE_WINDOW", "MAX_EDGE", "JPEG_QUALITY",
		"MAX_UPLOAD_BYTES", "LOG_STATIC_FILES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	tmp := t.TempDir()
	t.Setenv("STORAGE_DIR", filepath.Join(tmp, "storage"))
	t.Setenv("CACHE_DIR", filepath.Join(tmp, "cache"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MaxEdge != DefaultMaxEdge {
		t.Errorf("MaxEdge = %d, want %d", cfg.MaxEdge, DefaultMaxEdge)
	}
	if cfg.JPEGQuality != DefaultJPEGQuality {
		t.Errorf("JPEGQuality = %d, want %d", cfg.JPEGQuality, DefaultJPEGQuality)
	}
	if cfg.DebounceWindow != DefaultDebounceWindow {
		t.Errorf("DebounceWindow = %s, want %s", cfg.DebounceWindow, DefaultDebounceWindow)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want \"8080\"", cfg.Port)
	}

	// Directories must have been created
	for _, dir := range []string{cfg.StorageDir, cfg.CacheDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
}

func TestLoadTOMLFile(t *testing.T) {
	clearEnv(t)
	tmp := t.TempDir()

	file := filepath.Join(tmp, "photowall.toml")
	content := `
storage_dir = "` + filepath.Join(tmp, "pics") + `"
cache_dir = "` + filepath.Join(tmp, "thumbs") + `"
max_edge = 640
jpeg_quality = 75
debounce_window = "250ms"
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MaxEdge != 640 {
		t.Errorf("MaxEdge = %d, want 640", cfg.MaxEdge)
	}
	if cfg.JPEGQuality != 75 {
		t.Errorf("JPEGQuality = %d, want 75", cfg.JPEGQuality)
	}
	if cfg.DebounceWindow != 250*time.Millisecond {
		t.Errorf("DebounceWindow = %s, want 250ms", cfg.DebounceWindow)
	}
	if filepath.Base(cfg.StorageDir) != "pics" {
		t.Errorf("StorageDir = %q, want .../pics", cfg.StorageDir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	tmp := t.TempDir()

	file := filepath.Join(tmp, "photowall.toml")
	content := `
storage_dir = "` + filepath.Join(tmp, "from-file") + `"
cache_dir = "` + filepath.Join(tmp, "cache") + `"
max_edge = 640
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("MAX_EDGE", "320")
	t.Setenv("STORAGE_DIR", filepath.Join(tmp, "from-env"))

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MaxEdge != 320 {
		t.Errorf("MaxEdge = %d, want env override 320", cfg.MaxEdge)
	}
	if filepath.Base(cfg.StorageDir) != "from-env" {
		t.Errorf("StorageDir = %q, want env override", cfg.StorageDir)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero max edge", "MAX_EDGE", "0"},
		{"quality too high", "JPEG_QUALITY", "150"},
		{"quality zero", "JPEG_QUALITY", "0"},
		{"negative upload cap", "MAX_UPLOAD_BYTES", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			tmp := t.TempDir()
			t.Setenv("STORAGE_DIR", filepath.Join(tmp, "storage"))
			t.Setenv("CACHE_DIR", filepath.Join(tmp, "cache"))
			t.Setenv(tt.key, tt.value)

			if _, err := Load(""); err == nil {
				t.Errorf("Load() succeeded with %s=%s, want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load("/nonexistent/photowall.toml"); err == nil {
		t.Errorf("Load() succeeded with missing config file, want error")
	}
}
