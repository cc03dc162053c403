package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"photowall/internal/logging"

	"github.com/BurntSushi/toml"
)

// Defaults for the tunable pipeline values.
const (
	DefaultDebounceWindow = 1 * time.Second
	DefaultMaxEdge        = 1000
	DefaultJPEGQuality    = 80
	DefaultMaxUploadBytes = 50 << 20 // 50 MiB
)

// Config holds all runtime configuration for the service.
type Config struct {
	// StorageDir is the root directory holding original images.
	StorageDir string `toml:"storage_dir"`

	// CacheDir is the root directory holding built thumbnails. It
	// mirrors StorageDir's relative paths.
	CacheDir string `toml:"cache_dir"`

	// StaticDir holds the web frontend served at /.
	StaticDir string `toml:"static_dir"`

	Port           string `toml:"port"`
	MetricsPort    string `toml:"metrics_port"`
	MetricsEnabled bool   `toml:"metrics_enabled"`

	// DebounceWindow is the quiet period the watcher waits before
	// notifying the index actor of filesystem changes.
	DebounceWindow time.Duration `toml:"-"`

	// MaxEdge is the bound on a thumbnail's longer edge in pixels.
	MaxEdge int `toml:"max_edge"`

	// JPEGQuality is the thumbnail encode quality (1-100).
	JPEGQuality int `toml:"jpeg_quality"`

	// MaxUploadBytes caps the size of an accepted upload body.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`

	LogStaticFiles bool `toml:"log_static_files"`
}

// tomlDuration lets the TOML file express durations as strings ("500ms").
type tomlDuration struct {
	time.Duration
}

func (d *tomlDuration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// fileConfig mirrors Config for TOML decoding, with the duration field
// as a string.
type fileConfig struct {
	Config
	DebounceWindow tomlDuration `toml:"debounce_window"`
}

func defaults() *Config {
	return &Config{
		StorageDir:     "/storage",
		CacheDir:       "/cache",
		StaticDir:      "./static",
		Port:           "8080",
		MetricsPort:    "9090",
		MetricsEnabled: true,
		DebounceWindow: DefaultDebounceWindow,
		MaxEdge:        DefaultMaxEdge,
		JPEGQuality:    DefaultJPEGQuality,
		MaxUploadBytes: DefaultMaxUploadBytes,
		LogStaticFiles: false,
	}
}

// Load builds the configuration from defaults, the optional TOML file at
// path (ignored if path is empty), and environment variable overrides.
// It resolves the storage and cache roots to absolute paths and creates
// them if missing.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		fc := fileConfig{Config: *cfg, DebounceWindow: tomlDuration{cfg.DebounceWindow}}
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		*cfg = fc.Config
		cfg.DebounceWindow = fc.DebounceWindow.Duration
		logging.Info("Loaded configuration file: %s", path)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for _, dir := range []*string{&cfg.StorageDir, &cfg.CacheDir} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory %s: %w", *dir, err)
		}
		*dir = abs
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", abs, err)
		}
	}

	cfg.log()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.StorageDir = getEnv("STORAGE_DIR", cfg.StorageDir)
	cfg.CacheDir = getEnv("CACHE_DIR", cfg.CacheDir)
	cfg.StaticDir = getEnv("STATIC_DIR", cfg.StaticDir)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.MetricsPort = getEnv("METRICS_PORT", cfg.MetricsPort)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.LogStaticFiles = getEnvBool("LOG_STATIC_FILES", cfg.LogStaticFiles)

	if v := os.Getenv("DEBOUNCE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.DebounceWindow = d
		} else {
			logging.Warn("Invalid DEBOUNCE_WINDOW %q, keeping %s", v, cfg.DebounceWindow)
		}
	}
	if v := os.Getenv("MAX_EDGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxEdge = n
		} else {
			logging.Warn("Invalid MAX_EDGE %q, keeping %d", v, cfg.MaxEdge)
		}
	}
	if v := os.Getenv("JPEG_QUALITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.JPEGQuality = n
		} else {
			logging.Warn("Invalid JPEG_QUALITY %q, keeping %d", v, cfg.JPEGQuality)
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		} else {
			logging.Warn("Invalid MAX_UPLOAD_BYTES %q, keeping %d", v, cfg.MaxUploadBytes)
		}
	}
}

func (c *Config) validate() error {
	if c.MaxEdge <= 0 {
		return fmt.Errorf("max_edge must be positive, got %d", c.MaxEdge)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be in 1-100, got %d", c.JPEGQuality)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("debounce_window must be positive, got %s", c.DebounceWindow)
	}
	return nil
}

func (c *Config) log() {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  STORAGE_DIR:      %s", c.StorageDir)
	logging.Info("  CACHE_DIR:        %s", c.CacheDir)
	logging.Info("  STATIC_DIR:       %s", c.StaticDir)
	logging.Info("  PORT:             %s", c.Port)
	logging.Info("  METRICS_PORT:     %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:  %v", c.MetricsEnabled)
	logging.Info("  DEBOUNCE_WINDOW:  %s", c.DebounceWindow)
	logging.Info("  MAX_EDGE:         %d", c.MaxEdge)
	logging.Info("  JPEG_QUALITY:     %d", c.JPEGQuality)
	logging.Info("  MAX_UPLOAD_BYTES: %d", c.MaxUploadBytes)
	logging.Info("  LOG_LEVEL:        %s", logging.GetLevel())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		logging.Warn("Invalid boolean for %s: %q, keeping %v", key, v, fallback)
		return fallback
	}
	return parsed
}
