package memory

import (
	"runtime/debug"
	"testing"
)

func TestConfigureFromEnvNoLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")

	result := ConfigureFromEnv()
	if result.Configured {
		t.Errorf("Configured = true with no limits set")
	}
	if result.Source != "none" {
		t.Errorf("Source = %q, want \"none\"", result.Source)
	}
}

func TestConfigureFromEnvMemoryLimit(t *testing.T) {
	orig := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(orig)

	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1073741824") // 1 GiB
	t.Setenv("MEMORY_RATIO", "")

	result := ConfigureFromEnv()
	if !result.Configured {
		t.Fatalf("Configured = false, want true")
	}
	if result.Source != "MEMORY_LIMIT" {
		t.Errorf("Source = %q, want \"MEMORY_LIMIT\"", result.Source)
	}
	limit := int64(1073741824)
	expected := int64(float64(limit) * DefaultRatio)
	if result.GoMemLimit != expected {
		t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, expected)
	}
}

func TestConfigureFromEnvCustomRatio(t *testing.T) {
	orig := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(orig)

	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1000000")
	t.Setenv("MEMORY_RATIO", "0.5")

	result := ConfigureFromEnv()
	if result.GoMemLimit != 500000 {
		t.Errorf("GoMemLimit = %d, want 500000", result.GoMemLimit)
	}
	if result.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", result.Ratio)
	}
}

func TestConfigureFromEnvInvalidValues(t *testing.T) {
	orig := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(orig)

	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "garbage")

	result := ConfigureFromEnv()
	if result.Configured {
		t.Errorf("Configured = true with unparseable MEMORY_LIMIT")
	}

	// Out-of-range ratio falls back to the default
	t.Setenv("MEMORY_LIMIT", "1000000")
	t.Setenv("MEMORY_RATIO", "7.5")

	result = ConfigureFromEnv()
	if result.Ratio != DefaultRatio {
		t.Errorf("Ratio = %v, want default %v", result.Ratio, DefaultRatio)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in       int64
		expected string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1073741824, "1.0 GiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.expected {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
