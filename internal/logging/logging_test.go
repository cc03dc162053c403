package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestSetLevelFiltering(t *testing.T) {
	defer SetLevel(GetLevel())

	orig := log.Writer()
	defer log.SetOutput(orig)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	SetLevel(LevelWarn)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Errorf("debug message logged at warn level")
	}
	if strings.Contains(out, "info message") {
		t.Errorf("info message logged at warn level")
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("warn message missing at warn level")
	}
	if !strings.Contains(out, "error message") {
		t.Errorf("error message missing at warn level")
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestIsDebugEnabled(t *testing.T) {
	defer SetLevel(GetLevel())

	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Errorf("IsDebugEnabled() = false at debug level")
	}

	SetLevel(LevelInfo)
	if IsDebugEnabled() {
		t.Errorf("IsDebugEnabled() = true at info level")
	}
}
