package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerDefaultsToStderr(t *testing.T) {
	logger := NewLogger(nil)
	if logger == nil {
		t.Fatal("NewLogger(nil) returned nil")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	if buf.Len() != 0 {
		t.Errorf("expected no output below configured level, got: %s", buf.String())
	}

	logger.Warn("a warning")
	if !strings.Contains(buf.String(), "a warning") {
		t.Errorf("expected warning in output, got: %s", buf.String())
	}
}

func TestLoggerErrorf(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Errorf("task %d failed: %v", 3, "boom")
	out := buf.String()
	if !strings.Contains(out, "[ERROR]") || !strings.Contains(out, "task 3 failed: boom") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestDefaultAndSetDefault(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected global Info to reach the configured default logger, got: %s", buf.String())
	}
}
