package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"Warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"bogus", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:   InfoLevel,
		Format:  JSONFormat,
		Output:  &buf,
		Service: "test-service",
		Version: "0.1.0",
	})

	log.WithField("rows", 42).Info("dataset loaded")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("level = %q, want INFO", entry.Level)
	}
	if entry.Message != "dataset loaded" {
		t.Errorf("message = %q", entry.Message)
	}
	if entry.Service != "test-service" {
		t.Errorf("service = %q", entry.Service)
	}
	if entry.Fields["rows"] != float64(42) {
		t.Errorf("rows field = %v", entry.Fields["rows"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:  WarnLevel,
		Format: TextFormat,
		Output: &buf,
	})

	log.Debug("should not appear")
	log.Info("should not appear either")
	log.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("filtered levels leaked into output: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing from output: %q", out)
	}
}

func TestWithContextRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:  InfoLevel,
		Format: JSONFormat,
		Output: &buf,
	})

	ctx := context.WithValue(context.Background(), "request_id", "req-123")
	log.WithContext(ctx).Info("handling request")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.RequestID != "req-123" {
		t.Errorf("request_id = %q, want req-123", entry.RequestID)
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: &buf})
	_ = parent.WithField("child", true)

	parent.Info("parent message")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := entry.Fields["child"]; ok {
		t.Error("child field leaked into parent logger")
	}
}
