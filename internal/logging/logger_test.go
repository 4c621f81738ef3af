package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("import completed", "created", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug must be filtered): %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "import completed" {
		t.Errorf("msg = %v, want %q", entry["msg"], "import completed")
	}
	if entry["created"] != float64(3) {
		t.Errorf("created = %v, want 3", entry["created"])
	}
}

func TestFromContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "text"))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "file", "alumnes.csv").Info("import started")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-42") {
		t.Errorf("log line missing request_id: %q", out)
	}
	if !strings.Contains(out, "file=alumnes.csv") {
		t.Errorf("log line missing file field: %q", out)
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := map[int]slog.Level{
		200: slog.LevelInfo,
		302: slog.LevelInfo,
		400: slog.LevelWarn,
		413: slog.LevelWarn,
		500: slog.LevelError,
		503: slog.LevelError,
	}
	for status, want := range tests {
		if got := LevelForStatus(status); got != want {
			t.Errorf("LevelForStatus(%d) = %v, want %v", status, got, want)
		}
	}
}
