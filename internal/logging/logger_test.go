package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "prod", "warn", "1.2.3", "weather-monitor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept", "location", "Delhi")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record above warn, got %d: %s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "kept" || rec["app"] != "weather-monitor" || rec["version"] != "1.2.3" || rec["location"] != "Delhi" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewWithWriterDev(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "dev", "debug", "dev", "weather-monitor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("polling", "location", "Delhi")

	if !strings.Contains(buf.String(), "polling") || !strings.Contains(buf.String(), "Delhi") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := NewWithWriter(&bytes.Buffer{}, "prod", "loud", "dev", "weather-monitor"); err == nil {
		t.Fatalf("expected error")
	}
}
