package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONSourceOnlyOnWarn(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Format: "json", Writer: &buf})
	l.Info("hello", "k", "v")
	l.Warn("careful")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	var info, warn map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &info); err != nil {
		t.Fatalf("info line: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &warn); err != nil {
		t.Fatalf("warn line: %v", err)
	}
	if _, ok := info[slog.SourceKey]; ok {
		t.Error("info record should not carry source")
	}
	if _, ok := warn[slog.SourceKey]; !ok {
		t.Error("warn record should carry source")
	}
	if info["k"] != "v" {
		t.Errorf("info k = %v, want v", info["k"])
	}
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Writer: &buf})
	l.Info("dropped")
	l.Error("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("error should be logged at warn level")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(Options{Format: "json", Writer: &buf}), "auth")
	l.Info("x")
	if !strings.Contains(buf.String(), `"component":"auth"`) {
		t.Errorf("missing component attr: %s", buf.String())
	}
}
