package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Swind/go-coroutine-registry/core"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf})

	l.Debug("coroutine started",
		core.F("label", "blink"),
		core.F("elapsed", 1500*time.Millisecond),
		core.F("error", errors.New("boom")),
		core.F("count", 3))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]
	if got["level"] != "debug" || got["message"] != "coroutine started" {
		t.Errorf("line = %v", got)
	}
	if got["label"] != "blink" || got["error"] != "boom" || got["count"] != float64(3) {
		t.Errorf("fields = %v", got)
	}
	if _, ok := got["elapsed"]; !ok {
		t.Error("duration field missing")
	}
}

func TestLogger_LevelFilteringAndReload(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json", Output: &buf})
	child := l.With(core.F("component", "registry"))

	child.Info("dropped")
	child.Warn("kept")
	l.SetLevel("debug")
	child.Debug("kept after reload")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %s", len(lines), buf.String())
	}
	if lines[0]["component"] != "registry" {
		t.Errorf("derived field missing: %v", lines[0])
	}
	if l.Level() != zerolog.DebugLevel {
		t.Errorf("level = %s, want debug", l.Level())
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	l.Info("hello", core.F("tag", "fx"))

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "tag=") {
		t.Fatalf("console output = %q", out)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("never written")
	if l.Level() != zerolog.Disabled {
		t.Fatalf("level = %s, want disabled", l.Level())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"Error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if ValidLevel("verbose") || !ValidLevel("trace") {
		t.Error("ValidLevel mismatch")
	}
}
