package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type closeRecorder struct {
	bytes.Buffer
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestZerologJSONRecord(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLogger(buf, FormatJSON, "info").With("schedule", "home")
	l.Warning("render %s failed", "Clock")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["level"] != "warn" {
		t.Errorf("level = %v, want warn", rec["level"])
	}
	if rec["message"] != "render Clock failed" {
		t.Errorf("message = %v", rec["message"])
	}
	if rec["schedule"] != "home" {
		t.Errorf("schedule field = %v", rec["schedule"])
	}
	if _, ok := rec["time"]; !ok {
		t.Error("expected a timestamp")
	}
}

func TestZerologLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLogger(buf, FormatJSON, "error")
	l.Info("hidden")
	l.Warning("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info and warning to be filtered, got %q", buf.String())
	}
	l.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected error record, got %q", buf.String())
	}
}

func TestZerologUnknownLevelDefaultsToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLogger(buf, FormatJSON, "loud")
	l.Debug("hidden")
	l.Info("visible")
	if !strings.Contains(buf.String(), "visible") || strings.Contains(buf.String(), "hidden") {
		t.Errorf("expected only the info record, got %q", buf.String())
	}
}

func TestZerologDebugLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	NewZerologLogger(buf, FormatJSON, "debug").Debug("state %s", "compiling")
	if !strings.Contains(buf.String(), `"level":"debug"`) || !strings.Contains(buf.String(), "state compiling") {
		t.Errorf("debug record = %q", buf.String())
	}
}

func TestZerologConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLogger(buf, FormatConsole, "")
	l.Info("hello")
	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("console output should not be JSON: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("missing message: %q", out)
	}
}

func TestZerologCloseOwnsWriter(t *testing.T) {
	w := &closeRecorder{}
	l := NewZerologLogger(w, FormatJSON, "info")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if w.closed != 1 {
		t.Errorf("closed %d times, want 1", w.closed)
	}
}
