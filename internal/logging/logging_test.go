package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarn},
		{" Error ", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf})

	l.Info("hidden")
	l.Warn("shown %d", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 1") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestLogger_FieldsSortedAndShared(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: LevelDebug, Output: &buf, Prefix: "test"})
	child := root.WithFields(map[string]any{"zeta": 2, "alpha": 1}).WithComponent("tmpl")

	root.SetLevel(LevelError)
	child.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("derived logger should share level, got %q", buf.String())
	}

	child.Error("kept")
	out := buf.String()
	if !strings.Contains(out, "test: kept {alpha=1, component=tmpl, zeta=2}") {
		t.Errorf("unexpected line: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	l := OrDiscard(nil)
	if l.Enabled(LevelError) {
		t.Error("discard logger should not be enabled")
	}
	l.Error("nothing")
}
