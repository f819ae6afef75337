package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/joshharrison/riskloom/internal/config"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.Logging{Level: "info", Format: "text"}, &buf)
	l.Debug("hidden")
	l.Info("scheduled", "tasks", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(out, "msg=scheduled") || !strings.Contains(out, "tasks=3") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.Logging{Level: "debug", Format: "JSON"}, &buf)
	l.Debug("solver", "nodes", 12)

	out := buf.String()
	if !strings.Contains(out, `"msg":"solver"`) || !strings.Contains(out, `"nodes":12`) {
		t.Errorf("unexpected json output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input).String()
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
