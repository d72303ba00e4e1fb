package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(INFO, FormatConsole)
	l.SetOutput(&buf)

	l.Debug("hidden")
	l.Error("Unknown command: foo")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug entry written at INFO level: %q", got)
	}
	if got != "[error] Unknown command: foo\n" {
		t.Errorf("unexpected console output: %q", got)
	}
}

func TestJSONFormatMergesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(DEBUG, FormatJSON)
	l.SetOutput(&buf)

	l.WithField("command", "build").Warn("slow", map[string]interface{}{"seconds": 3})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry.Level != "WARN" || entry.Message != "slow" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["command"] != "build" {
		t.Errorf("logger field missing: %+v", entry.Fields)
	}
	if entry.Fields["seconds"] != float64(3) {
		t.Errorf("call field missing: %+v", entry.Fields)
	}
}

func TestDerivedLoggerSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(ERROR, FormatText)
	l.SetOutput(&buf)
	child := l.WithField("k", "v")

	l.SetLevel(DEBUG)
	child.Debug("visible")

	if !strings.Contains(buf.String(), "DEBUG: visible") {
		t.Errorf("derived logger ignored level change: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"WARNING", WARN},
		{"error", ERROR},
		{"", INFO},
		{"verbose", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("expected json format")
	}
	if ParseFormat("text") != FormatText {
		t.Error("expected text format")
	}
	if ParseFormat("whatever") != FormatConsole {
		t.Error("expected console fallback")
	}
}
