package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestColorHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefaultLogger(&buf, slog.LevelInfo)

	log.Debug("hidden")
	log.Info("visible info")
	log.Warn("visible warn")
	log.Error("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	for _, want := range []string{"visible info", "visible warn", "visible error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if !strings.Contains(out, colorYellow) || !strings.Contains(out, colorRed) {
		t.Error("warn and error records should carry color codes")
	}
}

func TestColorHandlerAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefaultLogger(&buf, slog.LevelDebug).With("component", "ingest")

	log.Info("processing", "count", 42)

	out := buf.String()
	if !strings.Contains(out, "component=ingest") || !strings.Contains(out, "count=42") {
		t.Errorf("attrs missing from output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
