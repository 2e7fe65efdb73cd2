package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		base    slog.Level
		verbose int
		want    slog.Level
	}{
		{base: slog.LevelWarn, verbose: 0, want: slog.LevelWarn},
		{base: slog.LevelWarn, verbose: 1, want: slog.LevelInfo},
		{base: slog.LevelWarn, verbose: 2, want: slog.LevelDebug},
		{base: slog.LevelWarn, verbose: 5, want: slog.LevelDebug},
		{base: slog.LevelDebug, verbose: 1, want: slog.LevelDebug},
		{base: slog.LevelInfo, verbose: 2, want: slog.LevelDebug},
	}
	for _, tc := range tests {
		if got := LevelForVerbosity(tc.base, tc.verbose); got != tc.want {
			t.Fatalf("base %v verbose %d: expected %v, got %v", tc.base, tc.verbose, tc.want, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	got, err := ParseLevel("debug")
	if err != nil {
		t.Fatalf("parse level: %v", err)
	}
	if got != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", got)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestConfigureRespectsLevel(t *testing.T) {
	orig := Level()
	defer SetLevel(orig)

	var out bytes.Buffer
	Configure(&out, ColorNever)
	SetLevel(slog.LevelWarn)

	Logger().Debug("hidden message")
	Logger().Warn("visible message", "key", "value")

	got := out.String()
	if strings.Contains(got, "hidden message") {
		t.Fatalf("debug message should be filtered at warn level: %q", got)
	}
	if !strings.Contains(got, "visible message") || !strings.Contains(got, "key=value") {
		t.Fatalf("expected warn message with attrs, got %q", got)
	}
	if strings.Contains(got, "\x1b[") {
		t.Fatalf("expected no colour escapes, got %q", got)
	}
}
