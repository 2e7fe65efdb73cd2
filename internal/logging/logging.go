package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Color modes accepted by Configure.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	level  = new(slog.LevelVar)
	logger = newLogger(os.Stderr, ColorAuto)
)

func init() {
	level.Set(slog.LevelWarn)
}

// Logger returns the process logger.
func Logger() *slog.Logger {
	return logger
}

// SetLevel changes the minimum level of the process logger.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Level returns the current minimum level.
func Level() slog.Level {
	return level.Level()
}

// Configure replaces the process logger output. Colour is used for "always",
// or for "auto" when w is a terminal.
func Configure(w io.Writer, color string) {
	logger = newLogger(w, color)
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(name))
	return l, err
}

// LevelForVerbosity maps a -v count onto a level, starting from base.
// Verbosity flags never make logging quieter than base.
func LevelForVerbosity(base slog.Level, verbose int) slog.Level {
	switch {
	case verbose <= 0:
		return base
	case verbose == 1:
		return min(base, slog.LevelInfo)
	default:
		return min(base, slog.LevelDebug)
	}
}

func newLogger(w io.Writer, color string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !useColor(w, color),
	}))
}

func useColor(w io.Writer, color string) bool {
	switch color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
