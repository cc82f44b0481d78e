package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how log records are written.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// File, when set, receives the log instead of stderr and is rotated
	// once it grows past MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// JSON forces the JSON handler even on a terminal.
	JSON bool
}

// Setup builds a Logger from opts. The returned closer flushes and closes
// the log file, if any; it is never nil.
func Setup(opts Options) (*SlogLogger, io.Closer) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
		json             = opts.JSON
	)

	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		out, closer = lj, lj
		json = true
	} else if !term.IsTerminal(int(os.Stderr.Fd())) {
		json = true
	}

	return NewSlogLogger(slog.New(newHandler(out, json, ParseLevel(opts.Level)))), closer
}

func newHandler(w io.Writer, json bool, level slog.Level) slog.Handler {
	ho := &slog.HandlerOptions{Level: level}
	if json {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
