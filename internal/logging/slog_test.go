package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		kv    string
	}{
		{"DEBUG", "dbg", "a=1"},
		{"INFO", "inf", "b=2"},
		{"WARN", "wrn", "c=3"},
		{"ERROR", "err", "d=4"},
	}

	for _, tc := range tests {
		assert.Contains(t, out, "level="+tc.level)
		assert.Contains(t, out, "msg="+tc.msg)
		assert.Contains(t, out, tc.kv)
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)

	child := log.With("module", "sync")
	child.Info(context.Background(), "pass finished", "synced", 3)

	out := buf.String()
	assert.Contains(t, out, "module=sync")
	assert.Contains(t, out, "synced=3")
}

func TestSlogLogger_ContextArgs(t *testing.T) {
	log, buf := newTestLogger(t)

	ctx := ContextWith(context.Background(), "device", "d1")
	ctx = ContextWith(ctx, "trigger", "periodic")
	log.Info(ctx, "pass finished", "synced", 2)
	log.Info(context.Background(), "bare")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "device=d1 trigger=periodic synced=2")
	assert.NotContains(t, lines[1], "device=")
}

func TestSlogLogger_SkipsDisabledLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx := ContextWith(context.Background(), "device", "d1")
	log.Debug(ctx, "noise")
	log.Info(ctx, "noise")
	assert.Empty(t, buf.String())

	log.Warn(ctx, "kept")
	assert.Contains(t, buf.String(), "device=d1")
}

func TestNop_DiscardsEverything(t *testing.T) {
	l := Nop()
	ctx := context.Background()
	l.Debug(ctx, "x")
	l.Info(ctx, "x")
	l.Warn(ctx, "x")
	l.Error(ctx, "x")
	assert.NotNil(t, l.With("k", "v"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestSetup_WritesJSONToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	log, closer := Setup(Options{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1})
	log.Debug(context.Background(), "hello", "k", "v")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(b))
	assert.True(t, strings.HasPrefix(line, "{"), "file output must be JSON: %s", line)
	assert.Contains(t, line, `"msg":"hello"`)
	assert.Contains(t, line, `"k":"v"`)
}
