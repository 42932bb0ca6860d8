package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestTee(t *testing.T) {
	t.Parallel()

	var file, console bytes.Buffer
	h := tee{
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelInfo}),
		newConsoleHandler(&console),
	}
	logger := slog.New(h).With("engine", "e1")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("measured", "index", 3)
	logger.Warn("clamped extent", "index", 4)

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"clamped extent"`)
	assert.Contains(t, lines[0], `"engine":"e1"`)

	out := ansi.Strip(console.String())
	assert.Contains(t, out, "measured")
	assert.Contains(t, out, "clamped extent")
	assert.Contains(t, out, "index=4")
}

func TestRecoverPanic(t *testing.T) {
	t.Chdir(t.TempDir())

	cleaned := false
	func() {
		defer RecoverPanic("test", func() { cleaned = true })
		panic("boom")
	}()
	assert.True(t, cleaned)
}
