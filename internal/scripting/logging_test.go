package scripting

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLogLevel("loud")
	require.Error(t, err)
}

func TestLogBuffer_RetainsAndForwards(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	buffer := NewLogBuffer(slog.LevelInfo, 2, slog.NewJSONHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := slog.New(buffer).With("page", "p1")

	logger.Debug("quiet")
	logger.Info("one")
	logger.Warn("two", "kind", "define")
	logger.Error("three")

	entries := buffer.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "two", entries[0].Message)
	assert.Equal(t, "define", entries[0].Attrs["kind"])
	assert.Equal(t, "p1", entries[0].Attrs["page"])
	assert.Equal(t, "three", entries[1].Message)

	// the forwarded handler sees everything at its own level
	assert.Equal(t, 4, strings.Count(out.String(), "\n"))
	assert.Contains(t, out.String(), `"msg":"quiet"`)
}

func TestLogBuffer_Search(t *testing.T) {
	t.Parallel()
	buffer := NewLogBuffer(slog.LevelDebug, 0, nil)
	logger := slog.New(buffer)

	logger.Info("resolved module", "id", "app/view")
	logger.Info("deferred operation", "id", "app/model")
	logger.WithGroup("engine").Info("other", "id", "x")

	assert.Len(t, buffer.Search("RESOLVED"), 1)
	assert.Len(t, buffer.Search("app/"), 2)
	matches := buffer.Search("engine.id")
	require.Len(t, matches, 1)
	assert.Equal(t, "other", matches[0].Message)

	assert.Len(t, buffer.Search(""), 3)
}

func TestLogBuffer_GroupAppliesToLaterAttrs(t *testing.T) {
	t.Parallel()
	buffer := NewLogBuffer(slog.LevelInfo, 0, nil)

	slog.New(buffer).With("page", "p1").WithGroup("g").With("a", 1).WithGroup("h").Info("m", "k", "v")

	entries := buffer.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]string{"page": "p1", "g.a": "1", "g.h.k": "v"}, entries[0].Attrs)
}

func TestLogEntry_String(t *testing.T) {
	t.Parallel()
	entry := LogEntry{
		Time:    time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		Level:   slog.LevelWarn,
		Message: "operation failed",
		Attrs:   map[string]string{"kind": "define", "id": "view"},
	}
	assert.Equal(t, "15:04:05 WARN operation failed id=view kind=define", entry.String())
}
