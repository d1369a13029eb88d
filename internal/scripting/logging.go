package scripting

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogEntry is a log record retained by a [LogBuffer].
type LogEntry struct {
	Time    time.Time         `json:"time"`
	Level   slog.Level        `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs"`
}

// String formats the entry as a single line, attributes sorted by key.
func (e LogEntry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", e.Time.Format(time.TimeOnly), e.Level, e.Message)
	keys := make([]string, 0, len(e.Attrs))
	for key := range e.Attrs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%s", key, e.Attrs[key])
	}
	return b.String()
}

// ParseLogLevel accepts debug, info, warn or error, case-insensitively.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

// logRing is the storage shared by a LogBuffer and its derived handlers.
type logRing struct {
	mu      sync.RWMutex
	entries []LogEntry
	max     int
}

// LogBuffer is a [slog.Handler] that keeps the most recent records in memory
// and optionally forwards every record to another handler, such as a JSON
// log file.
type LogBuffer struct {
	ring  *logRing
	level slog.Leveler
	next  slog.Handler
	// attrs carry the group prefix in effect when they were added; group is
	// the prefix for attributes added later.
	attrs []slog.Attr
	group string
}

// NewLogBuffer returns a handler retaining up to maxEntries records at or
// above level. next may be nil.
func NewLogBuffer(level slog.Leveler, maxEntries int, next slog.Handler) *LogBuffer {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &LogBuffer{
		ring:  &logRing{entries: make([]LogEntry, 0, maxEntries), max: maxEntries},
		level: level,
		next:  next,
	}
}

// Enabled implements slog.Handler.
func (h *LogBuffer) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *LogBuffer) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.level.Level() {
		h.retain(record)
	}
	if h.next != nil && h.next.Enabled(ctx, record.Level) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *LogBuffer) retain(record slog.Record) {
	attrs := make(map[string]string, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[h.qualify(a.Key)] = a.Value.String()
		return true
	})

	ring := h.ring
	ring.mu.Lock()
	defer ring.mu.Unlock()
	ring.entries = append(ring.entries, LogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	if len(ring.entries) > ring.max {
		ring.entries = ring.entries[len(ring.entries)-ring.max:]
	}
}

// WithAttrs implements slog.Handler.
func (h *LogBuffer) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

func (h *LogBuffer) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

// WithGroup implements slog.Handler.
func (h *LogBuffer) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

// Entries returns a copy of the retained records, oldest first.
func (h *LogBuffer) Entries() []LogEntry {
	h.ring.mu.RLock()
	defer h.ring.mu.RUnlock()
	out := make([]LogEntry, len(h.ring.entries))
	copy(out, h.ring.entries)
	return out
}

// Search returns retained records whose message, attribute key or attribute
// value contains query, case-insensitively.
func (h *LogBuffer) Search(query string) []LogEntry {
	query = strings.ToLower(query)
	var matches []LogEntry
	for _, entry := range h.Entries() {
		if strings.Contains(strings.ToLower(entry.Message), query) {
			matches = append(matches, entry)
			continue
		}
		for key, value := range entry.Attrs {
			if strings.Contains(strings.ToLower(key), query) ||
				strings.Contains(strings.ToLower(value), query) {
				matches = append(matches, entry)
				break
			}
		}
	}
	return matches
}
