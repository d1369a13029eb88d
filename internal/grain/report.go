package grain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Severity classifies a readiness diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Level maps the severity onto a slog level.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// anonymousID names operations registered without an identifier.
const anonymousID = "Grain"

// Diagnostic describes one operation still waiting when the engine became
// ready. Such an operation never runs.
type Diagnostic struct {
	Severity   Severity
	Kind       Kind
	ID         string
	Unresolved []string
}

// String renders the diagnostic as a single line, for example
//
//	[warning][define]: "app/view" did fail load. (values "app/model,app/store")
func (d Diagnostic) String() string {
	id := d.ID
	if id == "" {
		id = anonymousID
	}
	return fmt.Sprintf("[%s][%s]: %q did fail load. (values %q)", d.Severity, d.Kind, id, strings.Join(d.Unresolved, ","))
}

// Reporter observes readiness diagnostics. It must not call back into the
// engine.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to [Reporter].
type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// SlogReporter logs each diagnostic at the level matching its severity.
type SlogReporter struct {
	Logger *slog.Logger
}

func (r SlogReporter) Report(d Diagnostic) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(context.Background(), d.Severity.Level(), "operation did fail load",
		slog.String("kind", d.Kind.String()),
		slog.String("id", d.ID),
		slog.Any("unresolved", d.Unresolved),
	)
}

// MultiReporter fans each diagnostic out to every reporter, in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		r.Report(d)
	}
}
