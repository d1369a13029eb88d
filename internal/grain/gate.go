package grain

import (
	"errors"
)

// IsReady reports whether [Engine.Ready] has been called.
func (e *Engine) IsReady() bool {
	return e.ready
}

// Ready opens the readiness gate. It runs every buffered require in the order
// it was buffered, then reports each operation still waiting: definitions and
// mixins as warnings, requires as errors. Reported operations stay waiting
// and are never retried, though a later resolution may still run them.
//
// Ready may be called once; later calls return [ErrAlreadyReady].
func (e *Engine) Ready() error {
	if e.ready {
		return ErrAlreadyReady
	}
	e.ready = true

	buffered := e.buffer
	e.buffer = nil
	e.logger.Debug("ready", "buffered", len(buffered))

	var errs []error
	for _, op := range buffered {
		base := len(e.stack)
		errs = append(errs, e.execute(op), e.drain(base))
	}

	e.report(KindDefine, SeverityWarning)
	e.report(KindMixin, SeverityWarning)
	e.report(KindRequire, SeverityError)

	return errors.Join(errs...)
}

func (e *Engine) report(kind Kind, severity Severity) {
	for _, rec := range e.waits[kind].snapshot() {
		e.reporter.Report(Diagnostic{
			Severity:   severity,
			Kind:       kind,
			ID:         rec.ID,
			Unresolved: rec.Unresolved,
		})
	}
}
