package grain

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
)

// Engine owns every piece of resolution state: the module registry, the
// pending operation store, one wait list per kind, and the readiness gate.
// Independent engines share nothing.
type Engine struct {
	logger   *slog.Logger
	reporter Reporter

	registry *registry
	pending  pendingStore
	waits    [kindCount]waitList

	// stack holds the cascades still being processed, innermost last.
	stack []*frame

	ready bool
	// buffer holds satisfied requires awaiting readiness, in the order they
	// became satisfied.
	buffer []*Operation

	// seq numbers requires, which have no name of their own.
	seq int
}

// frame tracks the progress of one resolution's cascade across the wait lists.
type frame struct {
	name string
	// next indexes cascadeOrder.
	next int
	kind Kind
	// ready and pos are the satisfied records for kind, and how many of them
	// have run.
	ready []WaitRecord
	pos   int
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger used for debug tracing and payload failures.
// Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithReporter sets the reporter for readiness diagnostics. Defaults to a
// [SlogReporter] on the engine's logger.
func WithReporter(reporter Reporter) Option {
	return func(e *Engine) {
		e.reporter = reporter
	}
}

// New returns an engine with an empty registry, not yet ready.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		registry: newRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reporter == nil {
		e.reporter = SlogReporter{Logger: e.logger}
	}
	return e
}

// Define registers a definition of name. Once every prerequisite resolves,
// builder is called with their values and its result is stored under name,
// which in turn may run operations waiting on name.
//
// A non-nil error reports failures of payloads run during this call; it never
// signals unmet prerequisites.
func (e *Engine) Define(name string, prerequisites []string, builder Builder) error {
	if slices.Contains(prerequisites, name) {
		return e.reject(KindDefine, name)
	}
	return e.register(&Operation{
		Kind:          KindDefine,
		ID:            name,
		Prerequisites: slices.Clone(prerequisites),
		Builder:       builder,
	})
}

// Require registers a side effect that runs once every prerequisite resolves
// and the engine is ready.
func (e *Engine) Require(prerequisites []string, action Action) error {
	id := strconv.Itoa(e.seq)
	e.seq++
	return e.register(&Operation{
		Kind:          KindRequire,
		ID:            id,
		Prerequisites: slices.Clone(prerequisites),
		Action:        action,
	})
}

// Mixin registers a composition of sources under target. Once every source
// resolves, the composite stored under target (created if target does not
// already hold one) receives one entry per source, keyed by [Proper].
func (e *Engine) Mixin(target string, sources []string) error {
	if slices.Contains(sources, target) {
		return e.reject(KindMixin, target)
	}
	return e.register(&Operation{
		Kind:          KindMixin,
		ID:            target,
		Prerequisites: slices.Clone(sources),
	})
}

// MixinTarget is one entry of a bulk [Engine.MixinAll] call.
type MixinTarget struct {
	Target  string
	Sources []string
}

// MixinAll registers each target in order, as [Engine.Mixin] would.
func (e *Engine) MixinAll(targets []MixinTarget) error {
	var errs []error
	for _, t := range targets {
		if err := e.Mixin(t.Target, t.Sources); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Resolve returns the value stored under name, if any.
func (e *Engine) Resolve(name string) (any, bool) {
	return e.registry.resolve(name)
}

// Names returns every resolved module name, in first-resolution order.
func (e *Engine) Names() []string {
	return slices.Clone(e.registry.order)
}

// Waiting returns a copy of the wait list for kind.
func (e *Engine) Waiting(kind Kind) []WaitRecord {
	if kind < 0 || int(kind) >= kindCount {
		return nil
	}
	return e.waits[kind].snapshot()
}

// Buffered returns the number of satisfied requires awaiting readiness.
func (e *Engine) Buffered() int {
	return len(e.buffer)
}

// Operation returns the record registered for id within kind.
func (e *Engine) Operation(kind Kind, id string) (Operation, bool) {
	if kind < 0 || int(kind) >= kindCount {
		return Operation{}, false
	}
	op := e.pending.lookup(kind, id)
	if op == nil {
		return Operation{}, false
	}
	return *op, true
}

func (e *Engine) reject(kind Kind, name string) error {
	err := fmt.Errorf("%w: %s %q", ErrSelfDependency, kind, name)
	e.logger.Error("rejected operation", "kind", kind.String(), "id", name, "error", err)
	return err
}

func (e *Engine) register(op *Operation) error {
	e.pending.record(op)

	if unresolved := e.registry.unresolved(op.Prerequisites); len(unresolved) != 0 {
		e.waits[op.Kind] = append(e.waits[op.Kind], WaitRecord{ID: op.ID, Unresolved: unresolved})
		e.logger.Debug("deferred operation", "kind", op.Kind.String(), "id", op.ID, "unresolved", unresolved)
		return nil
	}

	base := len(e.stack)
	err := e.execute(op)
	return errors.Join(err, e.drain(base))
}

// execute runs op's payload. A definition or mixin that stores a value pushes
// a frame; the caller is responsible for draining it.
func (e *Engine) execute(op *Operation) error {
	args := e.registry.arguments(op.Prerequisites)

	switch op.Kind {
	case KindDefine:
		var value any
		if op.Builder != nil {
			v, err := op.Builder(args...)
			if err != nil {
				return e.fail(op, err)
			}
			value = v
		}
		e.store(op, value)

	case KindMixin:
		composite, _ := e.registry.values[op.ID].(Composite)
		if composite == nil {
			composite = make(Composite, len(op.Prerequisites))
		}
		for i, source := range op.Prerequisites {
			composite[Proper(source)] = args[i]
		}
		e.store(op, composite)

	case KindRequire:
		if !e.ready {
			e.buffer = append(e.buffer, op)
			e.logger.Debug("buffered require", "id", op.ID)
			return nil
		}
		if op.Action != nil {
			if err := op.Action(args...); err != nil {
				return e.fail(op, err)
			}
		}
		e.logger.Debug("executed operation", "kind", op.Kind.String(), "id", op.ID)
	}

	return nil
}

func (e *Engine) store(op *Operation, value any) {
	e.registry.store(op.ID, value)
	e.stack = append(e.stack, &frame{name: op.ID})
	e.logger.Debug("resolved module", "kind", op.Kind.String(), "id", op.ID)
}

func (e *Engine) fail(op *Operation, err error) error {
	err = &OperationError{Kind: op.Kind, ID: op.ID, Err: err}
	e.logger.Error("operation failed", "kind", op.Kind.String(), "id", op.ID, "error", err)
	return err
}

// drain processes frames above base until none remain. Each frame narrows the
// wait lists in cascadeOrder, one kind at a time, and runs the satisfied
// operations of a kind before narrowing the next. Frames pushed by those
// operations sit on top and are therefore finished first, which reproduces a
// depth-first recursive cascade without growing the Go stack.
func (e *Engine) drain(base int) error {
	var errs []error
	for len(e.stack) > base {
		f := e.stack[len(e.stack)-1]

		if f.pos < len(f.ready) {
			rec := f.ready[f.pos]
			f.pos++
			if op := e.pending.lookup(f.kind, rec.ID); op != nil {
				if err := e.execute(op); err != nil {
					errs = append(errs, err)
				}
			}
			continue
		}

		if f.next < kindCount {
			f.kind = cascadeOrder[f.next]
			f.next++
			f.ready, e.waits[f.kind] = e.waits[f.kind].narrow(f.name)
			f.pos = 0
			continue
		}

		e.stack[len(e.stack)-1] = nil
		e.stack = e.stack[:len(e.stack)-1]
	}
	return errors.Join(errs...)
}
