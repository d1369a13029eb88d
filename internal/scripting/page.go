package scripting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/google/uuid"
	"github.com/joeycumines/grain/internal/builtin"
	"github.com/joeycumines/grain/internal/grain"
)

const (
	readyStateLoading     = "loading"
	readyStateInteractive = "interactive"

	eventContentLoaded = "DOMContentLoaded"
)

// Page hosts page scripts the way a browser document would: scripts run in
// order on one event loop, register operations through the Grain global, and
// the page fires DOMContentLoaded once, via [Page.Ready].
//
// JavaScript surface:
//
//	Grain(prerequisites, fn)                  // side effect, after readiness
//	Grain.define(name, prerequisites, fn)     // fn's result becomes module name
//	Grain.mixin({target: [sources...], ...})  // compose modules into target
//	document.addEventListener('DOMContentLoaded', fn)
//	document.readyState                       // "loading", then "interactive"
//	require('grain:core'), require('grain:proper')
//
// Callbacks are invoked with this set to document and the prerequisite
// values as arguments, in declared order.
type Page struct {
	*Runtime

	id     string
	title  string
	logger *slog.Logger
	out    io.Writer
	engine *grain.Engine

	// Everything below is owned by the event loop.
	vm          *goja.Runtime
	grainFn     *goja.Object
	document    *goja.Object
	readyState  string
	listeners   []goja.Callable
	diagnostics []grain.Diagnostic
}

type pageConfig struct {
	logger   *slog.Logger
	title    string
	out      io.Writer
	timeout  time.Duration
	registry *require.Registry
}

// PageOption configures a [Page].
type PageOption func(*pageConfig)

// WithLogger sets the page's logger. Every record carries the page ID.
func WithLogger(logger *slog.Logger) PageOption {
	return func(c *pageConfig) { c.logger = logger }
}

// WithTitle sets document.title.
func WithTitle(title string) PageOption {
	return func(c *pageConfig) { c.title = title }
}

// WithDiagnosticsOutput writes one line per readiness diagnostic to w, in the
// form rendered by [grain.Diagnostic.String].
func WithDiagnosticsOutput(w io.Writer) PageOption {
	return func(c *pageConfig) { c.out = w }
}

// WithTimeout overrides [DefaultSyncTimeout].
func WithTimeout(timeout time.Duration) PageOption {
	return func(c *pageConfig) { c.timeout = timeout }
}

// WithRegistry shares an existing require registry with the page.
func WithRegistry(registry *require.Registry) PageOption {
	return func(c *pageConfig) { c.registry = registry }
}

// NewPage starts a page's event loop and installs its globals. The page is
// closed when ctx is done.
func NewPage(ctx context.Context, opts ...PageOption) (*Page, error) {
	cfg := pageConfig{timeout: DefaultSyncTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.registry == nil {
		cfg.registry = require.NewRegistry()
	}

	p := &Page{
		id:         uuid.NewString(),
		title:      cfg.title,
		out:        cfg.out,
		readyState: readyStateLoading,
	}
	p.logger = cfg.logger.With("page", p.id)
	p.engine = grain.New(
		grain.WithLogger(p.logger),
		grain.WithReporter(grain.MultiReporter{
			grain.SlogReporter{Logger: p.logger},
			grain.ReporterFunc(p.record),
		}),
	)

	builtin.Register(cfg.registry, p)

	rt, err := NewRuntime(ctx, cfg.registry)
	if err != nil {
		return nil, err
	}
	rt.SetTimeout(cfg.timeout)
	p.Runtime = rt

	if err := rt.RunOnLoopSync(p.install); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to install page globals: %w", err)
	}

	p.logger.Debug("page created", "title", p.title)
	return p, nil
}

// ID uniquely identifies the page in logs.
func (p *Page) ID() string { return p.id }

// Title returns document.title as configured.
func (p *Page) Title() string { return p.title }

// Engine returns the page's resolution engine. It may only be used from
// inside RunOnLoop or RunOnLoopSync.
func (p *Page) Engine() *grain.Engine { return p.engine }

// GrainFunction implements the grain:core provider.
func (p *Page) GrainFunction(vm *goja.Runtime) goja.Value {
	if vm != p.vm || p.grainFn == nil {
		return nil
	}
	return p.grainFn
}

// LoadFile runs the script at path, as a <script> element would.
func (p *Page) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", path, err)
	}
	p.logger.Debug("loading script", "path", path)
	return p.LoadScript(path, string(content))
}

// Ready fires DOMContentLoaded: the engine's readiness gate opens first, then
// listeners registered through document.addEventListener run in order.
func (p *Page) Ready() error {
	return p.RunOnLoopSync(p.dispatchReady)
}

// Diagnostics returns the readiness diagnostics reported so far.
func (p *Page) Diagnostics() ([]grain.Diagnostic, error) {
	var out []grain.Diagnostic
	err := p.RunOnLoopSync(func(*goja.Runtime) error {
		out = append(out, p.diagnostics...)
		return nil
	})
	return out, err
}

// Names returns the resolved module names, in resolution order.
func (p *Page) Names() ([]string, error) {
	var names []string
	err := p.RunOnLoopSync(func(*goja.Runtime) error {
		names = p.engine.Names()
		return nil
	})
	return names, err
}

// Snapshot is a point-in-time view of a page's resolution state.
type Snapshot struct {
	Ready       bool
	Modules     []string
	Waiting     map[grain.Kind][]grain.WaitRecord
	Buffered    int
	Diagnostics []grain.Diagnostic
}

// Pending counts the wait records across every kind.
func (s Snapshot) Pending() int {
	n := 0
	for _, records := range s.Waiting {
		n += len(records)
	}
	return n
}

// Snapshot captures the page's resolution state.
func (p *Page) Snapshot() (Snapshot, error) {
	var s Snapshot
	err := p.RunOnLoopSync(func(*goja.Runtime) error {
		s = Snapshot{
			Ready:       p.engine.IsReady(),
			Modules:     p.engine.Names(),
			Waiting:     make(map[grain.Kind][]grain.WaitRecord),
			Buffered:    p.engine.Buffered(),
			Diagnostics: append([]grain.Diagnostic(nil), p.diagnostics...),
		}
		for _, kind := range []grain.Kind{grain.KindDefine, grain.KindRequire, grain.KindMixin} {
			if records := p.engine.Waiting(kind); len(records) != 0 {
				s.Waiting[kind] = records
			}
		}
		return nil
	})
	return s, err
}

// Module returns the exported Go form of a resolved module's value.
func (p *Page) Module(name string) (value any, ok bool, err error) {
	err = p.RunOnLoopSync(func(*goja.Runtime) error {
		var v any
		v, ok = p.engine.Resolve(name)
		if ok {
			value = export(v)
		}
		return nil
	})
	return value, ok, err
}

func export(v any) any {
	switch v := v.(type) {
	case goja.Value:
		if v == nil {
			return nil
		}
		return v.Export()
	case grain.Composite:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = export(e)
		}
		return out
	default:
		return v
	}
}

func (p *Page) install(vm *goja.Runtime) error {
	p.vm = vm

	document := vm.NewObject()
	if err := document.Set("title", p.title); err != nil {
		return err
	}
	if err := document.Set("addEventListener", p.jsAddEventListener); err != nil {
		return err
	}
	readyState := vm.ToValue(func(goja.FunctionCall) goja.Value {
		return vm.ToValue(p.readyState)
	})
	if err := document.DefineAccessorProperty("readyState", readyState, nil, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return err
	}

	fn := vm.ToValue(p.jsRequire).ToObject(vm)
	if err := fn.Set("define", p.jsDefine); err != nil {
		return err
	}
	if err := fn.Set("mixin", p.jsMixin); err != nil {
		return err
	}

	if err := vm.Set("document", document); err != nil {
		return err
	}
	if err := vm.Set("Grain", fn); err != nil {
		return err
	}
	p.document, p.grainFn = document, fn
	return nil
}

func (p *Page) dispatchReady(vm *goja.Runtime) error {
	if p.engine.IsReady() {
		return grain.ErrAlreadyReady
	}
	p.readyState = readyStateInteractive

	errs := []error{p.engine.Ready()}

	event := vm.NewObject()
	_ = event.Set("type", eventContentLoaded)
	listeners := p.listeners
	p.listeners = nil
	for _, listener := range listeners {
		if _, err := listener(p.document, event); err != nil {
			errs = append(errs, fmt.Errorf("%s listener: %w", eventContentLoaded, err))
		}
	}

	p.logger.Info("page ready", "modules", len(p.engine.Names()), "diagnostics", len(p.diagnostics))
	return errors.Join(errs...)
}

func (p *Page) record(d grain.Diagnostic) {
	p.diagnostics = append(p.diagnostics, d)
	if p.out != nil {
		_, _ = fmt.Fprintln(p.out, d.String())
	}
}

// jsRequire implements Grain(prerequisites, fn).
func (p *Page) jsRequire(call goja.FunctionCall) goja.Value {
	prerequisites := p.prerequisites(call.Argument(0))
	fn := p.callback(call.Argument(1), "Grain")
	p.throw(p.engine.Require(prerequisites, func(args ...any) error {
		_, err := fn(p.document, p.values(args)...)
		return err
	}))
	return goja.Undefined()
}

// jsDefine implements Grain.define(name, prerequisites, fn).
func (p *Page) jsDefine(call goja.FunctionCall) goja.Value {
	nameArg := call.Argument(0)
	if goja.IsUndefined(nameArg) || goja.IsNull(nameArg) {
		panic(p.vm.NewTypeError("Grain.define: name is required"))
	}
	name := nameArg.String()
	prerequisites := p.prerequisites(call.Argument(1))
	fn := p.callback(call.Argument(2), "Grain.define")
	p.throw(p.engine.Define(name, prerequisites, func(args ...any) (any, error) {
		v, err := fn(p.document, p.values(args)...)
		if err != nil {
			return nil, err
		}
		return v, nil
	}))
	return goja.Undefined()
}

// jsMixin implements Grain.mixin({target: [sources...]}), registering targets
// in property order.
func (p *Page) jsMixin(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	obj, ok := arg.(*goja.Object)
	if !ok {
		panic(p.vm.NewTypeError("Grain.mixin: expected an object of target: [sources]"))
	}
	keys := obj.Keys()
	targets := make([]grain.MixinTarget, 0, len(keys))
	for _, key := range keys {
		targets = append(targets, grain.MixinTarget{
			Target:  key,
			Sources: p.prerequisites(obj.Get(key)),
		})
	}
	p.throw(p.engine.MixinAll(targets))
	return goja.Undefined()
}

// jsAddEventListener implements document.addEventListener. Only
// DOMContentLoaded is ever dispatched, and only once.
func (p *Page) jsAddEventListener(call goja.FunctionCall) goja.Value {
	event := call.Argument(0).String()
	fn := p.callback(call.Argument(1), "document.addEventListener")
	if event == eventContentLoaded && p.readyState == readyStateLoading {
		p.listeners = append(p.listeners, fn)
	}
	return goja.Undefined()
}

func (p *Page) prerequisites(v goja.Value) []string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Array" {
		panic(p.vm.NewTypeError("prerequisites must be an array of module names"))
	}
	var names []string
	if err := p.vm.ExportTo(v, &names); err != nil {
		panic(p.vm.NewTypeError(fmt.Sprintf("invalid prerequisites: %v", err)))
	}
	return names
}

func (p *Page) callback(v goja.Value, caller string) goja.Callable {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		panic(p.vm.NewTypeError(caller + ": callback is not a function"))
	}
	return fn
}

func (p *Page) values(args []any) []goja.Value {
	out := make([]goja.Value, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case goja.Value:
			out[i] = v
		case grain.Composite:
			out[i] = p.vm.ToValue(map[string]any(v))
		default:
			out[i] = p.vm.ToValue(v)
		}
	}
	return out
}

// throw raises err in JavaScript. Errors only arise from failing payloads or
// rejected registrations; unmet prerequisites never throw.
func (p *Page) throw(err error) {
	if err != nil {
		panic(p.vm.NewGoError(err))
	}
}
