package scripting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
)

// Runtime owns a goja runtime and the event loop that serializes access to it.
//
// A goja.Runtime is not goroutine-safe. Every interaction with it, and with
// anything bound into it (such as a grain.Engine), must happen inside a
// RunOnLoop or RunOnLoopSync callback. Callbacks must not call RunOnLoopSync
// themselves: the loop is busy running them, so the call would block until
// the timeout.
type Runtime struct {
	loop     *eventloop.EventLoop
	registry *require.Registry

	mu      sync.RWMutex
	timeout time.Duration
	started bool
	stopped bool

	// ctx is cancelled on Close, independently of the parent context.
	ctx    context.Context
	cancel context.CancelFunc
}

// DefaultSyncTimeout bounds RunOnLoopSync unless overridden.
const DefaultSyncTimeout = 5 * time.Second

var errNotRunning = errors.New("event loop not running")

// NewRuntime starts an event loop using registry for require(), creating a
// registry when nil. The runtime closes itself when ctx is done.
func NewRuntime(ctx context.Context, registry *require.Registry) (*Runtime, error) {
	if registry == nil {
		registry = require.NewRegistry()
	}

	loop := eventloop.NewEventLoop(
		eventloop.WithRegistry(registry),
		eventloop.EnableConsole(true),
	)

	lifecycle, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		loop:     loop,
		registry: registry,
		timeout:  DefaultSyncTimeout,
		ctx:      lifecycle,
		cancel:   cancel,
	}

	loop.Start()
	rt.mu.Lock()
	rt.started = true
	rt.mu.Unlock()

	// round trip once so callers never see a loop that is not yet spinning
	started := make(chan struct{})
	if !loop.RunOnLoop(func(*goja.Runtime) { close(started) }) {
		cancel()
		loop.Stop()
		return nil, fmt.Errorf("failed to start runtime: %w", errNotRunning)
	}
	<-started

	if ctx.Done() != nil {
		context.AfterFunc(ctx, func() { _ = rt.Close() })
	}

	return rt, nil
}

// Registry returns the require registry used by the loop.
func (rt *Runtime) Registry() *require.Registry {
	return rt.registry
}

// Close stops the event loop. It is idempotent.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		return nil
	}
	rt.stopped = true
	rt.mu.Unlock()

	// unblock RunOnLoopSync waiters before the loop drains
	rt.cancel()
	rt.loop.Stop()
	return nil
}

// Done is closed once the runtime has been closed.
func (rt *Runtime) Done() <-chan struct{} {
	return rt.ctx.Done()
}

// IsRunning reports whether the loop accepts work.
func (rt *Runtime) IsRunning() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.started && !rt.stopped
}

// SetTimeout sets the RunOnLoopSync timeout. Zero disables it.
func (rt *Runtime) SetTimeout(timeout time.Duration) {
	rt.mu.Lock()
	rt.timeout = timeout
	rt.mu.Unlock()
}

// Timeout returns the RunOnLoopSync timeout.
func (rt *Runtime) Timeout() time.Duration {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.timeout
}

// RunOnLoop queues fn on the loop, returning false if the loop is stopped.
func (rt *Runtime) RunOnLoop(fn func(*goja.Runtime)) bool {
	if !rt.IsRunning() {
		return false
	}
	return rt.loop.RunOnLoop(fn)
}

// RunOnLoopSync runs fn on the loop and waits for its result.
func (rt *Runtime) RunOnLoopSync(fn func(*goja.Runtime) error) error {
	if !rt.IsRunning() {
		return errNotRunning
	}
	timeout := rt.Timeout()

	result := make(chan error, 1)
	if !rt.loop.RunOnLoop(func(vm *goja.Runtime) { result <- fn(vm) }) {
		return errNotRunning
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-result:
		return err
	case <-rt.Done():
		return errors.New("runtime stopped before completion")
	case <-expired:
		return fmt.Errorf("operation timed out after %v", timeout)
	}
}

// LoadScript compiles and runs code on the loop, naming it name in stack
// traces.
func (rt *Runtime) LoadScript(name, code string) error {
	return rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		prg, err := goja.Compile(name, code, true)
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", name, err)
		}
		if _, err := vm.RunProgram(prg); err != nil {
			return fmt.Errorf("failed to run %s: %w", name, err)
		}
		return nil
	})
}
