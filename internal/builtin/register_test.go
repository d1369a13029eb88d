package builtin

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

type stubProvider struct {
	fn goja.Value
}

func (p *stubProvider) GrainFunction(*goja.Runtime) goja.Value {
	return p.fn
}

func TestRegister(t *testing.T) {
	t.Parallel()

	runtime := goja.New()
	provider := &stubProvider{fn: runtime.ToValue(func() string { return "grain" })}
	registry := require.NewRegistry()
	Register(registry, provider)

	req := registry.Enable(runtime)
	for _, name := range []string{Prefix + "core", Prefix + "proper"} {
		if _, err := req.Require(name); err != nil {
			t.Fatalf("expected module %s to load, got error: %v", name, err)
		}
	}

	v, err := runtime.RunString(`require('grain:core')() + ':' + require('grain:proper')('my/date/picker')`)
	if err != nil {
		t.Fatalf("failed to run script: %v", err)
	}
	if got := v.String(); got != "grain:myDatePicker" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestRegister_CoreUnavailable(t *testing.T) {
	t.Parallel()

	runtime := goja.New()
	registry := require.NewRegistry()
	Register(registry, &stubProvider{})
	registry.Enable(runtime)

	if _, err := runtime.RunString(`require('grain:core')`); err == nil {
		t.Fatal("expected grain:core to fail without a Grain function")
	}
}

func TestProper_RequiresName(t *testing.T) {
	t.Parallel()

	runtime := goja.New()
	registry := require.NewRegistry()
	Register(registry, &stubProvider{})
	registry.Enable(runtime)

	if _, err := runtime.RunString(`require('grain:proper')()`); err == nil {
		t.Fatal("expected TypeError for a missing name")
	}
}
