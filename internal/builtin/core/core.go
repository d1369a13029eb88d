// Package core exposes a page's Grain entry point as the grain:core module,
// so scripts can write
//
//	const Grain = require('grain:core');
//	Grain.define('app/model', [], function () { return {}; });
package core

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// Provider supplies the Grain function bound into vm.
type Provider interface {
	GrainFunction(vm *goja.Runtime) goja.Value
}

// Require returns the module loader for grain:core.
func Require(provider Provider) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		fn := provider.GrainFunction(runtime)
		if fn == nil {
			panic(runtime.NewTypeError("grain:core is not available in this runtime"))
		}
		_ = module.Set("exports", fn)
	}
}
