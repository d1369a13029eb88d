// Package proper exposes mixin property naming as the grain:proper module.
package proper

import (
	"github.com/dop251/goja"
	"github.com/joeycumines/grain/internal/grain"
)

// Require is the module loader for grain:proper. Its export maps a module
// name to the property name a mixin uses for it.
func Require(runtime *goja.Runtime, module *goja.Object) {
	// proper(name: string): string
	_ = module.Set("exports", func(call goja.FunctionCall) goja.Value {
		arg := call.Argument(0)
		if goja.IsUndefined(arg) || goja.IsNull(arg) {
			panic(runtime.NewTypeError("proper: name is required"))
		}
		return runtime.ToValue(grain.Proper(arg.String()))
	})
}
