package builtin

import (
	"github.com/dop251/goja_nodejs/require"
	coremod "github.com/joeycumines/grain/internal/builtin/core"
	propermod "github.com/joeycumines/grain/internal/builtin/proper"
)

// Prefix namespaces every native module.
const Prefix = "grain:"

// Register registers all native Go modules with registry. core supplies the
// page's Grain entry point to grain:core.
func Register(registry *require.Registry, core coremod.Provider) {
	registry.RegisterNativeModule(Prefix+"core", coremod.Require(core))
	registry.RegisterNativeModule(Prefix+"proper", propermod.Require)
}
