package grain

import (
	"fmt"
)

// Kind identifies the class of a registered operation.
type Kind int

const (
	// KindDefine is a definition, producing a module value.
	KindDefine Kind = iota
	// KindRequire is a side effect gated on readiness.
	KindRequire
	// KindMixin is a composition of other modules' values.
	KindMixin

	kindCount = iota
)

// cascadeOrder is the order in which wait lists are narrowed when a module
// resolves.
var cascadeOrder = [kindCount]Kind{KindDefine, KindRequire, KindMixin}

func (k Kind) String() string {
	switch k {
	case KindDefine:
		return "define"
	case KindRequire:
		return "require"
	case KindMixin:
		return "mixin"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
