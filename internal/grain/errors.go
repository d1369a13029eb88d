package grain

import (
	"errors"
	"fmt"
)

var (
	// ErrSelfDependency is returned when a definition or mixin lists its own
	// name as a prerequisite. Such an operation could never run.
	ErrSelfDependency = errors.New("grain: module depends on itself")

	// ErrAlreadyReady is returned by a second call to [Engine.Ready].
	ErrAlreadyReady = errors.New("grain: already ready")
)

// OperationError wraps a failure returned (or raised) by an operation's
// payload.
type OperationError struct {
	Kind Kind
	ID   string
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("grain: %s %q failed: %v", e.Kind, e.ID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
