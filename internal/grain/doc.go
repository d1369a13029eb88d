// Package grain implements a dependency-driven module registration runtime.
//
// Callers register three kinds of operation against an [Engine]:
//
//   - definitions ([Engine.Define]) produce a value stored under a module name;
//   - requires ([Engine.Require]) run a side effect once their prerequisites
//     exist and the page is ready;
//   - mixins ([Engine.Mixin]) compose the values of several modules into a
//     [Composite] stored under a target name.
//
// An operation whose prerequisites are all resolved runs before the
// registering call returns. Otherwise it waits, and every later resolution
// narrows its outstanding prerequisite list until it is empty, at which point
// it runs as part of that resolution's cascade. Cascades are depth-first: a
// definition resolved mid-cascade has its own dependents executed before the
// outer cascade moves on.
//
// Requires are additionally gated on [Engine.Ready]. Until it is called,
// satisfied requires are buffered. Calling it flushes the buffer and reports
// every still-waiting operation through the configured [Reporter].
//
// An Engine is not safe for concurrent use. Hosts must call it from a single
// goroutine, such as an event loop.
package grain
