package grain

// registry maps module names to their resolved values. Presence of a key is
// what makes a name resolved; the value itself may be nil.
type registry struct {
	values map[string]any
	// order holds names in first-resolution order.
	order []string
}

func newRegistry() *registry {
	return &registry{values: make(map[string]any)}
}

func (r *registry) resolve(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// store inserts or overwrites. Overwriting does not re-run consumers of the
// previous value.
func (r *registry) store(name string, value any) {
	if _, ok := r.values[name]; !ok {
		r.order = append(r.order, name)
	}
	r.values[name] = value
}

// unresolved returns the names not yet present, preserving order and
// duplicates.
func (r *registry) unresolved(names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := r.values[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// arguments returns the values for names, in order.
func (r *registry) arguments(names []string) []any {
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = r.values[name]
	}
	return args
}
