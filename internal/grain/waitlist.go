package grain

import (
	"slices"
)

// WaitRecord is the live state of an operation that is still missing
// prerequisites.
type WaitRecord struct {
	ID         string
	Unresolved []string
}

// waitList is the ordered set of waiting operations for one kind.
type waitList []WaitRecord

// narrow accounts for name having just resolved.
//
// A record is satisfied when name was among its unresolved prerequisites and
// nothing else was. Every other record has all occurrences of name removed and
// survives if anything remains. Both results preserve the list's order.
func (w waitList) narrow(name string) (satisfied []WaitRecord, waiting waitList) {
	for _, rec := range w {
		var mentioned bool
		rest := make([]string, 0, len(rec.Unresolved))
		for _, n := range rec.Unresolved {
			if n == name {
				mentioned = true
				continue
			}
			rest = append(rest, n)
		}
		switch {
		case len(rest) != 0:
			waiting = append(waiting, WaitRecord{ID: rec.ID, Unresolved: rest})
		case mentioned:
			satisfied = append(satisfied, rec)
		}
	}
	return satisfied, waiting
}

func (w waitList) snapshot() []WaitRecord {
	out := make([]WaitRecord, len(w))
	for i, rec := range w {
		out[i] = WaitRecord{ID: rec.ID, Unresolved: slices.Clone(rec.Unresolved)}
	}
	return out
}
