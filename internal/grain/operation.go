package grain

// Builder produces the value of a definition from the values of its
// prerequisites, passed in declared order.
type Builder func(args ...any) (any, error)

// Action is the side effect of a require, called with the values of its
// prerequisites in declared order.
type Action func(args ...any) error

// Operation is the record kept for every registration. Prerequisites is the
// list exactly as declared, duplicates included. For a mixin, Prerequisites
// doubles as the source module list.
type Operation struct {
	Kind          Kind
	ID            string
	Prerequisites []string
	Builder       Builder
	Action        Action
}

// pendingStore keeps one record per id within each kind. Recording an id
// twice keeps the latest registration.
type pendingStore [kindCount]map[string]*Operation

func (s *pendingStore) record(op *Operation) {
	if s[op.Kind] == nil {
		s[op.Kind] = make(map[string]*Operation)
	}
	s[op.Kind][op.ID] = op
}

func (s *pendingStore) lookup(kind Kind, id string) *Operation {
	return s[kind][id]
}
