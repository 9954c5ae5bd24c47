package transducer

// MakeEmpty
// Returns a new (deterministic) transducer with the empty relation: a single non-final start state.
func MakeEmpty(kind Kind) *Transducer {
	b := NewBuilder(kind)
	b.CreateState()
	return b.Finish()
}

// MakeEpsilon
// Returns a new (deterministic) transducer that only maps the empty string to itself, with weight One.
func MakeEpsilon(kind Kind) *Transducer {
	b := NewBuilder(kind)
	s := b.CreateState()
	_ = b.SetFinal(s, kind.Semiring().One())
	return b.Finish()
}

// MakeString
// Returns a new (deterministic) transducer accepting exactly the given label pair sequence.
// The weight is placed on the final state.
func MakeString(kind Kind, pairs []Pair, weight Weight) (*Transducer, error) {
	b := NewBuilderV1(kind, len(pairs)+1, len(pairs))
	s := b.CreateState()
	for _, p := range pairs {
		next := b.CreateState()
		if err := b.AddTransition(s, next, p.In, p.Out, kind.Semiring().One()); err != nil {
			return nil, err
		}
		s = next
	}
	if err := b.SetFinal(s, weight); err != nil {
		return nil, err
	}
	return b.Finish(), nil
}
