package transducer

// Run Follows the path labelled by pairs from the start state, assuming determinism.
// Returns the weight of the path including the final weight of its last state, and true
// only if that state is final.
func Run(t *Transducer, pairs []Pair) (Weight, bool) {
	sr := t.kind.Semiring()
	if t.NumStates() == 0 {
		return sr.Zero(), false
	}
	state := 0
	weight := sr.One()
	for _, p := range pairs {
		arc, ok := stepPair(t, state, p)
		if !ok {
			return sr.Zero(), false
		}
		weight = sr.Times(weight, arc.Weight)
		state = arc.Dest
	}
	if !t.IsFinal(state) {
		return sr.Zero(), false
	}
	return sr.Times(weight, t.Final(state)), true
}

func stepPair(t *Transducer, state int, p Pair) (Arc, bool) {
	arc, ok := t.Step(state, p.In)
	if !ok || arc.Out != p.Out {
		return Arc{Dest: -1}, false
	}
	return arc, true
}
