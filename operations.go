package transducer

import (
	"github.com/bits-and-blooms/bitset"
)

// IsEmpty
// Returns true if the given transducer has no accepting path.
func IsEmpty(t *Transducer) bool {
	if t.NumStates() == 0 {
		// Common case: no states
		return true
	}
	if t.IsFinal(0) {
		// Common case: it accepts the empty string
		return false
	}
	if t.NumArcsOf(0) == 0 {
		// Common case: just one initial state
		return true
	}

	seen := bitset.New(uint(t.NumStates()))
	workList := []int{0}
	seen.Set(0)

	for len(workList) > 0 {
		state := workList[0]
		workList = workList[1:]
		if t.IsFinal(state) {
			return false
		}
		for _, arc := range t.arcsOf(state) {
			if isZero(arc.Weight) || seen.Test(uint(arc.Dest)) {
				continue
			}
			seen.Set(uint(arc.Dest))
			workList = append(workList, arc.Dest)
		}
	}
	return true
}

// Connect
// Removes states that are unreachable from the start state and states from which no final
// state is reachable, together with arcs of weight Zero. Surviving states are renumbered in
// breadth-first order from the start, so the start remains state 0. If the start state itself
// is dead the result is MakeEmpty.
func Connect(t *Transducer) *Transducer {
	numStates := t.NumStates()
	live := getLiveStatesFromInitial(t)
	live.InPlaceIntersection(getLiveStatesToAccept(t))
	if numStates == 0 || !live.Test(0) {
		empty := MakeEmpty(t.kind)
		empty.symbols = t.symbols
		return empty
	}

	b := NewBuilderV1(t.kind, int(live.Count()), t.NumArcs())
	b.SetSymbols(t.symbols)

	mp := make([]int, numStates)
	for i := range mp {
		mp[i] = -1
	}

	// Renumber in breadth-first order.
	order := make([]int, 0, live.Count())
	mp[0] = b.CreateState()
	order = append(order, 0)
	for i := 0; i < len(order); i++ {
		for _, arc := range t.arcsOf(order[i]) {
			if isZero(arc.Weight) || !live.Test(uint(arc.Dest)) || mp[arc.Dest] != -1 {
				continue
			}
			mp[arc.Dest] = b.CreateState()
			order = append(order, arc.Dest)
		}
	}

	for _, s := range order {
		if t.IsFinal(s) {
			// Weights were already accepted by the builder that made t.
			_ = b.SetFinal(mp[s], t.Final(s))
		}
		// filter out arcs to dead states:
		for _, arc := range t.arcsOf(s) {
			if isZero(arc.Weight) || mp[arc.Dest] == -1 {
				continue
			}
			_ = b.AddTransition(mp[s], mp[arc.Dest], arc.In, arc.Out, arc.Weight)
		}
	}

	return b.Finish()
}

func getLiveStatesFromInitial(t *Transducer) *bitset.BitSet {
	numStates := t.NumStates()
	live := bitset.New(uint(numStates))
	if numStates == 0 {
		return live
	}
	workList := []int{0}
	live.Set(0)

	for len(workList) > 0 {
		s := workList[len(workList)-1]
		workList = workList[:len(workList)-1]
		for _, arc := range t.arcsOf(s) {
			if isZero(arc.Weight) || live.Test(uint(arc.Dest)) {
				continue
			}
			live.Set(uint(arc.Dest))
			workList = append(workList, arc.Dest)
		}
	}

	return live
}

func getLiveStatesToAccept(t *Transducer) *bitset.BitSet {
	numStates := t.NumStates()
	live := bitset.New(uint(numStates))

	reverse := reverseAdjacency(t)

	workList := make([]int, 0)
	for s := 0; s < numStates; s++ {
		if t.IsFinal(s) {
			live.Set(uint(s))
			workList = append(workList, s)
		}
	}

	for len(workList) > 0 {
		s := workList[len(workList)-1]
		workList = workList[:len(workList)-1]
		for _, r := range reverse[s] {
			if live.Test(uint(r.source)) {
				continue
			}
			live.Set(uint(r.source))
			workList = append(workList, r.source)
		}
	}

	return live
}

// reverseAdjacency Lists, for every state, the arcs that enter it. Arcs of weight Zero are left out.
func reverseAdjacency(t *Transducer) [][]sourcedArc {
	reverse := make([][]sourcedArc, t.NumStates())
	for s := 0; s < t.NumStates(); s++ {
		for _, arc := range t.arcsOf(s) {
			if isZero(arc.Weight) {
				continue
			}
			reverse[arc.Dest] = append(reverse[arc.Dest], sourcedArc{source: s, Arc: arc})
		}
	}
	return reverse
}
