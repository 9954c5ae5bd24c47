package transducer

import (
	"fmt"
	"math"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Builder Records states and arcs in any order; Finish freezes them into a Transducer.
// The first state created is the start state.
type Builder struct {
	kind     Kind
	semiring Semiring
	finals   []Weight
	arcs     []sourcedArc
	symbols  *SymbolTable
}

type sourcedArc struct {
	source int
	Arc
}

func NewBuilder(kind Kind) *Builder {
	return NewBuilderV1(kind, 2, 2)
}

func NewBuilderV1(kind Kind, numStates, numArcs int) *Builder {
	return &Builder{
		kind:     kind,
		semiring: kind.Semiring(),
		finals:   make([]Weight, 0, numStates),
		arcs:     make([]sourcedArc, 0, numArcs),
	}
}

// CreateState Create a new, non-final state.
func (b *Builder) CreateState() int {
	b.finals = append(b.finals, b.semiring.Zero())
	return len(b.finals) - 1
}

// CreateStates Creates states until at least n exist.
func (b *Builder) CreateStates(n int) {
	for len(b.finals) < n {
		b.CreateState()
	}
}

// NumStates How many states have been created so far.
func (b *Builder) NumStates() int {
	return len(b.finals)
}

// SetSymbols Attaches a symbol table to the transducer being built.
func (b *Builder) SetSymbols(symbols *SymbolTable) {
	b.symbols = symbols
}

// SetFinal Set the final weight of state. Zero makes the state non-final.
func (b *Builder) SetFinal(state int, weight Weight) error {
	if err := b.checkState(state); err != nil {
		return err
	}
	if err := b.checkWeight(weight, true); err != nil {
		return fmt.Errorf("final weight of state %d: %w", state, err)
	}
	b.finals[state] = weight
	return nil
}

// AddTransition Add a new arc with the specified source, dest, labels and weight.
func (b *Builder) AddTransition(source, dest int, in, out Label, weight Weight) error {
	return b.AddArc(source, Arc{In: in, Out: out, Weight: weight, Dest: dest})
}

// AddArc Add a new arc leaving source.
func (b *Builder) AddArc(source int, arc Arc) error {
	if err := b.checkState(source); err != nil {
		return err
	}
	if err := b.checkState(arc.Dest); err != nil {
		return err
	}
	if arc.In < 0 || arc.Out < 0 {
		return fmt.Errorf("arc %d->%d: negative label", source, arc.Dest)
	}
	if err := b.checkWeight(arc.Weight, false); err != nil {
		return fmt.Errorf("arc %d->%d: %w", source, arc.Dest, err)
	}
	b.arcs = append(b.arcs, sourcedArc{source: source, Arc: arc})
	return nil
}

func (b *Builder) checkState(state int) error {
	if state < 0 || state >= len(b.finals) {
		return fmt.Errorf("%w: %d (have %d states)", ErrStateOutOfRange, state, len(b.finals))
	}
	return nil
}

func (b *Builder) checkWeight(w Weight, final bool) error {
	if math.IsNaN(w) || math.IsInf(w, -1) {
		return fmt.Errorf("%w: weight %v", ErrNumericInstability, w)
	}
	if b.kind.Weighted() {
		return nil
	}
	if w == b.semiring.One() || (final && isZero(w)) {
		return nil
	}
	return fmt.Errorf("%w: weight %v on an unweighted transducer", ErrInvalidInputKind, w)
}

// Finish Sorts the recorded arcs and returns the transducer. The builder can keep being used
// afterwards; the returned transducer does not share memory with it.
func (b *Builder) Finish() *Transducer {
	numStates := len(b.finals)

	pending := make([]sourcedArc, len(b.arcs))
	copy(pending, b.arcs)
	sort.Sort(sourcedArcSorter(pending))

	t := &Transducer{
		kind:          b.kind,
		states:        make([]int, 2*numStates),
		arcs:          make([]Arc, len(pending)),
		finals:        make([]Weight, numStates),
		isFinal:       bitset.New(uint(numStates)),
		deterministic: true,
		nondetState:   -1,
		symbols:       b.symbols,
	}
	copy(t.finals, b.finals)
	for s, w := range t.finals {
		if !isZero(w) {
			t.isFinal.Set(uint(s))
		}
	}

	upto := 0
	for s := 0; s < numStates; s++ {
		t.states[2*s] = upto
		start := upto
		for upto < len(pending) && pending[upto].source == s {
			t.arcs[upto] = pending[upto].Arc
			if t.deterministic && upto > start && t.arcs[upto-1].In == t.arcs[upto].In {
				t.deterministic = false
				t.nondetState = s
				t.nondetLabel = t.arcs[upto].In
			}
			upto++
		}
		t.states[2*s+1] = upto - start
	}

	return t
}

// Sorts arcs by source, then input label, output label, dest and weight, all ascending.
type sourcedArcSorter []sourcedArc

func (r sourcedArcSorter) Len() int {
	return len(r)
}

func (r sourcedArcSorter) Less(i, j int) bool {
	a, b := &r[i], &r[j]
	if a.source != b.source {
		return a.source < b.source
	}
	return arcLess(&a.Arc, &b.Arc)
}

func (r sourcedArcSorter) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

func arcLess(a, b *Arc) bool {
	if a.In != b.In {
		return a.In < b.In
	}
	if a.Out != b.Out {
		return a.Out < b.Out
	}
	if a.Dest != b.Dest {
		return a.Dest < b.Dest
	}
	return a.Weight < b.Weight
}
