package transducer

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Arc A transition owned by its source state.
type Arc struct {
	In     Label
	Out    Label
	Weight Weight
	Dest   int
}

// Pair An input/output label pair, the alphabet symbol of a transducer path.
type Pair struct {
	In  Label
	Out Label
}

// Transducer Represents a finite-state transducer and all its states and arcs. States are
// integers 0..NumStates()-1 and state 0 is always the start state. A Transducer is immutable:
// build one with a Builder, and operations such as Minimize return new values, so a
// Transducer may be shared between goroutines freely.
//
// The arcs of every state are sorted by input label, then output label, then dest.
type Transducer struct {
	kind Kind

	// Index in arcs where each state's leaving arcs start, followed by how many arcs leave
	// the state; two ints per state.
	states []int

	arcs []Arc

	finals  []Weight
	isFinal *bitset.BitSet

	// True if no state has two arcs leaving with the same input label.
	deterministic bool
	// First offending state and input label when not deterministic.
	nondetState int
	nondetLabel Label

	symbols *SymbolTable
}

// Kind Which weight algebra this transducer uses.
func (t *Transducer) Kind() Kind {
	return t.kind
}

// Symbols Returns the symbol table, which may be nil.
func (t *Transducer) Symbols() *SymbolTable {
	return t.symbols
}

// NumStates How many states this transducer has.
func (t *Transducer) NumStates() int {
	return len(t.states) / 2
}

// NumArcs How many arcs this transducer has.
func (t *Transducer) NumArcs() int {
	return len(t.arcs)
}

// NumArcsOf How many arcs leave this state.
func (t *Transducer) NumArcsOf(state int) int {
	return t.states[2*state+1]
}

// Start Returns the start state, or -1 for a transducer without states.
func (t *Transducer) Start() int {
	if t.NumStates() == 0 {
		return -1
	}
	return 0
}

// Arcs Returns a copy of the arcs leaving state.
func (t *Transducer) Arcs(state int) []Arc {
	return slices.Clone(t.arcsOf(state))
}

func (t *Transducer) arcsOf(state int) []Arc {
	offset := t.states[2*state]
	return t.arcs[offset : offset+t.states[2*state+1] : offset+t.states[2*state+1]]
}

// Final Returns the final weight of state; Zero of the semiring when the state is not final.
func (t *Transducer) Final(state int) Weight {
	return t.finals[state]
}

// IsFinal Returns true if this state is a final state.
func (t *Transducer) IsFinal(state int) bool {
	return t.isFinal.Test(uint(state))
}

// IsDeterministic Returns true if for every state there is at most one arc for each input label.
func (t *Transducer) IsDeterministic() bool {
	return t.deterministic
}

// Step Performs lookup of the arc leaving state on input label in, assuming determinism.
// Returns false if no arc matches.
func (t *Transducer) Step(state int, in Label) (Arc, bool) {
	arcs := t.arcsOf(state)

	// Arcs are sorted by input label; binary search.
	low, high := 0, len(arcs)-1
	for low <= high {
		mid := (low + high) >> 1
		switch {
		case arcs[mid].In > in:
			high = mid - 1
		case arcs[mid].In < in:
			low = mid + 1
		default:
			return arcs[mid], true
		}
	}
	return Arc{Dest: -1}, false
}

func (t *Transducer) String() string {
	return fmt.Sprintf("Transducer(kind=%s, states=%d, arcs=%d, deterministic=%t)",
		t.kind, t.NumStates(), t.NumArcs(), t.deterministic)
}

func (t *Transducer) checkDeterministic() error {
	if t.deterministic {
		return nil
	}
	return fmt.Errorf("%w: state %d has more than one arc on input label %d",
		ErrInvalidInputKind, t.nondetState, t.nondetLabel)
}
