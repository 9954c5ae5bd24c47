package transducer

import (
	"fmt"
	"slices"
)

// Minimize
// Returns the deterministic transducer with the fewest states that assigns every input/output
// label path the same weight as t. t must be deterministic on input labels; otherwise
// ErrInvalidInputKind is returned. The input is never modified.
//
// The steps are: remove unreachable and dead states, push weights toward the start so that
// equivalent states get identical outgoing weights, refine the partition of states until no
// block can be split, then build one state per block.
func Minimize(t *Transducer, opts ...Option) (*Transducer, error) {
	if err := t.checkDeterministic(); err != nil {
		return nil, err
	}
	o := newOptions(opts...)

	c := Connect(t)
	if c.NumStates() == 1 && !c.IsFinal(0) && c.NumArcsOf(0) == 0 {
		// Fastmatch for the empty relation
		return c, nil
	}

	pushed := c
	var potentials []Weight
	if c.kind.Weighted() {
		var err error
		potentials, err = shortestDistance(c, o)
		if err != nil {
			return nil, err
		}
		pushed = reweight(c, potentials)
	}

	blocks, numBlocks, rounds, err := refine(pushed, o)
	if err != nil {
		return nil, err
	}

	result := quotient(pushed, blocks, numBlocks)
	if potentials != nil {
		// Give the start block back the total weight the pushing took off.
		sr := c.kind.Semiring()
		offsets := make([]Weight, numBlocks)
		for i := range offsets {
			offsets[i] = sr.One()
		}
		offsets[0] = sr.Divide(potentials[0], sr.One())
		result = reweight(result, offsets)
	}

	o.logger.Debug("minimized transducer",
		"kind", t.kind.String(),
		"states_in", t.NumStates(),
		"states_connected", c.NumStates(),
		"states_out", result.NumStates(),
		"arcs_out", result.NumArcs(),
		"rounds", rounds)
	return result, nil
}

// refine Runs Moore-style partition refinement. Every round a state's signature is its current
// block, its quantized final weight and, in label order, the labels, quantized weights and target
// blocks of its arcs; states with equal signatures form the next round's blocks. Including the
// current block keeps the refinement monotone, so a round that creates no new block is the fixed
// point. Blocks are numbered in order of their first state, so the start state is in block 0.
func refine(t *Transducer, o *options) ([]int, int, int, error) {
	numStates := t.NumStates()
	blocks := make([]int, numStates)
	next := make([]int, numStates)
	numBlocks := 1

	table := NewHashMap[int](WithCapacity(numStates))
	structures := NewHashMap[[]int](WithCapacity(numStates))

	rounds := 0
	for {
		rounds++
		table.Clear()
		structures.Clear()
		// Representative state of every new block.
		reps := make([]int, 0, numBlocks)

		for s := 0; s < numStates; s++ {
			sig := newSignature(t, s, blocks, o.delta, false)
			id, found := table.GetOrSet(sig, table.Size())
			next[s] = id
			if found {
				continue
			}
			reps = append(reps, s)

			// A new block: make sure it is not separated from a block of the same structure
			// only by weights that are within the tolerance of each other.
			structure := newSignature(t, s, blocks, o.delta, true)
			siblings, _ := structures.Get(structure)
			for _, other := range siblings {
				if !weightsApproxEqual(t, reps[other], s, o.delta) {
					continue
				}
				if o.policy == FailOnInstability {
					return nil, 0, rounds, fmt.Errorf(
						"%w: states %d and %d have weights within %g of each other but in different bins",
						ErrNumericInstability, reps[other], s, o.delta)
				}
				o.logger.Warn("weights too close to separate states reliably; keeping them apart",
					"state", s, "other", reps[other], "delta", o.delta)
			}
			structures.Set(structure, append(siblings, id))
		}

		blocks, next = next, blocks
		if table.Size() == numBlocks {
			break
		}
		numBlocks = table.Size()
	}

	return blocks, numBlocks, rounds, nil
}

// quotient Builds one state per block from the block's first state.
func quotient(t *Transducer, blocks []int, numBlocks int) *Transducer {
	b := NewBuilderV1(t.kind, numBlocks, t.NumArcs())
	b.SetSymbols(t.symbols)
	b.CreateStates(numBlocks)

	done := make([]bool, numBlocks)
	for s := 0; s < t.NumStates(); s++ {
		block := blocks[s]
		if done[block] {
			continue
		}
		done[block] = true
		if t.IsFinal(s) {
			_ = b.SetFinal(block, t.Final(s))
		}
		for _, arc := range t.arcsOf(s) {
			arc.Dest = blocks[arc.Dest]
			_ = b.AddArc(block, arc)
		}
	}
	return b.Finish()
}

// weightsApproxEqual Compares the final and arc weights of two states with the same structure.
func weightsApproxEqual(t *Transducer, s1, s2 int, delta float64) bool {
	if !approxEqual(t.Final(s1), t.Final(s2), delta) {
		return false
	}
	a1, a2 := t.arcsOf(s1), t.arcsOf(s2)
	if len(a1) != len(a2) {
		return false
	}
	for i := range a1 {
		if !approxEqual(a1[i].Weight, a2[i].Weight, delta) {
			return false
		}
	}
	return true
}

var _ Hashable = &signature{}

// signature What a state looks like from the current partition. A structural signature leaves
// the weights out.
type signature struct {
	block int
	final int64
	arcs  []signatureArc
	hash  uint64
}

type signatureArc struct {
	in, out Label
	weight  int64
	dest    int
}

func newSignature(t *Transducer, state int, blocks []int, delta float64, structural bool) *signature {
	arcs := t.arcsOf(state)
	sig := &signature{
		block: blocks[state],
		arcs:  make([]signatureArc, len(arcs)),
	}

	switch {
	case !structural:
		sig.final = quantize(t.Final(state), delta)
	case t.IsFinal(state):
		sig.final = 1
	}

	h := combineHash(mix32(sig.block), mix64(sig.final))
	for i, arc := range arcs {
		sa := signatureArc{in: arc.In, out: arc.Out, dest: blocks[arc.Dest]}
		if !structural {
			sa.weight = quantize(arc.Weight, delta)
		}
		sig.arcs[i] = sa
		h = combineHash(h, mix32(sa.in))
		h = combineHash(h, mix32(sa.out))
		h = combineHash(h, mix64(sa.weight))
		h = combineHash(h, mix32(sa.dest))
	}
	sig.hash = h
	return sig
}

func (s *signature) Hash() uint64 {
	return s.hash
}

func (s *signature) Equals(other Hashable) bool {
	o, ok := other.(*signature)
	if !ok || o == nil {
		return false
	}
	return s.hash == o.hash && s.block == o.block && s.final == o.final && slices.Equal(s.arcs, o.arcs)
}
