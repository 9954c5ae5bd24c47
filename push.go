package transducer

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// Push
// Connects t and pushes its weights toward the start state: afterwards every state except the
// start has outgoing arcs and final weight whose ⊕-sum is One, and the start state carries the
// total weight of the relation. Every path keeps its weight. Unweighted transducers are only
// connected.
func Push(t *Transducer, opts ...Option) (*Transducer, error) {
	o := newOptions(opts...)
	c := Connect(t)
	if !c.kind.Weighted() {
		return c, nil
	}

	potentials, err := shortestDistance(c, o)
	if err != nil {
		return nil, err
	}
	// The start has no incoming arc to absorb its potential, so it keeps it.
	potentials[0] = c.kind.Semiring().One()
	return reweight(c, potentials), nil
}

// shortestDistance Computes, for every state q of a connected transducer, the ⊕-sum of the weights
// of all paths from q to a final state, final weight included. This is the generic single-source
// shortest-distance algorithm run on the reversed transducer from all final states.
func shortestDistance(t *Transducer, o *options) ([]Weight, error) {
	sr := t.kind.Semiring()
	numStates := t.NumStates()

	distance := make([]Weight, numStates)
	residual := make([]Weight, numStates)
	for s := range distance {
		distance[s] = sr.Zero()
		residual[s] = sr.Zero()
	}

	reverse := reverseAdjacency(t)
	queued := bitset.New(uint(numStates))
	queue := make([]int, 0, numStates)
	for s := 0; s < numStates; s++ {
		if t.IsFinal(s) {
			distance[s] = t.Final(s)
			residual[s] = t.Final(s)
			queue = append(queue, s)
			queued.Set(uint(s))
		}
	}

	// Without a negative cycle a tropical state is relaxed at most once per pass of the FIFO
	// queue, and there are at most numStates passes. Log sums may converge slowly, so they
	// get the configured budget instead.
	limit := numStates + 1
	if t.kind == Log {
		limit = numStates + o.maxRelaxations
	}
	relaxed := make([]int, numStates)
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		queued.Clear(uint(q))

		relaxed[q]++
		if relaxed[q] > limit {
			return nil, fmt.Errorf("%w: weights of state %d did not converge after %d relaxations",
				ErrNumericInstability, q, limit)
		}

		r := residual[q]
		residual[q] = sr.Zero()
		for _, in := range reverse[q] {
			p := in.source
			extended := sr.Times(in.Weight, r)
			updated := sr.Plus(distance[p], extended)
			if approxEqual(distance[p], updated, shortestDelta) {
				continue
			}
			distance[p] = updated
			residual[p] = sr.Plus(residual[p], extended)
			if !queued.Test(uint(p)) {
				queued.Set(uint(p))
				queue = append(queue, p)
			}
		}
	}

	for s, d := range distance {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("%w: state %d has potential %v", ErrNumericInstability, s, d)
		}
	}
	return distance, nil
}

// reweight Moves weight along arcs by the given potentials:
// w(p->q) becomes V(p)^-1 ⊗ w ⊗ V(q) and the final weight f(q) becomes V(q)^-1 ⊗ f(q).
// The weight of a path from the start changes by V(start)^-1 only.
func reweight(t *Transducer, potentials []Weight) *Transducer {
	sr := t.kind.Semiring()
	b := NewBuilderV1(t.kind, t.NumStates(), t.NumArcs())
	b.SetSymbols(t.symbols)
	b.CreateStates(t.NumStates())

	for s := 0; s < t.NumStates(); s++ {
		if t.IsFinal(s) {
			_ = b.SetFinal(s, cleanWeight(sr.Divide(potentials[s], t.Final(s))))
		}
		for _, arc := range t.arcsOf(s) {
			arc.Weight = cleanWeight(sr.Divide(potentials[s], sr.Times(arc.Weight, potentials[arc.Dest])))
			_ = b.AddArc(s, arc)
		}
	}
	return b.Finish()
}

// cleanWeight Snaps floating-point noise around One to exactly One.
func cleanWeight(w Weight) Weight {
	if math.Abs(w) < shortestDelta {
		return 0
	}
	return w
}
