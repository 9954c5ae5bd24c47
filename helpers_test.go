package transducer

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	la = 1 + iota
	lb
	lc
	ld
	lx
)

type testArc struct {
	src, dst int
	in, out  Label
	w        Weight
}

// build Creates numStates states, the given arcs, and the given final weights.
func build(t *testing.T, kind Kind, numStates int, arcs []testArc, finals map[int]Weight) *Transducer {
	t.Helper()
	b := NewBuilder(kind)
	b.CreateStates(numStates)
	for _, a := range arcs {
		require.NoError(t, b.AddTransition(a.src, a.dst, a.in, a.out, a.w))
	}
	for s, w := range finals {
		require.NoError(t, b.SetFinal(s, w))
	}
	return b.Finish()
}

func pairKey(pairs []Pair) string {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d:%d", p.In, p.Out)
	}
	return sb.String()
}

// pathWeights Enumerates every accepting label path of at most maxLen arcs starting at state from,
// mapped to the ⊕-sum of its weights.
func pathWeights(tr *Transducer, from, maxLen int) map[string]Weight {
	sr := tr.Kind().Semiring()
	result := make(map[string]Weight)
	var walk func(state int, pairs []Pair, w Weight)
	walk = func(state int, pairs []Pair, w Weight) {
		if tr.IsFinal(state) {
			key := pairKey(pairs)
			total := sr.Times(w, tr.Final(state))
			if prev, ok := result[key]; ok {
				total = sr.Plus(prev, total)
			}
			result[key] = total
		}
		if len(pairs) == maxLen {
			return
		}
		for _, arc := range tr.Arcs(state) {
			walk(arc.Dest, append(pairs[:len(pairs):len(pairs)], Pair{arc.In, arc.Out}), sr.Times(w, arc.Weight))
		}
	}
	if tr.NumStates() > 0 {
		walk(from, nil, sr.One())
	}
	return result
}

// assertSameRelation Checks that both transducers give every path up to maxLen the same weight.
func assertSameRelation(t *testing.T, want, got *Transducer, maxLen int) {
	t.Helper()
	wantPaths := pathWeights(want, 0, maxLen)
	gotPaths := pathWeights(got, 0, maxLen)
	require.Equal(t, len(wantPaths), len(gotPaths), "number of accepted paths")
	for key, w := range wantPaths {
		g, ok := gotPaths[key]
		if assert.True(t, ok, "path %q missing", key) {
			assert.InDelta(t, w, g, 1e-6, "weight of path %q", key)
		}
	}
}

// assertMinimal Checks that no two states of tr have residual relations that are equal up to a
// constant weight. tr must be deterministic and connected.
func assertMinimal(t *testing.T, tr *Transducer) {
	t.Helper()
	for p := 0; p < tr.NumStates(); p++ {
		for q := p + 1; q < tr.NumStates(); q++ {
			assert.False(t, equivalentUpToConstant(tr, p, q),
				"states %d and %d are indistinguishable", p, q)
		}
	}
}

// equivalentUpToConstant Walks the pairs of states reached from (p, q) on the same label paths,
// tracking the weight difference accumulated along the way. Every state is co-accessible, so
// the residuals differ by a constant exactly when both sides always offer the same arcs and
// finality, each pair is only ever reached with one difference, and all final differences agree.
func equivalentUpToConstant(tr *Transducer, p, q int) bool {
	type pair struct{ a, b int }
	diff := map[pair]Weight{{p, q}: 0}
	queue := []pair{{p, q}}
	shift := math.NaN()
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := diff[cur]

		if tr.IsFinal(cur.a) != tr.IsFinal(cur.b) {
			return false
		}
		if tr.IsFinal(cur.a) {
			got := d + tr.Final(cur.a) - tr.Final(cur.b)
			if math.IsNaN(shift) {
				shift = got
			} else if math.Abs(got-shift) > 1e-6 {
				return false
			}
		}

		arcsA, arcsB := tr.Arcs(cur.a), tr.Arcs(cur.b)
		if len(arcsA) != len(arcsB) {
			return false
		}
		for i := range arcsA {
			x, y := arcsA[i], arcsB[i]
			if x.In != y.In || x.Out != y.Out {
				return false
			}
			next := pair{x.Dest, y.Dest}
			nd := d + x.Weight - y.Weight
			if prev, ok := diff[next]; ok {
				if math.Abs(prev-nd) > 1e-6 {
					return false
				}
				continue
			}
			diff[next] = nd
			queue = append(queue, next)
		}
	}
	return true
}

// randomTransducer Builds a deterministic transducer over input labels a, b, c with small integer
// weights, so that tropical pushing is exact in floating point. Log weights are at least 2, which
// keeps the mass leaving any state below 1 and every cycle convergent.
func randomTransducer(t *testing.T, rng *rand.Rand, kind Kind, numStates int) *Transducer {
	t.Helper()
	b := NewBuilder(kind)
	b.CreateStates(numStates)
	weight := func() Weight {
		switch kind {
		case Tropical:
			return Weight(rng.Intn(3))
		case Log:
			return Weight(2 + rng.Intn(3))
		}
		return 0
	}
	for s := 0; s < numStates; s++ {
		for _, in := range []Label{la, lb, lc} {
			if rng.Float64() < 0.55 {
				out := Label(la + rng.Intn(2))
				require.NoError(t, b.AddTransition(s, rng.Intn(numStates), in, out, weight()))
			}
		}
		if rng.Float64() < 0.4 {
			require.NoError(t, b.SetFinal(s, weight()))
		}
	}
	return b.Finish()
}
