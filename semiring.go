package transducer

import (
	"fmt"
	"math"
)

// Weight is the value carried by arcs and final states. Both supported semirings
// use negated log-probabilities, so Times is addition and One is 0.
type Weight = float64

// Semiring The weight algebra of a transducer.
type Semiring interface {
	Name() string
	Zero() Weight
	One() Weight
	Plus(a, b Weight) Weight
	Times(a, b Weight) Weight
	// Divide returns a^-1 ⊗ b.
	Divide(a, b Weight) Weight
}

var (
	TropicalSemiring Semiring = tropical{}
	LogSemiring      Semiring = logSemiring{}
)

type tropical struct{}

func (tropical) Name() string { return "tropical" }

func (tropical) Zero() Weight { return math.Inf(1) }

func (tropical) One() Weight { return 0 }

func (tropical) Plus(a, b Weight) Weight { return math.Min(a, b) }

func (tropical) Times(a, b Weight) Weight { return a + b }

func (tropical) Divide(a, b Weight) Weight { return b - a }

type logSemiring struct{}

func (logSemiring) Name() string { return "log" }

func (logSemiring) Zero() Weight { return math.Inf(1) }

func (logSemiring) One() Weight { return 0 }

// Plus -log(e^-a + e^-b), computed around the smaller operand to stay finite.
func (logSemiring) Plus(a, b Weight) Weight {
	if math.IsInf(a, 1) {
		return b
	}
	if math.IsInf(b, 1) {
		return a
	}
	if a > b {
		a, b = b, a
	}
	return a - math.Log1p(math.Exp(a-b))
}

func (logSemiring) Times(a, b Weight) Weight { return a + b }

func (logSemiring) Divide(a, b Weight) Weight { return b - a }

// Kind Tells which weight algebra a transducer uses.
type Kind int

const (
	Unweighted Kind = iota
	Tropical
	Log
)

func (k Kind) String() string {
	switch k {
	case Unweighted:
		return "unweighted"
	case Tropical:
		return "tropical"
	case Log:
		return "log"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Semiring Unweighted transducers behave as tropical ones whose weights are all One.
func (k Kind) Semiring() Semiring {
	if k == Log {
		return LogSemiring
	}
	return TropicalSemiring
}

// Weighted reports whether arcs of this kind may carry weights other than One.
func (k Kind) Weighted() bool {
	return k != Unweighted
}

// ParseKind Accepts the names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "unweighted":
		return Unweighted, nil
	case "tropical":
		return Tropical, nil
	case "log":
		return Log, nil
	}
	return 0, fmt.Errorf("unknown transducer kind %q", s)
}

func isZero(w Weight) bool {
	return math.IsInf(w, 1)
}

// approxEqual compares two weights under an absolute tolerance. Zero only equals Zero.
func approxEqual(a, b Weight, delta float64) bool {
	if isZero(a) || isZero(b) {
		return isZero(a) && isZero(b)
	}
	return math.Abs(a-b) <= delta
}

// quantize Maps a weight to the integer index of its delta-sized bin.
func quantize(w Weight, delta float64) int64 {
	if isZero(w) {
		return math.MaxInt64
	}
	return int64(math.Round(w / delta))
}
