package transducer

import (
	"log/slog"

	"github.com/geange/transducer/internal/logging"
)

const (
	// DefaultDelta Tolerance under which two weights are considered equal.
	DefaultDelta = 1.0 / 1024

	// DefaultMaxRelaxations Extra times a state may be relaxed while computing log-semiring
	// potentials, on top of the state count. A loop of weight w needs about 21/w relaxations.
	DefaultMaxRelaxations = 1 << 20

	// Convergence threshold of the shortest-distance computation.
	shortestDelta = 1e-9
)

// InstabilityPolicy Decides what Minimize does when two states can only be told apart by weights
// closer to each other than the tolerance.
type InstabilityPolicy int

const (
	// FailOnInstability returns ErrNumericInstability.
	FailOnInstability InstabilityPolicy = iota
	// WarnOnInstability logs a warning and keeps the states apart.
	WarnOnInstability
)

func (p InstabilityPolicy) String() string {
	if p == WarnOnInstability {
		return "warn"
	}
	return "error"
}

type options struct {
	delta          float64
	policy         InstabilityPolicy
	logger         *slog.Logger
	maxRelaxations int
}

func newOptions(opts ...Option) *options {
	o := &options{
		delta:          DefaultDelta,
		policy:         FailOnInstability,
		logger:         logging.NewNop(),
		maxRelaxations: DefaultMaxRelaxations,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option Configures Minimize and Push.
type Option func(*options)

// WithDelta Sets the weight comparison tolerance. Non-positive values are ignored.
func WithDelta(delta float64) Option {
	return func(o *options) {
		if delta > 0 {
			o.delta = delta
		}
	}
}

func WithInstabilityPolicy(policy InstabilityPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithLogger Sets where warnings and debug statistics go. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxRelaxations Bounds how often a state is relaxed while pushing log weights before
// the sums are declared divergent. Tropical pushing needs no bound: it detects negative
// cycles exactly.
func WithMaxRelaxations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRelaxations = n
		}
	}
}
