package transducer

import "errors"

var (
	// ErrInvalidInputKind is returned when a transducer is not of the kind an operation
	// expects: nondeterministic input to Minimize, weights on an unweighted
	// transducer, or a stream that mixes kinds.
	ErrInvalidInputKind = errors.New("transducer: invalid input kind")

	// ErrNumericInstability is returned when weights cannot be compared
	// consistently under the configured tolerance.
	ErrNumericInstability = errors.New("transducer: numeric instability")

	ErrStateOutOfRange = errors.New("transducer: state out of range")
)
