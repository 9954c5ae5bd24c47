// Package codec reads and writes streams of transducers.
//
// Two text formats are supported. ATT is the tab-separated AT&T format used by HFST and
// OpenFst: one arc per line as "src dst in out [weight]", one final state per line as
// "state [weight]", transducers separated by a line holding "--". A final weight of +Inf only
// declares a state; the empty relation is written as "0\t+Inf" so that it keeps its place in
// the stream. YAML holds one document per transducer.
//
// Every stream has a single kind: the first transducer fixes it, and a later transducer of
// another kind fails with transducer.ErrInvalidInputKind. An ATT empty relation fits any kind
// and does not fix it.
package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/geange/transducer"
)

// ErrMalformed is returned, wrapped with a position, for input that is not in the stream format.
var ErrMalformed = errors.New("codec: malformed input")

const (
	epsilonShort = "@0@"
	spaceSymbol  = "@_SPACE_@"
	tabSymbol    = "@_TAB_@"
)

// Format A stream encoding.
type Format int

const (
	ATT Format = iota
	YAML
)

func (f Format) String() string {
	switch f {
	case ATT:
		return "att"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "att", "txt", "text":
		return ATT, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("unknown stream format %q", s)
}

// Reader Reads the transducers of a stream one at a time.
type Reader interface {
	// ReadNext returns the next transducer, or io.EOF once the stream is exhausted.
	ReadNext() (*transducer.Transducer, error)
}

// Writer Writes transducers to a stream.
type Writer interface {
	Write(t *transducer.Transducer) error
	// Flush pushes everything written so far to the underlying writer.
	Flush() error
}

type readerOptions struct {
	weightKind transducer.Kind
}

// ReaderOption Configures NewReader.
type ReaderOption func(*readerOptions)

// WithWeightKind Sets the kind given to weighted ATT transducers. ATT text does not name its
// semiring; the default is transducer.Tropical. YAML documents carry their own kind.
func WithWeightKind(kind transducer.Kind) ReaderOption {
	return func(o *readerOptions) {
		if kind.Weighted() {
			o.weightKind = kind
		}
	}
}

func NewReader(format Format, r io.Reader, opts ...ReaderOption) (Reader, error) {
	o := &readerOptions{weightKind: transducer.Tropical}
	for _, opt := range opts {
		opt(o)
	}
	switch format {
	case ATT:
		return newATTReader(r, o), nil
	case YAML:
		return newYAMLReader(r), nil
	}
	return nil, fmt.Errorf("unknown stream format %v", format)
}

func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case ATT:
		return newATTWriter(w), nil
	case YAML:
		return newYAMLWriter(w), nil
	}
	return nil, fmt.Errorf("unknown stream format %v", format)
}

// kindGuard Enforces the single-kind rule of a stream.
type kindGuard struct {
	kind transducer.Kind
	set  bool
}

func (g *kindGuard) check(index int, kind transducer.Kind) error {
	if !g.set {
		g.kind, g.set = kind, true
		return nil
	}
	if kind != g.kind {
		return fmt.Errorf("%w: transducer %d is %s in a %s stream",
			transducer.ErrInvalidInputKind, index, kind, g.kind)
	}
	return nil
}

func decodeSymbol(s string) string {
	switch s {
	case epsilonShort:
		return transducer.EpsilonSymbol
	case spaceSymbol:
		return " "
	case tabSymbol:
		return "\t"
	}
	return s
}

func encodeSymbol(s string) string {
	switch s {
	case transducer.EpsilonSymbol:
		return epsilonShort
	case " ":
		return spaceSymbol
	case "\t":
		return tabSymbol
	}
	return s
}

// symbolOf Names a label for output. Transducers without a symbol table print label numbers.
func symbolOf(t *transducer.Transducer, label transducer.Label) (string, error) {
	if label == transducer.Epsilon {
		return epsilonShort, nil
	}
	if t.Symbols() == nil {
		return fmt.Sprintf("%d", label), nil
	}
	s, err := t.Symbols().Symbol(label)
	if err != nil {
		return "", err
	}
	return encodeSymbol(s), nil
}
