package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/geange/transducer"
)

const attSeparator = "--"

type attReader struct {
	scanner    *bufio.Scanner
	line       int
	index      int
	weightKind transducer.Kind
	guard      kindGuard
	done       bool
}

func newATTReader(r io.Reader, o *readerOptions) *attReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &attReader{scanner: scanner, weightKind: o.weightKind}
}

type attArc struct {
	src, dst int
	in, out  string
	weight   float64
}

type attFinal struct {
	state  int
	weight float64
}

func (r *attReader) ReadNext() (*transducer.Transducer, error) {
	if r.done {
		return nil, io.EOF
	}

	var (
		arcs     []attArc
		finals   []attFinal
		weighted bool
		accepts  bool
		maxState = -1
		lines    int
	)

	for {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, err
			}
			r.done = true
			if lines == 0 {
				// Nothing after the last separator.
				return nil, io.EOF
			}
			break
		}
		r.line++
		text := strings.TrimRight(r.scanner.Text(), "\r")
		if text == attSeparator {
			break
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines++

		fields := splitATT(text)
		switch len(fields) {
		case 1, 2:
			state, err := r.parseState(fields[0])
			if err != nil {
				return nil, err
			}
			f := attFinal{state: state}
			if len(fields) == 2 {
				if f.weight, err = r.parseWeight(fields[1]); err != nil {
					return nil, err
				}
			}
			// A +Inf final weight only declares the state; it says nothing about the kind.
			if !math.IsInf(f.weight, 1) {
				weighted = weighted || len(fields) == 2
				accepts = true
			}
			finals = append(finals, f)
			maxState = max(maxState, state)
		case 4, 5:
			src, err := r.parseState(fields[0])
			if err != nil {
				return nil, err
			}
			dst, err := r.parseState(fields[1])
			if err != nil {
				return nil, err
			}
			a := attArc{src: src, dst: dst, in: decodeSymbol(fields[2]), out: decodeSymbol(fields[3])}
			if len(fields) == 5 {
				weighted = true
				if a.weight, err = r.parseWeight(fields[4]); err != nil {
					return nil, err
				}
			}
			arcs = append(arcs, a)
			maxState = max(maxState, src, dst)
		default:
			return nil, fmt.Errorf("%w: line %d: expected 1, 2, 4 or 5 fields, got %d",
				ErrMalformed, r.line, len(fields))
		}
	}

	index := r.index
	r.index++

	// The empty relation fits any stream: it takes the stream's kind if known and leaves the
	// guard unset otherwise.
	empty := len(arcs) == 0 && !accepts
	kind := transducer.Unweighted
	switch {
	case weighted:
		kind = r.weightKind
	case empty && r.guard.set:
		kind = r.guard.kind
	}
	if !empty {
		if err := r.guard.check(index, kind); err != nil {
			return nil, err
		}
	}

	symbols := transducer.NewSymbolTable()
	b := transducer.NewBuilderV1(kind, maxState+1, len(arcs))
	b.SetSymbols(symbols)
	b.CreateStates(maxState + 1)
	for _, a := range arcs {
		in, out := symbols.AddSymbol(a.in), symbols.AddSymbol(a.out)
		if err := b.AddTransition(a.src, a.dst, in, out, a.weight); err != nil {
			return nil, fmt.Errorf("transducer %d: %w", index, err)
		}
	}
	for _, f := range finals {
		if err := b.SetFinal(f.state, f.weight); err != nil {
			return nil, fmt.Errorf("transducer %d: %w", index, err)
		}
	}
	return b.Finish(), nil
}

// splitATT Splits on tabs; lines without tabs are split on runs of spaces.
func splitATT(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	return strings.Fields(line)
}

func (r *attReader) parseState(s string) (int, error) {
	state, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || state < 0 {
		return 0, fmt.Errorf("%w: line %d: bad state %q", ErrMalformed, r.line, s)
	}
	return state, nil
}

func (r *attReader) parseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: bad weight %q", ErrMalformed, r.line, s)
	}
	return w, nil
}

type attWriter struct {
	w     *bufio.Writer
	count int
}

func newATTWriter(w io.Writer) *attWriter {
	return &attWriter{w: bufio.NewWriter(w)}
}

func (w *attWriter) Write(t *transducer.Transducer) error {
	if w.count > 0 {
		if _, err := w.w.WriteString(attSeparator + "\n"); err != nil {
			return err
		}
	}
	w.count++

	if t.NumArcs() == 0 && !hasFinal(t) {
		// The empty relation still needs a line, or the section would vanish from the stream.
		_, err := w.w.WriteString("0\t" + formatWeight(math.Inf(1)) + "\n")
		return err
	}

	weighted := t.Kind().Weighted()
	for s := 0; s < t.NumStates(); s++ {
		for _, arc := range t.Arcs(s) {
			in, err := symbolOf(t, arc.In)
			if err != nil {
				return err
			}
			out, err := symbolOf(t, arc.Out)
			if err != nil {
				return err
			}
			line := fmt.Sprintf("%d\t%d\t%s\t%s", s, arc.Dest, in, out)
			if weighted {
				line += "\t" + formatWeight(arc.Weight)
			}
			if _, err := w.w.WriteString(line + "\n"); err != nil {
				return err
			}
		}
		if t.IsFinal(s) {
			line := strconv.Itoa(s)
			if weighted {
				line += "\t" + formatWeight(t.Final(s))
			}
			if _, err := w.w.WriteString(line + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *attWriter) Flush() error {
	return w.w.Flush()
}

func hasFinal(t *transducer.Transducer) bool {
	for s := 0; s < t.NumStates(); s++ {
		if t.IsFinal(s) {
			return true
		}
	}
	return false
}

func formatWeight(weight float64) string {
	return strconv.FormatFloat(weight, 'g', -1, 64)
}
