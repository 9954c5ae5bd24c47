package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/geange/transducer"
)

type yamlDocument struct {
	Kind   string      `yaml:"kind"`
	States int         `yaml:"states"`
	Finals []yamlFinal `yaml:"finals,omitempty"`
	Arcs   []yamlArc   `yaml:"arcs,omitempty"`
}

type yamlFinal struct {
	State  int      `yaml:"state"`
	Weight *float64 `yaml:"weight,omitempty"`
}

type yamlArc struct {
	From   int      `yaml:"from"`
	To     int      `yaml:"to"`
	In     string   `yaml:"in"`
	Out    string   `yaml:"out"`
	Weight *float64 `yaml:"weight,omitempty"`
}

type yamlReader struct {
	decoder *yaml.Decoder
	index   int
	guard   kindGuard
}

func newYAMLReader(r io.Reader) *yamlReader {
	return &yamlReader{decoder: yaml.NewDecoder(r)}
}

func (r *yamlReader) ReadNext() (*transducer.Transducer, error) {
	var doc yamlDocument
	if err := r.decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: document %d: %v", ErrMalformed, r.index, err)
	}
	index := r.index
	r.index++

	kind, err := transducer.ParseKind(doc.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: document %d: %v", ErrMalformed, index, err)
	}
	if err := r.guard.check(index, kind); err != nil {
		return nil, err
	}

	symbols := transducer.NewSymbolTable()
	b := transducer.NewBuilderV1(kind, doc.States, len(doc.Arcs))
	b.SetSymbols(symbols)
	b.CreateStates(doc.States)
	one := kind.Semiring().One()
	for _, a := range doc.Arcs {
		weight := one
		if a.Weight != nil {
			weight = *a.Weight
		}
		in, out := symbols.AddSymbol(decodeSymbol(a.In)), symbols.AddSymbol(decodeSymbol(a.Out))
		if err := b.AddTransition(a.From, a.To, in, out, weight); err != nil {
			return nil, fmt.Errorf("document %d: %w", index, err)
		}
	}
	for _, f := range doc.Finals {
		weight := one
		if f.Weight != nil {
			weight = *f.Weight
		}
		if err := b.SetFinal(f.State, weight); err != nil {
			return nil, fmt.Errorf("document %d: %w", index, err)
		}
	}
	return b.Finish(), nil
}

type yamlWriter struct {
	w     *bufio.Writer
	count int
}

func newYAMLWriter(w io.Writer) *yamlWriter {
	return &yamlWriter{w: bufio.NewWriter(w)}
}

func (w *yamlWriter) Write(t *transducer.Transducer) error {
	doc := yamlDocument{Kind: t.Kind().String(), States: t.NumStates()}
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
			a := yamlArc{From: s, To: arc.Dest, In: in, Out: out}
			if weighted {
				a.Weight = &arc.Weight
			}
			doc.Arcs = append(doc.Arcs, a)
		}
		if t.IsFinal(s) {
			f := yamlFinal{State: s}
			if weighted {
				weight := t.Final(s)
				f.Weight = &weight
			}
			doc.Finals = append(doc.Finals, f)
		}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	if w.count > 0 {
		if _, err := w.w.WriteString("---\n"); err != nil {
			return err
		}
	}
	w.count++
	_, err = w.w.Write(data)
	return err
}

func (w *yamlWriter) Flush() error {
	return w.w.Flush()
}
