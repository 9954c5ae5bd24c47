package transducer

import "fmt"

// Label Identifies an input or output symbol.
type Label = int

const (
	Epsilon Label = 0

	EpsilonSymbol = "@_EPSILON_SYMBOL_@"
)

// SymbolTable maps symbol strings to labels and back. Epsilon is always bound to 0.
// A table is not safe for concurrent writes; once attached to a finished
// transducer it is only read.
type SymbolTable struct {
	symbols []string
	labels  map[string]Label
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		symbols: []string{EpsilonSymbol},
		labels:  map[string]Label{EpsilonSymbol: Epsilon},
	}
}

// AddSymbol Returns the label of symbol, binding the next free label if it is new.
func (st *SymbolTable) AddSymbol(symbol string) Label {
	if label, ok := st.labels[symbol]; ok {
		return label
	}
	label := len(st.symbols)
	st.symbols = append(st.symbols, symbol)
	st.labels[symbol] = label
	return label
}

func (st *SymbolTable) Find(symbol string) (Label, bool) {
	label, ok := st.labels[symbol]
	return label, ok
}

// Symbol Returns the string bound to label.
func (st *SymbolTable) Symbol(label Label) (string, error) {
	if label < 0 || label >= len(st.symbols) {
		return "", fmt.Errorf("label %d not in symbol table", label)
	}
	return st.symbols[label], nil
}

// Size How many symbols are bound, epsilon included.
func (st *SymbolTable) Size() int {
	return len(st.symbols)
}
