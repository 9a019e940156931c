// Package grammar declares context-free grammars for the table builder.
//
// A grammar is declared with a Builder. Production bodies are written in a
// small clause language: uppercase words are terminals, lowercase words
// are nonterminals, and the postfix operators ?, * and + expand into
// synthetic productions.
package grammar

import "fmt"

// Reserved symbol names.
const (
	// EOS is the terminal that ends every token stream.
	EOS = "EOS"
	// ERROR is the error-recovery pseudo-terminal.
	ERROR = "ERROR"
	// StartSymbol is the left-hand side of the augmented start rule.
	StartSymbol = "!start"
)

// SymbolKind distinguishes terminals, nonterminals and the item dot.
type SymbolKind int

const (
	Terminal SymbolKind = iota
	Nonterminal
	Dot
)

func (k SymbolKind) String() string {
	switch k {
	case Terminal:
		return "TERM"
	case Nonterminal:
		return "NONTERM"
	case Dot:
		return "DOT"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is a grammar symbol. Symbols are compared with ==.
type Symbol struct {
	Kind SymbolKind
	Name string
}

// Term returns a terminal symbol.
func Term(name string) Symbol { return Symbol{Kind: Terminal, Name: name} }

// Nonterm returns a nonterminal symbol.
func Nonterm(name string) Symbol { return Symbol{Kind: Nonterminal, Name: name} }

// DotSymbol marks the parse position inside a rule body.
var DotSymbol = Symbol{Kind: Dot}

func (s Symbol) String() string {
	if s.Kind == Dot {
		return "·"
	}
	return s.Name
}
