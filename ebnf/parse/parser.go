package parse

import (
	"fmt"
	"os"

	"github.com/dhamidi/forkparse/ebnflex"
	"github.com/dhamidi/forkparse/parser"
	"github.com/dhamidi/forkparse/table"
	"github.com/dhamidi/forkparse/token"
	"golang.org/x/exp/ebnf"
)

// Parser parses token streams into concrete syntax trees.
type Parser struct {
	engine   *parser.Parser
	literals map[string]bool
	accept   parser.AcceptMode
}

// Option configures NewParser.
type Option func(*options)

type options struct {
	cache  string
	accept parser.AcceptMode
	table  []table.Option
}

// WithCache keeps the parse table in the file at path.
func WithCache(path string) Option {
	return func(o *options) {
		o.cache = path
	}
}

// WithAccept selects how Parse treats ambiguous input. The default is
// AcceptFirst.
func WithAccept(mode parser.AcceptMode) Option {
	return func(o *options) {
		o.accept = mode
	}
}

// WithTableOptions passes options to the table builder.
func WithTableOptions(opts ...table.Option) Option {
	return func(o *options) {
		o.table = append(o.table, opts...)
	}
}

// NewParser compiles the productions of g reachable from start. An empty
// start selects the first lowercase production.
func NewParser(g ebnf.Grammar, start string, opts ...Option) (*Parser, error) {
	o := options{accept: parser.AcceptFirst}
	for _, opt := range opts {
		opt(&o)
	}

	converted, literals, err := Convert(g, start)
	if err != nil {
		return nil, err
	}

	var tbl *table.Table
	if o.cache != "" {
		tbl, err = table.LoadOrBuild(o.cache, converted, o.table...)
	} else {
		tbl, err = table.Build(converted, o.table...)
	}
	if err != nil {
		return nil, err
	}

	engine, err := parser.New(converted, tbl)
	if err != nil {
		return nil, err
	}
	return &Parser{engine: engine, literals: literals, accept: o.accept}, nil
}

// Engine returns the underlying table-driven parser.
func (p *Parser) Engine() *parser.Parser {
	return p.engine
}

// Parse returns the syntax tree of the input.
func (p *Parser) Parse(src token.Source) (*Node, error) {
	v, err := p.engine.Parse(p.wrap(src), parser.WithAccept(p.accept))
	if err != nil {
		return nil, err
	}
	// Several derivations under AcceptAll; the first one wins.
	if nodes, ok := v.([]any); ok {
		if len(nodes) == 0 {
			return nil, fmt.Errorf("no derivation")
		}
		v = nodes[0]
	}
	node, _ := v.(*Node)
	return node, nil
}

// ParseAll returns one syntax tree per derivation of the input.
func (p *Parser) ParseAll(src token.Source) ([]*Node, error) {
	v, err := p.engine.Parse(p.wrap(src), parser.WithAccept(parser.AcceptAll))
	if err != nil {
		return nil, err
	}
	if n, ok := v.(*Node); ok {
		return []*Node{n}, nil
	}
	var nodes []*Node
	items, _ := v.([]any)
	for _, item := range items {
		if n, ok := item.(*Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func (p *Parser) wrap(src token.Source) token.Source {
	return &cstSource{src: src, literals: p.literals}
}

// cstSource turns tokens into terminal nodes. Tokens spelling a literal
// of the grammar take that literal as their kind.
type cstSource struct {
	src      token.Source
	literals map[string]bool
}

func (s *cstSource) Next() (token.Token, error) {
	tok, err := s.src.Next()
	if err != nil {
		return tok, err
	}
	if kind := LiteralKind(tok.Literal()); s.literals[kind] {
		tok.Kind = kind
	}
	tok.Value = NewTerminal(tok)
	return tok, nil
}

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	g, err := ebnf.Parse(filename, f)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	return g, nil
}

// ParseTokens is a convenience function to parse tokens with a grammar.
func ParseTokens(g ebnf.Grammar, tokens []token.Token, start string) (*Node, error) {
	p, err := NewParser(g, start)
	if err != nil {
		return nil, err
	}
	return p.Parse(token.NewSlice(tokens...))
}

// ParseFile parses a file using a lexer grammar and parser grammar.
// Tokens of the skip kinds are dropped before parsing.
func ParseFile(lexerGrammar, parserGrammar ebnf.Grammar, input []byte, filename, start string, skip ...string) (*Node, error) {
	p, err := NewParser(parserGrammar, start)
	if err != nil {
		return nil, err
	}

	lexer := ebnflex.NewLexer(lexerGrammar, input, filename)
	lexer.SetSkipKinds(skip...)
	return p.Parse(lexer)
}
