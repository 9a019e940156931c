// Package token defines the tokens consumed by the parse engine.
package token

import (
	"fmt"
	"io"
)

// Position represents a location in source code.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position carries a line number.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Token is a lexical token. Kind is matched against terminal names,
// Value is handed to semantic actions.
type Token struct {
	Kind     string
	Value    any
	Position Position
}

// New returns a token without position information.
func New(kind string, value any) Token {
	return Token{Kind: kind, Value: value}
}

// Literal returns the token value when it is a string.
func (t Token) Literal() string {
	if s, ok := t.Value.(string); ok {
		return s
	}
	return ""
}

func (t Token) String() string {
	if t.Value == nil {
		return fmt.Sprintf("%s %s", t.Position, t.Kind)
	}
	return fmt.Sprintf("%s %s %v", t.Position, t.Kind, t.Value)
}

// Source produces tokens one at a time. Next returns io.EOF once the
// input is exhausted.
type Source interface {
	Next() (Token, error)
}

// Slice is a Source over a fixed list of tokens.
type Slice struct {
	tokens []Token
	next   int
}

// NewSlice returns a Source yielding tokens in order.
func NewSlice(tokens ...Token) *Slice {
	return &Slice{tokens: tokens}
}

// Next implements Source.
func (s *Slice) Next() (Token, error) {
	if s.next >= len(s.tokens) {
		return Token{}, io.EOF
	}
	tok := s.tokens[s.next]
	s.next++
	return tok, nil
}

// Collect drains src into a slice.
func Collect(src Source) ([]Token, error) {
	var tokens []Token
	for {
		tok, err := src.Next()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}
