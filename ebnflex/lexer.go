// Package ebnflex provides lexical scanning based on EBNF grammars.
package ebnflex

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dhamidi/forkparse/token"
	"golang.org/x/exp/ebnf"
)

// Illegal is the kind of tokens produced for input no production matches.
const Illegal = "ILLEGAL"

// memoKey is used for memoization of match results.
type memoKey struct {
	name   string
	offset int
}

// Lexer tokenizes input based on an EBNF grammar. Productions whose name
// starts with an uppercase letter are token kinds.
type Lexer struct {
	grammar  ebnf.Grammar
	kinds    []string
	skip     map[string]bool
	input    []byte
	filename string
	pos      int
	line     int
	column   int
	memo     map[memoKey]int  // memoization cache: key -> match length (-1 = no match)
	visiting map[memoKey]bool // cycle detection
}

// NewLexer creates a lexer for the given grammar and input.
func NewLexer(grammar ebnf.Grammar, input []byte, filename string) *Lexer {
	return &Lexer{
		grammar:  grammar,
		kinds:    TokenKinds(grammar),
		skip:     make(map[string]bool),
		input:    input,
		filename: filename,
		line:     1,
		column:   1,
		memo:     make(map[memoKey]int),
		visiting: make(map[memoKey]bool),
	}
}

// TokenKinds returns the sorted names of the token productions in grammar.
func TokenKinds(grammar ebnf.Grammar) []string {
	var kinds []string
	for name, prod := range grammar {
		if prod.Expr == nil || !IsTokenName(name) {
			continue
		}
		kinds = append(kinds, name)
	}
	sort.Strings(kinds)
	return kinds
}

// IsTokenName reports whether name denotes a token production.
func IsTokenName(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	grammar, err := ebnf.Parse(filename, f)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	return grammar, nil
}

// SetSkipKinds sets which token kinds Next drops, typically whitespace
// and comments.
func (l *Lexer) SetSkipKinds(kinds ...string) {
	l.skip = make(map[string]bool, len(kinds))
	for _, k := range kinds {
		l.skip[k] = true
	}
}

// Position returns the current position in the input.
func (l *Lexer) Position() token.Position {
	return token.Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

// NextToken returns the next token from the input, including skipped kinds.
// It tries every token production and returns the longest match; on a tie
// the production whose name sorts first wins.
func (l *Lexer) NextToken() (token.Token, error) {
	if l.pos >= len(l.input) {
		return token.Token{Kind: "EOF", Position: l.Position()}, io.EOF
	}

	startPos := l.Position()
	startOffset := l.pos

	// Clear memoization cache for each new token (positions change)
	l.memo = make(map[memoKey]int)

	var bestKind string
	var bestLen int

	for _, name := range l.kinds {
		l.visiting = make(map[memoKey]bool)
		matchLen := l.tryMatch(l.grammar[name].Expr, startOffset)
		if matchLen > bestLen {
			bestLen = matchLen
			bestKind = name
		}
	}

	if bestLen == 0 {
		_, size := utf8.DecodeRune(l.input[startOffset:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		return token.Token{
			Kind:     Illegal,
			Value:    string(l.input[startOffset:l.pos]),
			Position: startPos,
		}, nil
	}

	for i := 0; i < bestLen; i++ {
		l.advance()
	}

	return token.Token{
		Kind:     bestKind,
		Value:    string(l.input[startOffset : startOffset+bestLen]),
		Position: startPos,
	}, nil
}

// Next implements token.Source, dropping skipped kinds.
func (l *Lexer) Next() (token.Token, error) {
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tok, err
		}
		if !l.skip[tok.Kind] {
			return tok, nil
		}
	}
}

// tryMatch attempts to match an expression at the given offset.
// Returns the length of the match, or 0 if no match.
func (l *Lexer) tryMatch(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case *ebnf.Token:
		return l.tryMatchToken(e.String, offset)

	case *ebnf.Range:
		return l.tryMatchRange(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		total := 0
		pos := offset
		for _, item := range e {
			n := l.tryMatch(item, pos)
			if n == 0 && !nullable(item) {
				return 0
			}
			total += n
			pos += n
		}
		return total

	case ebnf.Alternative:
		best := 0
		for _, alt := range e {
			if n := l.tryMatch(alt, offset); n > best {
				best = n
			}
		}
		return best

	case *ebnf.Repetition:
		total := 0
		pos := offset
		for {
			n := l.tryMatch(e.Body, pos)
			if n == 0 {
				break
			}
			total += n
			pos += n
		}
		return total

	case *ebnf.Option:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Group:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Name:
		return l.tryMatchName(e.String, offset)

	default:
		return 0
	}
}

// nullable reports whether expr may match the empty string, so a zero
// length match inside a sequence does not fail it.
func nullable(expr ebnf.Expression) bool {
	switch e := expr.(type) {
	case *ebnf.Option, *ebnf.Repetition:
		return true
	case *ebnf.Group:
		return nullable(e.Body)
	}
	return false
}

// tryMatchName matches a named production with memoization and cycle detection.
func (l *Lexer) tryMatchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}

	if result, ok := l.memo[key]; ok {
		if result == -1 {
			return 0
		}
		return result
	}

	// Left recursion at the same offset cannot make progress.
	if l.visiting[key] {
		return 0
	}

	prod, ok := l.grammar[name]
	if !ok || prod.Expr == nil {
		l.memo[key] = -1
		return 0
	}

	l.visiting[key] = true
	result := l.tryMatch(prod.Expr, offset)
	delete(l.visiting, key)

	if result == 0 {
		l.memo[key] = -1
	} else {
		l.memo[key] = result
	}

	return result
}

// tryMatchToken matches a literal string token.
func (l *Lexer) tryMatchToken(lit string, offset int) int {
	s := Unquote(lit)
	if s == "" || offset+len(s) > len(l.input) {
		return 0
	}
	if string(l.input[offset:offset+len(s)]) == s {
		return len(s)
	}
	return 0
}

// tryMatchRange matches a character range (e.g., "a"…"z").
func (l *Lexer) tryMatchRange(begin, end string, offset int) int {
	if offset >= len(l.input) {
		return 0
	}
	lo, _ := utf8.DecodeRuneInString(Unquote(begin))
	hi, _ := utf8.DecodeRuneInString(Unquote(end))
	ch, size := utf8.DecodeRune(l.input[offset:])
	if ch >= lo && ch <= hi {
		return size
	}
	return 0
}

// Unquote returns the text of an EBNF token literal.
func Unquote(lit string) string {
	if s, err := strconv.Unquote(lit); err == nil {
		return s
	}
	return strings.Trim(lit, "\"`")
}

// Tokenize reads all tokens from input, dropping skipped kinds.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	return token.Collect(l)
}
