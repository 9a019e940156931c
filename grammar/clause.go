package grammar

import (
	"fmt"
	"strings"

	"github.com/dhamidi/forkparse/ebnflex"
	"github.com/dhamidi/forkparse/token"
	"golang.org/x/exp/ebnf"
)

const clauseLexicon = `
TERM = upper { upper | digit | "_" } .
NONTERM = lower { lower | digit | "_" } .
QUESTION = "?" .
STAR = "*" .
PLUS = "+" .
WS = space { space } .
upper = "A" … "Z" .
lower = "a" … "z" .
digit = "0" … "9" .
space = " " | "\t" | "\n" | "\r" .
`

var clauseGrammar = func() ebnf.Grammar {
	g, err := ebnf.Parse("clause", strings.NewReader(clauseLexicon))
	if err != nil {
		panic(fmt.Sprintf("grammar: clause lexicon: %v", err))
	}
	return g
}()

// lexClause splits a clause into words and operators.
func lexClause(clause string) ([]token.Token, error) {
	lex := ebnflex.NewLexer(clauseGrammar, []byte(clause), "")
	lex.SetSkipKinds("WS")
	tokens, err := lex.Tokenize()
	if err != nil {
		return nil, err
	}
	for _, tok := range tokens {
		if tok.Kind == ebnflex.Illegal {
			return nil, fmt.Errorf("unexpected %q at column %d", tok.Literal(), tok.Position.Column)
		}
	}
	return tokens, nil
}

// isNonterminalName reports whether name lexes as a single nonterminal word.
func isNonterminalName(name string) bool {
	tokens, err := lexClause(name)
	return err == nil && len(tokens) == 1 && tokens[0].Kind == "NONTERM"
}

// expandClause turns a clause into body symbols, adding synthetic
// productions for EBNF operators as needed.
func (b *Builder) expandClause(clause string) ([]Symbol, error) {
	tokens, err := lexClause(clause)
	if err != nil {
		return nil, err
	}

	var syms []Symbol
	prevEnd := -1
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Position.Offset == prevEnd {
			return nil, fmt.Errorf("mixed-case word at column %d", tok.Position.Column)
		}
		prevEnd = tok.Position.Offset + len(tok.Literal())

		var sym Symbol
		switch tok.Kind {
		case "TERM":
			sym = Term(tok.Literal())
		case "NONTERM":
			sym = Nonterm(tok.Literal())
		default:
			return nil, fmt.Errorf("operator %q without operand at column %d", tok.Literal(), tok.Position.Column)
		}

		if i+1 < len(tokens) {
			switch tokens[i+1].Kind {
			case "QUESTION":
				sym = b.Question(sym)
				i++
			case "STAR":
				sym = b.Star(sym)
				i++
			case "PLUS":
				sym = b.Plus(sym)
				i++
			}
		}
		syms = append(syms, sym)
	}

	return syms, nil
}
