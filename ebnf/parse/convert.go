package parse

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dhamidi/forkparse/ebnflex"
	"github.com/dhamidi/forkparse/grammar"
	"go.uber.org/multierr"
	"golang.org/x/exp/ebnf"
)

// DefaultStart returns the first lowercase production of g in source
// order, or "" if there is none.
func DefaultStart(g ebnf.Grammar) string {
	names := productions(g)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// productions returns the syntactic productions of g in source order.
func productions(g ebnf.Grammar) []string {
	var names []string
	for name, prod := range g {
		if !ebnflex.IsTokenName(name) && prod.Name != nil {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return g[names[i]].Pos().Offset < g[names[j]].Pos().Offset
	})
	return names
}

// LiteralKind is the terminal name of a string literal in a grammar.
func LiteralKind(lit string) string {
	return strconv.Quote(lit)
}

type converter struct {
	src      ebnf.Grammar
	b        *grammar.Builder
	literals map[string]bool
	groups   int
	current  string
	errs     error
}

// Convert translates the productions of g reachable from start into a
// grammar whose actions build *Node trees. Uppercase names are token
// kinds; string literals match tokens with that literal text. It also
// returns the set of literals, keyed by their terminal names.
func Convert(g ebnf.Grammar, start string) (*grammar.Grammar, map[string]bool, error) {
	if start == "" {
		start = DefaultStart(g)
	}
	c := &converter{
		src:      g,
		b:        grammar.NewBuilder(),
		literals: make(map[string]bool),
	}
	c.b.Start(start)

	for _, name := range c.reachable(start) {
		c.current = name
		prod := g[name]
		action := nodeAction(name)
		for _, alt := range alternatives(prod.Expr) {
			c.b.Rule(name, c.symbols(alt), action)
		}
	}

	built, err := c.b.Build()
	if err = multierr.Append(c.errs, err); err != nil {
		return nil, nil, err
	}
	return built, c.literals, nil
}

// reachable lists the syntactic productions reachable from start in
// source order.
func (c *converter) reachable(start string) []string {
	seen := map[string]bool{}
	var visit func(expr ebnf.Expression)
	visit = func(expr ebnf.Expression) {
		switch e := expr.(type) {
		case *ebnf.Name:
			if ebnflex.IsTokenName(e.String) || seen[e.String] {
				return
			}
			seen[e.String] = true
			if prod, ok := c.src[e.String]; ok {
				visit(prod.Expr)
			}
		case ebnf.Alternative:
			for _, x := range e {
				visit(x)
			}
		case ebnf.Sequence:
			for _, x := range e {
				visit(x)
			}
		case *ebnf.Group:
			visit(e.Body)
		case *ebnf.Option:
			visit(e.Body)
		case *ebnf.Repetition:
			visit(e.Body)
		}
	}
	visit(&ebnf.Name{String: start})

	var names []string
	for _, name := range productions(c.src) {
		if seen[name] {
			names = append(names, name)
		}
	}
	return names
}

func alternatives(expr ebnf.Expression) []ebnf.Expression {
	if alt, ok := expr.(ebnf.Alternative); ok {
		return alt
	}
	return []ebnf.Expression{expr}
}

func (c *converter) symbols(expr ebnf.Expression) []grammar.Symbol {
	switch e := expr.(type) {
	case nil:
		return nil
	case ebnf.Sequence:
		var syms []grammar.Symbol
		for _, x := range e {
			syms = append(syms, c.symbols(x)...)
		}
		return syms
	case *ebnf.Name:
		if ebnflex.IsTokenName(e.String) {
			return []grammar.Symbol{grammar.Term(e.String)}
		}
		return []grammar.Symbol{grammar.Nonterm(e.String)}
	case *ebnf.Token:
		kind := LiteralKind(ebnflex.Unquote(e.String))
		c.literals[kind] = true
		return []grammar.Symbol{grammar.Term(kind)}
	case *ebnf.Group:
		if _, ok := e.Body.(ebnf.Alternative); ok {
			return []grammar.Symbol{c.group(e.Body)}
		}
		return c.symbols(e.Body)
	case *ebnf.Option:
		return []grammar.Symbol{c.b.Question(c.single(e.Body))}
	case *ebnf.Repetition:
		return []grammar.Symbol{c.b.Star(c.single(e.Body))}
	case ebnf.Alternative:
		return []grammar.Symbol{c.group(e)}
	case *ebnf.Range:
		c.fail(e, "character ranges are only allowed in token productions")
	default:
		c.fail(expr, "unsupported expression")
	}
	return nil
}

// single returns one symbol standing for expr.
func (c *converter) single(expr ebnf.Expression) grammar.Symbol {
	if g, ok := expr.(*ebnf.Group); ok {
		expr = g.Body
	}
	if _, ok := expr.(ebnf.Alternative); ok {
		return c.group(expr)
	}
	syms := c.symbols(expr)
	if len(syms) == 1 {
		return syms[0]
	}
	return c.groupOf([][]grammar.Symbol{syms})
}

// group introduces an anonymous production for expr. Its value is the
// list of nodes it matched, which the enclosing node adopts.
func (c *converter) group(expr ebnf.Expression) grammar.Symbol {
	var bodies [][]grammar.Symbol
	for _, alt := range alternatives(expr) {
		bodies = append(bodies, c.symbols(alt))
	}
	return c.groupOf(bodies)
}

func (c *converter) groupOf(bodies [][]grammar.Symbol) grammar.Symbol {
	c.groups++
	name := fmt.Sprintf("!group_%d", c.groups)
	for _, body := range bodies {
		c.b.Rule(name, body, flatten)
	}
	return grammar.Nonterm(name)
}

func (c *converter) fail(expr ebnf.Expression, msg string) {
	pos := c.src[c.current].Pos()
	if expr != nil {
		pos = expr.Pos()
	}
	c.errs = multierr.Append(c.errs, &grammar.MalformedError{
		Production: c.current,
		Msg:        fmt.Sprintf("%s: %s", pos, msg),
	})
}

func nodeAction(kind string) grammar.Action {
	return func(_ grammar.Context, args ...any) (any, error) {
		n := NewNonTerminal(kind)
		for _, v := range args {
			n.add(v)
		}
		return n, nil
	}
}

func flatten(_ grammar.Context, args ...any) (any, error) {
	return append([]any(nil), args...), nil
}
