package grammar

import (
	"fmt"
	"strings"

	farm "github.com/dgryski/go-farm"
)

// Grammar is a validated, immutable set of rules. Rule 0 is the augmented
// start rule !start -> <start>.
type Grammar struct {
	start      string
	rules      []*Rule
	byLHS      map[string][]*Rule
	order      []string
	terminals  []string
	arrayArgs  bool
	envFactory func() any
}

// Start returns the start symbol.
func (g *Grammar) Start() string { return g.start }

// Rules returns all rules indexed by id.
func (g *Grammar) Rules() []*Rule { return g.rules }

// Rule returns the rule with the given id.
func (g *Grammar) Rule(id int) *Rule {
	if id < 0 || id >= len(g.rules) {
		return nil
	}
	return g.rules[id]
}

// RulesFor returns the rules for nonterminal lhs in declaration order.
func (g *Grammar) RulesFor(lhs string) []*Rule { return g.byLHS[lhs] }

// Nonterminals returns the nonterminals in declaration order, without the
// augmented start symbol.
func (g *Grammar) Nonterminals() []string { return g.order }

// Terminals returns the sorted terminal vocabulary, including EOS.
func (g *Grammar) Terminals() []string { return g.terminals }

// HasArrayArgs reports whether user actions receive a single []any.
func (g *Grammar) HasArrayArgs() bool { return g.arrayArgs }

// NewEnv returns a fresh environment, or nil when the grammar has none.
func (g *Grammar) NewEnv() any {
	if g.envFactory == nil {
		return nil
	}
	return g.envFactory()
}

// Invoke runs the action of rule id over the values of its body.
func (g *Grammar) Invoke(ctx Context, id int, args []any) (any, error) {
	r := g.Rule(id)
	if r == nil {
		return nil, fmt.Errorf("grammar: no rule %d", id)
	}
	if r.action == nil {
		return nil, nil
	}
	if g.arrayArgs && !r.synthetic {
		return r.action(ctx, args)
	}
	return r.action(ctx, args...)
}

// Fingerprint identifies the rule set. Tables built from grammars with
// equal fingerprints are interchangeable.
func (g *Grammar) Fingerprint() uint64 {
	return farm.Fingerprint64([]byte(g.canonical()))
}

func (g *Grammar) canonical() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "start %s\narray %t\n", g.start, g.arrayArgs)
	for _, r := range g.rules {
		fmt.Fprintf(&sb, "%d %s ->", r.ID, r.LHS)
		for _, s := range r.Symbols() {
			fmt.Fprintf(&sb, " %s:%s", s.Kind, s.Name)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String lists the rules grouped by nonterminal.
func (g *Grammar) String() string {
	width := 0
	for _, r := range g.rules {
		if len(r.LHS) > width {
			width = len(r.LHS)
		}
	}
	var sb strings.Builder
	for _, lhs := range append([]string{StartSymbol}, g.order...) {
		for _, r := range g.byLHS[lhs] {
			sb.WriteString(r.Format(width, false))
			sb.WriteByte('\n')
		}
	}
	fmt.Fprintf(&sb, "start: %s\n", g.start)
	return sb.String()
}
