package table

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dhamidi/forkparse/grammar"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("forkparse.table")

// itemSet is an insertion-ordered set of rules.
type itemSet struct {
	rules []*grammar.Rule
}

func (s *itemSet) add(r *grammar.Rule) bool {
	for _, have := range s.rules {
		if have.Equal(r) {
			return false
		}
	}
	s.rules = append(s.rules, r)
	return true
}

// key is equal for structurally equal sets regardless of insertion order.
func (s *itemSet) key() string {
	items := make([]string, len(s.rules))
	for i, r := range s.rules {
		items[i] = fmt.Sprintf("%d.%d", r.Slot, r.DotIndex())
	}
	sort.Strings(items)
	return strings.Join(items, " ")
}

// closure adds the initial items of every nonterminal that follows a dot
// until nothing changes.
func closure(g *grammar.Grammar, s *itemSet) *itemSet {
	for i := 0; i < len(s.rules); i++ {
		next, ok := s.rules[i].Next()
		if !ok || next.Kind != grammar.Nonterminal {
			continue
		}
		for _, r := range g.RulesFor(next.Name) {
			s.add(r)
		}
	}
	return s
}

// Option configures Build.
type Option func(*config)

type config struct {
	explain io.Writer
	color   bool
}

// WithExplain writes the rules and the states with their items and
// actions to w.
func WithExplain(w io.Writer) Option {
	return func(c *config) {
		c.explain = w
	}
}

// WithColor enables ANSI headings in the explain output.
func WithColor(enabled bool) Option {
	return func(c *config) {
		c.color = enabled
	}
}

type builder struct {
	g      *grammar.Grammar
	t      *Table
	states map[string]int
}

// Build constructs the canonical LR(0) automaton of g. Equal grammars
// produce equal tables.
func Build(g *grammar.Grammar, opts ...Option) (*Table, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &builder{
		g: g,
		t: &Table{
			Fingerprint: g.Fingerprint(),
			Start:       g.Start(),
			Terminals:   append([]string(nil), g.Terminals()...),
		},
		states: make(map[string]int),
	}
	for _, r := range g.Rules() {
		b.t.Rules = append(b.t.Rules, RuleInfo{ID: r.ID, LHS: r.LHS, Len: r.Len()})
	}

	start := &itemSet{}
	start.add(g.Rule(0))
	b.state(closure(g, start))

	for i := 0; i < len(b.t.Rows); i++ {
		b.expand(b.t.Rows[i])
	}

	log.Debugf("built %d states for %s with %d conflicting states", len(b.t.Rows), g.Start(), b.t.Conflicts())

	if cfg.explain != nil {
		if err := explain(cfg.explain, g, b.t, cfg.color); err != nil {
			return nil, fmt.Errorf("explain: %w", err)
		}
	}

	for _, row := range b.t.Rows {
		row.set = nil
	}
	return b.t, nil
}

// state returns the id of the row holding set, adding one if needed.
func (b *builder) state(set *itemSet) int {
	key := set.key()
	if id, ok := b.states[key]; ok {
		return id
	}
	id := len(b.t.Rows)
	b.t.Rows = append(b.t.Rows, newRow(id, set))
	b.states[key] = id
	return id
}

func (b *builder) expand(row *Row) {
	var order []grammar.Symbol
	parts := make(map[grammar.Symbol]*itemSet)
	for _, r := range row.set.rules {
		next, ok := r.Next()
		if !ok {
			continue
		}
		part, ok := parts[next]
		if !ok {
			part = &itemSet{}
			parts[next] = part
			order = append(order, next)
		}
		part.add(r.Copy())
	}

	for _, sym := range order {
		part := parts[sym]
		for _, r := range part.rules {
			r.Advance()
		}
		id := b.state(closure(b.g, part))
		if sym.Kind == grammar.Nonterminal {
			row.On(KeyOf(sym), Action{Op: GoTo, Target: id})
		} else {
			row.On(KeyOf(sym), Action{Op: Shift, Target: id})
		}
	}

	for _, r := range row.set.rules {
		if !r.Complete() {
			continue
		}
		if r.LHS == grammar.StartSymbol {
			row.On(TermKey(grammar.EOS), Action{Op: Accept})
		} else {
			row.On(Wildcard, Action{Op: Reduce, Target: r.ID})
		}
	}
}
