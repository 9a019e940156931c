// Package parser runs LR(0) tables over token streams.
//
// When a state offers several actions for a token the parser forks its
// stack and follows every alternative. Stacks that cannot continue are
// dropped; the parse fails only when none is left.
package parser

import (
	"fmt"
	"io"

	"github.com/dhamidi/forkparse/grammar"
	"github.com/dhamidi/forkparse/table"
	"github.com/dhamidi/forkparse/token"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("forkparse.parser")

// AcceptMode selects what Parse returns when the input has several
// derivations.
type AcceptMode int

const (
	// AcceptError fails with an *AmbiguousError.
	AcceptError AcceptMode = iota
	// AcceptFirst returns the first derivation found.
	AcceptFirst
	// AcceptAll returns a []any of every derivation when there is more
	// than one.
	AcceptAll
)

func (m AcceptMode) String() string {
	switch m {
	case AcceptFirst:
		return "first"
	case AcceptAll:
		return "all"
	default:
		return "error"
	}
}

// ParseAcceptMode parses "first", "all" or "error".
func ParseAcceptMode(s string) (AcceptMode, error) {
	switch s {
	case "first":
		return AcceptFirst, nil
	case "all":
		return AcceptAll, nil
	case "error", "":
		return AcceptError, nil
	}
	return AcceptError, fmt.Errorf("unknown accept mode %q", s)
}

// Option configures a single Parse call.
type Option func(*parseConfig)

type parseConfig struct {
	accept AcceptMode
	env    any
	hasEnv bool
}

// WithAccept sets the accept mode. The default is AcceptError.
func WithAccept(mode AcceptMode) Option {
	return func(c *parseConfig) {
		c.accept = mode
	}
}

// WithEnv makes actions see env instead of a fresh environment from the
// grammar's factory. The same env may be passed to several calls.
// Forked stacks share env unless it implements Cloner.
func WithEnv(env any) Option {
	return func(c *parseConfig) {
		c.env = env
		c.hasEnv = true
	}
}

// Parser runs one grammar's table. It is safe for concurrent use.
type Parser struct {
	g         *grammar.Grammar
	t         *table.Table
	terminals map[string]bool
}

// New returns a parser for g using t, which must have been built from g.
func New(g *grammar.Grammar, t *table.Table) (*Parser, error) {
	if t.Fingerprint != g.Fingerprint() || !sameRules(g, t) {
		return nil, ErrTableMismatch
	}
	p := &Parser{g: g, t: t, terminals: make(map[string]bool, len(t.Terminals))}
	for _, name := range t.Terminals {
		p.terminals[name] = true
	}
	// Neither is ever produced by a lexer.
	delete(p.terminals, grammar.EOS)
	delete(p.terminals, grammar.ERROR)
	return p, nil
}

// sameRules reports whether every rule of t has the id, left-hand side
// and length of the grammar rule it reduces.
func sameRules(g *grammar.Grammar, t *table.Table) bool {
	rules := g.Rules()
	if len(t.Rules) != len(rules) {
		return false
	}
	for i, info := range t.Rules {
		r := rules[i]
		if info.ID != r.ID || info.LHS != r.LHS || info.Len != r.Len() {
			return false
		}
	}
	return true
}

// Compile builds the table for g and returns a parser for it.
func Compile(g *grammar.Grammar, opts ...table.Option) (*Parser, error) {
	t, err := table.Build(g, opts...)
	if err != nil {
		return nil, err
	}
	return New(g, t)
}

// Load returns a parser for g with a table decoded from r.
func Load(g *grammar.Grammar, r io.Reader) (*Parser, error) {
	t, err := table.Decode(r)
	if err != nil {
		return nil, err
	}
	return New(g, t)
}

// MustCompile is like Compile but panics on error.
func MustCompile(g *grammar.Grammar) *Parser {
	p, err := Compile(g)
	if err != nil {
		panic(err)
	}
	return p
}

// Grammar returns the parser's grammar.
func (p *Parser) Grammar() *grammar.Grammar { return p.g }

// Table returns the parser's table.
func (p *Parser) Table() *table.Table { return p.t }

// ParseTokens parses a fixed token list.
func (p *Parser) ParseTokens(tokens []token.Token, opts ...Option) (any, error) {
	return p.Parse(token.NewSlice(tokens...), opts...)
}

// Parse consumes src up to io.EOF and returns the value of the start
// symbol's action.
func (p *Parser) Parse(src token.Source, opts ...Option) (any, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	env := cfg.env
	if !cfg.hasEnv {
		env = p.g.NewEnv()
	}

	r := &run{p: p}
	live := []*stack{newStack(env)}
	var last token.Position

	for index := 0; ; index++ {
		tok, err := src.Next()
		eos := err == io.EOF
		switch {
		case eos:
			tok = token.Token{Kind: grammar.EOS, Position: last}
		case err != nil:
			return nil, fmt.Errorf("read token %d: %w", index, err)
		case !p.terminals[tok.Kind]:
			return nil, &BadTokenError{Token: tok, Index: index}
		}
		last = tok.Position

		moved, accepted, stuck, err := r.step(live, tok)
		if err != nil {
			return nil, err
		}
		if len(moved) == 0 && len(accepted) == 0 {
			if recovered := r.recover(stuck, tok); len(recovered) > 0 {
				log.Debugf("token %d: recovering on %d stacks", index, len(recovered))
				moved, accepted, _, err = r.step(recovered, tok)
				if err != nil {
					return nil, err
				}
			}
		}

		if eos {
			return r.finish(accepted, tok, index, cfg.accept)
		}
		if len(moved) == 0 {
			return nil, &NotInLanguageError{Token: tok, Index: index, Cause: r.cause}
		}
		live = moved
		log.Debugf("token %d %s: %d live stacks", index, tok.Kind, len(live))
	}
}

type run struct {
	p     *Parser
	cause error
}

// step feeds tok to every stack. Stacks that shifted tok or skipped it
// while recovering are returned in moved, stacks that accepted in
// accepted, and stacks without an action for tok in stuck. Stacks whose
// actions failed are dropped.
func (r *run) step(stacks []*stack, tok token.Token) (moved, accepted, stuck []*stack, err error) {
	key := table.TermKey(tok.Kind)
	queue := append([]*stack(nil), stacks...)

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		actions := r.p.t.Row(s.top()).Lookup(key)
		if len(actions) == 0 {
			if s.skipping != nil && tok.Kind != grammar.EOS {
				s.skipping.Tokens = append(s.skipping.Tokens, tok)
				moved = append(moved, s)
			} else {
				stuck = append(stuck, s)
			}
			continue
		}

		for i, a := range actions {
			cur := s
			if i < len(actions)-1 {
				cur = s.clone()
			}
			switch a.Op {
			case table.Shift:
				cur.push(a.Target, tok.Value, tok.Position)
				cur.skipping = nil
				moved = append(moved, cur)
			case table.Reduce:
				ok, err := r.reduce(cur, a.Target, tok)
				if err != nil {
					return nil, nil, nil, err
				}
				if ok {
					queue = append(queue, cur)
				}
			case table.Accept:
				accepted = append(accepted, cur)
			}
		}
	}
	return moved, accepted, stuck, nil
}

// reduce applies rule id to s and reports whether s survived.
func (r *run) reduce(s *stack, id int, tok token.Token) (bool, error) {
	info := r.p.t.Rules[id]
	values, positions := s.pop(info.Len)

	ctx := &actionContext{s: s, positions: positions}
	v, err := r.p.g.Invoke(ctx, id, values)
	if err != nil {
		if fatal, ok := grammar.AsFatal(err); ok {
			return false, fatal
		}
		log.Debugf("action of rule %d failed: %s", id, err)
		r.cause = err
		return false, nil
	}

	next, ok := r.p.t.Row(s.top()).GoTo(info.LHS)
	if !ok {
		return false, nil
	}
	pos := tok.Position
	if len(positions) > 0 {
		pos = positions[0]
	}
	s.push(next, v, pos)
	s.skipping = nil
	return true, nil
}

// recover shifts ERROR on every stuck stack that can.
func (r *run) recover(stuck []*stack, tok token.Token) []*stack {
	key := table.TermKey(grammar.ERROR)
	var out []*stack
	for _, s := range stuck {
		for _, a := range r.p.t.Row(s.top()).Actions(key) {
			if a.Op != table.Shift {
				continue
			}
			c := s.clone()
			et := &ErrorToken{Position: tok.Position}
			c.push(a.Target, et, tok.Position)
			c.skipping = et
			out = append(out, c)
		}
	}
	return out
}

func (r *run) finish(accepted []*stack, tok token.Token, index int, mode AcceptMode) (any, error) {
	if len(accepted) == 0 {
		return nil, &NotInLanguageError{Token: tok, Index: index, Cause: r.cause}
	}

	var result any
	var diags []any
	switch {
	case len(accepted) == 1 || mode == AcceptFirst:
		result = accepted[0].result()
		diags = accepted[0].diags
	case mode == AcceptAll:
		results := make([]any, len(accepted))
		for i, s := range accepted {
			results[i] = s.result()
			diags = append(diags, s.diags...)
		}
		result = results
	default:
		results := make([]any, len(accepted))
		for i, s := range accepted {
			results[i] = s.result()
		}
		return nil, &AmbiguousError{Results: results}
	}

	if len(diags) > 0 {
		return nil, &HandledError{Errors: diags, Result: result}
	}
	return result, nil
}
