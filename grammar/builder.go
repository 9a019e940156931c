package grammar

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// Builder collects productions. A Builder is not safe for concurrent use
// and must not be used after Build.
type Builder struct {
	rules      []*Rule
	byLHS      map[string][]*Rule
	order      []string
	start      string
	arrayArgs  bool
	envFactory func() any
	nextID     int
	errs       error
}

// NewBuilder returns an empty grammar declaration.
func NewBuilder() *Builder {
	return &Builder{
		byLHS:  make(map[string][]*Rule),
		nextID: 1, // 0 is the augmented start rule
	}
}

// Clauses registers alternative clauses for one nonterminal.
type Clauses struct {
	b   *Builder
	lhs string
}

// Clause adds one alternative with its action.
func (c *Clauses) Clause(clause string, action Action) {
	c.b.clause(c.lhs, clause, action)
}

// Production adds a single clause for lhs.
func (b *Builder) Production(lhs, clause string, action Action) {
	if b.declare(lhs) {
		b.clause(lhs, clause, action)
	}
}

// Productions adds several clauses for lhs.
func (b *Builder) Productions(lhs string, fn func(c *Clauses)) {
	if b.declare(lhs) {
		fn(&Clauses{b: b, lhs: lhs})
	}
}

// Rule adds a production with an explicit body. Unlike clauses, symbol
// names are not restricted to the clause word syntax.
func (b *Builder) Rule(lhs string, body []Symbol, action Action) {
	if lhs == "" || lhs == StartSymbol {
		b.fail(&MalformedError{Production: lhs, Msg: "invalid left-hand side"})
		return
	}
	b.noteStart(lhs)
	b.add(lhs, body, action, false)
}

// Start designates the start symbol. By default it is the first declared
// nonterminal.
func (b *Builder) Start(name string) {
	b.start = name
}

// ArrayArgs makes user actions receive their arguments as a single []any
// instead of one argument per body symbol.
func (b *Builder) ArrayArgs() {
	b.arrayArgs = true
}

// Env sets the factory creating a fresh environment for every parse.
// When the input forks, stacks share the environment unless it
// implements parser.Cloner, so state written by one derivation is seen
// by the others.
func (b *Builder) Env(factory func() any) {
	b.envFactory = factory
}

// Question returns a nonterminal matching sym zero or one times. Its value
// is nil or the value of sym.
func (b *Builder) Question(sym Symbol) Symbol {
	name := "!" + sym.Name + "_question"
	if b.synthesize(name) {
		b.add(name, nil, Value(nil), true)
		b.add(name, []Symbol{sym}, First, true)
	}
	return Nonterm(name)
}

// Star returns a nonterminal matching sym zero or more times. Its value is
// a []any.
func (b *Builder) Star(sym Symbol) Symbol {
	name := "!" + sym.Name + "_star"
	self := Nonterm(name)
	if b.synthesize(name) {
		b.add(name, nil, emptyList, true)
		b.add(name, []Symbol{sym, self}, prepend, true)
	}
	return self
}

// Plus returns a nonterminal matching sym one or more times. Its value is
// a []any.
func (b *Builder) Plus(sym Symbol) Symbol {
	name := "!" + sym.Name + "_plus"
	self := Nonterm(name)
	if b.synthesize(name) {
		b.add(name, []Symbol{sym}, singleton, true)
		b.add(name, []Symbol{sym, self}, prepend, true)
	}
	return self
}

// EmptyList declares name as a possibly empty list of elements separated
// by separator. Each element is a clause; see NonEmptyList.
func (b *Builder) EmptyList(name, separator string, elements ...string) {
	b.list(name, separator, elements, true)
}

// NonEmptyList declares name as a list of one or more elements separated
// by separator, which may be empty. Each element is a clause; a clause of
// one symbol contributes that symbol's value, longer clauses contribute a
// []any of their values. The list value is a []any.
func (b *Builder) NonEmptyList(name, separator string, elements ...string) {
	b.list(name, separator, elements, false)
}

func (b *Builder) list(name, separator string, elements []string, allowEmpty bool) {
	if !b.declare(name) {
		return
	}
	if len(elements) == 0 {
		b.fail(&MalformedError{Production: name, Msg: "list without elements"})
		return
	}
	sep, err := b.expandClause(separator)
	if err != nil {
		b.fail(&MalformedError{Production: name, Clause: separator, Msg: err.Error()})
		return
	}

	elemName := "!" + name + "_elements"
	restName := "!" + name + "_rest"
	if !b.synthesize(elemName) || !b.synthesize(restName) {
		b.fail(&MalformedError{Production: name, Msg: "list declared twice"})
		return
	}
	elem, rest := Nonterm(elemName), Nonterm(restName)

	for _, clause := range elements {
		syms, err := b.expandClause(clause)
		if err != nil {
			b.fail(&MalformedError{Production: name, Clause: clause, Msg: err.Error()})
			continue
		}
		if len(syms) == 0 {
			b.fail(&MalformedError{Production: name, Clause: clause, Msg: "empty list element"})
			continue
		}
		b.add(elemName, syms, element, true)
	}

	n := len(sep)
	b.add(restName, nil, emptyList, true)
	b.add(restName, append(append([]Symbol(nil), sep...), elem, rest), func(_ Context, args ...any) (any, error) {
		return prepend(nil, args[n:]...)
	}, true)

	b.add(name, []Symbol{elem, rest}, prepend, true)
	if allowEmpty {
		b.add(name, nil, emptyList, true)
	}
}

func emptyList(Context, ...any) (any, error) {
	return []any{}, nil
}

func singleton(_ Context, args ...any) (any, error) {
	return []any{args[0]}, nil
}

// prepend conses args[0] onto the []any in args[1] without sharing the
// tail, which may be referenced by another parse stack.
func prepend(_ Context, args ...any) (any, error) {
	tail, _ := args[1].([]any)
	out := make([]any, 0, len(tail)+1)
	out = append(out, args[0])
	return append(out, tail...), nil
}

func element(_ Context, args ...any) (any, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return append([]any(nil), args...), nil
}

// declare registers lhs as a user nonterminal and reports whether its
// name is usable.
func (b *Builder) declare(lhs string) bool {
	if !isNonterminalName(lhs) {
		b.fail(&MalformedError{Production: lhs, Msg: "invalid nonterminal name"})
		return false
	}
	b.noteStart(lhs)
	return true
}

func (b *Builder) noteStart(lhs string) {
	if b.start == "" {
		b.start = lhs
	}
}

func (b *Builder) clause(lhs, clause string, action Action) {
	syms, err := b.expandClause(clause)
	if err != nil {
		b.fail(&MalformedError{Production: lhs, Clause: clause, Msg: err.Error()})
		return
	}
	b.add(lhs, syms, action, false)
}

// synthesize reports whether name still needs its productions generated.
func (b *Builder) synthesize(name string) bool {
	_, ok := b.byLHS[name]
	return !ok
}

func (b *Builder) add(lhs string, body []Symbol, action Action, synthetic bool) {
	r := NewRule(b.nextID, lhs, body, b.nextID, action)
	r.synthetic = synthetic
	b.nextID++

	if _, ok := b.byLHS[lhs]; !ok {
		b.order = append(b.order, lhs)
	}
	b.byLHS[lhs] = append(b.byLHS[lhs], r)
	b.rules = append(b.rules, r)
}

func (b *Builder) fail(err error) {
	b.errs = multierr.Append(b.errs, err)
}

// Build validates the declaration and returns the grammar. All defects
// are reported together.
func (b *Builder) Build() (*Grammar, error) {
	errs := b.errs

	if len(b.rules) == 0 {
		errs = multierr.Append(errs, &MalformedError{Msg: "no productions"})
		return nil, errs
	}
	if _, ok := b.byLHS[b.start]; !ok {
		errs = multierr.Append(errs, &MalformedError{Msg: fmt.Sprintf("start symbol %s is not defined", b.start)})
	}

	terminals := map[string]bool{EOS: true}
	for _, r := range b.rules {
		for _, s := range r.Symbols() {
			switch s.Kind {
			case Nonterminal:
				if _, ok := b.byLHS[s.Name]; !ok {
					errs = multierr.Append(errs, &MalformedError{
						Production: r.LHS,
						Msg:        fmt.Sprintf("undefined nonterminal %s", s.Name),
					})
				}
			case Terminal:
				if s.Name == EOS {
					errs = multierr.Append(errs, &MalformedError{
						Production: r.LHS,
						Msg:        "EOS may not appear in a production body",
					})
				}
				terminals[s.Name] = true
			}
		}
	}
	if errs != nil {
		return nil, errs
	}

	start := NewRule(0, StartSymbol, []Symbol{Nonterm(b.start)}, 0, First)
	start.synthetic = true

	g := &Grammar{
		start:      b.start,
		rules:      append([]*Rule{start}, b.rules...),
		byLHS:      b.byLHS,
		order:      b.order,
		arrayArgs:  b.arrayArgs,
		envFactory: b.envFactory,
	}
	g.byLHS[StartSymbol] = []*Rule{start}
	for t := range terminals {
		g.terminals = append(g.terminals, t)
	}
	sort.Strings(g.terminals)

	return g, nil
}

// MustBuild is like Build but panics on error. It is meant for grammars
// declared in package-level variables.
func (b *Builder) MustBuild() *Grammar {
	g, err := b.Build()
	if err != nil {
		panic(strings.ReplaceAll(err.Error(), "; ", "\n"))
	}
	return g
}
