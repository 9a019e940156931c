// Package table builds LR(0) transition tables from grammars.
package table

import (
	"fmt"

	"github.com/dhamidi/forkparse/grammar"
)

// Op is the kind of a table action.
type Op int

const (
	Shift Op = iota
	GoTo
	Reduce
	Accept
)

var opNames = [...]string{"shift", "goto", "reduce", "accept"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Action is one table entry. Target is a state id for Shift and GoTo, a
// rule id for Reduce, and unused for Accept.
type Action struct {
	Op     Op
	Target int
}

func (a Action) String() string {
	if a.Op == Accept {
		return a.Op.String()
	}
	return fmt.Sprintf("%s %d", a.Op, a.Target)
}

// Key selects the actions of a row. Reduce actions are stored under
// Wildcard and apply to every lookahead.
type Key struct {
	Kind grammar.SymbolKind
	Name string
}

// Wildcard is the key of lookahead-independent actions.
var Wildcard = Key{Kind: grammar.Dot}

// KeyOf returns the key of a terminal or nonterminal symbol.
func KeyOf(s grammar.Symbol) Key {
	return Key{Kind: s.Kind, Name: s.Name}
}

// TermKey returns the key of the terminal named name.
func TermKey(name string) Key {
	return Key{Kind: grammar.Terminal, Name: name}
}

func (k Key) String() string {
	if k == Wildcard {
		return "any"
	}
	return k.Name
}

// Row is one automaton state.
type Row struct {
	ID      int
	keys    []Key
	actions map[Key][]Action
	set     *itemSet
}

func newRow(id int, set *itemSet) *Row {
	return &Row{ID: id, actions: make(map[Key][]Action), set: set}
}

// On appends an action under k.
func (r *Row) On(k Key, a Action) {
	if _, ok := r.actions[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.actions[k] = append(r.actions[k], a)
}

// Lookup returns the wildcard actions followed by the actions for k.
func (r *Row) Lookup(k Key) []Action {
	wild, specific := r.actions[Wildcard], r.actions[k]
	if k == Wildcard || len(specific) == 0 {
		return wild
	}
	if len(wild) == 0 {
		return specific
	}
	out := make([]Action, 0, len(wild)+len(specific))
	out = append(out, wild...)
	return append(out, specific...)
}

// Keys returns the keys in insertion order.
func (r *Row) Keys() []Key { return r.keys }

// Actions returns the actions stored under exactly k.
func (r *Row) Actions(k Key) []Action { return r.actions[k] }

// GoTo returns the state reached after reducing to nonterminal lhs.
func (r *Row) GoTo(lhs string) (int, bool) {
	for _, a := range r.actions[Key{Kind: grammar.Nonterminal, Name: lhs}] {
		if a.Op == GoTo {
			return a.Target, true
		}
	}
	return 0, false
}

// RuleInfo is what the parse engine needs to know about a rule.
type RuleInfo struct {
	ID  int
	LHS string
	Len int
}

// Table is an immutable LR(0) automaton. State 0 is the start state.
type Table struct {
	Fingerprint uint64
	Start       string
	Terminals   []string
	Rules       []RuleInfo
	Rows        []*Row
}

// Row returns state id.
func (t *Table) Row(id int) *Row {
	return t.Rows[id]
}

// HasTerminal reports whether name is part of the terminal vocabulary.
func (t *Table) HasTerminal(name string) bool {
	for _, term := range t.Terminals {
		if term == name {
			return true
		}
	}
	return false
}

// Conflicts returns the number of states with more than one applicable
// action for some lookahead. The parse engine explores all of them.
func (t *Table) Conflicts() int {
	n := 0
	for _, row := range t.Rows {
		wild := len(row.actions[Wildcard])
		if wild > 1 {
			n++
			continue
		}
		for _, k := range row.keys {
			if k.Kind == grammar.Terminal && wild+len(row.actions[k]) > 1 {
				n++
				break
			}
		}
	}
	return n
}
