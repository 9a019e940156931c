package grammar

import (
	"fmt"
	"strings"
)

// Rule is a production with a dot marking how much of its body has been
// recognized. Rules double as LR(0) items.
type Rule struct {
	ID   int
	LHS  string
	Body []Symbol // contains exactly one Dot

	// Slot identifies the semantic action the rule was declared with.
	Slot int

	action    Action
	synthetic bool
	dot       int
}

// NewRule returns a rule for lhs with the dot in front of symbols.
func NewRule(id int, lhs string, symbols []Symbol, slot int, action Action) *Rule {
	body := make([]Symbol, 0, len(symbols)+1)
	body = append(body, DotSymbol)
	body = append(body, symbols...)
	return &Rule{ID: id, LHS: lhs, Body: body, Slot: slot, action: action}
}

// Next returns the symbol right after the dot.
func (r *Rule) Next() (Symbol, bool) {
	if r.dot+1 < len(r.Body) {
		return r.Body[r.dot+1], true
	}
	return Symbol{}, false
}

// Complete reports whether the dot is at the end of the body.
func (r *Rule) Complete() bool {
	return r.dot == len(r.Body)-1
}

// Advance moves the dot one symbol to the right. It does nothing once the
// rule is complete.
func (r *Rule) Advance() {
	if r.dot < len(r.Body)-1 {
		r.Body[r.dot], r.Body[r.dot+1] = r.Body[r.dot+1], r.Body[r.dot]
		r.dot++
	}
}

// Copy returns a rule with its own body.
func (r *Rule) Copy() *Rule {
	c := *r
	c.Body = append([]Symbol(nil), r.Body...)
	return &c
}

// Len returns the number of symbols in the body, not counting the dot.
func (r *Rule) Len() int {
	return len(r.Body) - 1
}

// DotIndex returns the position of the dot in Body.
func (r *Rule) DotIndex() int {
	return r.dot
}

// Symbols returns the body without the dot.
func (r *Rule) Symbols() []Symbol {
	syms := make([]Symbol, 0, r.Len())
	for _, s := range r.Body {
		if s.Kind != Dot {
			syms = append(syms, s)
		}
	}
	return syms
}

// Equal reports whether two rules have the same action and body.
func (r *Rule) Equal(o *Rule) bool {
	if r.Slot != o.Slot || len(r.Body) != len(o.Body) {
		return false
	}
	for i := range r.Body {
		if r.Body[i] != o.Body[i] {
			return false
		}
	}
	return true
}

// Synthetic reports whether the rule was generated by an EBNF operator or
// a list helper.
func (r *Rule) Synthetic() bool {
	return r.synthetic
}

// Format renders the rule with lhs padded to width. The dot is shown only
// in item mode.
func (r *Rule) Format(width int, item bool) string {
	var parts []string
	for _, s := range r.Body {
		if s.Kind == Dot && !item {
			continue
		}
		parts = append(parts, s.String())
	}
	return fmt.Sprintf("%-*s -> %s", width, r.LHS, strings.Join(parts, " "))
}

func (r *Rule) String() string {
	return r.Format(0, true)
}
