package parser

import (
	"github.com/dhamidi/forkparse/token"
)

// Cloner is implemented by environments that must not be shared between
// competing parse stacks.
type Cloner interface {
	Clone() any
}

// ErrorToken is the value of the ERROR pseudo-terminal. Tokens holds the
// input skipped while recovering.
type ErrorToken struct {
	Position token.Position
	Tokens   []token.Token
}

type stack struct {
	states    []int
	values    []any
	positions []token.Position
	diags     []any
	env       any
	skipping  *ErrorToken // top value while skipping input
}

func newStack(env any) *stack {
	return &stack{states: []int{0}, env: env}
}

func (s *stack) top() int {
	return s.states[len(s.states)-1]
}

func (s *stack) push(state int, value any, pos token.Position) {
	s.states = append(s.states, state)
	s.values = append(s.values, value)
	s.positions = append(s.positions, pos)
}

// pop removes n entries and returns their values and positions.
func (s *stack) pop(n int) ([]any, []token.Position) {
	at := len(s.values) - n
	values := append([]any(nil), s.values[at:]...)
	positions := append([]token.Position(nil), s.positions[at:]...)
	s.values = s.values[:at]
	s.positions = s.positions[:at]
	s.states = s.states[:len(s.states)-n]
	return values, positions
}

func (s *stack) clone() *stack {
	c := &stack{
		states:    append([]int(nil), s.states...),
		values:    append([]any(nil), s.values...),
		positions: append([]token.Position(nil), s.positions...),
		diags:     append([]any(nil), s.diags...),
		env:       s.env,
	}
	if cl, ok := s.env.(Cloner); ok {
		c.env = cl.Clone()
	} else if s.env != nil {
		log.Debugf("fork shares environment %T", s.env)
	}
	if s.skipping != nil {
		et := &ErrorToken{
			Position: s.skipping.Position,
			Tokens:   append([]token.Token(nil), s.skipping.Tokens...),
		}
		c.skipping = et
		c.values[len(c.values)-1] = et
	}
	return c
}

// result is the value of an accepted stack.
func (s *stack) result() any {
	if len(s.values) == 0 {
		return nil
	}
	return s.values[len(s.values)-1]
}

type actionContext struct {
	s         *stack
	positions []token.Position
}

func (c *actionContext) Env() any { return c.s.env }

func (c *actionContext) Pos(i int) token.Position {
	if i < 0 || i >= len(c.positions) {
		return token.Position{}
	}
	return c.positions[i]
}

func (c *actionContext) Error(diagnostic any) {
	c.s.diags = append(c.s.diags, diagnostic)
}
