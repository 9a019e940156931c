package grammar

import (
	"errors"

	"github.com/dhamidi/forkparse/token"
)

// Action computes the value of a reduced production from the values of
// its body symbols. Returning an error discards the parse stack that
// performed the reduction; wrap the error with Fatal to abort the whole
// parse instead.
type Action func(ctx Context, args ...any) (any, error)

// Context is handed to every action invocation.
type Context interface {
	// Env returns the environment of the running parse.
	Env() any
	// Pos returns the source position of the i-th body symbol.
	Pos(i int) token.Position
	// Error records a diagnostic for the current derivation. Parses that
	// record diagnostics return a *parser.HandledError.
	Error(diagnostic any)
}

// Func adapts a function that cannot fail to an Action.
func Func(fn func(args ...any) any) Action {
	return func(_ Context, args ...any) (any, error) {
		return fn(args...), nil
	}
}

// Value returns an action that always yields v.
func Value(v any) Action {
	return func(Context, ...any) (any, error) {
		return v, nil
	}
}

// First is an action yielding the value of the first body symbol.
func First(_ Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return args[0], nil
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as aborting the parse. The parser returns err itself.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// AsFatal returns the error wrapped by Fatal, if any.
func AsFatal(err error) (error, bool) {
	var fe *fatalError
	if errors.As(err, &fe) {
		return fe.err, true
	}
	return nil, false
}
