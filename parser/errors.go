package parser

import (
	"errors"
	"fmt"

	"github.com/dhamidi/forkparse/grammar"
	"github.com/dhamidi/forkparse/token"
)

var (
	ErrBadToken      = errors.New("bad token")
	ErrNotInLanguage = errors.New("input not in language")
	ErrAmbiguous     = errors.New("ambiguous input")
	ErrHandled       = errors.New("parse errors handled")
	ErrTableMismatch = errors.New("table was not built from this grammar")
)

// BadTokenError reports a token whose kind is not a terminal of the
// grammar.
type BadTokenError struct {
	Token token.Token
	Index int
}

func (e *BadTokenError) Error() string {
	return fmt.Sprintf("%s: token kind %q is not part of the grammar", e.Token.Position, e.Token.Kind)
}

func (e *BadTokenError) Is(target error) bool { return target == ErrBadToken }

// NotInLanguageError reports the token at which every parse stack died.
// Cause holds the last error returned by a semantic action, if any.
type NotInLanguageError struct {
	Token token.Token
	Index int
	Cause error
}

func (e *NotInLanguageError) Error() string {
	var msg string
	if e.Token.Kind == grammar.EOS {
		msg = fmt.Sprintf("%s: unexpected end of input", e.Token.Position)
	} else {
		msg = fmt.Sprintf("%s: unexpected %s", e.Token.Position, e.Token.Kind)
		if lit := e.Token.Literal(); lit != "" {
			msg += fmt.Sprintf(" %q", lit)
		}
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NotInLanguageError) Is(target error) bool { return target == ErrNotInLanguage }
func (e *NotInLanguageError) Unwrap() error        { return e.Cause }

// AmbiguousError is returned in AcceptError mode when the input has more
// than one derivation.
type AmbiguousError struct {
	Results []any
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("input has %d derivations", len(e.Results))
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguous }

// HandledError is returned when error productions recorded diagnostics.
// Result is the value the parse would have returned otherwise.
type HandledError struct {
	Errors []any
	Result any
}

func (e *HandledError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("parse recovered from an error: %v", e.Errors[0])
	}
	return fmt.Sprintf("parse recovered from %d errors", len(e.Errors))
}

func (e *HandledError) Is(target error) bool { return target == ErrHandled }
