package grammar

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every error returned from Builder.Build.
var ErrMalformed = errors.New("malformed grammar")

// MalformedError describes one defect of a grammar declaration. Build
// combines all defects it finds; use multierr.Errors to list them.
type MalformedError struct {
	Production string // offending left-hand side, empty for grammar-wide defects
	Clause     string
	Msg        string
}

func (e *MalformedError) Error() string {
	switch {
	case e.Production == "":
		return fmt.Sprintf("grammar: %s", e.Msg)
	case e.Clause == "":
		return fmt.Sprintf("grammar: production %s: %s", e.Production, e.Msg)
	default:
		return fmt.Sprintf("grammar: production %s: clause %q: %s", e.Production, e.Clause, e.Msg)
	}
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}
