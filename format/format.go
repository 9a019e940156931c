// Package format renders concrete syntax trees.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/forkparse/ebnf/parse"
)

// Encoder writes one syntax tree per Encode call.
type Encoder interface {
	encoding.TextMarshaler
	Encode(node *parse.Node) error
}

// NewEncoder returns the encoder registered under name.
func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "json", "":
		return NewCSTJSONEncoder(w), nil
	case "line":
		return NewLineEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format %q", name)
}
