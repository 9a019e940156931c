package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/forkparse/ebnf/parse"
)

// LineEncoder prints one node per line, indented by depth.
type LineEncoder struct {
	w    io.Writer
	node *parse.Node
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(node *parse.Node) error {
	e.node = node
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.node != nil {
		writeLines(&sb, e.node, 0)
	}
	return []byte(sb.String()), nil
}

func writeLines(sb *strings.Builder, n *parse.Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if n.IsTerminal() {
		fmt.Fprintf(sb, "%s\t%q\t%s\n", n.Kind, n.Text(), n.Span.Start)
		return
	}
	fmt.Fprintf(sb, "%s\n", n.Kind)
	for _, c := range n.Children {
		writeLines(sb, c, depth+1)
	}
}
