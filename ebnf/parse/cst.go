// Package parse turns EBNF grammars into parsers producing concrete syntax trees.
package parse

import "github.com/dhamidi/forkparse/token"

// Span represents a range in source code.
type Span struct {
	Start token.Position
	End   token.Position
}

// Node represents a node in the concrete syntax tree.
// Leaf nodes have a non-nil Token; interior nodes have Children.
type Node struct {
	Kind     string       // Production name or token kind
	Children []*Node      // Child nodes (nil for terminals)
	Token    *token.Token // The token (non-nil for terminals)
	Span     Span         // Source span covering this node
}

// IsTerminal returns true if this is a leaf node (token).
func (n *Node) IsTerminal() bool {
	return n.Token != nil
}

// Text returns the source text of this node.
// For terminals, returns the token literal.
// For non-terminals, returns the concatenated text of all leaves.
func (n *Node) Text() string {
	if n.Token != nil {
		return n.Token.Literal()
	}
	var text string
	for _, c := range n.Children {
		text += c.Text()
	}
	return text
}

// AddChild appends a child node and updates the span.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
	if len(n.Children) == 1 {
		n.Span.Start = child.Span.Start
	}
	n.Span.End = child.Span.End
}

// add appends the nodes contained in v, which is a *Node, a []any of
// values, or nil.
func (n *Node) add(v any) {
	switch v := v.(type) {
	case *Node:
		n.AddChild(v)
	case []any:
		for _, item := range v {
			n.add(item)
		}
	}
}

// NewTerminal creates a terminal node from a token.
func NewTerminal(tok token.Token) *Node {
	lit := tok.Literal()
	return &Node{
		Kind:  tok.Kind,
		Token: &tok,
		Span: Span{
			Start: tok.Position,
			End: token.Position{
				Filename: tok.Position.Filename,
				Offset:   tok.Position.Offset + len(lit),
				Line:     tok.Position.Line,
				Column:   tok.Position.Column + len(lit),
			},
		},
	}
}

// NewNonTerminal creates a non-terminal node.
func NewNonTerminal(kind string) *Node {
	return &Node{
		Kind:     kind,
		Children: make([]*Node, 0),
	}
}
