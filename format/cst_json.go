package format

import (
	"io"

	"github.com/dhamidi/forkparse/ebnf/parse"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type CSTJSONEncoder struct {
	w    io.Writer
	node *parse.Node
}

func NewCSTJSONEncoder(w io.Writer) *CSTJSONEncoder {
	return &CSTJSONEncoder{w: w}
}

func (e *CSTJSONEncoder) Encode(node *parse.Node) error {
	e.node = node
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *CSTJSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(nodeToJSON(e.node), "", "  ")
}

type cstJSONNode struct {
	Kind     string         `json:"kind"`
	Span     *cstJSONSpan   `json:"span,omitempty"`
	Token    string         `json:"token,omitempty"`
	Children []*cstJSONNode `json:"children,omitempty"`
}

type cstJSONSpan struct {
	Start cstJSONPosition `json:"start"`
	End   cstJSONPosition `json:"end"`
}

type cstJSONPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func nodeToJSON(n *parse.Node) *cstJSONNode {
	if n == nil {
		return nil
	}
	jn := &cstJSONNode{
		Kind: n.Kind,
	}

	if n.Span.Start.Line != 0 || n.Span.End.Line != 0 {
		jn.Span = &cstJSONSpan{
			Start: cstJSONPosition{Line: n.Span.Start.Line, Column: n.Span.Start.Column},
			End:   cstJSONPosition{Line: n.Span.End.Line, Column: n.Span.End.Column},
		}
	}

	if n.Token != nil {
		jn.Token = n.Token.Literal()
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*cstJSONNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = nodeToJSON(child)
		}
	}

	return jn
}
