package parse

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhamidi/forkparse/ebnflex"
	"github.com/dhamidi/forkparse/grammar"
	"github.com/dhamidi/forkparse/token"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/ebnf"
)

func mustGrammar(t *testing.T, src string) ebnf.Grammar {
	t.Helper()
	g, err := ebnf.Parse("test", strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse grammar: %v", err)
	}
	return g
}

func childKinds(n *Node) []string {
	var kinds []string
	for _, c := range n.Children {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func TestParser_NestedRepetitions(t *testing.T) {
	g := mustGrammar(t, `
		packageDeclaration = "package" Identifier { "." Identifier } ";" .
		Identifier = "a" … "z" { "a" … "z" } .
	`)

	tokens := []token.Token{
		{Kind: "Identifier", Value: "package"},
		{Kind: "Identifier", Value: "com"},
		{Kind: "DOT", Value: "."},
		{Kind: "Identifier", Value: "example"},
		{Kind: "DOT", Value: "."},
		{Kind: "Identifier", Value: "foo"},
		{Kind: "SEMI", Value: ";"},
	}

	node, err := ParseTokens(g, tokens, "packageDeclaration")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if node.Kind != "packageDeclaration" {
		t.Errorf("got kind %q", node.Kind)
	}
	want := []string{`"package"`, "Identifier", `"."`, "Identifier", `"."`, "Identifier", `";"`}
	if diff := cmp.Diff(want, childKinds(node)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if got := node.Text(); got != "packagecom.example.foo;" {
		t.Errorf("got text %q", got)
	}
}

func TestParser_AlternativeItems(t *testing.T) {
	g := mustGrammar(t, `
		methodDeclaration = { methodModifier } result methodDeclarator .
		methodModifier = "public" | "static" | "final" .
		result = "void" | "int" .
		methodDeclarator = Identifier "(" ")" .
		Identifier = "a" … "z" { "a" … "z" } .
	`)

	tokens := []token.Token{
		{Kind: "Identifier", Value: "public"},
		{Kind: "Identifier", Value: "static"},
		{Kind: "Identifier", Value: "void"},
		{Kind: "Identifier", Value: "main"},
		{Kind: "LPAREN", Value: "("},
		{Kind: "RPAREN", Value: ")"},
	}

	node, err := ParseTokens(g, tokens, "")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []string{"methodModifier", "methodModifier", "result", "methodDeclarator"}
	if diff := cmp.Diff(want, childKinds(node)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if got := node.Children[3].Text(); got != "main()" {
		t.Errorf("got declarator %q", got)
	}
}

const exprLexer = `
NUM = digit { digit } .
PLUS = "+" .
MINUS = "-" .
LP = "(" .
RP = ")" .
WS = " " { " " } .
digit = "0" … "9" .
`

const exprGrammar = `
expr = term { ( "+" | "-" ) term } .
term = [ "-" ] NUM | "(" expr ")" .
`

func TestParseFile(t *testing.T) {
	lexG := mustGrammar(t, exprLexer)
	g := mustGrammar(t, exprGrammar)

	node, err := ParseFile(lexG, g, []byte("1 + (2 - -3)"), "in.txt", "expr", "WS")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if diff := cmp.Diff([]string{"term", `"+"`, "term"}, childKinds(node)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if got := node.Text(); got != "1+(2--3)" {
		t.Errorf("got text %q", got)
	}
	if node.Span.Start.Column != 1 || node.Span.End.Column != 13 {
		t.Errorf("got span %v-%v", node.Span.Start, node.Span.End)
	}
	if node.Span.Start.Filename != "in.txt" {
		t.Errorf("got filename %q", node.Span.Start.Filename)
	}

	inner := node.Children[2].Children[1]
	if inner.Kind != "expr" || len(inner.Children) != 3 {
		t.Errorf("got inner %s with %v", inner.Kind, childKinds(inner))
	}
	if neg := inner.Children[2]; neg.Text() != "-3" {
		t.Errorf("got negative term %q", neg.Text())
	}

	_, err = ParseFile(lexG, g, []byte("1 +"), "in.txt", "expr", "WS")
	if err == nil {
		t.Error("expected error for incomplete input")
	}
}

func TestParser_ParseAll(t *testing.T) {
	g := mustGrammar(t, `e = e "+" e | NUM .`)
	lexG := mustGrammar(t, exprLexer)

	p, err := NewParser(g, "e")
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	lex := func(s string) token.Source {
		l := ebnflex.NewLexer(lexG, []byte(s), "")
		l.SetSkipKinds("WS")
		return l
	}

	nodes, err := p.ParseAll(lex("1 + 2 + 3"))
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d trees, want 2", len(nodes))
	}
	shapes := map[string]bool{}
	for _, n := range nodes {
		shapes[strings.Join(childKinds(n.Children[0]), ",")] = true
	}
	if !shapes["NUM"] || !shapes[`e,"+",e`] {
		t.Errorf("got left children %v", shapes)
	}

	single, err := p.ParseAll(lex("1 + 2"))
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(single) != 1 || single[0].Kind != "e" {
		t.Errorf("got %v, want one e tree", single)
	}

	first, err := p.Parse(lex("1 + 2 + 3"))
	if err != nil || first == nil {
		t.Errorf("got %v %v, want first tree", first, err)
	}
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"range", `id = "a" … "z" .`, "character ranges"},
		{"undefined", `s = a "x" .`, "undefined nonterminal a"},
		{"no start", `A = "a" .`, "no productions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Convert(mustGrammar(t, tt.src), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, grammar.ErrMalformed) {
				t.Errorf("error %v does not match ErrMalformed", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestConvert_Reachable(t *testing.T) {
	g := mustGrammar(t, `
		list = item { "," item } .
		item = NAME .
		unused = "a" … "z" .
	`)
	converted, literals, err := Convert(g, "")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if converted.Start() != "list" {
		t.Errorf("got start %q, want list", converted.Start())
	}
	if len(converted.RulesFor("unused")) != 0 {
		t.Error("unreachable production was converted")
	}
	if diff := cmp.Diff(map[string]bool{`","`: true}, literals); diff != "" {
		t.Errorf("literals mismatch (-want +got):\n%s", diff)
	}
}

func TestNewParser_Cache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expr.fpt")
	g := mustGrammar(t, exprGrammar)

	for i := 0; i < 2; i++ {
		if _, err := NewParser(g, "expr", WithCache(path)); err != nil {
			t.Fatalf("NewParser: %v", err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("cache file missing: %v", err)
	}
}
