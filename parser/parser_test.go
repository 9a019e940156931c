package parser_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dhamidi/forkparse/ebnflex"
	"github.com/dhamidi/forkparse/examples/calc"
	"github.com/dhamidi/forkparse/grammar"
	"github.com/dhamidi/forkparse/parser"
	"github.com/dhamidi/forkparse/table"
	"github.com/dhamidi/forkparse/token"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/ebnf"
	"golang.org/x/sync/errgroup"
)

func lexerFor(t *testing.T, src string, skip ...string) func(input string) token.Source {
	t.Helper()
	g, err := ebnf.Parse("lexer", strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse lexer grammar: %v", err)
	}
	return func(input string) token.Source {
		lex := ebnflex.NewLexer(g, []byte(input), "input")
		lex.SetSkipKinds(skip...)
		return lex
	}
}

const alphaLexicon = `
A = "a" .
B = "b" .
C = "c" .
D = "d" .
COMMA = "," .
WS = " " { " " } .
`

func compile(t *testing.T, b *grammar.Builder) *parser.Parser {
	t.Helper()
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p, err := parser.Compile(g)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p
}

type parseCase struct {
	input   string
	want    any
	wantErr error
}

func runCases(t *testing.T, p *parser.Parser, lex func(string) token.Source, tests []parseCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			got, err := p.Parse(lex(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v (%v), want error %v", got, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func length(_ grammar.Context, v ...any) (any, error) {
	return len(v[0].([]any)), nil
}

func TestParse_Plus(t *testing.T) {
	b := grammar.NewBuilder()
	b.Production("a", "A+ B", length)
	p := compile(t, b)

	runCases(t, p, lexerFor(t, alphaLexicon, "WS"), []parseCase{
		{"b", nil, parser.ErrNotInLanguage},
		{"ab", 1, nil},
		{"aab", 2, nil},
		{"aaab", 3, nil},
		{"aaaab", 4, nil},
	})
}

func TestParse_Question(t *testing.T) {
	b := grammar.NewBuilder()
	b.Production("a", "A? B", grammar.First)
	p := compile(t, b)

	runCases(t, p, lexerFor(t, alphaLexicon, "WS"), []parseCase{
		{"aab", nil, parser.ErrNotInLanguage},
		{"b", nil, nil},
		{"ab", "a", nil},
	})
}

func TestParse_Star(t *testing.T) {
	b := grammar.NewBuilder()
	b.Production("a", "A* B", length)
	p := compile(t, b)

	runCases(t, p, lexerFor(t, alphaLexicon, "WS"), []parseCase{
		{"b", 0, nil},
		{"ab", 1, nil},
		{"aab", 2, nil},
		{"aaab", 3, nil},
		{"aaaab", 4, nil},
	})
}

func TestParse_EmptyList(t *testing.T) {
	lex := lexerFor(t, alphaLexicon, "WS")

	b := grammar.NewBuilder()
	b.EmptyList("list", "COMMA", "A")
	runCases(t, compile(t, b), lex, []parseCase{
		{"", []any{}, nil},
		{"a", []any{"a"}, nil},
		{"a, a", []any{"a", "a"}, nil},
		{"a a", nil, parser.ErrNotInLanguage},
	})

	b = grammar.NewBuilder()
	b.EmptyList("list", "COMMA", "A", "B", "C D")
	runCases(t, compile(t, b), lex, []parseCase{
		{"", []any{}, nil},
		{"a, b, c d", []any{"a", "b", []any{"c", "d"}}, nil},
	})
}

func TestParse_NonEmptyList(t *testing.T) {
	lex := lexerFor(t, alphaLexicon, "WS")

	b := grammar.NewBuilder()
	b.NonEmptyList("list", "COMMA", "A")
	runCases(t, compile(t, b), lex, []parseCase{
		{"a", []any{"a"}, nil},
		{"a, a", []any{"a", "a"}, nil},
		{"", nil, parser.ErrNotInLanguage},
		{",", nil, parser.ErrNotInLanguage},
		{"aa", nil, parser.ErrNotInLanguage},
		{"a,", nil, parser.ErrNotInLanguage},
		{",a", nil, parser.ErrNotInLanguage},
	})

	b = grammar.NewBuilder()
	b.NonEmptyList("list", "COMMA", "A", "B")
	runCases(t, compile(t, b), lex, []parseCase{
		{"a, b, a, b", []any{"a", "b", "a", "b"}, nil},
		{"a b", nil, parser.ErrNotInLanguage},
	})

	b = grammar.NewBuilder()
	b.NonEmptyList("list", "COMMA", "A", "B", "C D")
	runCases(t, compile(t, b), lex, []parseCase{
		{"a, b, c d", []any{"a", "b", []any{"c", "d"}}, nil},
		{"c d, c d", []any{[]any{"c", "d"}, []any{"c", "d"}}, nil},
		{"c", nil, parser.ErrNotInLanguage},
		{"d", nil, parser.ErrNotInLanguage},
	})

	b = grammar.NewBuilder()
	b.NonEmptyList("list", "COMMA", "A+")
	runCases(t, compile(t, b), lex, []parseCase{
		{"a, aa, aaa", []any{[]any{"a"}, []any{"a", "a"}, []any{"a", "a", "a"}}, nil},
	})

	b = grammar.NewBuilder()
	b.NonEmptyList("list", "", "A", "B")
	runCases(t, compile(t, b), lex, []parseCase{
		{"a b a", []any{"a", "b", "a"}, nil},
		{"a, b", nil, parser.ErrBadToken},
	})
}

var (
	errPlus = errors.New("dangling plus")
	errSub  = errors.New("dangling minus")
)

func errorCalc() *grammar.Builder {
	b := grammar.NewBuilder()
	b.Productions("e", func(c *grammar.Clauses) {
		c.Clause("NUM", grammar.First)
		c.Clause("e PLS e", func(_ grammar.Context, v ...any) (any, error) { return v[0].(int) + v[2].(int), nil })
		c.Clause("e SUB e", func(_ grammar.Context, v ...any) (any, error) { return v[0].(int) - v[2].(int), nil })
		c.Clause("e PLS ERROR", func(grammar.Context, ...any) (any, error) { return nil, grammar.Fatal(errPlus) })
		c.Clause("e SUB ERROR", func(grammar.Context, ...any) (any, error) { return nil, grammar.Fatal(errSub) })
	})
	return b
}

func TestParse_ErrorProductionFatal(t *testing.T) {
	p := compile(t, errorCalc())

	tests := []struct {
		input string
		want  error
	}{
		{"1 + +", errPlus},
		{"1 - +", errSub},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := calc.Eval(p, tt.input)
			if err != tt.want {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	got, err := calc.Eval(p, "1 + 2", parser.WithAccept(parser.AcceptFirst))
	if err != nil || got != 3 {
		t.Errorf("got %v %v, want 3", got, err)
	}
}

const lineLexicon = `
WORD = letter { letter } .
SEMI = ";" .
NEWLINE = "\n" .
WS = " " | "\t" .
letter = "a" … "z" | "A" … "Z" .
`

func TestParse_ErrorRecovery(t *testing.T) {
	b := grammar.NewBuilder()
	b.Production("s", "line*", grammar.First)
	b.Productions("line", func(c *grammar.Clauses) {
		c.Clause("NEWLINE", grammar.Value(nil))
		c.Clause("WORD+ SEMI NEWLINE", grammar.First)
		c.Clause("WORD+ ERROR NEWLINE", func(ctx grammar.Context, v ...any) (any, error) {
			ctx.Error(ctx.Pos(1).Line)
			return v[0], nil
		})
	})
	p := compile(t, b)
	lex := lexerFor(t, lineLexicon, "WS")

	input := "first line;\nsecond line\nthird line;\nfourth line\n"
	_, err := p.Parse(lex(input))

	var handled *parser.HandledError
	if !errors.As(err, &handled) {
		t.Fatalf("got %v, want *HandledError", err)
	}
	if diff := cmp.Diff([]any{2, 4}, handled.Errors); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	want := []any{
		[]any{"first", "line"},
		[]any{"second", "line"},
		[]any{"third", "line"},
		[]any{"fourth", "line"},
	}
	if diff := cmp.Diff(want, handled.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	got, err := p.Parse(lex("one;\n\ntwo three;\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff([]any{[]any{"one"}, nil, []any{"two", "three"}}, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ErrorTokenSkipsInput(t *testing.T) {
	b := grammar.NewBuilder()
	b.Productions("stmt", func(c *grammar.Clauses) {
		c.Clause("A B", grammar.Value("ok"))
		c.Clause("A ERROR C", func(ctx grammar.Context, v ...any) (any, error) {
			et := v[1].(*parser.ErrorToken)
			var skipped []string
			for _, tok := range et.Tokens {
				skipped = append(skipped, tok.Literal())
			}
			ctx.Error(strings.Join(skipped, " "))
			return "recovered", nil
		})
	})
	p := compile(t, b)
	lex := lexerFor(t, alphaLexicon, "WS")

	_, err := p.Parse(lex("a a b a c"))
	var handled *parser.HandledError
	if !errors.As(err, &handled) {
		t.Fatalf("got %v, want *HandledError", err)
	}
	if diff := cmp.Diff([]any{"a b a"}, handled.Errors); diff != "" {
		t.Errorf("skipped tokens mismatch (-want +got):\n%s", diff)
	}
	if handled.Result != "recovered" {
		t.Errorf("got result %v, want recovered", handled.Result)
	}

	if _, err := p.Parse(lex("a a")); !errors.Is(err, parser.ErrNotInLanguage) {
		t.Errorf("got %v, want ErrNotInLanguage", err)
	}
}

func TestParse_BadToken(t *testing.T) {
	p := compile(t, errorCalc())

	for _, kind := range []string{"IDENT", grammar.EOS, grammar.ERROR} {
		t.Run(kind, func(t *testing.T) {
			_, err := p.ParseTokens([]token.Token{token.New("NUM", 1), token.New(kind, nil)})
			var bad *parser.BadTokenError
			if !errors.As(err, &bad) {
				t.Fatalf("got %v, want *BadTokenError", err)
			}
			if bad.Index != 1 || bad.Token.Kind != kind {
				t.Errorf("got token %d %s", bad.Index, bad.Token.Kind)
			}
		})
	}
}

func TestParse_NotInLanguagePosition(t *testing.T) {
	p := parser.MustCompile(calc.Infix())

	_, err := calc.Eval(p, "1 + * 2")
	var nerr *parser.NotInLanguageError
	if !errors.As(err, &nerr) {
		t.Fatalf("got %v, want *NotInLanguageError", err)
	}
	if nerr.Index != 2 || nerr.Token.Kind != "MUL" || nerr.Token.Position.Column != 5 {
		t.Errorf("got %d %s at %s", nerr.Index, nerr.Token.Kind, nerr.Token.Position)
	}

	_, err = calc.Eval(p, "(1 + 2")
	if !errors.As(err, &nerr) || nerr.Token.Kind != grammar.EOS {
		t.Errorf("got %v, want unexpected end of input", err)
	}
}

func TestParse_ActionErrorKillsDerivation(t *testing.T) {
	p := parser.MustCompile(calc.Ambiguous())

	got, err := calc.Eval(p, "4 / 2 - 2")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 0 {
		t.Errorf("got %v, want 0", got)
	}

	_, err = calc.Eval(p, "1 / 0")
	if !errors.Is(err, parser.ErrNotInLanguage) || !errors.Is(err, calc.ErrDivisionByZero) {
		t.Errorf("got %v, want not in language caused by division by zero", err)
	}
}

type counter struct{ n int }

func (c *counter) Clone() any {
	cp := *c
	return &cp
}

func TestParse_EnvClonedOnFork(t *testing.T) {
	b := grammar.NewBuilder()
	b.Env(func() any { return &counter{} })
	count := func(ctx grammar.Context, v ...any) (any, error) {
		c := ctx.Env().(*counter)
		c.n++
		return c.n, nil
	}
	b.Productions("e", func(c *grammar.Clauses) {
		c.Clause("NUM", count)
		c.Clause("e PLS e", count)
		c.Clause("e MUL e", count)
	})
	p := compile(t, b)

	got, err := calc.Eval(p, "1 + 2 * 3", parser.WithAccept(parser.AcceptAll))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if diff := cmp.Diff([]any{5, 5}, got); diff != "" {
		t.Errorf("per-derivation counts mismatch (-want +got):\n%s", diff)
	}
}

type sharedCounter struct{ n int }

func TestParse_EnvSharedWithoutCloner(t *testing.T) {
	b := grammar.NewBuilder()
	count := func(ctx grammar.Context, v ...any) (any, error) {
		c := ctx.Env().(*sharedCounter)
		c.n++
		return c.n, nil
	}
	b.Productions("e", func(c *grammar.Clauses) {
		c.Clause("NUM", count)
		c.Clause("e PLS e", count)
		c.Clause("e MUL e", count)
	})
	p := compile(t, b)

	env := &sharedCounter{}
	got, err := calc.Eval(p, "1 + 2 * 3", parser.WithAccept(parser.AcceptAll), parser.WithEnv(env))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	results := got.([]any)
	if len(results) != 2 || results[0] == results[1] {
		t.Errorf("got %v, want two distinct counts", results)
	}
	if env.n <= 5 {
		t.Errorf("shared counter = %d, want more than one derivation's reductions", env.n)
	}
}

func TestParse_AcceptAllSingleDerivation(t *testing.T) {
	p := parser.MustCompile(calc.Ambiguous())

	got, err := calc.Eval(p, "1 + 2", parser.WithAccept(parser.AcceptAll))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 3 {
		t.Errorf("got %#v, want 3", got)
	}
}

func TestNew_RuleMismatch(t *testing.T) {
	g := calc.Infix()
	tests := []struct {
		name   string
		mutate func(*table.Table)
	}{
		{"length", func(tbl *table.Table) { tbl.Rules[1].Len += 2 }},
		{"lhs", func(tbl *table.Table) { tbl.Rules[1].LHS = "other" }},
		{"missing rule", func(tbl *table.Table) { tbl.Rules = tbl.Rules[:len(tbl.Rules)-1] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := table.Build(g)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			tt.mutate(tbl)
			if _, err := parser.New(g, tbl); !errors.Is(err, parser.ErrTableMismatch) {
				t.Errorf("got %v, want ErrTableMismatch", err)
			}
		})
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	g := calc.Infix()
	tbl, err := table.Build(g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := table.Encode(&buf, tbl); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	encoded := buf.Bytes()

	p, err := parser.Load(g, bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for input, want := range map[string]int{"1 + 2": 3, "1 + 2 * 3": 7, "(1 + 2) * 3": 9} {
		got, err := calc.Eval(p, input)
		if err != nil || got != want {
			t.Errorf("Eval(%q): got %v %v, want %d", input, got, err, want)
		}
	}

	if _, err := parser.Load(calc.Prefix(), bytes.NewReader(encoded)); !errors.Is(err, parser.ErrTableMismatch) {
		t.Errorf("got %v, want ErrTableMismatch", err)
	}
}

func TestParse_Concurrent(t *testing.T) {
	p := parser.MustCompile(calc.Infix())

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			input := fmt.Sprintf("%d * (%d + 1)", i, i)
			got, err := calc.Eval(p, input)
			if err != nil {
				return err
			}
			if got != i*(i+1) {
				return fmt.Errorf("%s: got %v, want %d", input, got, i*(i+1))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Error(err)
	}
}

func TestParseAcceptMode(t *testing.T) {
	tests := []struct {
		in      string
		want    parser.AcceptMode
		wantErr bool
	}{
		{"first", parser.AcceptFirst, false},
		{"all", parser.AcceptAll, false},
		{"error", parser.AcceptError, false},
		{"", parser.AcceptError, false},
		{"some", parser.AcceptError, true},
	}
	for _, tt := range tests {
		got, err := parser.ParseAcceptMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAcceptMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}
