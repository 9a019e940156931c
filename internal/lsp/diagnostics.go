package lsp

import (
	"bytes"
	"errors"
	"reflect"
	"regexp"
	"strconv"

	"github.com/dhamidi/forkparse/ebnf/parse"
	"github.com/dhamidi/forkparse/grammar"
	"github.com/dhamidi/forkparse/table"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/multierr"
	"golang.org/x/exp/ebnf"
)

// positioned matches "file:line:col: message" and "line:col: message".
var positioned = regexp.MustCompile(`^(?:.*:)?(\d+):(\d+): (.*)$`)

// Diagnose checks the grammar in text and returns one diagnostic per
// defect. The result is empty, never nil, for a clean grammar.
func Diagnose(path string, text []byte) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}

	g, err := ebnf.Parse(path, bytes.NewReader(text))
	if err != nil {
		for _, e := range splitErrors(err) {
			diags = append(diags, diagnostic(e.Error(), 0, 0))
		}
		return diags
	}

	start := parse.DefaultStart(g)
	if start == "" {
		return append(diags, diagnostic("grammar has no lowercase production", 0, 0))
	}

	converted, _, err := parse.Convert(g, start)
	if err == nil {
		_, err = table.Build(converted)
	}
	for _, e := range multierr.Errors(err) {
		diags = append(diags, malformed(g, e))
	}
	return diags
}

// splitErrors lists the errors of an ebnf error list.
func splitErrors(err error) []error {
	v := reflect.ValueOf(err)
	if v.Kind() != reflect.Slice {
		return []error{err}
	}
	errs := make([]error, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if e, ok := v.Index(i).Interface().(error); ok {
			errs = append(errs, e)
		}
	}
	return errs
}

func malformed(g ebnf.Grammar, err error) protocol.Diagnostic {
	var me *grammar.MalformedError
	if !errors.As(err, &me) {
		return diagnostic(err.Error(), 0, 0)
	}
	if m := positioned.FindStringSubmatch(me.Msg); m != nil {
		return diagnostic(m[0], 0, 0)
	}
	if prod, ok := g[me.Production]; ok {
		pos := prod.Pos()
		return protocol.Diagnostic{
			Range:    span(pos.Line, pos.Column, len(me.Production)),
			Severity: severityPtr(protocol.DiagnosticSeverityError),
			Source:   stringPtr(lsName),
			Message:  me.Error(),
		}
	}
	return diagnostic(me.Error(), 0, 0)
}

// diagnostic positions msg at its "line:col:" prefix, falling back to
// line and col when msg has none. Lines and columns count from 1.
func diagnostic(msg string, line, col int) protocol.Diagnostic {
	if m := positioned.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		col, _ = strconv.Atoi(m[2])
		msg = m[3]
	}
	return protocol.Diagnostic{
		Range:    span(line, col, 1),
		Severity: severityPtr(protocol.DiagnosticSeverityError),
		Source:   stringPtr(lsName),
		Message:  msg,
	}
}

func span(line, col, width int) protocol.Range {
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)},
		End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col + width)},
	}
}

func severityPtr(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func stringPtr(s string) *string {
	return &s
}
