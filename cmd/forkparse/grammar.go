package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/dhamidi/forkparse/ebnf/parse"
	"github.com/dhamidi/forkparse/grammar"
	"github.com/dhamidi/forkparse/table"
	"golang.org/x/exp/ebnf"
)

// startFor picks the start production: the flag, then the config file,
// then the first lowercase production of g.
func startFor(flag string, g ebnf.Grammar) string {
	switch {
	case flag != "":
		return flag
	case cfg.Start != "":
		return cfg.Start
	}
	return parse.DefaultStart(g)
}

// readGrammar parses the EBNF file at path, printing every syntax error.
func readGrammar(path string) (ebnf.Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	g, err := ebnf.Parse(path, f)
	if err != nil {
		printErrors(err)
		return nil, fmt.Errorf("parse %s: invalid grammar", path)
	}
	return g, nil
}

// compile converts the grammar in path and builds its parse table.
func compile(path, start string, opts ...table.Option) (*grammar.Grammar, *table.Table, error) {
	src, err := readGrammar(path)
	if err != nil {
		return nil, nil, err
	}
	g, _, err := parse.Convert(src, startFor(start, src))
	if err != nil {
		printErrors(err)
		return nil, nil, fmt.Errorf("convert %s: malformed grammar", path)
	}
	t, err := table.Build(g, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("build table: %w", err)
	}
	return g, t, nil
}

func printErrors(err error) {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range u.Unwrap() {
			fmt.Fprintln(os.Stderr, e)
		}
		return
	}
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(os.Stderr, v.Index(i).Interface())
		}
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
}
