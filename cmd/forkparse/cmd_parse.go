package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/forkparse/ebnf/parse"
	"github.com/dhamidi/forkparse/ebnflex"
	"github.com/dhamidi/forkparse/format"
	"github.com/dhamidi/forkparse/parser"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var lexerFile, grammarFile string
	var startProduction, accept, cacheDir, outputFormat string
	var skip []string

	cmd := &cobra.Command{
		Use:   "parse --lexer lex.ebnf --grammar g.ebnf <input>",
		Short: "Parse an input file and print its syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			if cmd.Flags().Changed("accept") || cfg.AcceptStr == "" {
				cfg.AcceptStr = accept
			}
			if !cmd.Flags().Changed("skip") && len(cfg.Skip) > 0 {
				skip = cfg.Skip
			}
			if cacheDir != "" {
				cfg.CacheDir = cacheDir
			}
			mode, err := cfg.Accept()
			if err != nil {
				return err
			}

			lexG, err := ebnflex.LoadGrammar(lexerFile)
			if err != nil {
				return fmt.Errorf("load lexer: %w", err)
			}
			parserG, err := parse.LoadGrammar(grammarFile)
			if err != nil {
				return fmt.Errorf("load grammar: %w", err)
			}

			opts := []parse.Option{parse.WithAccept(mode)}
			if path := cfg.CachePath(grammarFile); path != "" {
				opts = append(opts, parse.WithCache(path))
			}
			p, err := parse.NewParser(parserG, startFor(startProduction, parserG), opts...)
			if err != nil {
				printErrors(err)
				return fmt.Errorf("compile %s: failed", grammarFile)
			}

			input, err := readInput(filename)
			if err != nil {
				return err
			}
			lexer := ebnflex.NewLexer(lexG, input, filename)
			lexer.SetSkipKinds(skip...)

			enc, err := format.NewEncoder(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if mode == parser.AcceptAll {
				nodes, err := p.ParseAll(lexer)
				if err != nil {
					return fmt.Errorf("parse %s: %w", filename, err)
				}
				for _, n := range nodes {
					if err := enc.Encode(n); err != nil {
						return fmt.Errorf("encode: %w", err)
					}
				}
				return nil
			}

			node, err := p.Parse(lexer)
			if err != nil {
				return fmt.Errorf("parse %s: %w", filename, err)
			}
			if err := enc.Encode(node); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&lexerFile, "lexer", "", "EBNF file with token productions")
	cmd.Flags().StringVar(&grammarFile, "grammar", "", "EBNF file with syntactic productions")
	cmd.Flags().StringVar(&startProduction, "start", "", "start production (default: first lowercase production)")
	cmd.Flags().StringVar(&accept, "accept", "first", "ambiguity handling: first, all or error")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "token kinds to drop before parsing")
	cmd.Flags().StringVar(&cacheDir, "cache", "", "directory for cached parse tables")
	cmd.Flags().StringVar(&outputFormat, "format", "json", "output format: json or line")
	cmd.MarkFlagRequired("lexer")
	cmd.MarkFlagRequired("grammar")

	return cmd
}

func readInput(filename string) ([]byte, error) {
	if filename == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
