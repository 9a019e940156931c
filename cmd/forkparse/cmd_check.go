package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"
)

func newCheckCmd() *cobra.Command {
	var startProduction string
	var verify bool

	cmd := &cobra.Command{
		Use:           "check <grammar.ebnf>",
		Short:         "Parse, verify and compile an EBNF grammar file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			if verify {
				g, err := readGrammar(filename)
				if err != nil {
					return err
				}
				if err := ebnf.Verify(g, startFor(startProduction, g)); err != nil {
					printErrors(err)
					return fmt.Errorf("verify %s: failed", filename)
				}
			}

			g, t, err := compile(filename, startProduction)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: start %s, %d rules, %d states, %d conflicts\n",
				filename, g.Start(), len(t.Rules), len(t.Rows), t.Conflicts())
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production (default: first lowercase production)")
	cmd.Flags().BoolVar(&verify, "verify", false, "also run ebnf.Verify, which requires token productions in the same file")

	return cmd
}
