package main

import (
	"fmt"

	"github.com/dhamidi/forkparse/table"
	"github.com/spf13/cobra"
)

func newCompileCmd() *cobra.Command {
	var startProduction string
	var output string

	cmd := &cobra.Command{
		Use:   "compile <grammar.ebnf>",
		Short: "Build the parse table of a grammar and write it to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := compile(args[0], startProduction)
			if err != nil {
				return err
			}
			if err := table.Save(output, t); err != nil {
				return fmt.Errorf("save table: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d states)\n", output, len(t.Rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production (default: first lowercase production)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "table file to write")
	cmd.MarkFlagRequired("output")

	return cmd
}
