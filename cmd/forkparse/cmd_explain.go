package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/forkparse/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newExplainCmd() *cobra.Command {
	var startProduction string
	var output string

	cmd := &cobra.Command{
		Use:   "explain <grammar.ebnf>",
		Short: "Print the rules and parse table of a grammar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			colored := !color.NoColor
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
				colored = false
			}

			_, _, err := compile(args[0], startProduction, table.WithExplain(w), table.WithColor(colored))
			return err
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production (default: first lowercase production)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the dump to a file")

	return cmd
}
