package table

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dhamidi/forkparse/grammar"
	"github.com/fatih/color"
)

func explain(w io.Writer, g *grammar.Grammar, t *Table, colored bool) error {
	heading := color.New(color.Bold, color.FgCyan)
	state := color.New(color.Bold)
	if colored {
		heading.EnableColor()
		state.EnableColor()
	} else {
		heading.DisableColor()
		state.DisableColor()
	}

	bw := bufio.NewWriter(w)

	heading.Fprintln(bw, "# Rules #")
	fmt.Fprintln(bw)
	fmt.Fprint(bw, g.String())
	fmt.Fprintln(bw)

	heading.Fprintln(bw, "# Parse Table #")
	fmt.Fprintln(bw)

	for _, row := range t.Rows {
		state.Fprintf(bw, "State %d:\n", row.ID)

		width := 0
		for _, r := range row.set.rules {
			if len(r.LHS) > width {
				width = len(r.LHS)
			}
		}
		for _, r := range row.set.rules {
			fmt.Fprintf(bw, "\t%s\n", r.Format(width, true))
		}

		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "\t# ACTIONS #")
		for _, k := range row.keys {
			for _, a := range row.actions[k] {
				fmt.Fprintf(bw, "\tOn %s %s\n", k, a)
			}
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}
