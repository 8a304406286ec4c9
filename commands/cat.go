package commands

import (
	"fmt"

	"github.com/bish-sh/bish/core/vos"
)

// Cat implements the cat command with -n.
func Cat(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "cat [OPTION]... [FILE]...",
		Short: "Concatenate FILE(s) to standard output.",
	}
	number := cmd.Flags().Bool('n', "number all output lines")
	return cmd.Run(p, func() int {
		text, status := readInput(p, cmd.Flags().Args())
		if status != 0 {
			return status
		}
		if !*number {
			fmt.Fprint(p.Stdout, text)
			return 0
		}
		for i, line := range lines(text) {
			fmt.Fprintf(p.Stdout, "%6d\t%s\n", i+1, line)
		}
		return 0
	})
}

func init() {
	register("cat", Cat)
}
