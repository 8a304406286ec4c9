package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/anmitsu/go-shlex"

	"github.com/bish-sh/bish/core/vos"
)

// Xargs builds argument lists from stdin and hands them to another
// registered command. Input is tokenized with shell-style quoting.
func Xargs(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "xargs [-n MAX] [COMMAND [ARG]...]",
		Short: "Build and execute command lines from standard input.",
	}
	perCall := cmd.Flags().Int('n', 0, "use at most MAX arguments per command line")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			args = []string{"echo"}
		}
		data, err := io.ReadAll(p.Stdin)
		if err != nil {
			fmt.Fprintf(p.Stderr, "xargs: %v\n", err)
			return 1
		}
		tokens, err := shlex.Split(strings.TrimSpace(string(data)), true)
		if err != nil {
			fmt.Fprintf(p.Stderr, "xargs: unmatched quote\n")
			return 1
		}
		target, ok := AllCommands[args[0]]
		if !ok {
			fmt.Fprintf(p.Stderr, "xargs: %s: command not found\n", args[0])
			return 127
		}
		if len(tokens) == 0 {
			tokens = []string{}
		}
		chunk := len(tokens)
		if *perCall > 0 {
			chunk = *perCall
		}
		status := 0
		for start := 0; ; start += chunk {
			end := start + chunk
			if end > len(tokens) {
				end = len(tokens)
			}
			argv := append(append([]string{}, args...), tokens[start:end]...)
			sub := *p
			sub.Argv = argv
			sub.Stdin = strings.NewReader("")
			if s := target(&sub); s != 0 {
				status = 123
			}
			if end >= len(tokens) {
				break
			}
		}
		return status
	})
}

func init() {
	register("xargs", Xargs)
}
