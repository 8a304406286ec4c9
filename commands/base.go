// Package commands implements the virtual external-looking utilities the
// interpreter dispatches to. Each command obeys the dispatch contract:
// argv and buffered stdin in, captured stdout/stderr and an exit status
// out, with the shared virtual filesystem for file access.
package commands

import (
	"fmt"
	"io"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/bish-sh/bish/core/vfs"
	"github.com/bish-sh/bish/core/vos"
)

func fsMsg(err error) string { return vfs.ShellMsg(err) }

// AllCommands holds every registered command by name.
var AllCommands = vos.Registry{}

func register(name string, cmd vos.CommandFunc) {
	AllCommands[name] = cmd
}

// Registry returns the full command table.
func Registry() vos.Registry {
	out := make(vos.Registry, len(AllCommands))
	for k, v := range AllCommands {
		out[k] = v
	}
	return out
}

// SimpleCommand wires getopt parsing and help output for a utility.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not. If this is non-nil
	// when Run() is called, the default help flag isn't added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}
	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses flags and, when parsing succeeds, calls the callback.
func (s *SimpleCommand) Run(p *vos.Process, callback func() int) int {
	opts := s.Flags()
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 0, "show this help and exit")
	}
	if err := opts.Getopt(p.Argv, nil); err != nil {
		fmt.Fprintf(p.Stderr, "%s: %s\n", p.Argv[0], err)
		s.PrintHelp(p.Stderr)
		return 2
	}
	if *s.ShowHelp {
		s.PrintHelp(p.Stdout)
		return 0
	}
	return callback()
}

// readInput concatenates the named files, or stdin when none are given.
func readInput(p *vos.Process, args []string) (string, int) {
	if len(args) == 0 {
		data, err := io.ReadAll(p.Stdin)
		if err != nil {
			fmt.Fprintf(p.Stderr, "%s: %v\n", p.Argv[0], err)
			return "", 1
		}
		return string(data), 0
	}
	var b strings.Builder
	for _, arg := range args {
		if arg == "-" {
			data, _ := io.ReadAll(p.Stdin)
			b.Write(data)
			continue
		}
		data, err := p.FS.ReadFile(p.Path(arg))
		if err != nil {
			fmt.Fprintf(p.Stderr, "%s: %s: %s\n", p.Argv[0], arg, fsMsg(err))
			return "", 1
		}
		b.Write(data)
	}
	return b.String(), 0
}

// lines splits text into lines without a trailing empty element.
func lines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
