package commands

import (
	"fmt"
	"strings"

	"github.com/benhoyt/goawk/interp"
	"github.com/benhoyt/goawk/parser"

	"github.com/bish-sh/bish/core/vos"
)

// Awk runs AWK programs with goawk. Named file operands are read through
// the virtual filesystem and fed as input, keeping execution hermetic.
func Awk(p *vos.Process) int {
	args := p.Argv[1:]
	fieldSep := ""
	var assigns []string
	program := ""
	var files []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-F" && i+1 < len(args):
			i++
			fieldSep = args[i]
		case strings.HasPrefix(arg, "-F") && len(arg) > 2:
			fieldSep = arg[2:]
		case arg == "-v" && i+1 < len(args):
			i++
			k, v, ok := strings.Cut(args[i], "=")
			if !ok {
				fmt.Fprintf(p.Stderr, "awk: invalid -v assignment %q\n", args[i])
				return 2
			}
			assigns = append(assigns, k, v)
		case arg == "--":
		case program == "":
			program = arg
		default:
			files = append(files, arg)
		}
	}
	if program == "" {
		fmt.Fprintln(p.Stderr, "usage: awk [-F fs] [-v var=value] program [file...]")
		return 2
	}
	prog, err := parser.ParseProgram([]byte(program), nil)
	if err != nil {
		fmt.Fprintf(p.Stderr, "awk: %v\n", err)
		return 2
	}
	input, status := readInput(p, files)
	if status != 0 {
		return status
	}
	vars := assigns
	if fieldSep != "" {
		vars = append(vars, "FS", fieldSep)
	}
	config := &interp.Config{
		Stdin:  strings.NewReader(input),
		Output: p.Stdout,
		Error:  p.Stderr,
		Vars:   vars,
		Environ: func() []string {
			var env []string
			for k, v := range p.Env {
				env = append(env, k+"="+v)
			}
			return env
		}(),
		NoExec:       true,
		NoFileReads:  true,
		NoFileWrites: true,
	}
	code, err := interp.ExecProgram(prog, config)
	if err != nil {
		fmt.Fprintf(p.Stderr, "awk: %v\n", err)
		return 2
	}
	return code
}

func init() {
	register("awk", Awk)
}
