package commands

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bish-sh/bish/core/vos"
)

// True and False are the classic no-ops.
func True(*vos.Process) int { return 0 }

func False(*vos.Process) int { return 1 }

// Sleep checks its argument and the invocation deadline but does not
// actually block: simulated time keeps runs deterministic.
func Sleep(p *vos.Process) int {
	if len(p.Argv) < 2 {
		fmt.Fprintln(p.Stderr, "sleep: missing operand")
		return 1
	}
	if _, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(p.Argv[1], "s"), "m"), 64); err != nil {
		fmt.Fprintf(p.Stderr, "sleep: invalid time interval '%s'\n", p.Argv[1])
		return 1
	}
	if !p.Deadline.IsZero() && time.Now().After(p.Deadline) {
		return 1
	}
	return 0
}

// Seq prints number sequences: seq LAST, seq FIRST LAST, seq FIRST INC LAST.
func Seq(p *vos.Process) int {
	args := p.Argv[1:]
	sep := "\n"
	for len(args) > 1 && args[0] == "-s" {
		sep = args[1]
		args = args[2:]
	}
	var first, inc, last int64 = 1, 1, 1
	var err error
	switch len(args) {
	case 1:
		last, err = strconv.ParseInt(args[0], 10, 64)
	case 2:
		if first, err = strconv.ParseInt(args[0], 10, 64); err == nil {
			last, err = strconv.ParseInt(args[1], 10, 64)
		}
	case 3:
		if first, err = strconv.ParseInt(args[0], 10, 64); err == nil {
			if inc, err = strconv.ParseInt(args[1], 10, 64); err == nil {
				last, err = strconv.ParseInt(args[2], 10, 64)
			}
		}
	default:
		fmt.Fprintln(p.Stderr, "seq: missing operand")
		return 1
	}
	if err != nil || inc == 0 {
		fmt.Fprintln(p.Stderr, "seq: invalid operand")
		return 1
	}
	var out []string
	if inc > 0 {
		for n := first; n <= last; n += inc {
			out = append(out, strconv.FormatInt(n, 10))
		}
	} else {
		for n := first; n >= last; n += inc {
			out = append(out, strconv.FormatInt(n, 10))
		}
	}
	if len(out) > 0 {
		fmt.Fprintln(p.Stdout, strings.Join(out, sep))
	}
	return 0
}

// Basename strips directories and an optional suffix.
func Basename(p *vos.Process) int {
	if len(p.Argv) < 2 {
		fmt.Fprintln(p.Stderr, "basename: missing operand")
		return 1
	}
	b := path.Base(p.Argv[1])
	if len(p.Argv) > 2 && b != p.Argv[2] {
		b = strings.TrimSuffix(b, p.Argv[2])
	}
	fmt.Fprintln(p.Stdout, b)
	return 0
}

// Dirname prints the directory part of each path.
func Dirname(p *vos.Process) int {
	if len(p.Argv) < 2 {
		fmt.Fprintln(p.Stderr, "dirname: missing operand")
		return 1
	}
	for _, arg := range p.Argv[1:] {
		fmt.Fprintln(p.Stdout, path.Dir(arg))
	}
	return 0
}

// Env prints the exported environment sorted by name.
func Env(p *vos.Process) int {
	names := make([]string, 0, len(p.Env))
	for k := range p.Env {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(p.Stdout, "%s=%s\n", k, p.Env[k])
	}
	return 0
}

// Which reports whether commands exist in the registry.
func Which(p *vos.Process) int {
	status := 0
	for _, arg := range p.Argv[1:] {
		if _, ok := AllCommands[arg]; ok {
			fmt.Fprintf(p.Stdout, "/usr/bin/%s\n", arg)
		} else {
			status = 1
		}
	}
	return status
}

func init() {
	register("true", True)
	register("false", False)
	register("sleep", Sleep)
	register("seq", Seq)
	register("basename", Basename)
	register("dirname", Dirname)
	register("env", Env)
	register("which", Which)
}
