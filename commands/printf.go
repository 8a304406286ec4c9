package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bish-sh/bish/core/vos"
)

// Printf implements a POSIX-ish printf: the format is reused until all
// arguments are consumed.
func Printf(p *vos.Process) int {
	args := p.Argv[1:]
	if len(args) == 0 {
		fmt.Fprintf(p.Stderr, "printf: usage: printf format [arguments]\n")
		return 2
	}
	format := args[0]
	args = args[1:]
	for {
		used, out, errMsg := formatOnce(format, args)
		if errMsg != "" {
			fmt.Fprintf(p.Stderr, "printf: %s\n", errMsg)
			return 1
		}
		fmt.Fprint(p.Stdout, out)
		if used >= len(args) {
			return 0
		}
		if used == 0 {
			return 0 // format consumes nothing; avoid spinning
		}
		args = args[used:]
	}
}

// formatOnce renders one pass of the format, returning how many arguments
// it consumed.
func formatOnce(format string, args []string) (int, string, string) {
	var b strings.Builder
	used := 0
	next := func() string {
		if used < len(args) {
			used++
			return args[used-1]
		}
		return ""
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '\\' && i+1 < len(format) {
			i++
			switch format[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case 'a':
				b.WriteByte(7)
			case 'e':
				b.WriteByte(27)
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte('\\')
				b.WriteByte(format[i])
			}
			continue
		}
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		// Collect flags, width and precision.
		j := i + 1
		for j < len(format) && strings.IndexByte("-+ #0123456789.*", format[j]) >= 0 {
			j++
		}
		if j >= len(format) {
			b.WriteByte('%')
			break
		}
		spec := format[i : j+1]
		verb := format[j]
		i = j
		switch verb {
		case 's':
			fmt.Fprintf(&b, spec, next())
		case 'b':
			s, _ := echoUnescape(next())
			fmt.Fprintf(&b, strings.TrimSuffix(spec, "b")+"s", s)
		case 'q':
			fmt.Fprintf(&b, strings.TrimSuffix(spec, "q")+"s", shellQuoted(next()))
		case 'c':
			s := next()
			if s == "" {
				continue
			}
			fmt.Fprintf(&b, strings.TrimSuffix(spec, "c")+"s", s[:1])
		case 'd', 'i':
			n, err := parsePrintfInt(next())
			if err != nil {
				return used, b.String(), err.Error()
			}
			fmt.Fprintf(&b, strings.TrimSuffix(strings.TrimSuffix(spec, "d"), "i")+"d", n)
		case 'o', 'x', 'X', 'u':
			n, err := parsePrintfInt(next())
			if err != nil {
				return used, b.String(), err.Error()
			}
			v := strings.TrimSuffix(spec, string(verb))
			if verb == 'u' {
				fmt.Fprintf(&b, v+"d", n)
			} else {
				fmt.Fprintf(&b, v+string(verb), n)
			}
		case 'e', 'E', 'f', 'g', 'G':
			f, err := strconv.ParseFloat(strings.TrimSpace(next()), 64)
			if err != nil {
				f = 0
			}
			fmt.Fprintf(&b, spec, f)
		default:
			return used, b.String(), fmt.Sprintf("%%%c: invalid directive", verb)
		}
	}
	return used, b.String(), ""
}

func parsePrintfInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if len(s) > 1 && (s[0] == '\'' || s[0] == '"') {
		return int64(s[1]), nil
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number", s)
	}
	return n, nil
}

func shellQuoted(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func init() {
	register("printf", Printf)
}
