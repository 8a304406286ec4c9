package commands

import (
	"fmt"
	"strings"

	"github.com/bish-sh/bish/core/vos"
)

// Echo implements the echo command with -n, -e and -E.
func Echo(p *vos.Process) int {
	args := p.Argv[1:]
	newline := true
	escapes := false
	for len(args) > 0 {
		switch args[0] {
		case "-n":
			newline = false
		case "-e":
			escapes = true
		case "-E":
			escapes = false
		case "-ne", "-en":
			newline = false
			escapes = true
		default:
			goto body
		}
		args = args[1:]
	}
body:
	out := strings.Join(args, " ")
	if escapes {
		var done bool
		out, done = echoUnescape(out)
		if done {
			newline = false
		}
	}
	fmt.Fprint(p.Stdout, out)
	if newline {
		fmt.Fprintln(p.Stdout)
	}
	return 0
}

// echoUnescape interprets the echo -e escape set; \c truncates output and
// suppresses the newline.
func echoUnescape(s string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte(7)
		case 'b':
			b.WriteByte(8)
		case 'f':
			b.WriteByte(12)
		case 'v':
			b.WriteByte(11)
		case 'e', 'E':
			b.WriteByte(27)
		case '\\':
			b.WriteByte('\\')
		case '0':
			v := 0
			n := 0
			for n < 3 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7' {
				i++
				n++
				v = v*8 + int(s[i]-'0')
			}
			b.WriteByte(byte(v))
		case 'c':
			return b.String(), true
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), false
}

func init() {
	register("echo", Echo)
}
