package commands

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bish-sh/bish/core/vos"
)

// Grep implements a regexp grep over the virtual filesystem: -i, -v, -n,
// -c, -q, -E (patterns are extended by default, as in ripgrep-alikes),
// and -F for fixed strings.
func Grep(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "grep [OPTIONS] PATTERN [FILE]...",
		Short: "Print lines matching a pattern.",
	}
	ignoreCase := cmd.Flags().Bool('i', "ignore case distinctions")
	invert := cmd.Flags().Bool('v', "select non-matching lines")
	lineNum := cmd.Flags().Bool('n', "print line numbers")
	countOnly := cmd.Flags().Bool('c', "print only a count of matching lines")
	quiet := cmd.Flags().Bool('q', "suppress all normal output")
	fixed := cmd.Flags().Bool('F', "interpret the pattern as a fixed string")
	cmd.Flags().Bool('E', "extended regular expressions (default)")
	onlyMatch := cmd.Flags().Bool('o', "print only the matched parts")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			fmt.Fprintln(p.Stderr, "grep: missing pattern")
			return 2
		}
		pat := args[0]
		if *fixed {
			pat = regexp.QuoteMeta(pat)
		}
		if *ignoreCase {
			pat = "(?i)" + pat
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			fmt.Fprintf(p.Stderr, "grep: invalid pattern: %v\n", err)
			return 2
		}
		files := args[1:]
		showName := len(files) > 1
		matched := false
		status := 0
		emit := func(name, line string, num int) {
			matched = true
			if *quiet || *countOnly {
				return
			}
			var b strings.Builder
			if showName {
				b.WriteString(name + ":")
			}
			if *lineNum {
				fmt.Fprintf(&b, "%d:", num)
			}
			if *onlyMatch {
				for _, m := range re.FindAllString(line, -1) {
					fmt.Fprintf(p.Stdout, "%s%s\n", b.String(), m)
				}
				return
			}
			b.WriteString(line)
			fmt.Fprintln(p.Stdout, b.String())
		}
		scan := func(name, text string) {
			count := 0
			for i, line := range lines(text) {
				hit := re.MatchString(line)
				if hit != *invert {
					count++
					emit(name, line, i+1)
				}
			}
			if *countOnly && !*quiet {
				if showName {
					fmt.Fprintf(p.Stdout, "%s:%d\n", name, count)
				} else {
					fmt.Fprintf(p.Stdout, "%d\n", count)
				}
			}
		}
		if len(files) == 0 {
			text, st := readInput(p, nil)
			if st != 0 {
				return st
			}
			scan("(standard input)", text)
		}
		for _, f := range files {
			data, err := p.FS.ReadFile(p.Path(f))
			if err != nil {
				fmt.Fprintf(p.Stderr, "grep: %s: %s\n", f, fsMsg(err))
				status = 2
				continue
			}
			scan(f, string(data))
		}
		if status != 0 {
			return status
		}
		if matched {
			return 0
		}
		return 1
	})
}

func init() {
	register("grep", Grep)
	register("egrep", Grep)
}
