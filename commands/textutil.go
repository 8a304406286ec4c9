package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bish-sh/bish/core/vos"
)

// Sort implements sort -r, -n, -u.
func Sort(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "sort [-rnu] [FILE]...",
		Short: "Sort lines of text.",
	}
	reverse := cmd.Flags().Bool('r', "reverse the result of comparisons")
	numeric := cmd.Flags().Bool('n', "compare according to numeric value")
	unique := cmd.Flags().Bool('u', "output only the first of equal lines")
	return cmd.Run(p, func() int {
		text, status := readInput(p, cmd.Flags().Args())
		if status != 0 {
			return status
		}
		ls := lines(text)
		if *numeric {
			sort.SliceStable(ls, func(i, j int) bool {
				a, _ := strconv.ParseFloat(strings.TrimSpace(ls[i]), 64)
				b, _ := strconv.ParseFloat(strings.TrimSpace(ls[j]), 64)
				if a != b {
					return a < b
				}
				return ls[i] < ls[j]
			})
		} else {
			sort.Strings(ls)
		}
		if *reverse {
			for i, j := 0, len(ls)-1; i < j; i, j = i+1, j-1 {
				ls[i], ls[j] = ls[j], ls[i]
			}
		}
		var prev string
		first := true
		for _, l := range ls {
			if *unique && !first && l == prev {
				continue
			}
			fmt.Fprintln(p.Stdout, l)
			prev = l
			first = false
		}
		return 0
	})
}

// Uniq implements uniq [-c] [-d].
func Uniq(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "uniq [-cd] [FILE]",
		Short: "Filter adjacent repeated lines.",
	}
	count := cmd.Flags().Bool('c', "prefix lines by the number of occurrences")
	dupsOnly := cmd.Flags().Bool('d', "only print duplicated lines")
	return cmd.Run(p, func() int {
		text, status := readInput(p, cmd.Flags().Args())
		if status != 0 {
			return status
		}
		ls := lines(text)
		emit := func(line string, n int) {
			if *dupsOnly && n < 2 {
				return
			}
			if *count {
				fmt.Fprintf(p.Stdout, "%7d %s\n", n, line)
			} else {
				fmt.Fprintln(p.Stdout, line)
			}
		}
		for i := 0; i < len(ls); {
			j := i
			for j < len(ls) && ls[j] == ls[i] {
				j++
			}
			emit(ls[i], j-i)
			i = j
		}
		return 0
	})
}

// Tr implements tr SET1 SET2 and tr -d SET1 over simple sets and ranges.
func Tr(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "tr [-d] SET1 [SET2]",
		Short: "Translate or delete characters.",
	}
	del := cmd.Flags().Bool('d', "delete characters in SET1")
	squeeze := cmd.Flags().Bool('s', "squeeze repeated output characters")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			fmt.Fprintln(p.Stderr, "tr: missing operand")
			return 1
		}
		text, status := readInput(p, nil)
		if status != 0 {
			return status
		}
		set1 := expandTrSet(args[0])
		var out strings.Builder
		if *del {
			for _, r := range text {
				if !strings.ContainsRune(set1, r) {
					out.WriteRune(r)
				}
			}
		} else {
			if len(args) < 2 {
				fmt.Fprintln(p.Stderr, "tr: missing operand after SET1")
				return 1
			}
			set2 := expandTrSet(args[1])
			for _, r := range text {
				if i := strings.IndexRune(set1, r); i >= 0 {
					j := i
					if j >= len(set2) {
						j = len(set2) - 1
					}
					out.WriteByte(set2[j])
				} else {
					out.WriteRune(r)
				}
			}
		}
		result := out.String()
		if *squeeze {
			var sq strings.Builder
			var last rune = -1
			for _, r := range result {
				if r == last && strings.ContainsRune(set1, r) {
					continue
				}
				sq.WriteRune(r)
				last = r
			}
			result = sq.String()
		}
		fmt.Fprint(p.Stdout, result)
		return 0
	})
}

// expandTrSet expands a-z ranges and the common [:class:] names.
func expandTrSet(s string) string {
	switch s {
	case "[:upper:]":
		return "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	case "[:lower:]":
		return "abcdefghijklmnopqrstuvwxyz"
	case "[:digit:]":
		return "0123456789"
	case "[:space:]":
		return " \t\n\r\v\f"
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if i+2 < len(s) && s[i+1] == '-' && s[i+2] >= s[i] {
			for c := s[i]; c <= s[i+2]; c++ {
				b.WriteByte(c)
			}
			i += 2
			continue
		}
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Cut implements cut -d/-f and -c.
func Cut(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "cut -d DELIM -f LIST [FILE]... | cut -c LIST [FILE]...",
		Short: "Remove sections from each line.",
	}
	delim := cmd.Flags().String('d', "\t", "field delimiter")
	fieldsSpec := cmd.Flags().String('f', "", "select these fields")
	charsSpec := cmd.Flags().String('c', "", "select these characters")
	return cmd.Run(p, func() int {
		text, status := readInput(p, cmd.Flags().Args())
		if status != 0 {
			return status
		}
		if *fieldsSpec == "" && *charsSpec == "" {
			fmt.Fprintln(p.Stderr, "cut: you must specify a list of fields or characters")
			return 1
		}
		for _, line := range lines(text) {
			if *charsSpec != "" {
				runes := []rune(line)
				var out []rune
				for _, idx := range cutList(*charsSpec, len(runes)) {
					out = append(out, runes[idx-1])
				}
				fmt.Fprintln(p.Stdout, string(out))
				continue
			}
			fields := strings.Split(line, *delim)
			if len(fields) == 1 {
				fmt.Fprintln(p.Stdout, line)
				continue
			}
			var out []string
			for _, idx := range cutList(*fieldsSpec, len(fields)) {
				out = append(out, fields[idx-1])
			}
			fmt.Fprintln(p.Stdout, strings.Join(out, *delim))
		}
		return 0
	})
}

// cutList expands "1,3-5" into 1-based indices bounded by n.
func cutList(spec string, n int) []int {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		lo, hi, found := strings.Cut(part, "-")
		a, err := strconv.Atoi(lo)
		if err != nil || a < 1 {
			continue
		}
		b := a
		if found {
			if hi == "" {
				b = n
			} else if v, err := strconv.Atoi(hi); err == nil {
				b = v
			}
		}
		for i := a; i <= b && i <= n; i++ {
			out = append(out, i)
		}
	}
	return out
}

func init() {
	register("sort", Sort)
	register("uniq", Uniq)
	register("tr", Tr)
	register("cut", Cut)
}
