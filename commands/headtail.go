package commands

import (
	"fmt"
	"strings"

	"github.com/bish-sh/bish/core/vos"
)

// Head implements head -n/-c.
func Head(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "head [-n LINES | -c BYTES] [FILE]...",
		Short: "Output the first part of files.",
	}
	nLines := cmd.Flags().Int('n', 10, "print the first LINES lines")
	nBytes := cmd.Flags().Int('c', 0, "print the first BYTES bytes")
	return cmd.Run(p, func() int {
		text, status := readInput(p, cmd.Flags().Args())
		if status != 0 {
			return status
		}
		if *nBytes > 0 {
			if *nBytes < len(text) {
				text = text[:*nBytes]
			}
			fmt.Fprint(p.Stdout, text)
			return 0
		}
		ls := lines(text)
		if *nLines < len(ls) {
			ls = ls[:*nLines]
		}
		for _, l := range ls {
			fmt.Fprintln(p.Stdout, l)
		}
		return 0
	})
}

// Tail implements tail -n/-c.
func Tail(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "tail [-n LINES | -c BYTES] [FILE]...",
		Short: "Output the last part of files.",
	}
	nLines := cmd.Flags().Int('n', 10, "print the last LINES lines")
	nBytes := cmd.Flags().Int('c', 0, "print the last BYTES bytes")
	return cmd.Run(p, func() int {
		text, status := readInput(p, cmd.Flags().Args())
		if status != 0 {
			return status
		}
		if *nBytes > 0 {
			if *nBytes < len(text) {
				text = text[len(text)-*nBytes:]
			}
			fmt.Fprint(p.Stdout, text)
			return 0
		}
		ls := lines(text)
		if *nLines < len(ls) {
			ls = ls[len(ls)-*nLines:]
		}
		for _, l := range ls {
			fmt.Fprintln(p.Stdout, l)
		}
		return 0
	})
}

// Wc implements wc -l/-w/-c.
func Wc(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "wc [-lwc] [FILE]...",
		Short: "Print newline, word and byte counts.",
	}
	countLines := cmd.Flags().Bool('l', "print the newline count")
	countWords := cmd.Flags().Bool('w', "print the word count")
	countBytes := cmd.Flags().Bool('c', "print the byte count")
	return cmd.Run(p, func() int {
		text, status := readInput(p, cmd.Flags().Args())
		if status != 0 {
			return status
		}
		nl := strings.Count(text, "\n")
		words := len(strings.Fields(text))
		bytes := len(text)
		var cols []string
		all := !*countLines && !*countWords && !*countBytes
		if *countLines || all {
			cols = append(cols, fmt.Sprintf("%d", nl))
		}
		if *countWords || all {
			cols = append(cols, fmt.Sprintf("%d", words))
		}
		if *countBytes || all {
			cols = append(cols, fmt.Sprintf("%d", bytes))
		}
		fmt.Fprintln(p.Stdout, strings.Join(cols, " "))
		return 0
	})
}

func init() {
	register("head", Head)
	register("tail", Tail)
	register("wc", Wc)
}
