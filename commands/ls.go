package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bish-sh/bish/core/vos"
)

// Ls lists directory entries from the virtual filesystem: -a, -l, -1
// (single column is also the default, there is no terminal to columnize
// for) and -d.
func Ls(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "ls [-al1d] [FILE]...",
		Short: "List directory contents.",
	}
	all := cmd.Flags().Bool('a', "do not ignore entries starting with .")
	long := cmd.Flags().Bool('l', "use a long listing format")
	cmd.Flags().Bool('1', "list one file per line")
	dirOnly := cmd.Flags().Bool('d', "list directories themselves, not their contents")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			args = []string{"."}
		}
		status := 0
		showHeader := len(args) > 1
		for i, arg := range args {
			full := p.Path(arg)
			fi, err := p.FS.Stat(full)
			if err != nil {
				fmt.Fprintf(p.Stderr, "ls: cannot access '%s': %s\n", arg, fsMsg(err))
				status = 2
				continue
			}
			if !fi.IsDir() || *dirOnly {
				printEntry(p, *long, arg, fi.Mode().String(), fi.Size())
				continue
			}
			entries, err := p.FS.ReadDir(full)
			if err != nil {
				fmt.Fprintf(p.Stderr, "ls: %s: %s\n", arg, fsMsg(err))
				status = 2
				continue
			}
			if showHeader {
				if i > 0 {
					fmt.Fprintln(p.Stdout)
				}
				fmt.Fprintf(p.Stdout, "%s:\n", arg)
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if !*all && strings.HasPrefix(e.Name(), ".") {
					continue
				}
				names = append(names, e.Name())
			}
			sort.Strings(names)
			for _, n := range names {
				for _, e := range entries {
					if e.Name() == n {
						printEntry(p, *long, n, e.Mode().String(), e.Size())
						break
					}
				}
			}
		}
		return status
	})
}

func printEntry(p *vos.Process, long bool, name, mode string, size int64) {
	if long {
		fmt.Fprintf(p.Stdout, "%s %8d %s\n", mode, size, name)
		return
	}
	fmt.Fprintln(p.Stdout, name)
}

func init() {
	register("ls", Ls)
}
