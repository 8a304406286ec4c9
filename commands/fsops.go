package commands

import (
	"fmt"
	"time"

	"github.com/bish-sh/bish/core/vfs"
	"github.com/bish-sh/bish/core/vos"
)

// Mkdir implements mkdir [-p].
func Mkdir(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "mkdir [-p] DIRECTORY...",
		Short: "Create directories.",
	}
	parents := cmd.Flags().Bool('p', "make parent directories as needed")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			fmt.Fprintln(p.Stderr, "mkdir: missing operand")
			return 1
		}
		status := 0
		for _, arg := range args {
			if err := p.FS.Mkdir(p.Path(arg), *parents); err != nil {
				fmt.Fprintf(p.Stderr, "mkdir: cannot create directory '%s': %s\n", arg, fsMsg(err))
				status = 1
			}
		}
		return status
	})
}

// Rm implements rm [-rf].
func Rm(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "rm [-rf] FILE...",
		Short: "Remove files or directories.",
	}
	recursive := cmd.Flags().Bool('r', "remove directories and their contents recursively")
	cmd.Flags().Bool('R', "same as -r")
	force := cmd.Flags().Bool('f', "ignore nonexistent files, never prompt")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			if *force {
				return 0
			}
			fmt.Fprintln(p.Stderr, "rm: missing operand")
			return 1
		}
		status := 0
		for _, arg := range args {
			if err := p.FS.Remove(p.Path(arg), *recursive, *force); err != nil {
				fmt.Fprintf(p.Stderr, "rm: cannot remove '%s': %s\n", arg, fsMsg(err))
				status = 1
			}
		}
		return status
	})
}

// Rmdir removes empty directories.
func Rmdir(p *vos.Process) int {
	status := 0
	for _, arg := range p.Argv[1:] {
		if err := p.FS.Remove(p.Path(arg), false, false); err != nil {
			fmt.Fprintf(p.Stderr, "rmdir: failed to remove '%s': %s\n", arg, fsMsg(err))
			status = 1
		}
	}
	return status
}

// Touch creates files or updates their timestamps.
func Touch(p *vos.Process) int {
	status := 0
	for _, arg := range p.Argv[1:] {
		full := p.Path(arg)
		if p.FS.Exists(full) {
			if err := p.FS.Utimes(full, time.Unix(0, 0)); err != nil {
				fmt.Fprintf(p.Stderr, "touch: %s: %s\n", arg, fsMsg(err))
				status = 1
			}
			continue
		}
		if err := p.FS.WriteFile(full, nil, vfs.WriteOpts{}); err != nil {
			fmt.Fprintf(p.Stderr, "touch: cannot touch '%s': %s\n", arg, fsMsg(err))
			status = 1
		}
	}
	return status
}

// Cp implements cp [-r].
func Cp(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "cp [-r] SOURCE... DEST",
		Short: "Copy files and directories.",
	}
	recursive := cmd.Flags().Bool('r', "copy directories recursively")
	cmd.Flags().Bool('R', "same as -r")
	cmd.Flags().Bool('a', "archive; implies -r")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) < 2 {
			fmt.Fprintln(p.Stderr, "cp: missing file operand")
			return 1
		}
		dst := args[len(args)-1]
		status := 0
		for _, src := range args[:len(args)-1] {
			if err := p.FS.Copy(p.Path(src), p.Path(dst), *recursive); err != nil {
				fmt.Fprintf(p.Stderr, "cp: cannot copy '%s': %s\n", src, fsMsg(err))
				status = 1
			}
		}
		return status
	})
}

// Mv renames files and directories.
func Mv(p *vos.Process) int {
	args := p.Argv[1:]
	if len(args) < 2 {
		fmt.Fprintln(p.Stderr, "mv: missing file operand")
		return 1
	}
	dst := args[len(args)-1]
	status := 0
	for _, src := range args[:len(args)-1] {
		if err := p.FS.Rename(p.Path(src), p.Path(dst)); err != nil {
			fmt.Fprintf(p.Stderr, "mv: cannot move '%s': %s\n", src, fsMsg(err))
			status = 1
		}
	}
	return status
}

// Ln implements ln -s; hard links are refused.
func Ln(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "ln -s TARGET LINK",
		Short: "Create symbolic links.",
	}
	symbolic := cmd.Flags().Bool('s', "make symbolic links")
	cmd.Flags().Bool('f', "remove existing destination files")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) != 2 {
			fmt.Fprintln(p.Stderr, "ln: expected TARGET and LINK operands")
			return 1
		}
		if !*symbolic {
			fmt.Fprintln(p.Stderr, "ln: hard links are not supported")
			return 1
		}
		if err := p.FS.Symlink(args[0], p.Path(args[1])); err != nil {
			fmt.Fprintf(p.Stderr, "ln: %s: %s\n", args[1], fsMsg(err))
			return 1
		}
		return 0
	})
}

// Readlink prints a symlink target; -f resolves fully.
func Readlink(p *vos.Process) int {
	cmd := &SimpleCommand{
		Use:   "readlink [-f] FILE",
		Short: "Print symbolic link targets.",
	}
	canonical := cmd.Flags().Bool('f', "canonicalize the path, following every symlink")
	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			fmt.Fprintln(p.Stderr, "readlink: missing operand")
			return 1
		}
		status := 0
		for _, arg := range args {
			if *canonical {
				rp, err := p.FS.RealPath(p.Path(arg))
				if err != nil {
					status = 1
					continue
				}
				fmt.Fprintln(p.Stdout, rp)
				continue
			}
			target, err := p.FS.Readlink(p.Path(arg))
			if err != nil {
				status = 1
				continue
			}
			fmt.Fprintln(p.Stdout, target)
		}
		return status
	})
}

func init() {
	register("mkdir", Mkdir)
	register("rm", Rm)
	register("rmdir", Rmdir)
	register("touch", Touch)
	register("cp", Cp)
	register("mv", Mv)
	register("ln", Ln)
	register("readlink", Readlink)
}
