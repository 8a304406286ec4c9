package interp

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bish-sh/bish/core/vfs"
)

// fileSink buffers writes destined for a file; the bytes hit the
// filesystem when the redirection scope closes, keeping filesystem
// mutations synchronous with command completion.
type fileSink struct {
	path   string
	append bool
	buf    bytes.Buffer
}

// withRedirs applies redirections around fn and restores the previous
// stream targets afterwards. A redirection failure fails the command with
// status 1 without running fn.
func (x *Interp) withRedirs(redirs []*Redir, fn func() error) error {
	if len(redirs) == 0 {
		return fn()
	}
	savedIn, saved1, saved2 := x.stdin, x.w1, x.w2
	var sinks []*fileSink

	fail := func(format string, args ...interface{}) error {
		fmt.Fprintf(x.w2, "%s: %s\n", x.st.dollarZero, fmt.Sprintf(format, args...))
		x.stdin, x.w1, x.w2 = savedIn, saved1, saved2
		x.st.lastStatus = 1
		return nil
	}

	setFd := func(fd int, w io.Writer) {
		if fd == 2 {
			x.w2 = w
		} else {
			x.w1 = w
		}
	}
	getFd := func(fd int) io.Writer {
		if fd == 2 {
			return x.w2
		}
		return x.w1
	}

	for _, r := range redirs {
		switch r.Op {
		case RedirHeredoc:
			body, err := x.expandNoSplit(r.Here.Body)
			if err != nil {
				return x.expansionFailure(err)
			}
			x.stdin = body
		case RedirHerestr:
			s, err := x.expandNoSplit(r.Target)
			if err != nil {
				return x.expansionFailure(err)
			}
			x.stdin = s + "\n"
		case RedirIn, RedirInOut:
			target, err := x.expandRedirTarget(r.Target)
			if err != nil {
				return x.expansionFailure(err)
			}
			p := vfs.Join(x.st.cwd, target)
			data, rerr := x.fs.ReadFile(p)
			if rerr != nil {
				if r.Op == RedirInOut && !x.fs.Exists(p) {
					if werr := x.fs.WriteFile(p, nil, vfs.WriteOpts{}); werr == nil {
						x.stdin = ""
						continue
					}
				}
				return fail("%s: %s", target, vfs.ShellMsg(rerr))
			}
			x.stdin = string(data)
		case RedirOut, RedirAppend, RedirClobber:
			target, err := x.expandRedirTarget(r.Target)
			if err != nil {
				return x.expansionFailure(err)
			}
			p := vfs.Join(x.st.cwd, target)
			if r.Op == RedirOut && x.st.opts.NoClobber {
				if fi, serr := x.fs.Stat(p); serr == nil && fi.Mode().IsRegular() {
					return fail("%s: cannot overwrite existing file", target)
				}
			}
			sink := &fileSink{path: p, append: r.Op == RedirAppend}
			sinks = append(sinks, sink)
			fd := r.Fd
			if fd < 0 {
				fd = 1
			}
			if fd <= 2 {
				setFd(fd, &sink.buf)
			}
		case RedirBoth, RedirBothApp:
			target, err := x.expandRedirTarget(r.Target)
			if err != nil {
				return x.expansionFailure(err)
			}
			p := vfs.Join(x.st.cwd, target)
			sink := &fileSink{path: p, append: r.Op == RedirBothApp}
			sinks = append(sinks, sink)
			x.w1 = &sink.buf
			x.w2 = &sink.buf
		case RedirDupOut:
			target, err := x.expandRedirTarget(r.Target)
			if err != nil {
				return x.expansionFailure(err)
			}
			fd := r.Fd
			if fd < 0 {
				fd = 1
			}
			switch strings.TrimSpace(target) {
			case "1":
				setFd(fd, getFd(1))
			case "2":
				setFd(fd, getFd(2))
			case "-":
				setFd(fd, io.Discard)
			default:
				// &word with a file name behaves like &> in bash
				p := vfs.Join(x.st.cwd, target)
				sink := &fileSink{path: p}
				sinks = append(sinks, sink)
				x.w1 = &sink.buf
				x.w2 = &sink.buf
			}
		case RedirDupIn:
			target, err := x.expandRedirTarget(r.Target)
			if err != nil {
				return x.expansionFailure(err)
			}
			if strings.TrimSpace(target) == "-" {
				x.stdin = ""
			}
		}
	}

	err := fn()

	// Flush sinks in order; writes are visible to later commands at once.
	for _, s := range sinks {
		werr := x.fs.WriteFile(s.path, s.buf.Bytes(), vfs.WriteOpts{Append: s.append})
		if werr != nil && err == nil {
			fmt.Fprintf(saved2, "%s: %s: %s\n", x.st.dollarZero, s.path, vfs.ShellMsg(werr))
		}
	}
	x.stdin, x.w1, x.w2 = savedIn, saved1, saved2
	return err
}
