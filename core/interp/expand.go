package interp

import (
	"fmt"
	"strings"
)

// frag is one fragment of an expanded word. Quoted fragments are immune to
// field splitting and pathname expansion; sep fragments mark hard field
// boundaries produced by "$@" and "${a[@]}".
type frag struct {
	s      string
	quoted bool
	sep    bool
}

// expandWords runs the full pipeline over argv words: brace, tilde,
// parameter, arithmetic and command substitution, splitting, globbing.
func (x *Interp) expandWords(words []*Word) ([]string, error) {
	var argv []string
	for _, w := range words {
		fields, err := x.expandWord(w)
		if err != nil {
			return nil, err
		}
		argv = append(argv, fields...)
	}
	return argv, nil
}

func (x *Interp) expandWord(w *Word) ([]string, error) {
	variants := [][]WordPart{w.Parts}
	if x.st.opts.BraceExp {
		variants = braceExpand(w.Parts)
	}
	var out []string
	for _, parts := range variants {
		frags, err := x.expandParts(parts, false)
		if err != nil {
			return nil, err
		}
		fields := fieldSplit(frags, x.st.IFS())
		for _, f := range fields {
			expanded, err := x.globField(f)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		}
	}
	return out, nil
}

// expandNoSplit expands a word to exactly one string: no field splitting,
// no pathname expansion. Used for assignment values, heredoc bodies, case
// words and here-strings.
func (x *Interp) expandNoSplit(w *Word) (string, error) {
	if w == nil {
		return "", nil
	}
	frags, err := x.expandParts(w.Parts, false)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range frags {
		if f.sep {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(f.s)
	}
	return b.String(), nil
}

// expandRedirTarget expands a redirection target; splitting to multiple
// fields is an error ("ambiguous redirect").
func (x *Interp) expandRedirTarget(w *Word) (string, error) {
	fields, err := x.expandWord(w)
	if err != nil {
		return "", err
	}
	if len(fields) != 1 {
		return "", &expandError{code: 1, msg: fmt.Sprintf("%s: ambiguous redirect", flattenWord(w))}
	}
	return fields[0], nil
}

// expandPatternWord expands a word into a matcher pattern: expansions are
// performed, quoted characters lose their pattern meaning.
func (x *Interp) expandPatternWord(w *Word) (string, error) {
	frags, err := x.expandParts(w.Parts, false)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range frags {
		if f.quoted {
			b.WriteString(quotePatternChars(f.s))
		} else {
			b.WriteString(f.s)
		}
	}
	return b.String(), nil
}

// expandParts expands a part list into fragments.
func (x *Interp) expandParts(parts []WordPart, quotedCtx bool) ([]frag, error) {
	var out []frag
	for _, wp := range parts {
		q := quotedCtx || wp.Quoted
		switch wp.Kind {
		case LitPart:
			out = append(out, frag{s: wp.Text, quoted: q})
		case SQPart:
			out = append(out, frag{s: wp.Text, quoted: true})
		case EscPart:
			out = append(out, frag{s: wp.Text, quoted: true})
		case TildePart:
			out = append(out, frag{s: x.tildeExpand(wp.Text), quoted: true})
		case DQPart:
			if len(wp.Parts) == 0 {
				// "" expands to one empty field
				out = append(out, frag{s: "", quoted: true})
				continue
			}
			inner, err := x.expandParts(wp.Parts, true)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
		case ParamPart:
			frags, err := x.expandParam(wp.Param, q)
			if err != nil {
				return nil, err
			}
			out = append(out, frags...)
		case CmdSubPart:
			s, err := x.commandSubst(wp.Body)
			if err != nil {
				return nil, err
			}
			out = append(out, frag{s: s, quoted: q})
		case ArithSubPart:
			n, err := x.arithEval(wp.Arith)
			if err != nil {
				return nil, err
			}
			out = append(out, frag{s: formatInt(n), quoted: q})
		case ProcSubPart:
			name, err := x.processSubst(wp)
			if err != nil {
				return nil, err
			}
			out = append(out, frag{s: name, quoted: true})
		}
	}
	return out, nil
}

// tildeExpand resolves ~, ~user, ~+ and ~-.
func (x *Interp) tildeExpand(user string) string {
	switch user {
	case "":
		if h := x.st.GetStr("HOME"); h != "" {
			return h
		}
		return "~"
	case "+":
		return x.st.cwd
	case "-":
		return x.st.prevDir
	default:
		// No user database in the sandbox; conventional home layout.
		if user == "root" {
			return "/root"
		}
		return "/home/" + user
	}
}

// commandSubst runs a nested script in a subshell-like child and captures
// stdout with trailing newlines trimmed.
func (x *Interp) commandSubst(body *Script) (string, error) {
	if body == nil {
		return "", nil
	}
	sout, status, err := x.runCaptured(body, x.stdin)
	if err != nil {
		return "", err
	}
	x.lastSubStatus = status
	return strings.TrimRight(sout, "\n"), nil
}

// processSubst materializes <(...) / >(...) as a filesystem path. Input
// substitutions capture the script's output into the file; output
// substitutions provide a sink file the parent can later read.
func (x *Interp) processSubst(wp WordPart) (string, error) {
	x.st.counters.commands++ // suspension point
	name := fmt.Sprintf("/tmp/.psub.%d", x.nextPsub())
	_ = x.fs.Mkdir("/tmp", true)
	data := ""
	if !wp.Output {
		sout, status, err := x.runCaptured(wp.Body, x.stdin)
		if err != nil {
			return "", err
		}
		x.lastSubStatus = status
		data = sout
	}
	if err := x.fs.WriteFile(name, []byte(data), vfsWriteTrunc()); err != nil {
		return "", err
	}
	return name, nil
}

func flattenWord(w *Word) string {
	var b strings.Builder
	for _, wp := range w.Parts {
		switch wp.Kind {
		case LitPart, SQPart, EscPart:
			b.WriteString(wp.Text)
		default:
			b.WriteString(wp.Raw)
		}
	}
	return b.String()
}

func formatInt(n int64) string { return fmt.Sprintf("%d", n) }
