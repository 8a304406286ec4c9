package interp

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bish-sh/bish/core/vfs"
)

// condEval evaluates a [[ ]] expression. && and || short-circuit.
func (x *Interp) condEval(e *CondExpr) (bool, error) {
	switch e.Kind {
	case CondGroup:
		return x.condEval(e.X)
	case CondNot:
		v, err := x.condEval(e.X)
		return !v, err
	case CondAnd:
		l, err := x.condEval(e.X)
		if err != nil || !l {
			return false, err
		}
		return x.condEval(e.Y)
	case CondOr:
		l, err := x.condEval(e.X)
		if err != nil || l {
			return l, err
		}
		return x.condEval(e.Y)
	case CondWordOnly:
		s, err := x.expandNoSplit(e.Word)
		return s != "", err
	case CondUnary:
		s, err := x.expandNoSplit(e.Word)
		if err != nil {
			return false, err
		}
		return x.unaryTest(e.Op, s)
	case CondBinary:
		return x.condBinary(e)
	}
	return false, fmt.Errorf("conditional: invalid expression")
}

func (x *Interp) condBinary(e *CondExpr) (bool, error) {
	lhs, err := x.expandNoSplit(e.Word)
	if err != nil {
		return false, err
	}
	switch e.Op {
	case "=", "==", "!=":
		pat, err := x.expandPatternWord(e.Word2)
		if err != nil {
			return false, err
		}
		m := matchPattern(pat, lhs, x.matchOpts())
		if e.Op == "!=" {
			m = !m
		}
		return m, nil
	case "=~":
		return x.regexMatch(lhs, e.Word2)
	case "<", ">":
		rhs, err := x.expandNoSplit(e.Word2)
		if err != nil {
			return false, err
		}
		if e.Op == "<" {
			return lhs < rhs, nil
		}
		return lhs > rhs, nil
	case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
		rhs, err := x.expandNoSplit(e.Word2)
		if err != nil {
			return false, err
		}
		return x.numericCompare(e.Op, lhs, rhs)
	case "-nt", "-ot", "-ef":
		rhs, err := x.expandNoSplit(e.Word2)
		if err != nil {
			return false, err
		}
		return x.fileCompare(e.Op, lhs, rhs), nil
	}
	return false, fmt.Errorf("conditional binary operator expected, got %q", e.Op)
}

// regexMatch implements =~, assigning BASH_REMATCH on success. Quoted
// portions of the pattern match literally.
func (x *Interp) regexMatch(lhs string, rhs *Word) (bool, error) {
	frags, err := x.expandParts(rhs.Parts, false)
	if err != nil {
		return false, err
	}
	var pat strings.Builder
	if x.st.opts.NoCaseMatch {
		pat.WriteString("(?i)")
	}
	for _, f := range frags {
		if f.quoted {
			pat.WriteString(regexp.QuoteMeta(f.s))
		} else {
			pat.WriteString(f.s)
		}
	}
	re, cerr := regexp.Compile(pat.String())
	if cerr != nil {
		return false, &expandError{code: 2, msg: fmt.Sprintf("invalid regular expression: %v", cerr)}
	}
	m := re.FindStringSubmatch(lhs)
	if m == nil {
		x.st.Unset("BASH_REMATCH")
		return false, nil
	}
	v := newIndexed()
	for i, g := range m {
		v.Arr[i] = g
	}
	x.st.SetCell("BASH_REMATCH", v)
	return true, nil
}

func (x *Interp) numericCompare(op, lhs, rhs string) (bool, error) {
	l, err := x.arithStringValue(lhs)
	if err != nil {
		return false, err
	}
	r, err := x.arithStringValue(rhs)
	if err != nil {
		return false, err
	}
	switch op {
	case "-eq":
		return l == r, nil
	case "-ne":
		return l != r, nil
	case "-lt":
		return l < r, nil
	case "-le":
		return l <= r, nil
	case "-gt":
		return l > r, nil
	case "-ge":
		return l >= r, nil
	}
	return false, fmt.Errorf("bad numeric operator %q", op)
}

// unaryTest implements the -x family against the virtual filesystem.
func (x *Interp) unaryTest(op, arg string) (bool, error) {
	switch op {
	case "-z":
		return arg == "", nil
	case "-n":
		return arg != "", nil
	case "-v":
		name := scanVarName(arg)
		if rest := arg[len(name):]; rest != "" {
			if sub, r2, ok := scanSubscript(rest); ok && r2 == "" {
				set, err := x.elementIsSet(name, sub)
				return set, err
			}
			return false, nil
		}
		return x.st.IsSet(arg), nil
	case "-R":
		c := x.st.lookup(arg)
		return c != nil && c.Nameref, nil
	case "-o":
		if b := x.st.opts.setOption(arg); b != nil {
			return *b, nil
		}
		if b := x.st.opts.shoptOption(arg); b != nil {
			return *b, nil
		}
		return false, nil
	case "-t":
		return false, nil // no terminals in the sandbox
	}
	p := vfs.Join(x.st.cwd, arg)
	var fi os.FileInfo
	var err error
	if op == "-h" || op == "-L" {
		fi, err = x.fs.Lstat(p)
	} else {
		fi, err = x.fs.Stat(p)
	}
	if err != nil {
		return false, nil
	}
	mode := fi.Mode()
	switch op {
	case "-e":
		return true, nil
	case "-f":
		return mode.IsRegular(), nil
	case "-d":
		return fi.IsDir(), nil
	case "-h", "-L":
		return mode&os.ModeSymlink != 0, nil
	case "-s":
		return fi.Size() > 0, nil
	case "-r":
		return mode.Perm()&0o444 != 0, nil
	case "-w":
		return mode.Perm()&0o222 != 0, nil
	case "-x":
		return fi.IsDir() || mode.Perm()&0o111 != 0, nil
	case "-b", "-c", "-p", "-S":
		return false, nil // no device or socket nodes
	case "-u":
		return mode&os.ModeSetuid != 0, nil
	case "-g":
		return mode&os.ModeSetgid != 0, nil
	case "-k":
		return mode&os.ModeSticky != 0, nil
	case "-N":
		return false, nil
	case "-G", "-O":
		return true, nil // single virtual user owns everything
	case "-a":
		return true, nil
	}
	return false, fmt.Errorf("unknown unary operator %q", op)
}

func (x *Interp) fileCompare(op, a, b string) bool {
	pa, pb := vfs.Join(x.st.cwd, a), vfs.Join(x.st.cwd, b)
	switch op {
	case "-ef":
		ra, err1 := x.fs.RealPath(pa)
		rb, err2 := x.fs.RealPath(pb)
		return err1 == nil && err2 == nil && ra == rb
	case "-nt":
		fa, err1 := x.fs.Stat(pa)
		fb, err2 := x.fs.Stat(pb)
		if err1 != nil {
			return false
		}
		if err2 != nil {
			return true
		}
		return fa.ModTime().After(fb.ModTime())
	case "-ot":
		fa, err1 := x.fs.Stat(pa)
		fb, err2 := x.fs.Stat(pb)
		if err2 != nil {
			return false
		}
		if err1 != nil {
			return true
		}
		return fa.ModTime().Before(fb.ModTime())
	}
	return false
}

// testEval implements the `test` / `[` builtin over literal arguments.
// Unlike [[ ]], = compares strings exactly and -a / -o are the legacy
// low-precedence connectives.
func (x *Interp) testEval(args []string) (bool, error) {
	t := &testParser{x: x, args: args}
	if len(args) == 0 {
		return false, nil
	}
	v, err := t.or()
	if err != nil {
		return false, err
	}
	if t.pos != len(t.args) {
		return false, fmt.Errorf("too many arguments")
	}
	return v, nil
}

type testParser struct {
	x    *Interp
	args []string
	pos  int
}

func (t *testParser) peek() (string, bool) {
	if t.pos < len(t.args) {
		return t.args[t.pos], true
	}
	return "", false
}

func (t *testParser) next() string {
	s := t.args[t.pos]
	t.pos++
	return s
}

func (t *testParser) or() (bool, error) {
	l, err := t.and()
	if err != nil {
		return false, err
	}
	for {
		if s, ok := t.peek(); !ok || s != "-o" {
			return l, nil
		}
		t.next()
		r, err := t.and()
		if err != nil {
			return false, err
		}
		l = l || r
	}
}

func (t *testParser) and() (bool, error) {
	l, err := t.primary()
	if err != nil {
		return false, err
	}
	for {
		if s, ok := t.peek(); !ok || s != "-a" {
			return l, nil
		}
		t.next()
		r, err := t.primary()
		if err != nil {
			return false, err
		}
		l = l && r
	}
}

func (t *testParser) primary() (bool, error) {
	s, ok := t.peek()
	if !ok {
		return false, fmt.Errorf("argument expected")
	}
	if s == "!" {
		t.next()
		v, err := t.primary()
		return !v, err
	}
	if s == "(" {
		t.next()
		v, err := t.or()
		if err != nil {
			return false, err
		}
		if c, ok := t.peek(); !ok || c != ")" {
			return false, fmt.Errorf("missing ')'")
		}
		t.next()
		return v, nil
	}
	// Binary form: ARG op ARG.
	if t.pos+2 < len(t.args)+1 && t.pos+1 < len(t.args) {
		op := t.args[t.pos+1]
		if condBinaryOps[op] && op != "=~" || op == "<" || op == ">" {
			lhs := t.next()
			t.next()
			rhs := t.next()
			switch op {
			case "=", "==":
				return lhs == rhs, nil
			case "!=":
				return lhs != rhs, nil
			case "<":
				return lhs < rhs, nil
			case ">":
				return lhs > rhs, nil
			case "-nt", "-ot", "-ef":
				return t.x.fileCompare(op, lhs, rhs), nil
			default:
				return t.x.numericCompare(op, lhs, rhs)
			}
		}
	}
	if condUnaryOps[s] && t.pos+1 < len(t.args) {
		op := t.next()
		return t.x.unaryTest(op, t.next())
	}
	return t.next() != "", nil
}
