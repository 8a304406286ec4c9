package interp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// paramValue is a resolved parameter before operator application: either a
// list of fields ($@, $*, ${a[@]}) or a scalar with a set/unset flag.
type paramValue struct {
	multi  bool
	star   bool // "*"-style: quoted expansion joins on the first IFS char
	fields []string
	s      string
	set    bool
}

func (x *Interp) lexOpts() lexOptions {
	return lexOptions{
		Aliases:       x.st.aliases,
		ExpandAliases: x.st.opts.ExpandAliases,
		Extglob:       x.st.opts.ExtGlob,
	}
}

// parseArith parses arithmetic text outside the main parse (array
// subscripts, recursive $-expansion inside arithmetic).
func parseArith(src string, opts lexOptions) (*ArithExpr, error) {
	p := &parser{lx: newLexer(src, opts)}
	e := p.parseArithText(src)
	if p.err != nil {
		return nil, p.err
	}
	return e, nil
}

// expandText expands raw text (an associative-array key, a nameref target)
// without splitting.
func (x *Interp) expandText(raw string) (string, error) {
	parts, perr := lexFreeParts(raw, x.lexOpts())
	if perr != nil {
		return "", perr
	}
	pp := &parser{lx: newLexer("", x.lexOpts())}
	w := &Word{Parts: pp.refineParts(parts)}
	if pp.err != nil {
		return "", pp.err
	}
	return x.expandNoSplit(w)
}

// arithEvalText parses and evaluates arithmetic text against the store.
func (x *Interp) arithEvalText(src string) (int64, error) {
	e, err := parseArith(src, x.lexOpts())
	if err != nil {
		return 0, &expandError{code: 1, msg: err.Error()}
	}
	return x.arithEval(e)
}

// expandParam evaluates one $name / ${...} expansion into fragments.
func (x *Interp) expandParam(pe *ParamExp, quoted bool) ([]frag, error) {
	if pe.Bad {
		return nil, &expandError{code: 1, msg: fmt.Sprintf("${%s}: bad substitution", pe.Raw)}
	}

	// ${!a[@]}: array keys.
	if pe.Keys {
		return x.multiFrags(x.arrayKeys(pe.Name), quoted, pe.KeysStar), nil
	}
	// ${!pre*} / ${!pre@}: variable names.
	if pe.Prefix {
		return x.multiFrags(x.st.VarNamesWithPrefix(pe.Name), quoted, pe.PrefStar), nil
	}

	eff := pe
	if pe.Indirect {
		target := x.st.GetStr(pe.Name)
		if pe.Index != "" {
			if v, err := x.elementValue(pe.Name, pe.Index); err == nil {
				target = v
			}
		}
		name := scanVarName(target)
		idx := ""
		if rest := target[len(name):]; rest != "" {
			if i, r2, ok := scanSubscript(rest); ok && r2 == "" {
				idx = i
			} else if name != "" {
				return nil, &expandError{code: 1, msg: fmt.Sprintf("%s: bad substitution", target)}
			}
		}
		if name == "" {
			if target == "" {
				return nil, &expandError{code: 1, msg: fmt.Sprintf("%s: invalid indirect expansion", pe.Name)}
			}
			return nil, &expandError{code: 1, msg: fmt.Sprintf("%s: bad substitution", target)}
		}
		eff = &ParamExp{Name: name, Index: idx, Op: pe.Op, Arg: pe.Arg, Arg2: pe.Arg2,
			Off: pe.Off, Len: pe.Len, HasLen: pe.HasLen, Transform: pe.Transform, Length: pe.Length}
	}

	if eff.Length {
		return x.lengthFrags(eff, quoted)
	}

	pv, err := x.paramValue(eff)
	if err != nil {
		return nil, err
	}

	// Default-family operators decide on set/empty before nounset applies.
	switch eff.Op {
	case "-", ":-", "=", ":=", "?", ":?", "+", ":+":
		return x.defaultOps(eff, pv, quoted)
	}

	if !pv.set && !pv.multi && x.st.opts.NoUnset {
		return nil, fatalf(1, "%s: unbound variable", eff.Name)
	}

	switch eff.Op {
	case "":
		return x.valueFrags(pv, quoted), nil
	case ":":
		return x.substringOp(eff, pv, quoted)
	case "#", "##", "%", "%%":
		pat, err := x.expandPatternWord(eff.Arg)
		if err != nil {
			return nil, err
		}
		o := x.matchOpts()
		longest := eff.Op == "##" || eff.Op == "%%"
		strip := func(s string) string {
			if eff.Op[0] == '#' {
				if n := patPrefixLen(pat, s, longest, o); n >= 0 {
					return s[n:]
				}
				return s
			}
			if n := patSuffixStart(pat, s, longest, o); n >= 0 {
				return s[:n]
			}
			return s
		}
		return x.valueFrags(mapValue(pv, strip), quoted), nil
	case "/", "//", "/#", "/%":
		pat, err := x.expandPatternWord(eff.Arg)
		if err != nil {
			return nil, err
		}
		repl := ""
		if eff.Arg2 != nil {
			if repl, err = x.expandNoSplit(eff.Arg2); err != nil {
				return nil, err
			}
		}
		all := eff.Op == "//"
		anchor := byte(0)
		if eff.Op == "/#" {
			anchor = '#'
		} else if eff.Op == "/%" {
			anchor = '%'
		}
		o := x.matchOpts()
		rep := func(s string) string { return patReplace(pat, s, repl, all, anchor, o) }
		return x.valueFrags(mapValue(pv, rep), quoted), nil
	case "^", "^^", ",", ",,":
		pat := "?"
		if eff.Arg != nil {
			p, err := x.expandPatternWord(eff.Arg)
			if err != nil {
				return nil, err
			}
			if p != "" {
				pat = p
			}
		}
		up := eff.Op[0] == '^'
		all := len(eff.Op) == 2
		o := x.matchOpts()
		cased := func(s string) string { return caseModify(s, pat, up, all, o) }
		return x.valueFrags(mapValue(pv, cased), quoted), nil
	case "@":
		return x.transformOp(eff, pv, quoted)
	}
	return nil, &expandError{code: 1, msg: fmt.Sprintf("${%s}: bad substitution", pe.Raw)}
}

func (x *Interp) matchOpts() matchOpts {
	return matchOpts{extglob: x.st.opts.ExtGlob, foldCase: x.st.opts.NoCaseMatch}
}

// paramValue resolves a parameter reference to its raw value.
func (x *Interp) paramValue(pe *ParamExp) (paramValue, error) {
	name := pe.Name
	// Positional and special parameters.
	switch name {
	case "@":
		return paramValue{multi: true, fields: x.st.positional, set: len(x.st.positional) > 0}, nil
	case "*":
		return paramValue{multi: true, star: true, fields: x.st.positional, set: len(x.st.positional) > 0}, nil
	case "#":
		return paramValue{s: strconv.Itoa(len(x.st.positional)), set: true}, nil
	case "?":
		return paramValue{s: strconv.Itoa(x.st.lastStatus), set: true}, nil
	case "-":
		return paramValue{s: x.st.opts.flagString(), set: true}, nil
	case "$":
		return paramValue{s: strconv.Itoa(x.st.pid), set: true}, nil
	case "!":
		return paramValue{s: "", set: false}, nil
	case "0":
		return paramValue{s: x.st.dollarZero, set: true}, nil
	}
	if isAllDigits(name) {
		n, _ := strconv.Atoi(name)
		if n <= len(x.st.positional) {
			return paramValue{s: x.st.positional[n-1], set: true}, nil
		}
		return paramValue{}, nil
	}
	// Dynamic variables.
	switch name {
	case "RANDOM":
		return paramValue{s: strconv.Itoa(x.st.Random()), set: true}, nil
	case "LINENO":
		return paramValue{s: strconv.Itoa(x.st.lineno), set: true}, nil
	case "BASHPID":
		return paramValue{s: strconv.Itoa(x.st.bashPid), set: true}, nil
	case "FUNCNAME":
		if n := len(x.st.funcNames); n > 0 {
			return paramValue{s: x.st.funcNames[n-1], set: true}, nil
		}
		return paramValue{}, nil
	case "PWD":
		return paramValue{s: x.st.cwd, set: true}, nil
	case "OLDPWD":
		return paramValue{s: x.st.prevDir, set: true}, nil
	case "SECONDS":
		if c := x.st.Get("SECONDS"); c != nil {
			return paramValue{s: c.Val.scalarView(), set: true}, nil
		}
		return paramValue{s: "0", set: true}, nil
	}

	cell := x.st.Get(name)
	if pe.Index == "@" || pe.Index == "*" {
		if cell == nil {
			return paramValue{multi: true, star: pe.Index == "*"}, nil
		}
		return paramValue{multi: true, star: pe.Index == "*", fields: cell.Val.fields(), set: true}, nil
	}
	if pe.Index != "" {
		v, err := x.elementValue(name, pe.Index)
		if err != nil {
			return paramValue{}, err
		}
		if v == "" {
			// distinguish unset element
			set, err2 := x.elementIsSet(name, pe.Index)
			if err2 != nil {
				return paramValue{}, err2
			}
			return paramValue{s: "", set: set}, nil
		}
		return paramValue{s: v, set: true}, nil
	}
	if cell == nil {
		return paramValue{}, nil
	}
	return paramValue{s: cell.Val.scalarView(), set: true}, nil
}

// elementValue reads ${name[sub]}.
func (x *Interp) elementValue(name, sub string) (string, error) {
	cell := x.st.Get(name)
	if cell == nil {
		return "", nil
	}
	switch cell.Val.Kind {
	case AssocVal:
		key, err := x.expandText(sub)
		if err != nil {
			return "", err
		}
		v, _ := cell.Val.Assoc.Get(key)
		return v, nil
	case IndexedVal:
		idx, err := x.arithEvalText(sub)
		if err != nil {
			return "", err
		}
		if idx < 0 {
			idx += int64(maxIndex(cell.Val) + 1)
		}
		return cell.Val.Arr[int(idx)], nil
	default:
		// Scalars act as arrays with a single element 0.
		idx, err := x.arithEvalText(sub)
		if err != nil {
			return "", err
		}
		if idx == 0 {
			return cell.Val.Str, nil
		}
		return "", nil
	}
}

func (x *Interp) elementIsSet(name, sub string) (bool, error) {
	cell := x.st.Get(name)
	if cell == nil {
		return false, nil
	}
	switch cell.Val.Kind {
	case AssocVal:
		key, err := x.expandText(sub)
		if err != nil {
			return false, err
		}
		_, ok := cell.Val.Assoc.Get(key)
		return ok, nil
	case IndexedVal:
		idx, err := x.arithEvalText(sub)
		if err != nil {
			return false, err
		}
		if idx < 0 {
			idx += int64(maxIndex(cell.Val) + 1)
		}
		_, ok := cell.Val.Arr[int(idx)]
		return ok, nil
	default:
		idx, err := x.arithEvalText(sub)
		return idx == 0, err
	}
}

func maxIndex(v *Value) int {
	max := -1
	for k := range v.Arr {
		if k > max {
			max = k
		}
	}
	return max
}

func (x *Interp) arrayKeys(name string) []string {
	cell := x.st.Get(name)
	if cell == nil {
		return nil
	}
	switch cell.Val.Kind {
	case IndexedVal:
		var out []string
		for _, i := range cell.Val.sortedIndices() {
			out = append(out, strconv.Itoa(i))
		}
		return out
	case AssocVal:
		var out []string
		for el := cell.Val.Assoc.Front(); el != nil; el = el.Next() {
			out = append(out, el.Key)
		}
		return out
	default:
		return []string{"0"}
	}
}

// defaultOps implements the -, :-, =, :=, ?, :?, + and :+ family.
func (x *Interp) defaultOps(pe *ParamExp, pv paramValue, quoted bool) ([]frag, error) {
	checkEmpty := strings.HasPrefix(pe.Op, ":")
	useDefault := !pv.set
	if pv.multi {
		useDefault = len(pv.fields) == 0
	}
	if checkEmpty && !useDefault {
		if pv.multi {
			useDefault = len(pv.fields) == 1 && pv.fields[0] == ""
		} else {
			useDefault = pv.s == ""
		}
	}
	op := strings.TrimPrefix(pe.Op, ":")
	switch op {
	case "+":
		if useDefault {
			return nil, nil
		}
		if pe.Arg == nil {
			return nil, nil
		}
		return x.expandParts(pe.Arg.Parts, quoted)
	case "-":
		if !useDefault {
			return x.valueFrags(pv, quoted), nil
		}
		if pe.Arg == nil {
			return nil, nil
		}
		return x.expandParts(pe.Arg.Parts, quoted)
	case "=":
		if !useDefault {
			return x.valueFrags(pv, quoted), nil
		}
		val := ""
		if pe.Arg != nil {
			var err error
			if val, err = x.expandNoSplit(pe.Arg); err != nil {
				return nil, err
			}
		}
		if !x.st.Set(pe.Name, val) {
			return nil, &expandError{code: 1, msg: fmt.Sprintf("%s: readonly variable", pe.Name)}
		}
		return []frag{{s: val, quoted: quoted}}, nil
	case "?":
		if !useDefault {
			return x.valueFrags(pv, quoted), nil
		}
		msg := "parameter null or not set"
		if pe.Arg != nil {
			if m, err := x.expandNoSplit(pe.Arg); err == nil && m != "" {
				msg = m
			}
		}
		// ${x:?} aborts the whole non-interactive invocation.
		return nil, fatalf(1, "%s: %s", pe.Name, msg)
	}
	return nil, &expandError{code: 1, msg: fmt.Sprintf("${%s}: bad substitution", pe.Raw)}
}

// substringOp implements ${x:off[:len]} over scalars, arrays and $@.
func (x *Interp) substringOp(pe *ParamExp, pv paramValue, quoted bool) ([]frag, error) {
	off, err := x.arithEval(pe.Off)
	if err != nil {
		return nil, err
	}
	var length int64
	if pe.HasLen {
		if length, err = x.arithEval(pe.Len); err != nil {
			return nil, err
		}
	}
	if pv.multi {
		list := pv.fields
		if pe.Name == "@" || pe.Name == "*" {
			list = append([]string{x.st.dollarZero}, pv.fields...)
		}
		n := int64(len(list))
		if off < 0 {
			off += n
		}
		if off < 0 || off > n {
			return nil, nil
		}
		end := n
		if pe.HasLen {
			if length < 0 {
				end = n + length
			} else {
				end = off + length
			}
		}
		if end > n {
			end = n
		}
		if end < off {
			return nil, nil
		}
		out := list[off:end]
		if pe.Name != "@" && pe.Name != "*" {
			return x.multiFrags(out, quoted, pv.star), nil
		}
		return x.multiFrags(out, quoted, pv.star), nil
	}
	runes := []rune(pv.s)
	n := int64(len(runes))
	if off < 0 {
		off += n
	}
	if off < 0 || off > n {
		return []frag{{s: "", quoted: quoted}}, nil
	}
	end := n
	if pe.HasLen {
		if length < 0 {
			end = n + length
		} else {
			end = off + length
		}
	}
	if end > n {
		end = n
	}
	if end < off {
		if pe.HasLen && length < 0 {
			return nil, &expandError{code: 1, msg: fmt.Sprintf("%s: substring expression < 0", pe.Raw)}
		}
		end = off
	}
	return []frag{{s: string(runes[off:end]), quoted: quoted}}, nil
}

// lengthFrags implements ${#x} and friends.
func (x *Interp) lengthFrags(pe *ParamExp, quoted bool) ([]frag, error) {
	if pe.Index == "@" || pe.Index == "*" || pe.Name == "@" || pe.Name == "*" {
		pv, err := x.paramValue(&ParamExp{Name: pe.Name, Index: pe.Index})
		if err != nil {
			return nil, err
		}
		n := len(pv.fields)
		if !pv.multi {
			n = len(x.st.positional)
		}
		return []frag{{s: strconv.Itoa(n), quoted: quoted}}, nil
	}
	pv, err := x.paramValue(&ParamExp{Name: pe.Name, Index: pe.Index})
	if err != nil {
		return nil, err
	}
	if !pv.set && x.st.opts.NoUnset {
		return nil, fatalf(1, "%s: unbound variable", pe.Name)
	}
	return []frag{{s: strconv.Itoa(utf8.RuneCountInString(pv.s)), quoted: quoted}}, nil
}

// transformOp implements ${x@op}.
func (x *Interp) transformOp(pe *ParamExp, pv paramValue, quoted bool) ([]frag, error) {
	tr := func(s string) (string, error) {
		switch pe.Transform {
		case 'Q':
			return shellQuote(s), nil
		case 'E':
			return ansiExpand(s), nil
		case 'P':
			return s, nil // prompt escapes are inert in the sandbox
		case 'U':
			return strings.ToUpper(s), nil
		case 'L':
			return strings.ToLower(s), nil
		case 'u':
			if s == "" {
				return s, nil
			}
			r, size := utf8.DecodeRuneInString(s)
			return strings.ToUpper(string(r)) + s[size:], nil
		default:
			return "", &expandError{code: 1, msg: fmt.Sprintf("${%s}: bad substitution", pe.Raw)}
		}
	}
	switch pe.Transform {
	case 'A':
		cell := x.st.Get(pe.Name)
		if cell == nil {
			return nil, nil
		}
		return []frag{{s: declareForm(pe.Name, cell), quoted: quoted}}, nil
	case 'a':
		cell := x.st.Get(pe.Name)
		if cell == nil {
			return []frag{{s: "", quoted: quoted}}, nil
		}
		return []frag{{s: attrString(cell), quoted: quoted}}, nil
	case 'K', 'k':
		cell := x.st.Get(pe.Name)
		if cell == nil {
			return nil, nil
		}
		var pairs []string
		switch cell.Val.Kind {
		case IndexedVal:
			for _, i := range cell.Val.sortedIndices() {
				pairs = append(pairs, strconv.Itoa(i), maybeQuote(cell.Val.Arr[i], pe.Transform == 'K'))
			}
		case AssocVal:
			for el := cell.Val.Assoc.Front(); el != nil; el = el.Next() {
				pairs = append(pairs, el.Key, maybeQuote(el.Value, pe.Transform == 'K'))
			}
		default:
			pairs = append(pairs, maybeQuote(cell.Val.Str, pe.Transform == 'K'))
		}
		return []frag{{s: strings.Join(pairs, " "), quoted: quoted}}, nil
	}
	if pv.multi {
		out := make([]string, len(pv.fields))
		for i, f := range pv.fields {
			v, err := tr(f)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return x.multiFrags(out, quoted, pv.star), nil
	}
	v, err := tr(pv.s)
	if err != nil {
		return nil, err
	}
	return []frag{{s: v, quoted: quoted}}, nil
}

func maybeQuote(s string, q bool) string {
	if q {
		return shellQuote(s)
	}
	return s
}

// shellQuote renders s as a single-quoted shell word.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ansiExpand interprets backslash escapes the way $'...' does.
func ansiExpand(s string) string {
	l := newLexer(s+"'", lexOptions{})
	return l.lexAnsiC(Pos{})
}

// attrString renders a cell's attributes for ${x@a}.
func attrString(c *Cell) string {
	var b strings.Builder
	if c.Val.Kind == IndexedVal {
		b.WriteByte('a')
	}
	if c.Val.Kind == AssocVal {
		b.WriteByte('A')
	}
	if c.Integer {
		b.WriteByte('i')
	}
	if c.Lower {
		b.WriteByte('l')
	}
	if c.Upper {
		b.WriteByte('u')
	}
	if c.Nameref {
		b.WriteByte('n')
	}
	if c.ReadOnly {
		b.WriteByte('r')
	}
	if c.Exported {
		b.WriteByte('x')
	}
	return b.String()
}

// declareForm renders name=value in reusable form for ${x@A}.
func declareForm(name string, c *Cell) string {
	switch c.Val.Kind {
	case IndexedVal:
		var b strings.Builder
		b.WriteString("declare -a " + name + "=(")
		for j, i := range c.Val.sortedIndices() {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "[%d]=%s", i, shellQuote(c.Val.Arr[i]))
		}
		b.WriteString(")")
		return b.String()
	case AssocVal:
		var b strings.Builder
		b.WriteString("declare -A " + name + "=(")
		first := true
		for el := c.Val.Assoc.Front(); el != nil; el = el.Next() {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			fmt.Fprintf(&b, "[%s]=%s", el.Key, shellQuote(el.Value))
		}
		b.WriteString(")")
		return b.String()
	default:
		if attrs := attrString(c); attrs != "" {
			return "declare -" + attrs + " " + name + "=" + shellQuote(c.Val.Str)
		}
		return name + "=" + shellQuote(c.Val.Str)
	}
}

// caseModify applies ^ ^^ , ,, with an optional single-char pattern.
func caseModify(s, pat string, upper, all bool, o matchOpts) string {
	var b strings.Builder
	first := true
	for _, r := range s {
		apply := (first || all) && matchPattern(pat, string(r), o)
		first = false
		if apply && upper {
			b.WriteString(strings.ToUpper(string(r)))
		} else if apply && !upper {
			b.WriteString(strings.ToLower(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mapValue applies f over a parameter's value(s).
func mapValue(pv paramValue, f func(string) string) paramValue {
	if pv.multi {
		out := make([]string, len(pv.fields))
		for i, s := range pv.fields {
			out[i] = f(s)
		}
		pv.fields = out
		return pv
	}
	pv.s = f(pv.s)
	return pv
}

// valueFrags converts a parameter value into fragments.
func (x *Interp) valueFrags(pv paramValue, quoted bool) []frag {
	if pv.multi {
		return x.multiFrags(pv.fields, quoted, pv.star)
	}
	return []frag{{s: pv.s, quoted: quoted}}
}

// multiFrags renders multiple fields: quoted "@" keeps them as separate
// fields; quoted "*" joins on the first IFS character; unquoted results
// are subject to later splitting.
func (x *Interp) multiFrags(fields []string, quoted, star bool) []frag {
	if quoted && star {
		sep := " "
		if c := x.st.Get("IFS"); c != nil {
			ifs := c.Val.scalarView()
			if ifs == "" {
				sep = ""
			} else {
				sep = string(ifs[0])
			}
		}
		return []frag{{s: strings.Join(fields, sep), quoted: true}}
	}
	var out []frag
	for i, f := range fields {
		if i > 0 {
			out = append(out, frag{sep: true})
		}
		out = append(out, frag{s: f, quoted: quoted})
	}
	return out
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
