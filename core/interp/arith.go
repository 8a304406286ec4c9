package interp

import (
	"fmt"
	"strconv"
	"strings"
)

// arithEval evaluates an arithmetic expression over 64-bit signed integers
// against the variable store.
func (x *Interp) arithEval(e *ArithExpr) (int64, error) {
	if e == nil {
		return 0, nil
	}
	switch e.Kind {
	case ArithNum:
		if e.Name == "" {
			return e.Num, nil
		}
		return parseArithNumber(e.Name)
	case ArithVar:
		return x.arithVarValue(e.Name)
	case ArithElem:
		v, err := x.elementValue(e.Name, e.Key)
		if err != nil {
			return 0, err
		}
		return x.arithStringValue(v)
	case ArithSub:
		s, err := x.expandText(e.Key)
		if err != nil {
			return 0, err
		}
		return x.arithStringValue(s)
	case ArithGroup:
		return x.arithEval(e.X)
	case ArithComma:
		if _, err := x.arithEval(e.X); err != nil {
			return 0, err
		}
		return x.arithEval(e.Y)
	case ArithUnary:
		v, err := x.arithEval(e.X)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		case "!":
			return boolInt(v == 0), nil
		case "~":
			return ^v, nil
		}
	case ArithTernary:
		c, err := x.arithEval(e.X)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return x.arithEval(e.Y)
		}
		return x.arithEval(e.Z)
	case ArithBinary:
		return x.arithBinary(e)
	case ArithAssign:
		return x.arithAssign(e)
	case ArithIncDec:
		return x.arithIncDec(e)
	}
	return 0, &expandError{code: 1, msg: "arithmetic: invalid expression"}
}

func (x *Interp) arithBinary(e *ArithExpr) (int64, error) {
	// Logical operators short-circuit.
	if e.Op == "&&" || e.Op == "||" {
		l, err := x.arithEval(e.X)
		if err != nil {
			return 0, err
		}
		if e.Op == "&&" && l == 0 {
			return 0, nil
		}
		if e.Op == "||" && l != 0 {
			return 1, nil
		}
		r, err := x.arithEval(e.Y)
		if err != nil {
			return 0, err
		}
		return boolInt(r != 0), nil
	}
	l, err := x.arithEval(e.X)
	if err != nil {
		return 0, err
	}
	r, err := x.arithEval(e.Y)
	if err != nil {
		return 0, err
	}
	return arithApply(e.Op, l, r)
}

func arithApply(op string, l, r int64) (int64, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, &expandError{code: 1, msg: "division by 0"}
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, &expandError{code: 1, msg: "division by 0"}
		}
		return l % r, nil
	case "**":
		if r < 0 {
			return 0, &expandError{code: 1, msg: "exponent less than 0"}
		}
		out := int64(1)
		for ; r > 0; r-- {
			out *= l
		}
		return out, nil
	case "<<":
		return l << (uint64(r) & 63), nil
	case ">>":
		return l >> (uint64(r) & 63), nil
	case "<":
		return boolInt(l < r), nil
	case "<=":
		return boolInt(l <= r), nil
	case ">":
		return boolInt(l > r), nil
	case ">=":
		return boolInt(l >= r), nil
	case "==":
		return boolInt(l == r), nil
	case "!=":
		return boolInt(l != r), nil
	case "&":
		return l & r, nil
	case "^":
		return l ^ r, nil
	case "|":
		return l | r, nil
	}
	return 0, &expandError{code: 1, msg: fmt.Sprintf("arithmetic: unknown operator %q", op)}
}

func (x *Interp) arithAssign(e *ArithExpr) (int64, error) {
	rhs, err := x.arithEval(e.Y)
	if err != nil {
		return 0, err
	}
	val := rhs
	if e.Op != "=" {
		old, err := x.arithLValue(e)
		if err != nil {
			return 0, err
		}
		if val, err = arithApply(strings.TrimSuffix(e.Op, "="), old, rhs); err != nil {
			return 0, err
		}
	}
	if err := x.arithStore(e, val); err != nil {
		return 0, err
	}
	return val, nil
}

func (x *Interp) arithIncDec(e *ArithExpr) (int64, error) {
	old, err := x.arithLValue(e.X)
	if err != nil {
		return 0, err
	}
	delta := int64(1)
	if e.Op == "--" {
		delta = -1
	}
	if err := x.arithStore(e.X, old+delta); err != nil {
		return 0, err
	}
	if e.Post {
		return old, nil
	}
	return old + delta, nil
}

// arithLValue reads the current value of an assignable expression.
func (x *Interp) arithLValue(e *ArithExpr) (int64, error) {
	if e.Kind == ArithElem || (e.Kind == ArithAssign && e.Key != "") {
		v, err := x.elementValue(e.Name, e.Key)
		if err != nil {
			return 0, err
		}
		return x.arithStringValue(v)
	}
	return x.arithVarValue(e.Name)
}

// arithStore writes through to the variable store.
func (x *Interp) arithStore(e *ArithExpr, val int64) error {
	text := strconv.FormatInt(val, 10)
	if (e.Kind == ArithElem || e.Kind == ArithAssign) && e.Key != "" {
		return x.setElement(e.Name, e.Key, text)
	}
	if !x.st.Set(e.Name, text) {
		return &expandError{code: 1, msg: fmt.Sprintf("%s: readonly variable", e.Name)}
	}
	return nil
}

// setElement assigns name[sub]=value, creating an indexed array as needed.
func (x *Interp) setElement(name, sub, value string) error {
	cell := x.st.Get(name)
	if cell != nil && cell.ReadOnly {
		return &expandError{code: 1, msg: fmt.Sprintf("%s: readonly variable", name)}
	}
	if cell != nil && cell.Val.Kind == AssocVal {
		key, err := x.expandText(sub)
		if err != nil {
			return err
		}
		cell.Val.Assoc.Set(key, value)
		return nil
	}
	idx64, err := x.arithEvalText(sub)
	if err != nil {
		return err
	}
	if cell == nil || cell.Val.Kind == ScalarVal {
		v := newIndexed()
		if cell != nil && cell.Val.Str != "" {
			v.Arr[0] = cell.Val.Str
		}
		newCell, ok := x.st.SetCell(name, v)
		if !ok {
			return &expandError{code: 1, msg: fmt.Sprintf("%s: readonly variable", name)}
		}
		cell = newCell
	}
	idx := int(idx64)
	if idx < 0 {
		idx += maxIndex(cell.Val) + 1
		if idx < 0 {
			return &expandError{code: 1, msg: fmt.Sprintf("%s[%s]: bad array subscript", name, sub)}
		}
	}
	cell.Val.Arr[idx] = cell.transform(value)
	return nil
}

// arithVarValue resolves a name to an integer, recursively evaluating
// string values the way the shell does.
func (x *Interp) arithVarValue(name string) (int64, error) {
	switch name {
	case "RANDOM":
		return int64(x.st.Random()), nil
	case "LINENO":
		return int64(x.st.lineno), nil
	case "BASHPID":
		return int64(x.st.bashPid), nil
	}
	c := x.st.Get(name)
	if c == nil {
		return 0, nil
	}
	return x.arithStringValue(c.Val.scalarView())
}

const maxArithDepth = 128

func (x *Interp) arithStringValue(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := parseArithNumber(s); err == nil {
		return n, nil
	}
	if x.arithDepth >= maxArithDepth {
		return 0, &expandError{code: 1, msg: "expression recursion level exceeded"}
	}
	x.arithDepth++
	defer func() { x.arithDepth-- }()
	e, err := parseArith(s, x.lexOpts())
	if err != nil {
		return 0, &expandError{code: 1, msg: err.Error()}
	}
	return x.arithEval(e)
}

// parseArithNumber handles decimal, 0x hex, 0 octal and base#digits forms.
func parseArithNumber(s string) (int64, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var n int64
	var err error
	switch {
	case strings.Contains(s, "#"):
		parts := strings.SplitN(s, "#", 2)
		base, berr := strconv.ParseInt(parts[0], 10, 64)
		if berr != nil || base < 2 || base > 64 {
			return 0, fmt.Errorf("invalid arithmetic base: %s", s)
		}
		n, err = parseBaseN(parts[1], int(base))
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		n, err = strconv.ParseInt(s[2:], 16, 64)
	case len(s) > 1 && s[0] == '0':
		n, err = strconv.ParseInt(s[1:], 8, 64)
	default:
		n, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid arithmetic operand: %s", s)
	}
	if neg {
		n = -n
	}
	return n, nil
}

// parseBaseN decodes base#digits with digits 0-9, a-z, A-Z, @ and _.
// Bases up to 36 treat letters case-insensitively.
func parseBaseN(s string, base int) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'z':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			if base <= 36 {
				d = int(c-'A') + 10
			} else {
				d = int(c-'A') + 36
			}
		case c == '@':
			d = 62
		case c == '_':
			d = 63
		default:
			return 0, fmt.Errorf("invalid digit %q", c)
		}
		if d >= base {
			return 0, fmt.Errorf("digit out of range for base %d", base)
		}
		n = n*int64(base) + int64(d)
	}
	return n, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
