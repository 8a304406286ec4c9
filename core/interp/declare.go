package interp

import (
	"fmt"
	"strings"
)

// Declaration commands keep their operand words: `declare a=(1 2)` needs
// the array literal's structure, which ordinary argv expansion discards.

func isDeclCmd(name string) bool {
	switch name {
	case "declare", "typeset", "local":
		return true
	}
	return false
}

// wordAsAssign reinterprets an operand word as an assignment, parsing a
// trailing array literal when present.
func (x *Interp) wordAsAssign(w *Word) *Assign {
	if len(w.Parts) == 0 || w.Parts[0].Kind != LitPart {
		return nil
	}
	lit := w.Parts[0].Text
	eq := strings.IndexByte(lit, '=')
	if eq <= 0 || !isAssignPrefix(lit[:eq+1]) {
		return nil
	}
	as := &Assign{}
	lhs := lit[:eq]
	if strings.HasSuffix(lhs, "+") {
		as.Append = true
		lhs = lhs[:len(lhs)-1]
	}
	if i := strings.IndexByte(lhs, '['); i > 0 {
		as.Name = lhs[:i]
		as.Index = strings.TrimSuffix(lhs[i+1:], "]")
	} else {
		as.Name = lhs
	}
	var valueParts []WordPart
	if rest := lit[eq+1:]; rest != "" {
		valueParts = append(valueParts, WordPart{Kind: LitPart, Text: rest, Pos: w.Pos})
	}
	for _, wp := range w.Parts[1:] {
		if wp.Kind == arrayLitPart {
			p := &parser{lx: newLexer("", x.lexOpts())}
			as.Array = p.parseArrayLit(wp.Raw)
			if as.Array == nil {
				as.Array = []*ArrayElem{}
			}
			continue
		}
		valueParts = append(valueParts, wp)
	}
	if as.Array == nil {
		as.Value = &Word{Parts: valueParts, Pos: w.Pos}
	}
	return as
}

type declAttrs struct {
	indexed, assoc, integer, lower, upper, nameref, readonly, export bool
	global, print                                                    bool
	unexport, unreadonly                                             bool
}

// runDeclare implements declare, typeset and local.
func (x *Interp) runDeclare(name string, words []*Word) error {
	local := name == "local" || (len(x.st.funcNames) > 0)
	var attrs declAttrs
	var operands []*Word

	for _, w := range words {
		lit := w.Lit()
		if len(lit) > 1 && (lit[0] == '-' || lit[0] == '+') {
			on := lit[0] == '-'
			valid := true
			for _, c := range []byte(lit[1:]) {
				switch c {
				case 'a':
					attrs.indexed = on
				case 'A':
					attrs.assoc = on
				case 'i':
					attrs.integer = on
				case 'l':
					attrs.lower = on
				case 'u':
					attrs.upper = on
				case 'n':
					attrs.nameref = on
				case 'r':
					if on {
						attrs.readonly = true
					} else {
						attrs.unreadonly = true
					}
				case 'x':
					if on {
						attrs.export = true
					} else {
						attrs.unexport = true
					}
				case 'g':
					attrs.global = on
				case 'p':
					attrs.print = on
				case 'f', 'F':
					// function namespace: accepted, listing only
				default:
					valid = false
				}
			}
			if valid {
				continue
			}
		}
		operands = append(operands, w)
	}
	if attrs.global {
		local = false
	}

	if len(operands) == 0 {
		for _, n := range x.st.VarNamesWithPrefix("") {
			c := x.st.Get(n)
			if c != nil {
				fmt.Fprintln(x.w1, declareForm(n, c))
			}
		}
		x.st.lastStatus = 0
		return nil
	}

	status := 0
	for _, w := range operands {
		as := x.wordAsAssign(w)
		varName := ""
		if as != nil {
			varName = as.Name
		} else {
			n, err := x.expandNoSplit(w)
			if err != nil {
				return x.expansionFailure(err)
			}
			varName = n
		}
		if !validName(varName) {
			fmt.Fprintf(x.w2, "%s: %s: `%s': not a valid identifier\n", x.st.dollarZero, name, varName)
			status = 1
			continue
		}
		if attrs.print {
			if c := x.st.Get(varName); c != nil {
				fmt.Fprintln(x.w1, declareForm(varName, c))
			} else {
				status = 1
			}
			continue
		}

		cell := x.lookupOrDeclare(varName, local, attrs)
		if cell.ReadOnly && !attrs.unreadonly && (as != nil && (as.Value != nil || as.Array != nil)) {
			fmt.Fprintf(x.w2, "%s: %s: %s: readonly variable\n", x.st.dollarZero, name, varName)
			status = 1
			continue
		}
		x.applyAttrs(cell, attrs)

		if as != nil && (as.Value != nil || as.Array != nil || as.Index != "") {
			target := as
			if err := x.applyDeclAssign(cell, target); err != nil {
				return x.expansionFailure(err)
			}
		}
	}
	x.st.lastStatus = status
	return nil
}

// lookupOrDeclare finds the cell the declaration targets, creating it in
// the right scope when absent.
func (x *Interp) lookupOrDeclare(name string, local bool, attrs declAttrs) *Cell {
	if local {
		// A declaration in a function always creates or retargets a cell in
		// the nearest function frame unless one already lives there.
		for i := len(x.st.scopes) - 1; i >= 0; i-- {
			sc := x.st.scopes[i]
			if c, ok := sc.vars[name]; ok && (sc.funcScope || i == 0) {
				if sc.funcScope {
					return c
				}
				break
			}
			if sc.funcScope {
				break
			}
		}
		c := x.st.SetLocal(name, nil)
		x.initCellValue(c, attrs)
		return c
	}
	if c := x.st.lookup(name); c != nil {
		return c
	}
	c := &Cell{Val: scalar(""), Unset: true}
	x.initCellValue(c, attrs)
	x.st.clearTombstone(name)
	x.st.scopes[0].vars[name] = c
	return c
}

func (x *Interp) initCellValue(c *Cell, attrs declAttrs) {
	if attrs.assoc {
		c.Val = newAssoc()
		c.Unset = false
	} else if attrs.indexed {
		c.Val = newIndexed()
		c.Unset = false
	}
}

func (x *Interp) applyAttrs(c *Cell, attrs declAttrs) {
	if attrs.assoc && c.Val.Kind != AssocVal {
		c.Val = newAssoc()
		c.Unset = false
	}
	if attrs.indexed && c.Val.Kind == ScalarVal {
		v := newIndexed()
		if !c.Unset && c.Val.Str != "" {
			v.Arr[0] = c.Val.Str
		}
		c.Val = v
		c.Unset = false
	}
	if attrs.integer {
		c.Integer = true
	}
	if attrs.lower {
		c.Lower, c.Upper = true, false
	}
	if attrs.upper {
		c.Upper, c.Lower = true, false
	}
	if attrs.nameref {
		c.Nameref = true
	}
	if attrs.readonly {
		c.ReadOnly = true
	}
	if attrs.unreadonly {
		c.ReadOnly = false
	}
	if attrs.export {
		c.Exported = true
	}
	if attrs.unexport {
		c.Exported = false
	}
}

// applyDeclAssign writes a declaration operand's value into the cell.
func (x *Interp) applyDeclAssign(cell *Cell, as *Assign) error {
	if as.Array != nil {
		if cell.Val.Kind == AssocVal {
			if !as.Append {
				cell.Val = newAssoc()
			}
			for _, el := range as.Array {
				if el.Index == "" {
					return &expandError{code: 1, msg: fmt.Sprintf("%s: assoc assignment needs [key]=value", as.Name)}
				}
				key, err := x.expandText(el.Index)
				if err != nil {
					return err
				}
				v, err := x.expandNoSplit(el.Value)
				if err != nil {
					return err
				}
				cell.Val.Assoc.Set(key, v)
			}
			return nil
		}
		if cell.Val.Kind != IndexedVal || !as.Append {
			cell.Val = newIndexed()
		}
		cell.Unset = false
		next := 0
		if as.Append {
			next = maxIndex(cell.Val) + 1
		}
		for _, el := range as.Array {
			if el.Index != "" {
				idx, err := x.arithEvalText(el.Index)
				if err != nil {
					return err
				}
				next = int(idx)
			}
			fields, err := x.expandWord(el.Value)
			if err != nil {
				return err
			}
			for _, f := range fields {
				cell.Val.Arr[next] = f
				next++
			}
		}
		return nil
	}

	val, err := x.assignValue(as)
	if err != nil {
		return err
	}
	if as.Index != "" {
		return x.setElement(as.Name, as.Index, val)
	}
	if cell.Integer {
		n, err := x.arithStringValue(val)
		if err != nil {
			return err
		}
		if as.Append {
			old, _ := x.arithStringValue(cell.Val.scalarView())
			n += old
		}
		val = formatInt(n)
	} else if as.Append && !cell.Unset {
		val = cell.Val.scalarView() + val
	}
	switch cell.Val.Kind {
	case IndexedVal:
		cell.Val.Arr[0] = cell.transform(val)
	case AssocVal:
		cell.Val.Assoc.Set("0", cell.transform(val))
	default:
		cell.Val = scalar(cell.transform(val))
	}
	cell.Unset = false
	return nil
}
