package interp

import "strings"

// parseArithText parses an arithmetic expression from raw text. Shape
// errors are parse-fatal; value errors (bad base, division by zero) are
// runtime errors.
func (p *parser) parseArithText(src string) *ArithExpr {
	ap := &arithParser{src: src, p: p}
	ap.next()
	if strings.TrimSpace(src) == "" {
		return &ArithExpr{Kind: ArithNum, Num: 0, Raw: src}
	}
	e := ap.parseComma()
	if ap.tok.kind != arithEOF && p.err == nil {
		p.errorf("arithmetic syntax error near %q", ap.tok.text)
	}
	if e == nil {
		e = &ArithExpr{Kind: ArithNum, Num: 0, Raw: src}
	}
	e.Raw = src
	return e
}

type arithTokKind int

const (
	arithEOF arithTokKind = iota
	arithNumber
	arithName
	arithOp
	arithDollar
)

type arithTok struct {
	kind arithTokKind
	text string
	sub  string // subscript raw text for names
}

type arithParser struct {
	src string
	pos int
	tok arithTok
	p   *parser
}

var arithOps = []string{
	"<<=", ">>=", "**", "++", "--", "<<", ">>", "<=", ">=", "==", "!=",
	"&&", "||", "+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "~", "&", "|", "^",
	"?", ":", ",", "(", ")",
}

func (ap *arithParser) next() {
	for ap.pos < len(ap.src) {
		c := ap.src[ap.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			ap.pos++
			continue
		}
		break
	}
	if ap.pos >= len(ap.src) {
		ap.tok = arithTok{kind: arithEOF}
		return
	}
	c := ap.src[ap.pos]
	switch {
	case c >= '0' && c <= '9':
		start := ap.pos
		for ap.pos < len(ap.src) && isBaseDigit(ap.src[ap.pos]) {
			ap.pos++
		}
		if ap.pos < len(ap.src) && ap.src[ap.pos] == '#' {
			ap.pos++
			for ap.pos < len(ap.src) && isBaseDigit(ap.src[ap.pos]) {
				ap.pos++
			}
		}
		ap.tok = arithTok{kind: arithNumber, text: ap.src[start:ap.pos]}
	case isNameStart(c):
		start := ap.pos
		for ap.pos < len(ap.src) && isNameChar(ap.src[ap.pos]) {
			ap.pos++
		}
		t := arithTok{kind: arithName, text: ap.src[start:ap.pos]}
		if ap.pos < len(ap.src) && ap.src[ap.pos] == '[' {
			if sub, rest, ok := scanSubscript(ap.src[ap.pos:]); ok {
				t.sub = sub
				ap.pos = len(ap.src) - len(rest)
				// Distinguish empty-subscript from absent with a marker.
				if t.sub == "" {
					t.sub = " "
				}
			}
		}
		ap.tok = t
	case c == '$':
		start := ap.pos
		ap.pos++
		if ap.pos < len(ap.src) && (ap.src[ap.pos] == '{' || ap.src[ap.pos] == '(') {
			open := ap.src[ap.pos]
			close := byte('}')
			if open == '(' {
				close = ')'
			}
			depth := 0
			for ; ap.pos < len(ap.src); ap.pos++ {
				if ap.src[ap.pos] == open {
					depth++
				} else if ap.src[ap.pos] == close {
					depth--
					if depth == 0 {
						ap.pos++
						break
					}
				}
			}
		} else {
			for ap.pos < len(ap.src) && isNameChar(ap.src[ap.pos]) {
				ap.pos++
			}
		}
		ap.tok = arithTok{kind: arithDollar, text: ap.src[start:ap.pos]}
	default:
		for _, op := range arithOps {
			if strings.HasPrefix(ap.src[ap.pos:], op) {
				ap.pos += len(op)
				ap.tok = arithTok{kind: arithOp, text: op}
				return
			}
		}
		ap.p.errorf("arithmetic syntax error near %q", string(c))
		ap.tok = arithTok{kind: arithEOF}
	}
}

func isBaseDigit(c byte) bool {
	return c == '@' || c == '_' || (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (ap *arithParser) isOp(op string) bool {
	return ap.tok.kind == arithOp && ap.tok.text == op
}

func (ap *arithParser) parseComma() *ArithExpr {
	e := ap.parseAssign()
	for ap.isOp(",") {
		ap.next()
		e = &ArithExpr{Kind: ArithComma, X: e, Y: ap.parseAssign()}
	}
	return e
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, "&=": true, "^=": true, "|=": true,
}

func (ap *arithParser) parseAssign() *ArithExpr {
	e := ap.parseTernary()
	if ap.tok.kind == arithOp && assignOps[ap.tok.text] {
		op := ap.tok.text
		if e == nil || (e.Kind != ArithVar && e.Kind != ArithElem) {
			ap.p.errorf("arithmetic: assignment to a non-variable")
			return e
		}
		ap.next()
		rhs := ap.parseAssign()
		return &ArithExpr{Kind: ArithAssign, Op: op, Name: e.Name, Key: e.Key, X: e, Y: rhs}
	}
	return e
}

func (ap *arithParser) parseTernary() *ArithExpr {
	cond := ap.parseBinary(0)
	if !ap.isOp("?") {
		return cond
	}
	ap.next()
	then := ap.parseAssign()
	if !ap.isOp(":") {
		ap.p.errorf("arithmetic: expected ':' in conditional expression")
		return cond
	}
	ap.next()
	els := ap.parseAssign()
	return &ArithExpr{Kind: ArithTernary, X: cond, Y: then, Z: els}
}

// Binary precedence, loosest first.
var arithLevels = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<=", ">=", "<", ">"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (ap *arithParser) parseBinary(level int) *ArithExpr {
	if level >= len(arithLevels) {
		return ap.parsePower()
	}
	e := ap.parseBinary(level + 1)
	for ap.tok.kind == arithOp {
		matched := false
		for _, op := range arithLevels[level] {
			if ap.tok.text == op {
				ap.next()
				rhs := ap.parseBinary(level + 1)
				e = &ArithExpr{Kind: ArithBinary, Op: op, X: e, Y: rhs}
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}
	return e
}

// parsePower handles right-associative **.
func (ap *arithParser) parsePower() *ArithExpr {
	e := ap.parseUnary()
	if ap.isOp("**") {
		ap.next()
		return &ArithExpr{Kind: ArithBinary, Op: "**", X: e, Y: ap.parsePower()}
	}
	return e
}

func (ap *arithParser) parseUnary() *ArithExpr {
	if ap.tok.kind == arithOp {
		switch ap.tok.text {
		case "!", "~", "-", "+":
			op := ap.tok.text
			ap.next()
			return &ArithExpr{Kind: ArithUnary, Op: op, X: ap.parseUnary()}
		case "++", "--":
			op := ap.tok.text
			ap.next()
			operand := ap.parseUnary()
			return &ArithExpr{Kind: ArithIncDec, Op: op, X: operand}
		}
	}
	return ap.parsePostfix()
}

func (ap *arithParser) parsePostfix() *ArithExpr {
	e := ap.parsePrimary()
	for ap.tok.kind == arithOp && (ap.tok.text == "++" || ap.tok.text == "--") {
		if e == nil || (e.Kind != ArithVar && e.Kind != ArithElem) {
			break
		}
		e = &ArithExpr{Kind: ArithIncDec, Op: ap.tok.text, X: e, Post: true}
		ap.next()
	}
	return e
}

func (ap *arithParser) parsePrimary() *ArithExpr {
	switch ap.tok.kind {
	case arithNumber:
		t := ap.tok.text
		ap.next()
		return &ArithExpr{Kind: ArithNum, Name: t}
	case arithName:
		t := ap.tok
		ap.next()
		if t.sub != "" {
			return &ArithExpr{Kind: ArithElem, Name: t.text, Key: strings.TrimSuffix(t.sub, " ")}
		}
		return &ArithExpr{Kind: ArithVar, Name: t.text}
	case arithDollar:
		t := ap.tok.text
		ap.next()
		return &ArithExpr{Kind: ArithSub, Key: t}
	case arithOp:
		if ap.tok.text == "(" {
			ap.next()
			e := ap.parseComma()
			if !ap.isOp(")") {
				ap.p.errorf("arithmetic: missing ')'")
				return e
			}
			ap.next()
			return &ArithExpr{Kind: ArithGroup, X: e}
		}
	}
	ap.p.errorf("arithmetic syntax error near %q", ap.tok.text)
	return &ArithExpr{Kind: ArithNum, Num: 0}
}
