package interp

import (
	"fmt"
	"strings"
)

// Parse parses a complete script. opts supplies the alias table and the
// option flags that affect tokenization.
func Parse(src string, opts lexOptions) (*Script, error) {
	p := &parser{lx: newLexer(src, opts)}
	p.next()
	stmts := p.parseStmts(nil)
	if p.err == nil && p.tok.Kind != tokEOF {
		p.errorf("unexpected token %q", p.tok.Val)
	}
	for _, h := range p.heredocs {
		p.parseHeredocBody(h)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &Script{Stmts: stmts}, nil
}

type parser struct {
	lx       *lexer
	tok      Token
	heredocs []*Heredoc
	err      *ParseError
}

func (p *parser) next() {
	if p.err != nil {
		p.tok = Token{Kind: tokEOF}
		return
	}
	p.tok = p.lx.Next()
	if p.lx.err != nil {
		p.err = p.lx.err
		p.tok = Token{Kind: tokEOF}
	}
}

func (p *parser) errorf(format string, args ...interface{}) {
	if p.err == nil {
		p.err = &ParseError{Pos: p.tok.Pos, Msg: fmt.Sprintf(format, args...)}
	}
	p.tok = Token{Kind: tokEOF}
}

// got consumes the token when it is the given operator.
func (p *parser) got(op string) bool {
	if p.tok.isOp(op) {
		p.next()
		return true
	}
	return false
}

// gotWord consumes the token when it is the given reserved word.
func (p *parser) gotWord(w string) bool {
	if p.tok.Kind == tokWord && p.tok.lit() == w {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectWord(w string) {
	if !p.gotWord(w) {
		p.errorf("expected %q", w)
	}
}

func (p *parser) expectOp(op string) {
	if !p.got(op) {
		p.errorf("expected %q", op)
	}
}

func (p *parser) skipNewlines() {
	for p.tok.Kind == tokNewline {
		p.next()
	}
}

// stopword reports whether the current token is one of the reserved words
// that terminate a statement list.
func (p *parser) stopword(stops []string) bool {
	if p.tok.Kind == tokEOF {
		return true
	}
	if p.tok.isOp(")") || p.tok.isOp("}") || p.tok.isOp(";;") || p.tok.isOp(";&") || p.tok.isOp(";;&") {
		return true
	}
	if p.tok.Kind != tokWord {
		return false
	}
	lit := p.tok.lit()
	for _, s := range stops {
		if lit == s {
			return true
		}
	}
	return false
}

var listStops = []string{"then", "elif", "else", "fi", "do", "done", "esac"}

// parseStmts parses a statement list until EOF, a closing operator, or one
// of the reserved stop words.
func (p *parser) parseStmts(extra []string) []*Stmt {
	stops := append(append([]string{}, listStops...), extra...)
	var out []*Stmt
	for {
		p.skipNewlines()
		if p.err != nil || p.stopword(stops) {
			return out
		}
		st := p.parseStmt()
		if st == nil {
			return out
		}
		out = append(out, st)
	}
}

// parseStmt parses one && / || chain plus its terminator.
func (p *parser) parseStmt() *Stmt {
	st := &Stmt{Pos: p.tok.Pos}
	st.Pipelines = append(st.Pipelines, p.parsePipeline())
	for {
		switch {
		case p.got("&&"):
			p.skipNewlines()
			st.Ops = append(st.Ops, "&&")
			st.Pipelines = append(st.Pipelines, p.parsePipeline())
		case p.got("||"):
			p.skipNewlines()
			st.Ops = append(st.Ops, "||")
			st.Pipelines = append(st.Pipelines, p.parsePipeline())
		case p.got("&"):
			st.Background = true
			return st
		case p.got(";"):
			return st
		default:
			return st
		}
	}
}

// parsePipeline parses [!] cmd (| or |& cmd)*.
func (p *parser) parsePipeline() *Pipeline {
	pl := &Pipeline{}
	for p.gotWord("!") {
		pl.Negated = !pl.Negated
	}
	p.gotWord("time") // accepted, no timing in the hermetic model
	pl.Cmds = append(pl.Cmds, p.parseCommand())
	for {
		stderrToo := false
		if p.got("|&") {
			stderrToo = true
		} else if !p.got("|") {
			return pl
		}
		p.skipNewlines()
		pl.PipeStderr = append(pl.PipeStderr, stderrToo)
		pl.Cmds = append(pl.Cmds, p.parseCommand())
	}
}

// parseCommand parses a simple command, a compound command, or a function
// definition, plus trailing redirections for compounds.
func (p *parser) parseCommand() Command {
	switch {
	case p.tok.isOp("(("):
		raw := p.tok.Parts[0].Raw
		line := p.tok.Pos.Line
		p.next()
		expr := p.parseArithText(raw)
		return &ArithCmd{Expr: expr, Redirs: p.parseRedirs(), Line: line}
	case p.tok.isOp("("):
		p.next()
		body := p.parseStmts(nil)
		p.expectOp(")")
		return &SubshellCmd{Body: body, Redirs: p.parseRedirs()}
	case p.tok.isOp("{"):
		p.next()
		body := p.parseStmts(nil)
		p.expectOp("}")
		return &GroupCmd{Body: body, Redirs: p.parseRedirs()}
	}
	if p.tok.Kind == tokWord {
		switch p.tok.lit() {
		case "{":
			// A group brace not in command position (e.g. after a function
			// name) reaches us as a word.
			p.next()
			body := p.parseStmts(nil)
			p.expectOp("}")
			return &GroupCmd{Body: body, Redirs: p.parseRedirs()}
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile(false)
		case "until":
			return p.parseWhile(true)
		case "case":
			return p.parseCase()
		case "select":
			return p.parseSelect()
		case "function":
			return p.parseFunction()
		case "[[":
			return p.parseCondCmd()
		}
	}
	return p.parseSimple()
}

// parseSimple parses assignments, words and redirections.
func (p *parser) parseSimple() Command {
	cmd := &SimpleCmd{Line: p.tok.Pos.Line}
	sawWord := false
	for {
		switch {
		case p.tok.Kind == tokWord:
			if !sawWord {
				if as := p.asAssign(p.tok); as != nil {
					cmd.Assigns = append(cmd.Assigns, as)
					p.next()
					continue
				}
			}
			// A function definition: name ( ) body.
			if !sawWord && len(cmd.Assigns) == 0 && validFuncName(p.tok.lit()) {
				name := p.tok.lit()
				save := *p
				savedLx := *p.lx
				p.next()
				if p.got("(") {
					if p.got(")") {
						p.skipNewlines()
						body := p.parseCommand()
						return &FuncDef{Name: name, Body: body, Redirs: p.parseRedirs()}
					}
				}
				*p.lx = savedLx
				*p = save
			}
			cmd.Words = append(cmd.Words, p.refineWord(p.tok))
			sawWord = true
			p.next()
		case p.redirAhead():
			cmd.Redirs = append(cmd.Redirs, p.parseRedir())
		default:
			if len(cmd.Assigns) == 0 && len(cmd.Words) == 0 && len(cmd.Redirs) == 0 {
				p.errorf("unexpected token %q", p.tok.Val)
				return cmd
			}
			return cmd
		}
	}
}

func validFuncName(s string) bool {
	if s == "" || reservedWords[s] {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isNameChar(c) && c != '-' && c != '.' && c != ':' {
			return false
		}
	}
	return true
}

// asAssign interprets a word token as a leading assignment, or nil.
func (p *parser) asAssign(tok Token) *Assign {
	if len(tok.Parts) == 0 || tok.Parts[0].Kind != LitPart {
		return nil
	}
	lit := tok.Parts[0].Text
	eq := -1
	for i := 0; i < len(lit); i++ {
		if lit[i] == '=' {
			eq = i
			break
		}
	}
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
	rest := lit[eq+1:]
	var parts []WordPart
	if rest != "" {
		parts = append(parts, WordPart{Kind: LitPart, Text: rest, Pos: tok.Pos})
	}
	for _, wp := range tok.Parts[1:] {
		if wp.Kind == arrayLitPart {
			as.Array = p.parseArrayLit(wp.Raw)
			if as.Array == nil {
				as.Array = []*ArrayElem{}
			}
			continue
		}
		parts = append(parts, wp)
	}
	if as.Array == nil {
		w := p.refineWord(Token{Kind: tokWord, Parts: parts, Pos: tok.Pos})
		as.Value = w
	}
	return as
}

// parseArrayLit parses the inner text of name=( ... ) into elements.
func (p *parser) parseArrayLit(raw string) []*ArrayElem {
	sub := newLexer(raw, p.lx.opts)
	var elems []*ArrayElem
	for {
		t := sub.Next()
		if t.Kind == tokEOF {
			break
		}
		if t.Kind == tokNewline {
			continue
		}
		if t.Kind != tokWord {
			p.errorf("unexpected %q in array literal", t.Val)
			break
		}
		elem := &ArrayElem{}
		parts := t.Parts
		if len(parts) > 0 && parts[0].Kind == LitPart && strings.HasPrefix(parts[0].Text, "[") {
			if i := strings.Index(parts[0].Text, "]="); i > 0 {
				elem.Index = parts[0].Text[1:i]
				rest := parts[0].Text[i+2:]
				parts = parts[1:]
				if rest != "" {
					parts = append([]WordPart{{Kind: LitPart, Text: rest, Pos: t.Pos}}, parts...)
				}
			}
		}
		elem.Value = p.refineWord(Token{Kind: tokWord, Parts: parts, Pos: t.Pos})
		elems = append(elems, elem)
	}
	if sub.err != nil && p.err == nil {
		p.err = sub.err
	}
	return elems
}

// redirAhead reports whether the current token starts a redirection.
func (p *parser) redirAhead() bool {
	if p.tok.Kind != tokOp {
		return false
	}
	v := strings.TrimLeft(p.tok.Val, "0123456789")
	switch v {
	case "<", ">", ">>", ">|", "<>", ">&", "<&", "&>", "&>>", "<<", "<<-", "<<<":
		return true
	}
	return false
}

// parseRedirs parses a run of redirections.
func (p *parser) parseRedirs() []*Redir {
	var rs []*Redir
	for p.redirAhead() {
		rs = append(rs, p.parseRedir())
	}
	return rs
}

func (p *parser) parseRedir() *Redir {
	val := p.tok.Val
	fd := -1
	digits := val[:len(val)-len(strings.TrimLeft(val, "0123456789"))]
	op := val[len(digits):]
	if digits != "" {
		fd = atoiSafe(digits)
	}
	r := &Redir{Fd: fd}
	switch op {
	case "<":
		r.Op = RedirIn
	case ">":
		r.Op = RedirOut
	case ">>":
		r.Op = RedirAppend
	case ">|":
		r.Op = RedirClobber
	case "<>":
		r.Op = RedirInOut
	case ">&":
		r.Op = RedirDupOut
	case "<&":
		r.Op = RedirDupIn
	case "&>":
		r.Op = RedirBoth
	case "&>>":
		r.Op = RedirBothApp
	case "<<", "<<-":
		r.Op = RedirHeredoc
	case "<<<":
		r.Op = RedirHerestr
	default:
		p.errorf("bad redirection operator %q", op)
		return r
	}
	stripTabs := op == "<<-"
	p.next()
	if p.tok.Kind != tokWord {
		p.errorf("missing redirection target")
		return r
	}
	if r.Op == RedirHeredoc {
		delim, quoted := heredocDelim(p.tok)
		r.Here = &Heredoc{Delim: delim, StripTabs: stripTabs, Expand: !quoted}
		p.lx.queueHeredoc(r.Here)
		p.heredocs = append(p.heredocs, r.Here)
		p.next()
		return r
	}
	r.Target = p.refineWord(p.tok)
	p.next()
	return r
}

// heredocDelim flattens the delimiter word; quoting anywhere in it disables
// body expansion.
func heredocDelim(tok Token) (string, bool) {
	var b strings.Builder
	quoted := false
	for _, wp := range tok.Parts {
		switch wp.Kind {
		case LitPart:
			b.WriteString(wp.Text)
		case SQPart, EscPart:
			quoted = true
			b.WriteString(wp.Text)
		case DQPart:
			quoted = true
			for _, in := range wp.Parts {
				b.WriteString(in.Text)
			}
		default:
			b.WriteString(wp.Raw)
		}
	}
	return b.String(), quoted
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s) && i < 9; i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
