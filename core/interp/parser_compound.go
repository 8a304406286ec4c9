package interp

import "strings"

// parseIf parses if ... then ... [elif ... then ...]* [else ...] fi.
func (p *parser) parseIf() Command {
	p.expectWord("if")
	cmd := &IfCmd{}
	clause := &IfClause{Cond: p.parseStmts(nil)}
	p.skipNewlines()
	p.expectWord("then")
	clause.Body = p.parseStmts(nil)
	cmd.Clauses = append(cmd.Clauses, clause)
	for {
		p.skipNewlines()
		switch {
		case p.gotWord("elif"):
			c := &IfClause{Cond: p.parseStmts(nil)}
			p.skipNewlines()
			p.expectWord("then")
			c.Body = p.parseStmts(nil)
			cmd.Clauses = append(cmd.Clauses, c)
		case p.gotWord("else"):
			cmd.Else = p.parseStmts(nil)
			p.skipNewlines()
			p.expectWord("fi")
			cmd.Redirs = p.parseRedirs()
			return cmd
		case p.gotWord("fi"):
			cmd.Redirs = p.parseRedirs()
			return cmd
		default:
			p.errorf("expected \"fi\"")
			return cmd
		}
	}
}

// parseFor parses both for-name-in-words and the C-style for (( ; ; )).
func (p *parser) parseFor() Command {
	p.expectWord("for")
	if p.tok.isOp("((") {
		raw := p.tok.Parts[0].Raw
		p.next()
		cmd := &CForCmd{}
		fields := splitArithHeader(raw)
		if len(fields) != 3 {
			p.errorf("expected `for ((init; cond; update))`")
			return cmd
		}
		if strings.TrimSpace(fields[0]) != "" {
			cmd.Init = p.parseArithText(fields[0])
		}
		if strings.TrimSpace(fields[1]) != "" {
			cmd.Cond = p.parseArithText(fields[1])
		}
		if strings.TrimSpace(fields[2]) != "" {
			cmd.Update = p.parseArithText(fields[2])
		}
		p.loopTail(&cmd.Body)
		cmd.Redirs = p.parseRedirs()
		return cmd
	}
	cmd := &ForCmd{}
	if p.tok.Kind != tokWord {
		p.errorf("expected a loop variable name")
		return cmd
	}
	cmd.Name = p.tok.lit()
	p.next()
	p.skipListSep()
	if p.gotWord("in") {
		cmd.InSet = true
		for p.tok.Kind == tokWord {
			cmd.Words = append(cmd.Words, p.refineWord(p.tok))
			p.next()
		}
	}
	p.loopTail(&cmd.Body)
	cmd.Redirs = p.parseRedirs()
	return cmd
}

// parseSelect parses select name [in words]; do ...; done.
func (p *parser) parseSelect() Command {
	p.expectWord("select")
	cmd := &SelectCmd{}
	if p.tok.Kind != tokWord {
		p.errorf("expected a selection variable name")
		return cmd
	}
	cmd.Name = p.tok.lit()
	p.next()
	p.skipListSep()
	if p.gotWord("in") {
		cmd.InSet = true
		for p.tok.Kind == tokWord {
			cmd.Words = append(cmd.Words, p.refineWord(p.tok))
			p.next()
		}
	}
	p.loopTail(&cmd.Body)
	cmd.Redirs = p.parseRedirs()
	return cmd
}

// loopTail parses `; do body done` with optional separators.
func (p *parser) loopTail(body *[]*Stmt) {
	p.skipListSep()
	p.expectWord("do")
	*body = p.parseStmts(nil)
	p.skipNewlines()
	p.expectWord("done")
}

func (p *parser) skipListSep() {
	for p.tok.Kind == tokNewline || p.tok.isOp(";") {
		p.next()
	}
}

func (p *parser) parseWhile(until bool) Command {
	if until {
		p.expectWord("until")
	} else {
		p.expectWord("while")
	}
	cmd := &WhileCmd{Until: until}
	cmd.Cond = p.parseStmts(nil)
	p.skipNewlines()
	p.expectWord("do")
	cmd.Body = p.parseStmts(nil)
	p.skipNewlines()
	p.expectWord("done")
	cmd.Redirs = p.parseRedirs()
	return cmd
}

// parseCase parses case word in [(] patterns ) stmts ;; ... esac.
func (p *parser) parseCase() Command {
	p.expectWord("case")
	cmd := &CaseCmd{}
	if p.tok.Kind != tokWord {
		p.errorf("expected a word after \"case\"")
		return cmd
	}
	cmd.Word = p.refineWord(p.tok)
	p.next()
	p.skipNewlines()
	p.expectWord("in")
	for {
		p.skipNewlines()
		if p.gotWord("esac") {
			break
		}
		if p.tok.Kind == tokEOF {
			p.errorf("expected \"esac\"")
			break
		}
		item := &CaseItem{Term: CaseBreak}
		p.got("(")
		for {
			if p.tok.Kind != tokWord {
				p.errorf("expected a case pattern")
				return cmd
			}
			item.Patterns = append(item.Patterns, p.refineWord(p.tok))
			p.next()
			if !p.got("|") {
				break
			}
		}
		p.expectOp(")")
		item.Body = p.parseStmts(nil)
		switch {
		case p.got(";;"):
		case p.got(";&"):
			item.Term = CaseFallthrough
		case p.got(";;&"):
			item.Term = CaseContinue
		default:
			// last arm may omit the terminator before esac
		}
		cmd.Items = append(cmd.Items, item)
	}
	cmd.Redirs = p.parseRedirs()
	return cmd
}

// parseFunction parses the `function name [()] body` form.
func (p *parser) parseFunction() Command {
	p.expectWord("function")
	if p.tok.Kind != tokWord || !validFuncName(p.tok.lit()) {
		p.errorf("expected a function name")
		return &FuncDef{}
	}
	name := p.tok.lit()
	p.next()
	if p.got("(") {
		p.expectOp(")")
	}
	p.skipNewlines()
	body := p.parseCommand()
	return &FuncDef{Name: name, Body: body, Redirs: p.parseRedirs()}
}

// parseCondCmd parses [[ ... ]].
func (p *parser) parseCondCmd() Command {
	line := p.tok.Pos.Line
	p.expectWord("[[")
	cmd := &CondCmd{Line: line}
	cmd.Expr = p.parseCondOr()
	p.skipNewlines()
	p.expectWord("]]")
	cmd.Redirs = p.parseRedirs()
	return cmd
}

// splitArithHeader splits "init; cond; update" at top-level semicolons.
func splitArithHeader(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ';':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}
