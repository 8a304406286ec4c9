package interp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// runCond runs a condition list with errexit forgiven.
func (x *Interp) runCond(stmts []*Stmt) (int, error) {
	x.forgive++
	err := x.runStmts(stmts)
	x.forgive--
	if err != nil {
		return 0, err
	}
	return x.st.lastStatus, nil
}

func (x *Interp) runIf(c *IfCmd) error {
	return x.withRedirs(c.Redirs, func() error {
		for _, clause := range c.Clauses {
			status, err := x.runCond(clause.Cond)
			if err != nil {
				return err
			}
			if status == 0 {
				return x.runStmts(clause.Body)
			}
		}
		if c.Else != nil {
			return x.runStmts(c.Else)
		}
		x.st.lastStatus = 0
		return nil
	})
}

// loopBody runs one iteration, consuming break/continue for this loop.
// done=true means the loop should stop.
func (x *Interp) loopBody(body []*Stmt) (done bool, err error) {
	err = x.runStmts(body)
	if err == nil {
		return false, nil
	}
	var bf breakFlow
	var cf continueFlow
	switch {
	case errors.As(err, &bf):
		if bf.n > 1 {
			return true, breakFlow{n: bf.n - 1}
		}
		return true, nil
	case errors.As(err, &cf):
		if cf.n > 1 {
			return true, continueFlow{n: cf.n - 1}
		}
		return false, nil
	}
	return true, err
}

// iterGuard enforces the per-loop iteration limit and the deadline.
func (x *Interp) iterGuard(n *int) error {
	*n++
	if *n > x.st.limits.MaxLoopIter {
		return fatalf(2, "execution limit reached: more than %d loop iterations", x.st.limits.MaxLoopIter)
	}
	return x.checkLimits()
}

func (x *Interp) runFor(c *ForCmd) error {
	return x.withRedirs(c.Redirs, func() error {
		var words []string
		if c.InSet {
			var err error
			if words, err = x.expandWords(c.Words); err != nil {
				return x.expansionFailure(err)
			}
		} else {
			words = append([]string{}, x.st.positional...)
		}
		x.st.lastStatus = 0
		iters := 0
		for _, w := range words {
			if err := x.iterGuard(&iters); err != nil {
				return err
			}
			if !x.st.Set(c.Name, w) {
				return x.expansionFailure(&expandError{code: 1, msg: fmt.Sprintf("%s: readonly variable", c.Name)})
			}
			done, err := x.loopBody(c.Body)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	})
}

func (x *Interp) runCFor(c *CForCmd) error {
	return x.withRedirs(c.Redirs, func() error {
		if c.Init != nil {
			if _, err := x.arithEval(c.Init); err != nil {
				return x.expansionFailure(err)
			}
		}
		x.st.lastStatus = 0
		iters := 0
		for {
			if err := x.iterGuard(&iters); err != nil {
				return err
			}
			if c.Cond != nil {
				v, err := x.arithEval(c.Cond)
				if err != nil {
					return x.expansionFailure(err)
				}
				if v == 0 {
					break
				}
			}
			done, err := x.loopBody(c.Body)
			if err != nil {
				return err
			}
			if done {
				break
			}
			if c.Update != nil {
				if _, err := x.arithEval(c.Update); err != nil {
					return x.expansionFailure(err)
				}
			}
		}
		return nil
	})
}

func (x *Interp) runWhile(c *WhileCmd) error {
	return x.withRedirs(c.Redirs, func() error {
		x.st.lastStatus = 0
		iters := 0
		for {
			if err := x.iterGuard(&iters); err != nil {
				return err
			}
			status, err := x.runCond(c.Cond)
			if err != nil {
				return err
			}
			truthy := status == 0
			if c.Until {
				truthy = !truthy
			}
			if !truthy {
				break
			}
			done, err := x.loopBody(c.Body)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	})
}

func (x *Interp) runCase(c *CaseCmd) error {
	return x.withRedirs(c.Redirs, func() error {
		word, err := x.expandNoSplit(c.Word)
		if err != nil {
			return x.expansionFailure(err)
		}
		x.st.lastStatus = 0
		o := x.matchOpts()
		matched := false
		for _, item := range c.Items {
			if !matched {
				hit := false
				for _, pw := range item.Patterns {
					pat, err := x.expandPatternWord(pw)
					if err != nil {
						return x.expansionFailure(err)
					}
					if matchPattern(pat, word, o) {
						hit = true
						break
					}
				}
				if !hit {
					continue
				}
			}
			matched = false
			if err := x.runStmts(item.Body); err != nil {
				return err
			}
			switch item.Term {
			case CaseBreak:
				return nil
			case CaseFallthrough:
				matched = true // run the next body without matching
			case CaseContinue:
				// keep testing subsequent patterns
			}
		}
		return nil
	})
}

// runSelect prints a numbered menu on stderr and reads choices from stdin.
func (x *Interp) runSelect(c *SelectCmd) error {
	return x.withRedirs(c.Redirs, func() error {
		var words []string
		if c.InSet {
			var err error
			if words, err = x.expandWords(c.Words); err != nil {
				return x.expansionFailure(err)
			}
		} else {
			words = append([]string{}, x.st.positional...)
		}
		if len(words) == 0 {
			x.st.lastStatus = 0
			return nil
		}
		ps3 := x.st.GetStr("PS3")
		if ps3 == "" {
			ps3 = "#? "
		}
		iters := 0
		for {
			if err := x.iterGuard(&iters); err != nil {
				return err
			}
			for i, w := range words {
				fmt.Fprintf(x.w2, "%d) %s\n", i+1, w)
			}
			fmt.Fprint(x.w2, ps3)
			line, ok := x.readLine()
			if !ok {
				return nil
			}
			reply := strings.TrimSpace(line)
			x.st.Set("REPLY", reply)
			val := ""
			if n, err := strconv.Atoi(reply); err == nil && n >= 1 && n <= len(words) {
				val = words[n-1]
			}
			x.st.Set(c.Name, val)
			done, err := x.loopBody(c.Body)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	})
}
