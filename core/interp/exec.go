package interp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bish-sh/bish/core/vfs"
	"github.com/bish-sh/bish/core/vnet"
	"github.com/bish-sh/bish/core/vos"
)

// Result is what an invocation returns: captured streams and the final
// exit status.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunOptions configure one invocation.
type RunOptions struct {
	Cwd      string
	Env      map[string]string
	Limits   Limits
	FS       vfs.FS
	Commands vos.Registry
	Net      *vnet.Client
	Name     string   // $0
	Args     []string // positional parameters
}

// Run parses and executes a script, returning captured output and the exit
// status. The interpreter persists nothing between invocations.
func Run(ctx context.Context, src string, opts RunOptions) Result {
	if opts.FS == nil {
		opts.FS = vfs.NewMemFS()
	}
	if opts.Limits.MaxCallDepth == 0 {
		opts.Limits = DefaultLimits()
	}
	if dl, ok := ctx.Deadline(); ok {
		if opts.Limits.Deadline.IsZero() || dl.Before(opts.Limits.Deadline) {
			opts.Limits.Deadline = dl
		}
	}
	cwd := opts.Cwd
	if cwd == "" {
		cwd = "/"
	}
	st := NewState(cwd, opts.Env, opts.Limits)
	if opts.Name != "" {
		st.dollarZero = opts.Name
	}
	st.positional = append([]string{}, opts.Args...)

	var out, errOut bytes.Buffer
	x := &Interp{
		st:   st,
		fs:   opts.FS,
		net:  opts.Net,
		cmds: opts.Commands,
		w1:   &out,
		w2:   &errOut,
		psub: new(int),
	}

	// The whole script is parsed up front, before any `shopt -s extglob`
	// runs, so extended-glob groups are always tokenized; the matcher
	// honors the option at expansion time.
	lopts := x.lexOpts()
	lopts.Extglob = true
	script, err := Parse(src, lopts)
	if err != nil {
		fmt.Fprintf(&errOut, "%s: %s\n", st.dollarZero, err.Error())
		return Result{Stdout: out.String(), Stderr: errOut.String(), ExitCode: 2}
	}

	code := x.runToCompletion(script)
	return Result{Stdout: out.String(), Stderr: errOut.String(), ExitCode: code}
}

// Interp executes an AST against a state and a pair of captured streams.
type Interp struct {
	st   *State
	fs   vfs.FS
	net  *vnet.Client
	cmds vos.Registry

	stdin string
	w1    io.Writer
	w2    io.Writer

	lastSubStatus int
	arithDepth    int
	psub          *int
	// forgive > 0 marks positions where errexit does not fire.
	forgive int
}

func (x *Interp) nextPsub() int {
	*x.psub++
	return *x.psub
}

// runToCompletion executes a script, resolves control flow into an exit
// status, and fires the EXIT trap.
func (x *Interp) runToCompletion(script *Script) int {
	err := x.runStmts(script.Stmts)
	code := x.st.lastStatus
	switch {
	case err == nil:
	default:
		code = x.resolveTopErr(err)
	}
	if trap := x.st.traps["EXIT"]; trap != "" {
		delete(x.st.traps, "EXIT")
		x.runTrap(trap)
	}
	return clampStatus(code)
}

func (x *Interp) resolveTopErr(err error) int {
	var ef exitFlow
	var rf returnFlow
	var fe *FatalError
	var pe *ParseError
	switch {
	case errors.As(err, &ef):
		return ef.code
	case errors.As(err, &rf):
		return rf.code
	case errors.As(err, &fe):
		fmt.Fprintf(x.w2, "%s: %s\n", x.st.dollarZero, fe.Msg)
		return fe.Code
	case errors.As(err, &pe):
		fmt.Fprintf(x.w2, "%s: %s\n", x.st.dollarZero, pe.Error())
		return 2
	case errors.As(err, new(breakFlow)), errors.As(err, new(continueFlow)):
		return x.st.lastStatus
	}
	fmt.Fprintf(x.w2, "%s: %s\n", x.st.dollarZero, err.Error())
	return 2
}

func clampStatus(code int) int {
	code %= 256
	if code < 0 {
		code += 256
	}
	return code
}

// checkLimits is called at suspension points and loop iterations.
func (x *Interp) checkLimits() error {
	c := x.st.counters
	c.commands++
	if c.commands > x.st.limits.MaxCommands {
		return fatalf(2, "execution limit reached: more than %d commands", x.st.limits.MaxCommands)
	}
	if !x.st.limits.Deadline.IsZero() && time.Now().After(x.st.limits.Deadline) {
		return fatalf(2, "execution timed out")
	}
	return nil
}

// runStmts executes a statement list in order.
func (x *Interp) runStmts(stmts []*Stmt) error {
	for _, s := range stmts {
		if err := x.runStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// runStmt executes one && / || chain with short-circuiting, background
// simulation and errexit.
func (x *Interp) runStmt(s *Stmt) error {
	x.st.lineno = s.Pos.Line
	if s.Background {
		// Hermetic model: run synchronously, record output, report 0.
		x.forgive++
		err := x.runChain(s)
		x.forgive--
		if err != nil {
			return err
		}
		x.st.lastStatus = 0
		return nil
	}
	return x.runChain(s)
}

func (x *Interp) runChain(s *Stmt) error {
	run := true
	for i, pl := range s.Pipelines {
		if run {
			last := i == len(s.Pipelines)-1
			if !last {
				x.forgive++
			}
			err := x.runPipeline(pl)
			if !last {
				x.forgive--
			}
			if err != nil {
				return err
			}
			if !last {
				// errexit never fires on the left of && / ||
			} else if err := x.errExitCheck(pl); err != nil {
				return err
			}
		}
		if i < len(s.Ops) {
			switch s.Ops[i] {
			case "&&":
				run = x.st.lastStatus == 0
			case "||":
				run = x.st.lastStatus != 0
			default:
				run = true
			}
		}
	}
	return nil
}

// errExitCheck terminates the invocation when errexit is on, the status is
// nonzero and the position is not forgiven.
func (x *Interp) errExitCheck(pl *Pipeline) error {
	if !x.st.opts.ErrExit || x.st.lastStatus == 0 || x.forgive > 0 || pl.Negated {
		return nil
	}
	if trap := x.st.traps["ERR"]; trap != "" {
		x.runTrap(trap)
	}
	return exitFlow{code: x.st.lastStatus}
}

// runTrap runs trap text in the current scope, ignoring its errors.
func (x *Interp) runTrap(text string) {
	script, err := Parse(text, x.lexOpts())
	if err != nil {
		return
	}
	saved := x.st.lastStatus
	x.forgive++
	_ = x.runStmts(script.Stmts)
	x.forgive--
	x.st.lastStatus = saved
}

// runPipeline executes the pipeline per the captured-stream model: stage i
// completes before stage i+1 starts; each stage but possibly the last runs
// against a state snapshot.
func (x *Interp) runPipeline(pl *Pipeline) error {
	if len(pl.Cmds) == 1 && !pl.Negated {
		return x.runCommand(pl.Cmds[0])
	}
	var statuses []int
	if len(pl.Cmds) == 1 {
		if err := x.runCommand(pl.Cmds[0]); err != nil {
			return err
		}
		statuses = []int{x.st.lastStatus}
	} else {
		carry := x.stdin
		for i, cmd := range pl.Cmds {
			last := i == len(pl.Cmds)-1
			pipeErr := i < len(pl.PipeStderr) && pl.PipeStderr[i]
			if last && x.st.opts.LastPipe {
				savedIn := x.stdin
				x.stdin = carry
				err := x.runCommand(cmd)
				x.stdin = savedIn
				if err != nil {
					return err
				}
				statuses = append(statuses, x.st.lastStatus)
				break
			}
			child := x.subshell()
			child.stdin = carry
			var stageOut bytes.Buffer
			child.w1 = &stageOut
			if pipeErr {
				child.w2 = &stageOut
			} else {
				child.w2 = x.w2
			}
			status, err := child.runIsolated(cmd)
			if err != nil {
				return err
			}
			statuses = append(statuses, status)
			if last {
				if _, err := io.Copy(x.w1, &stageOut); err != nil {
					return err
				}
			} else {
				carry = stageOut.String()
			}
		}
	}
	status := statuses[len(statuses)-1]
	if x.st.opts.PipeFail {
		for _, s := range statuses {
			if s != 0 {
				status = s
			}
		}
	}
	if pl.Negated {
		if status == 0 {
			status = 1
		} else {
			status = 0
		}
	}
	x.st.lastStatus = status
	return nil
}

// subshell builds a child interpreter over a cloned state. Output targets
// are inherited unless the caller overrides them.
func (x *Interp) subshell() *Interp {
	return &Interp{
		st:    x.st.clone(),
		fs:    x.fs,
		net:   x.net,
		cmds:  x.cmds,
		stdin: x.stdin,
		w1:    x.w1,
		w2:    x.w2,
		psub:  x.psub,
	}
}

// runIsolated runs a command in this (child) interpreter, converting
// control-flow unwinds into plain statuses at the subshell boundary.
func (x *Interp) runIsolated(cmd Command) (int, error) {
	err := x.runCommand(cmd)
	return x.boundaryStatus(err)
}

func (x *Interp) boundaryStatus(err error) (int, error) {
	if err == nil {
		return x.st.lastStatus, nil
	}
	var ef exitFlow
	var rf returnFlow
	switch {
	case errors.As(err, &ef):
		return clampStatus(ef.code), nil
	case errors.As(err, &rf):
		return clampStatus(rf.code), nil
	case errors.As(err, new(breakFlow)), errors.As(err, new(continueFlow)):
		return x.st.lastStatus, nil
	}
	return 0, err
}

// runCaptured executes a script in a subshell and captures its stdout.
func (x *Interp) runCaptured(script *Script, stdin string) (string, int, error) {
	if err := x.checkLimits(); err != nil {
		return "", 0, err
	}
	child := x.subshell()
	child.stdin = stdin
	var buf bytes.Buffer
	child.w1 = &buf
	err := child.runStmts(script.Stmts)
	status, err := child.boundaryStatus(err)
	if err != nil {
		return buf.String(), 0, err
	}
	return buf.String(), status, nil
}

// runCommand dispatches one command node.
func (x *Interp) runCommand(cmd Command) error {
	switch c := cmd.(type) {
	case *SimpleCmd:
		return x.runSimple(c)
	case *FuncDef:
		x.st.funcs[c.Name] = c
		x.st.lastStatus = 0
		return nil
	case *SubshellCmd:
		return x.withRedirs(c.Redirs, func() error {
			child := x.subshell()
			child.stdin = x.stdin
			child.w1, child.w2 = x.w1, x.w2
			status, err := child.boundaryStatus(child.runStmts(c.Body))
			if err != nil {
				return err
			}
			x.st.lastStatus = status
			return nil
		})
	case *GroupCmd:
		return x.withRedirs(c.Redirs, func() error {
			return x.runStmts(c.Body)
		})
	case *ArithCmd:
		return x.withRedirs(c.Redirs, func() error {
			if err := x.checkLimits(); err != nil {
				return err
			}
			x.st.lineno = c.Line
			n, err := x.arithEval(c.Expr)
			if err != nil {
				return x.expansionFailure(err)
			}
			if n != 0 {
				x.st.lastStatus = 0
			} else {
				x.st.lastStatus = 1
			}
			return nil
		})
	case *CondCmd:
		return x.withRedirs(c.Redirs, func() error {
			if err := x.checkLimits(); err != nil {
				return err
			}
			x.st.lineno = c.Line
			ok, err := x.condEval(c.Expr)
			if err != nil {
				if ferr := x.expansionFailure(err); ferr != nil {
					return ferr
				}
				x.st.lastStatus = 2
				return nil
			}
			if ok {
				x.st.lastStatus = 0
			} else {
				x.st.lastStatus = 1
			}
			return nil
		})
	case *IfCmd:
		return x.runIf(c)
	case *ForCmd:
		return x.runFor(c)
	case *CForCmd:
		return x.runCFor(c)
	case *WhileCmd:
		return x.runWhile(c)
	case *CaseCmd:
		return x.runCase(c)
	case *SelectCmd:
		return x.runSelect(c)
	}
	return fmt.Errorf("unknown command node %T", cmd)
}

// expansionFailure reports a recoverable expansion error as a failed
// command; fatal errors and control flow pass through.
func (x *Interp) expansionFailure(err error) error {
	var ee *expandError
	if errors.As(err, &ee) {
		fmt.Fprintf(x.w2, "%s: %s\n", x.st.dollarZero, ee.msg)
		x.st.lastStatus = ee.code
		return nil
	}
	return err
}

// runSimple expands and dispatches a simple command.
func (x *Interp) runSimple(c *SimpleCmd) error {
	if err := x.checkLimits(); err != nil {
		return err
	}
	x.st.lineno = c.Line
	if x.st.opts.NoExec {
		x.st.lastStatus = 0
		return nil
	}

	x.lastSubStatus = -1
	argv, err := x.expandWords(c.Words)
	if err != nil {
		return x.expansionFailure(err)
	}

	// Assignment-only command: apply to the current scope. The status is 0
	// unless a command substitution ran during expansion.
	if len(argv) == 0 {
		return x.withRedirs(c.Redirs, func() error {
			for _, as := range c.Assigns {
				if err := x.applyAssign(as, false); err != nil {
					return x.expansionFailure(err)
				}
			}
			if x.lastSubStatus >= 0 {
				x.st.lastStatus = x.lastSubStatus
			} else {
				x.st.lastStatus = 0
			}
			return nil
		})
	}

	if x.st.opts.XTrace {
		fmt.Fprintf(x.w2, "%s%s\n", x.st.GetStr("PS4"), strings.Join(argv, " "))
	}

	// Declaration commands keep their operand words so array literals and
	// per-word assignment structure survive.
	if isDeclCmd(argv[0]) {
		var words []*Word
		if len(c.Words) > 0 && c.Words[0].Lit() == argv[0] {
			words = c.Words[1:]
		} else {
			for _, a := range argv[1:] {
				words = append(words, &Word{Parts: []WordPart{{Kind: LitPart, Text: a}}})
			}
		}
		return x.withRedirs(c.Redirs, func() error {
			return x.runDeclare(argv[0], words)
		})
	}

	return x.withRedirs(c.Redirs, func() error {
		return x.dispatch(argv, c.Assigns)
	})
}

// dispatch resolves a command name: functions, then special builtins, then
// regular builtins, then the virtual command registry.
func (x *Interp) dispatch(argv []string, assigns []*Assign) error {
	name := argv[0]

	if fn, ok := x.st.funcs[name]; ok {
		return x.callFunction(fn, argv[1:], assigns)
	}

	if b, ok := x.builtin(name); ok {
		restore, err := x.applyTempAssigns(assigns)
		if err != nil {
			return x.expansionFailure(err)
		}
		defer restore()
		status, err := b(argv[1:])
		if err != nil {
			return err
		}
		x.st.lastStatus = clampStatus(status)
		return nil
	}

	if x.cmds != nil {
		if fn, ok := x.cmds[name]; ok {
			env := x.st.Environ()
			for _, as := range assigns {
				val, err := x.assignValue(as)
				if err != nil {
					return x.expansionFailure(err)
				}
				env[as.Name] = val
			}
			x.runRegistry(fn, argv, env)
			return nil
		}
	}

	fmt.Fprintf(x.w2, "%s: %s: command not found\n", x.st.dollarZero, name)
	x.st.lastStatus = 127
	return nil
}

// runRegistry invokes a virtual command under the §-style dispatch
// contract. The command reads from buffered stdin; whatever it leaves
// unread stays available to later commands.
func (x *Interp) runRegistry(fn vos.CommandFunc, argv []string, env map[string]string) {
	r := strings.NewReader(x.stdin)
	proc := &vos.Process{
		Argv:     argv,
		Stdin:    r,
		Stdout:   x.w1,
		Stderr:   x.w2,
		Dir:      x.st.cwd,
		Env:      env,
		FS:       x.fs,
		Net:      x.net,
		Deadline: x.st.limits.Deadline,
	}
	status := fn(proc)
	x.stdin = x.stdin[len(x.stdin)-r.Len():]
	x.st.lastStatus = clampStatus(status)
}

// callFunction invokes a function body in a fresh scope frame with bound
// positional parameters. Prefix assignments become a temporary environment
// visible to the callee only.
func (x *Interp) callFunction(fn *FuncDef, args []string, assigns []*Assign) error {
	x.st.counters.callDepth++
	defer func() { x.st.counters.callDepth-- }()
	if x.st.counters.callDepth > x.st.limits.MaxCallDepth {
		return fatalf(2, "%s: maximum recursion depth exceeded (>%d)", fn.Name, x.st.limits.MaxCallDepth)
	}

	savedPos := x.st.positional
	x.st.positional = args
	x.st.funcNames = append(x.st.funcNames, fn.Name)
	x.st.pushFunc()
	for _, as := range assigns {
		val, err := x.assignValue(as)
		if err != nil {
			x.st.popFunc()
			x.st.funcNames = x.st.funcNames[:len(x.st.funcNames)-1]
			x.st.positional = savedPos
			return x.expansionFailure(err)
		}
		cell := x.st.SetLocal(as.Name, scalar(val))
		cell.Exported = true
	}

	err := x.withRedirs(fn.Redirs, func() error {
		return x.runCommand(fn.Body)
	})

	x.st.popFunc()
	x.st.funcNames = x.st.funcNames[:len(x.st.funcNames)-1]
	x.st.positional = savedPos

	var rf returnFlow
	if errors.As(err, &rf) {
		x.st.lastStatus = clampStatus(rf.code)
		return nil
	}
	return err
}

// applyTempAssigns applies prefix assignments for the duration of a
// builtin and restores the previous cells afterwards.
func (x *Interp) applyTempAssigns(assigns []*Assign) (func(), error) {
	type saved struct {
		name string
		cell *Cell
		had  bool
	}
	var savedCells []saved
	for _, as := range assigns {
		val, err := x.assignValue(as)
		if err != nil {
			return func() {}, err
		}
		old := x.st.lookup(as.Name)
		savedCells = append(savedCells, saved{as.Name, old, old != nil})
		x.st.scopes[len(x.st.scopes)-1].vars[as.Name] = &Cell{Val: scalar(val), Exported: true}
	}
	return func() {
		top := x.st.scopes[len(x.st.scopes)-1]
		for _, s := range savedCells {
			if s.had {
				top.vars[s.name] = s.cell
			} else {
				delete(top.vars, s.name)
			}
		}
	}, nil
}

// assignValue expands an assignment's value (no splitting, no globbing).
// Tildes expand at the start of the value and after each colon.
func (x *Interp) assignValue(as *Assign) (string, error) {
	if as.Value == nil {
		return "", nil
	}
	return x.expandNoSplit(&Word{Parts: tildeSplitAssign(as.Value.Parts), Pos: as.Value.Pos})
}

// tildeSplitAssign rewrites unquoted literal ~ prefixes in assignment
// context (start of value, or following a colon) into tilde parts.
func tildeSplitAssign(parts []WordPart) []WordPart {
	var out []WordPart
	atStart := true
	for _, wp := range parts {
		if wp.Kind != LitPart || wp.Quoted {
			out = append(out, wp)
			atStart = false
			continue
		}
		text := wp.Text
		for text != "" {
			if atStart && text[0] == '~' {
				user, n := scanTildeUser(text[1:])
				out = append(out, WordPart{Kind: TildePart, Text: user, Pos: wp.Pos})
				text = text[1+n:]
				atStart = false
				continue
			}
			i := strings.IndexByte(text, ':')
			if i < 0 {
				out = append(out, WordPart{Kind: LitPart, Text: text, Pos: wp.Pos})
				break
			}
			out = append(out, WordPart{Kind: LitPart, Text: text[:i+1], Pos: wp.Pos})
			text = text[i+1:]
			atStart = true
		}
		if text == "" && len(wp.Text) == 0 {
			out = append(out, wp)
		}
	}
	return out
}

// applyAssign performs a standalone assignment in the current scope.
func (x *Interp) applyAssign(as *Assign, local bool) error {
	if as.Array != nil {
		return x.applyArrayAssign(as, local)
	}
	val, err := x.assignValue(as)
	if err != nil {
		return err
	}
	if as.Index != "" {
		if as.Append {
			old, err := x.elementValue(as.Name, as.Index)
			if err != nil {
				return err
			}
			val = old + val
		}
		return x.setElement(as.Name, as.Index, val)
	}
	// Attributes apply even to declared-but-unassigned cells.
	cell := x.st.lookup(x.st.resolveNameref(as.Name))
	if cell != nil && cell.Integer {
		n, err := x.arithStringValue(val)
		if err != nil {
			return err
		}
		if as.Append {
			old, _ := x.arithStringValue(cell.Val.scalarView())
			n += old
		}
		val = formatInt(n)
	} else if as.Append && cell != nil {
		switch cell.Val.Kind {
		case IndexedVal:
			idx := maxIndex(cell.Val) + 1
			cell.Val.Arr[idx] = cell.transform(val)
			return nil
		default:
			val = cell.Val.scalarView() + val
		}
	}
	if local {
		x.st.SetLocal(as.Name, scalar(val))
		return nil
	}
	if !x.st.Set(as.Name, val) {
		return &expandError{code: 1, msg: fmt.Sprintf("%s: readonly variable", as.Name)}
	}
	return nil
}

// applyArrayAssign handles name=( ... ) and name+=( ... ).
func (x *Interp) applyArrayAssign(as *Assign, local bool) error {
	existing := x.st.Get(as.Name)
	assoc := existing != nil && existing.Val.Kind == AssocVal

	if assoc {
		val := existing.Val
		if !as.Append {
			val = newAssoc()
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
			val.Assoc.Set(key, v)
		}
		_, ok := x.st.SetCell(as.Name, val)
		if !ok {
			return &expandError{code: 1, msg: fmt.Sprintf("%s: readonly variable", as.Name)}
		}
		return nil
	}

	val := newIndexed()
	next := 0
	if as.Append && existing != nil && existing.Val.Kind == IndexedVal {
		val = existing.Val
		next = maxIndex(val) + 1
	}
	for _, el := range as.Array {
		if el.Index != "" {
			idx, err := x.arithEvalText(el.Index)
			if err != nil {
				return err
			}
			next = int(idx)
		}
		// Elements undergo full expansion including splitting and globbing.
		fields, err := x.expandWord(el.Value)
		if err != nil {
			return err
		}
		for _, f := range fields {
			val.Arr[next] = f
			next++
		}
	}
	if local {
		x.st.SetLocal(as.Name, val)
		return nil
	}
	_, ok := x.st.SetCell(as.Name, val)
	if !ok {
		return &expandError{code: 1, msg: fmt.Sprintf("%s: readonly variable", as.Name)}
	}
	return nil
}

// readLine consumes one line from buffered stdin.
func (x *Interp) readLine() (string, bool) {
	if x.stdin == "" {
		return "", false
	}
	if i := strings.IndexByte(x.stdin, '\n'); i >= 0 {
		line := x.stdin[:i]
		x.stdin = x.stdin[i+1:]
		return line, true
	}
	line := x.stdin
	x.stdin = ""
	return line, true
}

func vfsWriteTrunc() vfs.WriteOpts { return vfs.WriteOpts{} }
