package interp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bish-sh/bish/core/vfs"
)

type builtinFunc func(args []string) (int, error)

// builtin returns the implementation for shell builtins: commands that may
// touch interpreter state and therefore run inside the current scope.
func (x *Interp) builtin(name string) (builtinFunc, bool) {
	switch name {
	case ":":
		return func([]string) (int, error) { return 0, nil }, true
	case "cd":
		return x.builtinCd, true
	case "pwd":
		return func([]string) (int, error) {
			fmt.Fprintln(x.w1, x.st.cwd)
			return 0, nil
		}, true
	case "export":
		return x.builtinExport, true
	case "readonly":
		return x.builtinReadonly, true
	case "unset":
		return x.builtinUnset, true
	case "shift":
		return x.builtinShift, true
	case "set":
		return x.builtinSet, true
	case "shopt":
		return x.builtinShopt, true
	case "eval":
		return x.builtinEval, true
	case "source", ".":
		return x.builtinSource, true
	case "exit":
		return x.builtinExit, true
	case "return":
		return x.builtinReturn, true
	case "break":
		return x.builtinBreak, true
	case "continue":
		return x.builtinContinue, true
	case "trap":
		return x.builtinTrap, true
	case "read":
		return x.builtinRead, true
	case "mapfile", "readarray":
		return x.builtinMapfile, true
	case "let":
		return x.builtinLet, true
	case "test", "[":
		return x.builtinTest(name), true
	case "getopts":
		return x.builtinGetopts, true
	case "alias":
		return x.builtinAlias, true
	case "unalias":
		return x.builtinUnalias, true
	case "type":
		return x.builtinType, true
	case "command":
		return x.builtinCommand, true
	case "exec":
		return x.builtinExec, true
	case "wait":
		// Background commands already completed synchronously.
		return func([]string) (int, error) { return 0, nil }, true
	}
	return nil, false
}

func (x *Interp) builtinCd(args []string) (int, error) {
	var dir string
	switch {
	case len(args) == 0:
		dir = x.st.GetStr("HOME")
		if dir == "" {
			dir = "/"
		}
	case args[0] == "-":
		dir = x.st.prevDir
		fmt.Fprintln(x.w1, dir)
	default:
		dir = args[0]
	}
	p := vfs.Join(x.st.cwd, dir)
	fi, err := x.fs.Stat(p)
	if err != nil {
		fmt.Fprintf(x.w2, "%s: cd: %s: %s\n", x.st.dollarZero, dir, vfs.ShellMsg(err))
		return 1, nil
	}
	if !fi.IsDir() {
		fmt.Fprintf(x.w2, "%s: cd: %s: Not a directory\n", x.st.dollarZero, dir)
		return 1, nil
	}
	x.st.prevDir = x.st.cwd
	x.st.cwd = p
	x.st.Set("OLDPWD", x.st.prevDir)
	x.st.Set("PWD", p)
	return 0, nil
}

func (x *Interp) builtinExport(args []string) (int, error) {
	remove := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-n":
			remove = true
		case "-p", "--":
		default:
			fmt.Fprintf(x.w2, "%s: export: %s: invalid option\n", x.st.dollarZero, args[0])
			return 2, nil
		}
		args = args[1:]
	}
	if len(args) == 0 {
		for _, name := range x.st.VarNamesWithPrefix("") {
			c := x.st.Get(name)
			if c != nil && c.Exported {
				fmt.Fprintf(x.w1, "declare -x %s=%s\n", name, shellQuote(c.Val.scalarView()))
			}
		}
		return 0, nil
	}
	status := 0
	for _, arg := range args {
		name, val, hasVal := strings.Cut(arg, "=")
		if !validName(name) {
			fmt.Fprintf(x.w2, "%s: export: `%s': not a valid identifier\n", x.st.dollarZero, arg)
			status = 1
			continue
		}
		if hasVal {
			if !x.st.Set(name, val) {
				fmt.Fprintf(x.w2, "%s: export: %s: readonly variable\n", x.st.dollarZero, name)
				status = 1
				continue
			}
		}
		c := x.st.lookup(x.st.resolveNameref(name))
		if c == nil {
			c = &Cell{Val: scalar(""), Unset: true}
			x.st.scopes[0].vars[name] = c
		}
		c.Exported = !remove
	}
	return status, nil
}

func (x *Interp) builtinReadonly(args []string) (int, error) {
	if len(args) == 0 || args[0] == "-p" {
		for _, name := range x.st.VarNamesWithPrefix("") {
			c := x.st.Get(name)
			if c != nil && c.ReadOnly {
				fmt.Fprintf(x.w1, "declare -r %s=%s\n", name, shellQuote(c.Val.scalarView()))
			}
		}
		return 0, nil
	}
	status := 0
	for _, arg := range args {
		name, val, hasVal := strings.Cut(arg, "=")
		if !validName(name) {
			fmt.Fprintf(x.w2, "%s: readonly: `%s': not a valid identifier\n", x.st.dollarZero, arg)
			status = 1
			continue
		}
		if hasVal {
			if !x.st.Set(name, val) {
				fmt.Fprintf(x.w2, "%s: readonly: %s: readonly variable\n", x.st.dollarZero, name)
				status = 1
				continue
			}
		}
		c := x.st.lookup(x.st.resolveNameref(name))
		if c == nil {
			c = &Cell{Val: scalar(""), Unset: true}
			x.st.scopes[0].vars[name] = c
		}
		c.ReadOnly = true
	}
	return status, nil
}

func (x *Interp) builtinUnset(args []string) (int, error) {
	unsetFunc := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-f":
			unsetFunc = true
		case "-v", "--":
		default:
			fmt.Fprintf(x.w2, "%s: unset: %s: invalid option\n", x.st.dollarZero, args[0])
			return 2, nil
		}
		args = args[1:]
	}
	status := 0
	for _, arg := range args {
		if unsetFunc {
			delete(x.st.funcs, arg)
			continue
		}
		name := scanVarName(arg)
		if sub, rest, ok := scanSubscript(arg[len(name):]); ok && rest == "" {
			if err := x.unsetElement(name, sub); err != nil {
				if fe, isFatal := err.(*FatalError); isFatal {
					return 0, fe
				}
				fmt.Fprintf(x.w2, "%s: unset: %s\n", x.st.dollarZero, err.Error())
				status = 1
			}
			continue
		}
		if !x.st.Unset(arg) {
			fmt.Fprintf(x.w2, "%s: unset: %s: cannot unset: readonly variable\n", x.st.dollarZero, arg)
			status = 1
		}
		if _, ok := x.st.funcs[arg]; ok && x.st.lookup(arg) == nil {
			delete(x.st.funcs, arg)
		}
	}
	return status, nil
}

func (x *Interp) unsetElement(name, sub string) error {
	cell := x.st.Get(name)
	if cell == nil {
		return nil
	}
	switch cell.Val.Kind {
	case AssocVal:
		key, err := x.expandText(sub)
		if err != nil {
			return err
		}
		cell.Val.Assoc.Delete(key)
	case IndexedVal:
		idx, err := x.arithEvalText(sub)
		if err != nil {
			return err
		}
		i := int(idx)
		if i < 0 {
			i += maxIndex(cell.Val) + 1
		}
		delete(cell.Val.Arr, i)
	default:
		if sub == "0" {
			x.st.Unset(name)
		}
	}
	return nil
}

func (x *Interp) builtinShift(args []string) (int, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			fmt.Fprintf(x.w2, "%s: shift: %s: numeric argument required\n", x.st.dollarZero, args[0])
			return 1, nil
		}
		n = v
	}
	if n > len(x.st.positional) {
		return 1, nil
	}
	x.st.positional = x.st.positional[n:]
	return 0, nil
}

func (x *Interp) builtinSet(args []string) (int, error) {
	if len(args) == 0 {
		for _, name := range x.st.VarNamesWithPrefix("") {
			c := x.st.Get(name)
			if c != nil && c.Val.Kind == ScalarVal {
				fmt.Fprintf(x.w1, "%s=%s\n", name, shellQuote(c.Val.Str))
			}
		}
		return 0, nil
	}
	i := 0
	for i < len(args) {
		arg := args[i]
		switch {
		case arg == "--":
			i++
			x.st.positional = append([]string{}, args[i:]...)
			return 0, nil
		case arg == "-o" || arg == "+o":
			enable := arg == "-o"
			i++
			if i >= len(args) {
				x.printOptions()
				return 0, nil
			}
			b := x.st.opts.setOption(args[i])
			if b == nil {
				fmt.Fprintf(x.w2, "%s: set: %s: invalid option name\n", x.st.dollarZero, args[i])
				return 2, nil
			}
			*b = enable
		case len(arg) >= 2 && (arg[0] == '-' || arg[0] == '+'):
			enable := arg[0] == '-'
			for _, c := range []byte(arg[1:]) {
				b := x.st.opts.setFlag(c)
				if b == nil {
					fmt.Fprintf(x.w2, "%s: set: -%c: invalid option\n", x.st.dollarZero, c)
					return 2, nil
				}
				if c == 'B' {
					// set +B disables brace expansion
					*b = enable
					continue
				}
				*b = enable
			}
		default:
			x.st.positional = append([]string{}, args[i:]...)
			return 0, nil
		}
		i++
	}
	return 0, nil
}

func (x *Interp) printOptions() {
	for _, name := range []string{
		"allexport", "braceexpand", "errexit", "noclobber", "noexec",
		"noglob", "nounset", "pipefail", "posix", "verbose", "xtrace",
	} {
		val := "off"
		if b := x.st.opts.setOption(name); b != nil && *b {
			val = "on"
		}
		fmt.Fprintf(x.w1, "%-15s %s\n", name, val)
	}
}

func (x *Interp) builtinShopt(args []string) (int, error) {
	mode := ""
	quiet := false
	var names []string
	for _, arg := range args {
		switch arg {
		case "-s", "-u", "-p":
			mode = arg
		case "-q":
			quiet = true
		case "-o":
			// set -o namespace; accept and fall through to set options
		default:
			names = append(names, arg)
		}
	}
	if len(names) == 0 {
		for _, n := range []string{
			"dotglob", "expand_aliases", "extglob", "failglob", "globskipdots",
			"globstar", "lastpipe", "nocasematch", "nullglob", "xpg_echo",
		} {
			val := "off"
			if b := x.st.opts.shoptOption(n); b != nil && *b {
				val = "on"
			}
			fmt.Fprintf(x.w1, "%s\t%s\n", n, val)
		}
		return 0, nil
	}
	status := 0
	for _, n := range names {
		b := x.st.opts.shoptOption(n)
		if b == nil {
			b = x.st.opts.setOption(n)
		}
		if b == nil {
			fmt.Fprintf(x.w2, "%s: shopt: %s: invalid shell option name\n", x.st.dollarZero, n)
			status = 1
			continue
		}
		switch mode {
		case "-s":
			*b = true
		case "-u":
			*b = false
		default:
			if !quiet {
				val := "off"
				if *b {
					val = "on"
				}
				fmt.Fprintf(x.w1, "%s\t%s\n", n, val)
			}
			if !*b {
				status = 1
			}
		}
	}
	return status, nil
}

func (x *Interp) builtinExit(args []string) (int, error) {
	code := x.st.lastStatus
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			code = v
		} else {
			fmt.Fprintf(x.w2, "%s: exit: %s: numeric argument required\n", x.st.dollarZero, args[0])
			code = 2
		}
	}
	return 0, exitFlow{code: clampStatus(code)}
}

func (x *Interp) builtinReturn(args []string) (int, error) {
	code := x.st.lastStatus
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			code = v
		} else {
			fmt.Fprintf(x.w2, "%s: return: %s: numeric argument required\n", x.st.dollarZero, args[0])
			return 2, nil
		}
	}
	return 0, returnFlow{code: clampStatus(code)}
}

func (x *Interp) builtinBreak(args []string) (int, error) {
	n, bad := loopCount(args)
	if bad {
		fmt.Fprintf(x.w2, "%s: break: %s: numeric argument required\n", x.st.dollarZero, args[0])
		return 128, nil
	}
	return 0, breakFlow{n: n}
}

func (x *Interp) builtinContinue(args []string) (int, error) {
	n, bad := loopCount(args)
	if bad {
		fmt.Fprintf(x.w2, "%s: continue: %s: numeric argument required\n", x.st.dollarZero, args[0])
		return 128, nil
	}
	return 0, continueFlow{n: n}
}

func loopCount(args []string) (int, bool) {
	if len(args) == 0 {
		return 1, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, true
	}
	if n < 1 {
		n = 1
	}
	return n, false
}

func (x *Interp) builtinEval(args []string) (int, error) {
	src := strings.Join(args, " ")
	if strings.TrimSpace(src) == "" {
		return 0, nil
	}
	script, err := Parse(src, x.lexOpts())
	if err != nil {
		fmt.Fprintf(x.w2, "%s: eval: %s\n", x.st.dollarZero, err.Error())
		return 1, nil
	}
	if err := x.runStmts(script.Stmts); err != nil {
		return 0, err
	}
	return x.st.lastStatus, nil
}

func (x *Interp) builtinSource(args []string) (int, error) {
	if len(args) == 0 {
		fmt.Fprintf(x.w2, "%s: source: filename argument required\n", x.st.dollarZero)
		return 2, nil
	}
	p := vfs.Join(x.st.cwd, args[0])
	data, err := x.fs.ReadFile(p)
	if err != nil {
		fmt.Fprintf(x.w2, "%s: source: %s: %s\n", x.st.dollarZero, args[0], vfs.ShellMsg(err))
		return 1, nil
	}
	script, perr := Parse(string(data), x.lexOpts())
	if perr != nil {
		fmt.Fprintf(x.w2, "%s: %s: %s\n", x.st.dollarZero, args[0], perr.Error())
		return 2, nil
	}
	savedPos := x.st.positional
	if len(args) > 1 {
		x.st.positional = append([]string{}, args[1:]...)
	}
	err = x.runStmts(script.Stmts)
	x.st.positional = savedPos
	if rf, ok := err.(returnFlow); ok {
		return clampStatus(rf.code), nil
	}
	if err != nil {
		return 0, err
	}
	return x.st.lastStatus, nil
}

func (x *Interp) builtinTrap(args []string) (int, error) {
	if len(args) == 0 || args[0] == "-p" {
		for _, sig := range []string{"ERR", "EXIT"} {
			if t, ok := x.st.traps[sig]; ok {
				fmt.Fprintf(x.w1, "trap -- %s %s\n", shellQuote(t), sig)
			}
		}
		return 0, nil
	}
	action := args[0]
	sigs := args[1:]
	if len(sigs) == 0 {
		return 0, nil
	}
	for _, sig := range sigs {
		sig = strings.ToUpper(sig)
		if sig == "0" {
			sig = "EXIT"
		}
		if action == "-" {
			delete(x.st.traps, sig)
		} else {
			x.st.traps[sig] = action
		}
	}
	return 0, nil
}

func (x *Interp) builtinRead(args []string) (int, error) {
	raw := false
	var arrayName, prompt string
	var names []string
	i := 0
	for ; i < len(args); i++ {
		switch {
		case args[i] == "-r":
			raw = true
		case args[i] == "-a" && i+1 < len(args):
			i++
			arrayName = args[i]
		case args[i] == "-p" && i+1 < len(args):
			i++
			prompt = args[i]
		case args[i] == "--":
			i++
			names = append(names, args[i:]...)
			i = len(args)
		case strings.HasPrefix(args[i], "-"):
			fmt.Fprintf(x.w2, "%s: read: %s: invalid option\n", x.st.dollarZero, args[i])
			return 2, nil
		default:
			names = append(names, args[i])
		}
	}
	if prompt != "" {
		fmt.Fprint(x.w2, prompt)
	}
	line, ok := x.readLine()
	if !ok {
		return 1, nil
	}
	// Line continuations unless -r.
	for !raw && strings.HasSuffix(line, "\\") && !strings.HasSuffix(line, "\\\\") {
		next, more := x.readLine()
		line = line[:len(line)-1] + next
		if !more {
			break
		}
	}
	if !raw {
		line = strings.ReplaceAll(line, "\\", "")
	}
	fields := fieldSplit([]frag{{s: line}}, x.st.IFS())
	if arrayName != "" {
		v := newIndexed()
		for i, f := range fields {
			v.Arr[i] = f.text()
		}
		x.st.SetCell(arrayName, v)
		return 0, nil
	}
	if len(names) == 0 {
		names = []string{"REPLY"}
		x.st.Set("REPLY", line)
		return 0, nil
	}
	for i, name := range names {
		if i == len(names)-1 {
			// Last variable takes the remaining fields joined by single
			// spaces; the original separators are not kept.
			rest := make([]string, 0, len(fields)-min(i, len(fields)))
			for _, f := range fields[min(i, len(fields)):] {
				rest = append(rest, f.text())
			}
			x.st.Set(name, strings.Join(rest, " "))
			break
		}
		if i < len(fields) {
			x.st.Set(name, fields[i].text())
		} else {
			x.st.Set(name, "")
		}
	}
	return 0, nil
}

func (x *Interp) builtinMapfile(args []string) (int, error) {
	trim := false
	var names []string
	for _, arg := range args {
		switch arg {
		case "-t":
			trim = true
		default:
			names = append(names, arg)
		}
	}
	name := "MAPFILE"
	if len(names) > 0 {
		name = names[0]
	}
	v := newIndexed()
	i := 0
	for {
		line, ok := x.readLine()
		if !ok {
			break
		}
		if !trim {
			line += "\n"
		}
		v.Arr[i] = line
		i++
	}
	x.st.SetCell(name, v)
	return 0, nil
}

func (x *Interp) builtinLet(args []string) (int, error) {
	if len(args) == 0 {
		fmt.Fprintf(x.w2, "%s: let: expression expected\n", x.st.dollarZero)
		return 1, nil
	}
	var last int64
	for _, arg := range args {
		v, err := x.arithStringValue(arg)
		if err != nil {
			if fe, ok := err.(*FatalError); ok {
				return 0, fe
			}
			fmt.Fprintf(x.w2, "%s: let: %s\n", x.st.dollarZero, err.Error())
			return 1, nil
		}
		last = v
	}
	if last != 0 {
		return 0, nil
	}
	return 1, nil
}

func (x *Interp) builtinTest(name string) builtinFunc {
	return func(args []string) (int, error) {
		if name == "[" {
			if len(args) == 0 || args[len(args)-1] != "]" {
				fmt.Fprintf(x.w2, "%s: [: missing `]'\n", x.st.dollarZero)
				return 2, nil
			}
			args = args[:len(args)-1]
		}
		ok, err := x.testEval(args)
		if err != nil {
			fmt.Fprintf(x.w2, "%s: test: %s\n", x.st.dollarZero, err.Error())
			return 2, nil
		}
		if ok {
			return 0, nil
		}
		return 1, nil
	}
}

func (x *Interp) builtinGetopts(args []string) (int, error) {
	if len(args) < 2 {
		fmt.Fprintf(x.w2, "%s: getopts: usage: getopts optstring name [args]\n", x.st.dollarZero)
		return 2, nil
	}
	optstring, name := args[0], args[1]
	params := x.st.positional
	if len(args) > 2 {
		params = args[2:]
	}
	ind, _ := strconv.Atoi(x.st.GetStr("OPTIND"))
	if ind < 1 {
		ind = 1
	}
	if ind > len(params) {
		x.st.Set(name, "?")
		return 1, nil
	}
	arg := params[ind-1]
	if len(arg) < 2 || arg[0] != '-' || arg == "--" {
		if arg == "--" {
			x.st.Set("OPTIND", strconv.Itoa(ind+1))
		}
		x.st.Set(name, "?")
		return 1, nil
	}
	// Track intra-argument position via OPTPOS.
	pos, _ := strconv.Atoi(x.st.GetStr("OPTPOS"))
	if pos < 1 {
		pos = 1
	}
	opt := arg[pos]
	idx := strings.IndexByte(optstring, opt)
	needsArg := idx >= 0 && idx+1 < len(optstring) && optstring[idx+1] == ':'
	advance := func() {
		if pos+1 < len(arg) {
			x.st.Set("OPTPOS", strconv.Itoa(pos+1))
		} else {
			x.st.Set("OPTPOS", "1")
			x.st.Set("OPTIND", strconv.Itoa(ind+1))
		}
	}
	if idx < 0 {
		x.st.Set(name, "?")
		x.st.Unset("OPTARG")
		if !strings.HasPrefix(optstring, ":") {
			fmt.Fprintf(x.w2, "%s: illegal option -- %c\n", x.st.dollarZero, opt)
		} else {
			x.st.Set("OPTARG", string(opt))
		}
		advance()
		return 0, nil
	}
	x.st.Set(name, string(opt))
	if needsArg {
		if pos+1 < len(arg) {
			x.st.Set("OPTARG", arg[pos+1:])
			x.st.Set("OPTPOS", "1")
			x.st.Set("OPTIND", strconv.Itoa(ind+1))
		} else if ind < len(params) {
			x.st.Set("OPTARG", params[ind])
			x.st.Set("OPTPOS", "1")
			x.st.Set("OPTIND", strconv.Itoa(ind+2))
		} else {
			x.st.Set(name, "?")
			x.st.Unset("OPTARG")
			fmt.Fprintf(x.w2, "%s: option requires an argument -- %c\n", x.st.dollarZero, opt)
			x.st.Set("OPTIND", strconv.Itoa(ind+1))
		}
		return 0, nil
	}
	x.st.Unset("OPTARG")
	advance()
	return 0, nil
}

func (x *Interp) builtinAlias(args []string) (int, error) {
	if len(args) == 0 {
		names := make([]string, 0, len(x.st.aliases))
		for n := range x.st.aliases {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(x.w1, "alias %s=%s\n", n, shellQuote(x.st.aliases[n]))
		}
		return 0, nil
	}
	status := 0
	for _, arg := range args {
		name, val, hasVal := strings.Cut(arg, "=")
		if hasVal {
			x.st.aliases[name] = val
		} else if v, ok := x.st.aliases[name]; ok {
			fmt.Fprintf(x.w1, "alias %s=%s\n", name, shellQuote(v))
		} else {
			fmt.Fprintf(x.w2, "%s: alias: %s: not found\n", x.st.dollarZero, name)
			status = 1
		}
	}
	return status, nil
}

func (x *Interp) builtinUnalias(args []string) (int, error) {
	if len(args) > 0 && args[0] == "-a" {
		x.st.aliases = map[string]string{}
		return 0, nil
	}
	status := 0
	for _, arg := range args {
		if _, ok := x.st.aliases[arg]; !ok {
			fmt.Fprintf(x.w2, "%s: unalias: %s: not found\n", x.st.dollarZero, arg)
			status = 1
			continue
		}
		delete(x.st.aliases, arg)
	}
	return status, nil
}

func (x *Interp) builtinType(args []string) (int, error) {
	onlyKind := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		if args[0] == "-t" {
			onlyKind = true
		}
		args = args[1:]
	}
	status := 0
	for _, name := range args {
		kind, detail := x.classify(name)
		if kind == "" {
			fmt.Fprintf(x.w2, "%s: type: %s: not found\n", x.st.dollarZero, name)
			status = 1
			continue
		}
		if onlyKind {
			fmt.Fprintln(x.w1, kind)
		} else {
			fmt.Fprintln(x.w1, detail)
		}
	}
	return status, nil
}

func (x *Interp) classify(name string) (string, string) {
	if _, ok := x.st.aliases[name]; ok {
		return "alias", fmt.Sprintf("%s is aliased to `%s'", name, x.st.aliases[name])
	}
	if _, ok := x.st.funcs[name]; ok {
		return "function", fmt.Sprintf("%s is a function", name)
	}
	if _, ok := x.builtin(name); ok {
		return "builtin", fmt.Sprintf("%s is a shell builtin", name)
	}
	if x.cmds != nil {
		if _, ok := x.cmds[name]; ok {
			return "file", fmt.Sprintf("%s is /usr/bin/%s", name, name)
		}
	}
	return "", ""
}

func (x *Interp) builtinCommand(args []string) (int, error) {
	verify := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-v", "-V":
			verify = true
		case "--":
			args = args[1:]
			goto run
		}
		args = args[1:]
	}
run:
	if len(args) == 0 {
		return 0, nil
	}
	if verify {
		kind, _ := x.classify(args[0])
		if kind == "" {
			return 1, nil
		}
		if kind == "file" {
			fmt.Fprintf(x.w1, "/usr/bin/%s\n", args[0])
		} else {
			fmt.Fprintln(x.w1, args[0])
		}
		return 0, nil
	}
	// Bypass functions: builtins first, then the command registry.
	name := args[0]
	if b, ok := x.builtin(name); ok {
		return b(args[1:])
	}
	if x.cmds != nil {
		if fn, ok := x.cmds[name]; ok {
			x.runRegistry(fn, args, x.st.Environ())
			return x.st.lastStatus, nil
		}
	}
	fmt.Fprintf(x.w2, "%s: %s: command not found\n", x.st.dollarZero, name)
	return 127, nil
}

func (x *Interp) builtinExec(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	// No process replacement in the hermetic model: run the command, then
	// leave the script with its status.
	if err := x.dispatch(args, nil); err != nil {
		return 0, err
	}
	return 0, exitFlow{code: x.st.lastStatus}
}

func validName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
