package interp

import (
	"sort"
	"strings"
	"time"

	"github.com/elliotchance/orderedmap/v3"
)

// ValueKind distinguishes the three cell shapes.
type ValueKind int

const (
	ScalarVal ValueKind = iota
	IndexedVal
	AssocVal
)

// Value is the payload of a variable cell.
type Value struct {
	Kind  ValueKind
	Str   string
	Arr   map[int]string
	Assoc *orderedmap.OrderedMap[string, string]
}

func scalar(s string) *Value { return &Value{Kind: ScalarVal, Str: s} }

func newIndexed() *Value { return &Value{Kind: IndexedVal, Arr: map[int]string{}} }

func newAssoc() *Value {
	return &Value{Kind: AssocVal, Assoc: orderedmap.NewOrderedMap[string, string]()}
}

// sortedIndices returns an indexed array's keys in ascending order.
func (v *Value) sortedIndices() []int {
	keys := make([]int, 0, len(v.Arr))
	for k := range v.Arr {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// fields returns the array elements in iteration order, or the scalar as a
// single element.
func (v *Value) fields() []string {
	switch v.Kind {
	case IndexedVal:
		var out []string
		for _, i := range v.sortedIndices() {
			out = append(out, v.Arr[i])
		}
		return out
	case AssocVal:
		var out []string
		for el := v.Assoc.Front(); el != nil; el = el.Next() {
			out = append(out, el.Value)
		}
		return out
	default:
		return []string{v.Str}
	}
}

// scalarView is element 0 for arrays, the string for scalars; this is how
// bash reads $a for an array a.
func (v *Value) scalarView() string {
	switch v.Kind {
	case IndexedVal:
		return v.Arr[0]
	case AssocVal:
		s, _ := v.Assoc.Get("0")
		return s
	default:
		return v.Str
	}
}

func (v *Value) clone() *Value {
	c := &Value{Kind: v.Kind, Str: v.Str}
	if v.Arr != nil {
		c.Arr = make(map[int]string, len(v.Arr))
		for k, s := range v.Arr {
			c.Arr[k] = s
		}
	}
	if v.Assoc != nil {
		c.Assoc = orderedmap.NewOrderedMap[string, string]()
		for el := v.Assoc.Front(); el != nil; el = el.Next() {
			c.Assoc.Set(el.Key, el.Value)
		}
	}
	return c
}

// Cell is one variable: a value plus its attributes.
type Cell struct {
	Val      *Value
	Exported bool
	ReadOnly bool
	Integer  bool
	Lower    bool
	Upper    bool
	Nameref  bool
	// declared but unassigned (declare x)
	Unset bool
}

func (c *Cell) clone() *Cell {
	n := *c
	if c.Val != nil {
		n.Val = c.Val.clone()
	}
	return &n
}

type scope struct {
	vars map[string]*Cell
	// funcScope marks frames pushed by function invocation; `local` targets
	// the nearest one.
	funcScope bool
	// tombstones records names unset locally, masking outer cells.
	tombstones map[string]bool
}

func newScope(fn bool) *scope {
	return &scope{vars: map[string]*Cell{}, funcScope: fn, tombstones: map[string]bool{}}
}

// Options is the shell's flag set, mutated by `set -o` and `shopt`.
type Options struct {
	ErrExit   bool // -e
	NoUnset   bool // -u
	PipeFail  bool // -o pipefail
	XTrace    bool // -x
	Verbose   bool // -v
	NoGlob    bool // -f
	NoExec    bool // -n
	AllExport bool // -a
	NoClobber bool // -C
	Posix     bool
	BraceExp  bool // +B disables

	// shopt namespace
	ExtGlob       bool
	NoCaseMatch   bool
	GlobStar      bool
	DotGlob       bool
	GlobSkipDots  bool
	NullGlob      bool
	FailGlob      bool
	LastPipe      bool
	ExpandAliases bool
	XpgEcho       bool
}

func defaultOptions() Options {
	return Options{BraceExp: true, GlobSkipDots: true}
}

// setFlag maps `set` single-letter flags.
func (o *Options) setFlag(c byte) *bool {
	switch c {
	case 'e':
		return &o.ErrExit
	case 'u':
		return &o.NoUnset
	case 'x':
		return &o.XTrace
	case 'v':
		return &o.Verbose
	case 'f':
		return &o.NoGlob
	case 'n':
		return &o.NoExec
	case 'a':
		return &o.AllExport
	case 'C':
		return &o.NoClobber
	case 'B':
		return &o.BraceExp
	}
	return nil
}

// setOption maps `set -o` names.
func (o *Options) setOption(name string) *bool {
	switch name {
	case "errexit":
		return &o.ErrExit
	case "nounset":
		return &o.NoUnset
	case "pipefail":
		return &o.PipeFail
	case "xtrace":
		return &o.XTrace
	case "verbose":
		return &o.Verbose
	case "noglob":
		return &o.NoGlob
	case "noexec":
		return &o.NoExec
	case "allexport":
		return &o.AllExport
	case "noclobber":
		return &o.NoClobber
	case "posix":
		return &o.Posix
	case "braceexpand":
		return &o.BraceExp
	}
	return nil
}

// shoptOption maps `shopt` names.
func (o *Options) shoptOption(name string) *bool {
	switch name {
	case "extglob":
		return &o.ExtGlob
	case "nocasematch":
		return &o.NoCaseMatch
	case "globstar":
		return &o.GlobStar
	case "dotglob":
		return &o.DotGlob
	case "globskipdots":
		return &o.GlobSkipDots
	case "nullglob":
		return &o.NullGlob
	case "failglob":
		return &o.FailGlob
	case "lastpipe":
		return &o.LastPipe
	case "expand_aliases":
		return &o.ExpandAliases
	case "xpg_echo":
		return &o.XpgEcho
	}
	return nil
}

// flagString builds $- from the enabled single-letter flags.
func (o *Options) flagString() string {
	var b strings.Builder
	for _, f := range []struct {
		c  byte
		on bool
	}{
		{'a', o.AllExport}, {'B', o.BraceExp}, {'C', o.NoClobber},
		{'e', o.ErrExit}, {'f', o.NoGlob}, {'n', o.NoExec},
		{'u', o.NoUnset}, {'v', o.Verbose}, {'x', o.XTrace},
	} {
		if f.on {
			b.WriteByte(f.c)
		}
	}
	return b.String()
}

// Limits bound an invocation; exceeding any is fatal with status 2.
type Limits struct {
	MaxCallDepth int
	MaxCommands  int
	MaxLoopIter  int
	Deadline     time.Time
}

// DefaultLimits returns the caller-overridable execution bounds.
func DefaultLimits() Limits {
	return Limits{MaxCallDepth: 1000, MaxCommands: 100000, MaxLoopIter: 1000000}
}

// counters are shared across subshell clones: a subshell burning commands
// burns the invocation's budget.
type counters struct {
	commands  int
	callDepth int
}

// State is the interpreter state owned by one invocation. Subshells clone
// the variable-visible parts and share the rest.
type State struct {
	scopes     []*scope
	funcs      map[string]*FuncDef
	aliases    map[string]string
	opts       Options
	positional []string
	dollarZero string
	lastStatus int
	lastArg    string
	cwd        string
	prevDir    string
	traps      map[string]string
	limits     Limits
	counters   *counters
	randState  uint32
	pid        int
	bashPid    int
	nextPid    *int
	funcNames  []string
	lineno     int
}

// NewState builds the root state for an invocation.
func NewState(cwd string, env map[string]string, limits Limits) *State {
	next := 1000
	st := &State{
		scopes:     []*scope{newScope(false)},
		funcs:      map[string]*FuncDef{},
		aliases:    map[string]string{},
		opts:       defaultOptions(),
		dollarZero: "bish",
		cwd:        cwd,
		prevDir:    cwd,
		traps:      map[string]string{},
		limits:     limits,
		counters:   &counters{},
		randState:  7919,
		pid:        42,
		bashPid:    42,
		nextPid:    &next,
	}
	st.setGlobal("IFS", " \t\n")
	st.setGlobal("PS4", "+ ")
	st.setGlobal("HOME", "/root")
	st.setGlobal("PWD", cwd)
	for k, v := range env {
		st.setGlobal(k, v)
		if c := st.lookup(k); c != nil {
			c.Exported = true
		}
	}
	return st
}

// clone deep-copies the subshell-visible parts; counters, functions and
// traps references are shared or copied per ownership rules.
func (s *State) clone() *State {
	n := *s
	n.scopes = make([]*scope, len(s.scopes))
	for i, sc := range s.scopes {
		c := newScope(sc.funcScope)
		for k, cell := range sc.vars {
			c.vars[k] = cell.clone()
		}
		for k := range sc.tombstones {
			c.tombstones[k] = true
		}
		n.scopes[i] = c
	}
	n.funcs = make(map[string]*FuncDef, len(s.funcs))
	for k, v := range s.funcs {
		n.funcs[k] = v
	}
	n.aliases = make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		n.aliases[k] = v
	}
	n.traps = make(map[string]string, len(s.traps))
	for k, v := range s.traps {
		n.traps[k] = v
	}
	n.positional = append([]string{}, s.positional...)
	n.bashPid = s.nextVirtualPid()
	return &n
}

func (s *State) nextVirtualPid() int {
	*s.nextPid++
	return *s.nextPid
}

// pushFunc pushes a function scope frame.
func (s *State) pushFunc() { s.scopes = append(s.scopes, newScope(true)) }

func (s *State) popFunc() { s.scopes = s.scopes[:len(s.scopes)-1] }

// lookup walks scopes innermost-out, honoring tombstones.
func (s *State) lookup(name string) *Cell {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if c, ok := s.scopes[i].vars[name]; ok {
			return c
		}
		if s.scopes[i].tombstones[name] {
			return nil
		}
	}
	return nil
}

// resolveNameref follows nameref chains to a final variable name.
func (s *State) resolveNameref(name string) string {
	for i := 0; i < 10; i++ {
		c := s.lookup(name)
		if c == nil || !c.Nameref {
			return name
		}
		next := c.Val.scalarView()
		if next == "" || next == name {
			return name
		}
		name = next
	}
	return name
}

// Get returns a variable's cell after nameref resolution; nil if unset.
func (s *State) Get(name string) *Cell {
	c := s.lookup(s.resolveNameref(name))
	if c == nil || c.Unset {
		return nil
	}
	return c
}

// GetStr is the scalar view of a variable, "" when unset.
func (s *State) GetStr(name string) string {
	c := s.Get(name)
	if c == nil {
		return ""
	}
	return c.Val.scalarView()
}

// IsSet reports whether name has a value.
func (s *State) IsSet(name string) bool { return s.Get(name) != nil }

func (s *State) setGlobal(name, val string) {
	s.scopes[0].vars[name] = &Cell{Val: scalar(val)}
}

// transform applies the cell's case attributes to an incoming value.
func (c *Cell) transform(val string) string {
	if c.Lower {
		return strings.ToLower(val)
	}
	if c.Upper {
		return strings.ToUpper(val)
	}
	return val
}

// Set assigns a scalar value, following namerefs, creating a global cell
// when the name is unknown. Returns false when the cell is readonly.
func (s *State) Set(name, val string) bool {
	name = s.resolveNameref(name)
	if c := s.lookup(name); c != nil {
		if c.ReadOnly {
			return false
		}
		c.Val = scalar(c.transform(val))
		c.Unset = false
		if s.opts.AllExport {
			c.Exported = true
		}
		return true
	}
	s.clearTombstone(name)
	cell := &Cell{Val: scalar(val)}
	if s.opts.AllExport {
		cell.Exported = true
	}
	s.scopes[0].vars[name] = cell
	return true
}

// SetLocal declares a cell in the nearest function frame.
func (s *State) SetLocal(name string, val *Value) *Cell {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].funcScope || i == 0 {
			cell := &Cell{Val: val}
			if val == nil {
				cell.Val = scalar("")
				cell.Unset = true
			}
			s.scopes[i].vars[name] = cell
			delete(s.scopes[i].tombstones, name)
			return cell
		}
	}
	return nil
}

// SetCell replaces or creates a cell preserving attributes, used by array
// and element assignment.
func (s *State) SetCell(name string, val *Value) (*Cell, bool) {
	name = s.resolveNameref(name)
	if c := s.lookup(name); c != nil {
		if c.ReadOnly {
			return c, false
		}
		c.Val = val
		c.Unset = false
		return c, true
	}
	s.clearTombstone(name)
	c := &Cell{Val: val}
	s.scopes[0].vars[name] = c
	return c, true
}

func (s *State) clearTombstone(name string) {
	for _, sc := range s.scopes {
		delete(sc.tombstones, name)
	}
}

// Unset removes the nearest visible cell; inside a function the removal is
// recorded as a tombstone so outer cells stay masked (dynamic unset).
func (s *State) Unset(name string) bool {
	name = s.resolveNameref(name)
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if c, ok := s.scopes[i].vars[name]; ok {
			if c.ReadOnly {
				return false
			}
			delete(s.scopes[i].vars, name)
			if i > 0 {
				s.scopes[i].tombstones[name] = true
			}
			return true
		}
	}
	return true
}

// Environ collects exported variables, innermost shadowing outermost.
func (s *State) Environ() map[string]string {
	out := map[string]string{}
	for _, sc := range s.scopes {
		for k, c := range sc.vars {
			if c.Exported && !c.Unset {
				out[k] = c.Val.scalarView()
			} else if sc.tombstones[k] {
				delete(out, k)
			}
		}
	}
	return out
}

// VarNamesWithPrefix supports ${!prefix*}; sorted for determinism.
func (s *State) VarNamesWithPrefix(prefix string) []string {
	seen := map[string]bool{}
	for _, sc := range s.scopes {
		for k, c := range sc.vars {
			if !c.Unset && strings.HasPrefix(k, prefix) {
				seen[k] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Random steps the deterministic generator behind $RANDOM.
func (s *State) Random() int {
	s.randState = s.randState*1103515245 + 12345
	return int(s.randState>>16) % 32768
}

// IFS returns the current field separator set.
func (s *State) IFS() string {
	if c := s.Get("IFS"); c != nil {
		return c.Val.scalarView()
	}
	return " \t\n"
}
