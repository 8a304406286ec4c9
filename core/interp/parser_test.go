package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := Parse(src, lexOptions{})
	require.NoError(t, err)
	return s
}

func TestParseSimpleCommand(t *testing.T) {
	s := parse(t, "FOO=bar echo hello world >out.txt")
	require.Len(t, s.Stmts, 1)
	cmd := s.Stmts[0].Pipelines[0].Cmds[0].(*SimpleCmd)
	require.Len(t, cmd.Assigns, 1)
	assert.Equal(t, "FOO", cmd.Assigns[0].Name)
	require.Len(t, cmd.Words, 3)
	assert.Equal(t, "echo", cmd.Words[0].Lit())
	require.Len(t, cmd.Redirs, 1)
	assert.Equal(t, RedirOut, cmd.Redirs[0].Op)
}

func TestParseStatementChain(t *testing.T) {
	s := parse(t, "a && b || c")
	st := s.Stmts[0]
	require.Len(t, st.Pipelines, 3)
	assert.Equal(t, []string{"&&", "||"}, st.Ops)
}

func TestParsePipeline(t *testing.T) {
	s := parse(t, "a | b |& c")
	pl := s.Stmts[0].Pipelines[0]
	require.Len(t, pl.Cmds, 3)
	assert.Equal(t, []bool{false, true}, pl.PipeStderr)
}

func TestParseNegation(t *testing.T) {
	s := parse(t, "! false")
	assert.True(t, s.Stmts[0].Pipelines[0].Negated)
}

func TestParseBackground(t *testing.T) {
	s := parse(t, "work &\n")
	assert.True(t, s.Stmts[0].Background)
}

func TestParseIfElifElse(t *testing.T) {
	s := parse(t, "if a; then b; elif c; then d; else e; fi")
	cmd := s.Stmts[0].Pipelines[0].Cmds[0].(*IfCmd)
	require.Len(t, cmd.Clauses, 2)
	require.NotNil(t, cmd.Else)
}

func TestParseForIn(t *testing.T) {
	s := parse(t, "for x in a b c; do echo $x; done")
	cmd := s.Stmts[0].Pipelines[0].Cmds[0].(*ForCmd)
	assert.Equal(t, "x", cmd.Name)
	assert.Len(t, cmd.Words, 3)
}

func TestParseCStyleFor(t *testing.T) {
	s := parse(t, "for ((i=0; i<5; i++)); do echo $i; done")
	cmd := s.Stmts[0].Pipelines[0].Cmds[0].(*CForCmd)
	require.NotNil(t, cmd.Init)
	require.NotNil(t, cmd.Cond)
	require.NotNil(t, cmd.Update)
}

func TestParseCase(t *testing.T) {
	s := parse(t, "case $x in a|b) one;; c) two;& d) three;;& esac")
	cmd := s.Stmts[0].Pipelines[0].Cmds[0].(*CaseCmd)
	require.Len(t, cmd.Items, 3)
	assert.Len(t, cmd.Items[0].Patterns, 2)
	assert.Equal(t, CaseBreak, cmd.Items[0].Term)
	assert.Equal(t, CaseFallthrough, cmd.Items[1].Term)
	assert.Equal(t, CaseContinue, cmd.Items[2].Term)
}

func TestParseFunctionForms(t *testing.T) {
	s := parse(t, "foo() { echo hi; }\nfunction bar { echo yo; }")
	f1 := s.Stmts[0].Pipelines[0].Cmds[0].(*FuncDef)
	f2 := s.Stmts[1].Pipelines[0].Cmds[0].(*FuncDef)
	assert.Equal(t, "foo", f1.Name)
	assert.Equal(t, "bar", f2.Name)
	_, ok := f1.Body.(*GroupCmd)
	assert.True(t, ok)
}

func TestParseSubshellAndGroup(t *testing.T) {
	s := parse(t, "( a; b )\n{ c; d; }")
	_, ok := s.Stmts[0].Pipelines[0].Cmds[0].(*SubshellCmd)
	require.True(t, ok)
	_, ok = s.Stmts[1].Pipelines[0].Cmds[0].(*GroupCmd)
	require.True(t, ok)
}

func TestParseHeredocBody(t *testing.T) {
	s := parse(t, "cat <<EOF\nhello $name\nEOF\n")
	cmd := s.Stmts[0].Pipelines[0].Cmds[0].(*SimpleCmd)
	require.Len(t, cmd.Redirs, 1)
	h := cmd.Redirs[0].Here
	require.NotNil(t, h)
	assert.True(t, h.Expand)
	require.NotNil(t, h.Body)
	// literal text plus an expansion
	assert.Equal(t, ParamPart, h.Body.Parts[1].Kind)
}

func TestParseHeredocQuotedDelim(t *testing.T) {
	s := parse(t, "cat <<'EOF'\nno $expansion\nEOF\n")
	h := s.Stmts[0].Pipelines[0].Cmds[0].(*SimpleCmd).Redirs[0].Here
	assert.False(t, h.Expand)
	assert.Equal(t, "no $expansion\n", h.Body.Parts[0].Text)
}

func TestParseCondCommand(t *testing.T) {
	s := parse(t, "[[ -f /etc/passwd && $x == y* ]]")
	cmd := s.Stmts[0].Pipelines[0].Cmds[0].(*CondCmd)
	require.Equal(t, CondAnd, cmd.Expr.Kind)
	assert.Equal(t, CondUnary, cmd.Expr.X.Kind)
	assert.Equal(t, "-f", cmd.Expr.X.Op)
	assert.Equal(t, CondBinary, cmd.Expr.Y.Kind)
	assert.Equal(t, "==", cmd.Expr.Y.Op)
}

func TestParseArrayAssignment(t *testing.T) {
	s := parse(t, "a=(1 2 3) b[2]=x c+=y")
	cmd := s.Stmts[0].Pipelines[0].Cmds[0].(*SimpleCmd)
	require.Len(t, cmd.Assigns, 3)
	assert.Len(t, cmd.Assigns[0].Array, 3)
	assert.Equal(t, "2", cmd.Assigns[1].Index)
	assert.True(t, cmd.Assigns[2].Append)
}

func TestParseMissingFi(t *testing.T) {
	_, err := Parse("if true; then echo x", lexOptions{})
	require.Error(t, err)
}

func TestParseMissingDone(t *testing.T) {
	_, err := Parse("while true; do echo x", lexOptions{})
	require.Error(t, err)
}

func TestParseUnterminatedSubstitution(t *testing.T) {
	_, err := Parse("echo $(cmd", lexOptions{})
	require.Error(t, err)
}

func TestParseParamOps(t *testing.T) {
	cases := map[string]struct {
		op    string
		check func(*testing.T, *ParamExp)
	}{
		"${x:-def}":  {op: ":-", check: nil},
		"${x:=def}":  {op: ":=", check: nil},
		"${x:?msg}":  {op: ":?", check: nil},
		"${x:+alt}":  {op: ":+", check: nil},
		"${x#pre}":   {op: "#", check: nil},
		"${x##pre}":  {op: "##", check: nil},
		"${x%suf}":   {op: "%", check: nil},
		"${x%%suf}":  {op: "%%", check: nil},
		"${x/a/b}":   {op: "/", check: nil},
		"${x//a/b}":  {op: "//", check: nil},
		"${x^^}":     {op: "^^", check: nil},
		"${x,,}":     {op: ",,", check: nil},
		"${x@Q}":     {op: "@", check: nil},
		"${x:1:2}":   {op: ":", check: func(t *testing.T, pe *ParamExp) { assert.True(t, pe.HasLen) }},
		"${#x}":      {op: "", check: func(t *testing.T, pe *ParamExp) { assert.True(t, pe.Length) }},
		"${!x}":      {op: "", check: func(t *testing.T, pe *ParamExp) { assert.True(t, pe.Indirect) }},
		"${!arr[@]}": {op: "", check: func(t *testing.T, pe *ParamExp) { assert.True(t, pe.Keys) }},
		"${!pre@}":   {op: "", check: func(t *testing.T, pe *ParamExp) { assert.True(t, pe.Prefix) }},
		"${arr[3]}":  {op: "", check: func(t *testing.T, pe *ParamExp) { assert.Equal(t, "3", pe.Index) }},
		"${arr[@]}":  {op: "", check: func(t *testing.T, pe *ParamExp) { assert.Equal(t, "@", pe.Index) }},
	}
	for src, want := range cases {
		s := parse(t, "echo "+src)
		w := s.Stmts[0].Pipelines[0].Cmds[0].(*SimpleCmd).Words[1]
		pe := w.Parts[0].Param
		require.NotNil(t, pe, src)
		assert.Equal(t, want.op, pe.Op, src)
		assert.False(t, pe.Bad, src)
		if want.check != nil {
			want.check(t, pe)
		}
	}
}
