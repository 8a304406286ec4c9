package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := newLexer(src, lexOptions{})
	var out []Token
	for {
		tok := l.Next()
		if tok.Kind == tokEOF {
			break
		}
		out = append(out, tok)
	}
	require.Nil(t, l.err)
	return out
}

func TestLexerOperators(t *testing.T) {
	toks := lexAll(t, "a && b || c | d |& e ; f & g")
	var ops []string
	for _, tok := range toks {
		if tok.Kind == tokOp {
			ops = append(ops, tok.Val)
		}
	}
	assert.Equal(t, []string{"&&", "||", "|", "|&", ";", "&"}, ops)
}

func TestLexerMaximalMunch(t *testing.T) {
	toks := lexAll(t, "x >> y << z <<< w")
	var ops []string
	for _, tok := range toks {
		if tok.Kind == tokOp {
			ops = append(ops, tok.Val)
		}
	}
	// << queues a heredoc; the lexer still emits the operator.
	assert.Contains(t, ops, ">>")
	assert.Contains(t, ops, "<<<")
}

func TestLexerWordParts(t *testing.T) {
	toks := lexAll(t, `echo 'a b'"c $x"\d$y`)
	require.Len(t, toks, 2)
	w := toks[1]
	require.Equal(t, tokWord, w.Kind)
	kinds := make([]PartKind, len(w.Parts))
	for i, p := range w.Parts {
		kinds[i] = p.Kind
	}
	assert.Equal(t, []PartKind{SQPart, DQPart, EscPart, ParamPart}, kinds)
	assert.Equal(t, "a b", w.Parts[0].Text)
	assert.Equal(t, "d", w.Parts[2].Text)
	assert.Equal(t, "y", w.Parts[3].Raw)
}

func TestLexerDoubleQuoteSegments(t *testing.T) {
	toks := lexAll(t, `"pre $x $(cmd) post"`)
	require.Len(t, toks, 1)
	dq := toks[0].Parts[0]
	require.Equal(t, DQPart, dq.Kind)
	var kinds []PartKind
	for _, p := range dq.Parts {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []PartKind{LitPart, ParamPart, LitPart, CmdSubPart, LitPart}, kinds)
	for _, p := range dq.Parts {
		assert.True(t, p.Quoted)
	}
}

func TestLexerIONumber(t *testing.T) {
	toks := lexAll(t, "cmd 2>file")
	require.Len(t, toks, 3)
	assert.Equal(t, tokOp, toks[1].Kind)
	assert.Equal(t, "2>", toks[1].Val)
}

func TestLexerComment(t *testing.T) {
	toks := lexAll(t, "echo a # trailing comment\n")
	var words []string
	for _, tok := range toks {
		if tok.Kind == tokWord {
			words = append(words, tok.Val)
		}
	}
	assert.Equal(t, []string{"echo", "a"}, words)
}

func TestLexerLineContinuation(t *testing.T) {
	toks := lexAll(t, "echo a\\\nb")
	require.Len(t, toks, 2)
	assert.Equal(t, "ab", toks[1].Val)
}

func TestLexerUnterminatedQuote(t *testing.T) {
	l := newLexer("echo 'oops", lexOptions{})
	for {
		if tok := l.Next(); tok.Kind == tokEOF {
			break
		}
	}
	require.NotNil(t, l.err)
	assert.Contains(t, l.err.Msg, "unterminated single-quoted string")
}

func TestLexerHeredocCapture(t *testing.T) {
	l := newLexer("cat <<EOF\nline one\nline two\nEOF\necho done\n", lexOptions{})
	// cat token, << operator, delimiter word
	require.Equal(t, "cat", l.Next().Val)
	require.Equal(t, "<<", l.Next().Val)
	delim := l.Next()
	require.Equal(t, "EOF", delim.Val)
	h := &Heredoc{Delim: "EOF", Expand: true}
	l.queueHeredoc(h)
	require.Equal(t, tokNewline, l.Next().Kind)
	assert.Equal(t, "line one\nline two\n", h.raw)
	assert.Equal(t, "echo", l.Next().Val)
}

func TestLexerHeredocStripTabs(t *testing.T) {
	l := newLexer("cat <<-EOF\n\tindented\n\tEOF\n", lexOptions{})
	l.Next()
	l.Next()
	l.Next()
	h := &Heredoc{Delim: "EOF", StripTabs: true, Expand: true}
	l.queueHeredoc(h)
	l.Next()
	assert.Equal(t, "indented\n", h.raw)
}

func TestLexerAliasExpansion(t *testing.T) {
	opts := lexOptions{
		Aliases:       map[string]string{"ll": "ls -l"},
		ExpandAliases: true,
	}
	l := newLexer("ll /tmp", opts)
	var words []string
	for {
		tok := l.Next()
		if tok.Kind == tokEOF {
			break
		}
		words = append(words, tok.Val)
	}
	assert.Equal(t, []string{"ls", "-l", "/tmp"}, words)
}

func TestLexerAliasNoRecursion(t *testing.T) {
	opts := lexOptions{
		Aliases:       map[string]string{"ls": "ls -l"},
		ExpandAliases: true,
	}
	l := newLexer("ls", opts)
	var words []string
	for {
		tok := l.Next()
		if tok.Kind == tokEOF {
			break
		}
		words = append(words, tok.Val)
	}
	assert.Equal(t, []string{"ls", "-l"}, words)
}

func TestLexerArithCommand(t *testing.T) {
	toks := lexAll(t, "(( x + 1 ))")
	require.Len(t, toks, 1)
	assert.True(t, toks[0].isOp("(("))
	assert.Equal(t, " x + 1 ", toks[0].Parts[0].Raw)
}

func TestLexerProcessSubstitution(t *testing.T) {
	toks := lexAll(t, "diff <(sort a) <(sort b)")
	require.Len(t, toks, 3)
	assert.Equal(t, ProcSubPart, toks[1].Parts[0].Kind)
	assert.Equal(t, "sort a", toks[1].Parts[0].Raw)
}

func TestLexerAnsiCQuote(t *testing.T) {
	toks := lexAll(t, `$'a\tb\n'`)
	require.Len(t, toks, 1)
	require.Equal(t, SQPart, toks[0].Parts[0].Kind)
	assert.Equal(t, "a\tb\n", toks[0].Parts[0].Text)
}
