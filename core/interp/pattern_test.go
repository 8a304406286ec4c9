package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPatternBasics(t *testing.T) {
	cases := []struct {
		pat, s string
		want   bool
	}{
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"a*c", "abbbc", true},
		{"a*c", "ac", true},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"*", "", true},
		{"*", "anything", true},
		{"[abc]x", "bx", true},
		{"[abc]x", "dx", false},
		{"[!abc]x", "dx", true},
		{"[a-z]9", "q9", true},
		{"[[:digit:]][[:alpha:]]", "7k", true},
		{"[[:digit:]][[:alpha:]]", "kk", false},
		{`\*`, "*", true},
		{`\*`, "x", false},
		{"a[", "a[", true}, // unmatched bracket is literal
	}
	for _, c := range cases {
		got := matchPattern(c.pat, c.s, matchOpts{})
		assert.Equal(t, c.want, got, "pattern %q against %q", c.pat, c.s)
	}
}

func TestMatchPatternCaseFold(t *testing.T) {
	assert.False(t, matchPattern("abc", "ABC", matchOpts{}))
	assert.True(t, matchPattern("abc", "ABC", matchOpts{foldCase: true}))
	assert.True(t, matchPattern("[a-z]*", "QRS", matchOpts{foldCase: true}))
}

func TestMatchPatternExtglob(t *testing.T) {
	o := matchOpts{extglob: true}
	cases := []struct {
		pat, s string
		want   bool
	}{
		{"@(foo|bar)", "foo", true},
		{"@(foo|bar)", "baz", false},
		{"?(foo)bar", "bar", true},
		{"?(foo)bar", "foobar", true},
		{"?(foo)bar", "foofoobar", false},
		{"*(ab)", "", true},
		{"*(ab)", "abab", true},
		{"*(ab)", "aba", false},
		{"+(ab)", "", false},
		{"+(ab)", "ab", true},
		{"!(foo)", "bar", true},
		{"!(foo)", "foo", false},
		{"!(foo|bar)x", "bazx", true},
	}
	for _, c := range cases {
		got := matchPattern(c.pat, c.s, o)
		assert.Equal(t, c.want, got, "pattern %q against %q", c.pat, c.s)
	}
}

func TestPatPrefixSuffix(t *testing.T) {
	o := matchOpts{}
	// shortest and longest prefix of "aabbcc" matching "a*"
	assert.Equal(t, 1, patPrefixLen("a*", "aabbcc", false, o))
	assert.Equal(t, 6, patPrefixLen("a*", "aabbcc", true, o))
	assert.Equal(t, -1, patPrefixLen("b*", "aabbcc", true, o))
	// suffix
	assert.Equal(t, 5, patSuffixStart("c*", "aabbcc", false, o))
	assert.Equal(t, 4, patSuffixStart("c*", "aabbcc", true, o))
}

func TestPatReplace(t *testing.T) {
	o := matchOpts{}
	assert.Equal(t, "Xabc", patReplace("a", "aabc", "X", false, 0, o))
	assert.Equal(t, "XXbc", patReplace("a", "aabc", "X", true, 0, o))
	assert.Equal(t, "Xbc", patReplace("a*a", "aabc", "X", false, 0, o))
	assert.Equal(t, "Xabc", patReplace("a", "aabc", "X", false, '#', o))
	assert.Equal(t, "aabX", patReplace("c", "aabc", "X", false, '%', o))
}

func TestQuotePatternRoundtrip(t *testing.T) {
	s := "a*b?c[d]"
	quoted := quotePatternChars(s)
	assert.False(t, hasGlobMeta(quoted, true))
	assert.Equal(t, s, unquotePattern(quoted))
	assert.True(t, matchPattern(quoted, s, matchOpts{}))
}
