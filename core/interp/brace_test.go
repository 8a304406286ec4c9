package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func expandBraceText(t *testing.T, text string) []string {
	t.Helper()
	parts := []WordPart{{Kind: LitPart, Text: text}}
	var out []string
	for _, variant := range braceExpand(parts) {
		s := ""
		for _, p := range variant {
			s += p.Text
		}
		out = append(out, s)
	}
	return out
}

func TestBraceAlternation(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, expandBraceText(t, "{a,b,c}"))
	assert.Equal(t, []string{"xay", "xby"}, expandBraceText(t, "x{a,b}y"))
	assert.Equal(t, []string{"ac", "ad", "bc", "bd"}, expandBraceText(t, "{a,b}{c,d}"))
}

func TestBraceNested(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, expandBraceText(t, "{a,{b,c}}"))
}

func TestBraceEmptyAlternative(t *testing.T) {
	assert.Equal(t, []string{"ac", "abc"}, expandBraceText(t, "a{,b}c"))
}

func TestBraceNumericRange(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, expandBraceText(t, "{1..3}"))
	assert.Equal(t, []string{"3", "2", "1"}, expandBraceText(t, "{3..1}"))
	assert.Equal(t, []string{"0", "2", "4"}, expandBraceText(t, "{0..4..2}"))
	assert.Equal(t, []string{"01", "02", "03"}, expandBraceText(t, "{01..03}"))
}

func TestBraceAlphaRange(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, expandBraceText(t, "{a..c}"))
}

func TestBraceUnbalancedIsLiteral(t *testing.T) {
	assert.Equal(t, []string{"{a,b"}, expandBraceText(t, "{a,b"))
	assert.Equal(t, []string{"{abc}"}, expandBraceText(t, "{abc}"))
	assert.Equal(t, []string{"a}b"}, expandBraceText(t, "a}b"))
}
