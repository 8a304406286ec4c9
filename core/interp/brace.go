package interp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// braceExpand performs brace expansion over a word's parts, returning one
// part list per result word. Unbalanced or quoted braces stay literal.
func braceExpand(parts []WordPart) [][]WordPart {
	for pi, p := range parts {
		if p.Kind != LitPart || p.Quoted {
			continue
		}
		for ci := 0; ci < len(p.Text); ci++ {
			if p.Text[ci] != '{' {
				continue
			}
			if alts, ok := expandBraceAt(parts, pi, ci); ok {
				var out [][]WordPart
				for _, alt := range alts {
					out = append(out, braceExpand(alt)...)
				}
				return out
			}
		}
	}
	return [][]WordPart{parts}
}

// expandBraceAt tries to expand the brace group opening at parts[pi].Text[ci].
func expandBraceAt(parts []WordPart, pi, ci int) ([][]WordPart, bool) {
	type cursor struct{ part, off int }
	depth := 1
	var items [][]WordPart
	var cur []WordPart
	var curLit strings.Builder
	sawComma := false

	flushLit := func() {
		if curLit.Len() > 0 {
			cur = append(cur, WordPart{Kind: LitPart, Text: curLit.String()})
			curLit.Reset()
		}
	}
	endItem := func() {
		flushLit()
		items = append(items, cur)
		cur = nil
	}

	p, off := pi, ci+1
	var close cursor
	for {
		if p >= len(parts) {
			return nil, false // unbalanced
		}
		wp := parts[p]
		if wp.Kind != LitPart || wp.Quoted {
			if p == pi {
				// impossible: pi is a literal
				return nil, false
			}
			flushLit()
			cur = append(cur, wp)
			p++
			off = 0
			continue
		}
		text := wp.Text
		i := off
		for i < len(text) {
			c := text[i]
			switch c {
			case '{':
				depth++
				curLit.WriteByte(c)
			case '}':
				depth--
				if depth == 0 {
					close = cursor{p, i}
					goto done
				}
				curLit.WriteByte(c)
			case ',':
				if depth == 1 {
					sawComma = true
					endItem()
				} else {
					curLit.WriteByte(c)
				}
			default:
				curLit.WriteByte(c)
			}
			i++
		}
		p++
		off = 0
	}
done:
	endItem()

	if !sawComma {
		// Maybe a {x..y[..z]} range; it must be a single literal item.
		if len(items) == 1 && len(items[0]) == 1 && items[0][0].Kind == LitPart {
			if words := braceRange(items[0][0].Text); words != nil {
				var alts [][]WordPart
				for _, wtext := range words {
					alts = append(alts, spliceBrace(parts, pi, ci, close.part, close.off,
						[]WordPart{{Kind: LitPart, Text: wtext}}))
				}
				return alts, true
			}
		}
		return nil, false // {single} is literal
	}

	var alts [][]WordPart
	for _, item := range items {
		alts = append(alts, spliceBrace(parts, pi, ci, close.part, close.off, item))
	}
	return alts, true
}

// spliceBrace builds prefix + item + suffix around the brace group spanning
// (openPart,openOff) .. (closePart,closeOff).
func spliceBrace(parts []WordPart, openPart, openOff, closePart, closeOff int, item []WordPart) []WordPart {
	var out []WordPart
	out = append(out, parts[:openPart]...)
	if pre := parts[openPart].Text[:openOff]; pre != "" {
		out = append(out, WordPart{Kind: LitPart, Text: pre, Pos: parts[openPart].Pos})
	}
	out = append(out, item...)
	if post := parts[closePart].Text[closeOff+1:]; post != "" {
		out = append(out, WordPart{Kind: LitPart, Text: post, Pos: parts[closePart].Pos})
	}
	out = append(out, parts[closePart+1:]...)
	return out
}

var (
	numRangeRe   = regexp.MustCompile(`^(-?\d+)\.\.(-?\d+)(?:\.\.(-?\d+))?$`)
	alphaRangeRe = regexp.MustCompile(`^([a-zA-Z])\.\.([a-zA-Z])(?:\.\.(-?\d+))?$`)
)

// braceRange expands {1..5}, {a..e}, {01..10} and stepped variants; nil
// when text is not a range.
func braceRange(text string) []string {
	if m := numRangeRe.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.ParseInt(m[1], 10, 64)
		hi, _ := strconv.ParseInt(m[2], 10, 64)
		step := int64(1)
		if m[3] != "" {
			step, _ = strconv.ParseInt(m[3], 10, 64)
		}
		if step == 0 {
			step = 1
		}
		if step < 0 {
			step = -step
		}
		width := 0
		if padded(m[1]) || padded(m[2]) {
			if len(m[1]) > width {
				width = len(m[1])
			}
			if len(m[2]) > width {
				width = len(m[2])
			}
		}
		var out []string
		emit := func(n int64) {
			if width > 0 {
				out = append(out, fmt.Sprintf("%0*d", width, n))
			} else {
				out = append(out, strconv.FormatInt(n, 10))
			}
		}
		if lo <= hi {
			for n := lo; n <= hi; n += step {
				emit(n)
			}
		} else {
			for n := lo; n >= hi; n -= step {
				emit(n)
			}
		}
		return out
	}
	if m := alphaRangeRe.FindStringSubmatch(text); m != nil {
		lo, hi := rune(m[1][0]), rune(m[2][0])
		step := 1
		if m[3] != "" {
			if n, err := strconv.Atoi(m[3]); err == nil && n != 0 {
				step = n
			}
		}
		if step < 0 {
			step = -step
		}
		var out []string
		if lo <= hi {
			for c := lo; c <= hi; c += rune(step) {
				out = append(out, string(c))
			}
		} else {
			for c := lo; c >= hi; c -= rune(step) {
				out = append(out, string(c))
			}
		}
		return out
	}
	return nil
}

func padded(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return len(s) > 1 && s[0] == '0'
}
