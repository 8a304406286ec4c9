package interp

import "strings"

// field is a post-split field that still remembers which characters were
// quoted, for pathname expansion.
type field []frag

func (f field) text() string {
	var b strings.Builder
	for _, fr := range f {
		b.WriteString(fr.s)
	}
	return b.String()
}

// fieldSplit splits fragments into fields on the current IFS. Only
// unquoted fragment text is splittable; quoted fragments always stick to
// the current field. Empty IFS disables splitting entirely.
func fieldSplit(frags []frag, ifs string) []field {
	var fields []field
	var cur field
	has := false
	flush := func() {
		fields = append(fields, cur)
		cur = nil
		has = false
	}
	isIFS := func(c byte) bool { return strings.IndexByte(ifs, c) >= 0 }
	isWS := func(c byte) bool { return c == ' ' || c == '\t' || c == '\n' }

	for _, fr := range frags {
		if fr.sep {
			if has {
				flush()
			}
			continue
		}
		if fr.quoted {
			cur = append(cur, fr)
			has = true
			continue
		}
		if ifs == "" {
			if fr.s != "" {
				cur = append(cur, fr)
				has = true
			}
			continue
		}
		s := fr.s
		i := 0
		for i < len(s) {
			c := s[i]
			if !isIFS(c) {
				k := i
				for k < len(s) && !isIFS(s[k]) {
					k++
				}
				cur = append(cur, frag{s: s[i:k]})
				has = true
				i = k
				continue
			}
			// A separator: a run of IFS whitespace, optionally around one
			// non-whitespace IFS character.
			j := i
			sawHard := false
			for j < len(s) && isIFS(s[j]) && isWS(s[j]) {
				j++
			}
			if j < len(s) && isIFS(s[j]) && !isWS(s[j]) {
				sawHard = true
				j++
				for j < len(s) && isIFS(s[j]) && isWS(s[j]) {
					j++
				}
			}
			if sawHard || has {
				flush()
			}
			i = j
		}
	}
	if has {
		flush()
	}
	return fields
}
