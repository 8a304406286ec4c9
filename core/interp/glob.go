package interp

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// globField performs pathname expansion on one field. Quoted fragments
// contribute escaped (literal) text to the pattern; when the field has no
// unescaped pattern syntax, or globbing is off, the field passes through.
func (x *Interp) globField(f field) ([]string, error) {
	var pat strings.Builder
	for _, fr := range f {
		if fr.quoted {
			pat.WriteString(quotePatternChars(fr.s))
		} else {
			pat.WriteString(fr.s)
		}
	}
	pattern := pat.String()
	if x.st.opts.NoGlob || !hasGlobMeta(pattern, x.st.opts.ExtGlob) {
		return []string{f.text()}, nil
	}
	matches := x.globMatches(pattern)
	if len(matches) > 0 {
		sort.Strings(matches)
		return matches, nil
	}
	if x.st.opts.FailGlob {
		return nil, &expandError{code: 1, msg: fmt.Sprintf("no match: %s", f.text())}
	}
	if x.st.opts.NullGlob {
		return nil, nil
	}
	return []string{f.text()}, nil
}

// globMatches expands pattern against the filesystem, returning display
// paths (relative patterns yield relative paths).
func (x *Interp) globMatches(pattern string) []string {
	segs := strings.Split(pattern, "/")
	base := x.st.cwd
	display := ""
	if segs[0] == "" { // absolute
		base = "/"
		display = "/"
		segs = segs[1:]
		for len(segs) > 0 && segs[0] == "" {
			segs = segs[1:]
		}
	}
	var out []string
	x.globWalk(base, display, segs, &out)
	return out
}

func (x *Interp) globWalk(dir, display string, segs []string, out *[]string) {
	if len(segs) == 0 {
		*out = append(*out, strings.TrimSuffix(display, "/"))
		return
	}
	seg := segs[0]
	rest := segs[1:]
	if seg == "" {
		// trailing slash: keep only directories
		if fi, err := x.fs.Stat(dir); err == nil && fi.IsDir() {
			*out = append(*out, display)
		}
		return
	}
	if x.st.opts.GlobStar && seg == "**" {
		// zero depth
		x.globWalk(dir, display, rest, out)
		if len(rest) == 0 {
			// `**` alone also matches files at every depth
			x.globStarAll(dir, display, out)
			return
		}
		x.globStarDirs(dir, display, rest, out)
		return
	}
	if !hasGlobMeta(seg, x.st.opts.ExtGlob) {
		name := unquotePattern(seg)
		next := path.Join(dir, name)
		if len(rest) == 0 {
			if x.fs.Exists(next) {
				*out = append(*out, joinDisplay(display, name))
			}
			return
		}
		x.globWalk(next, joinDisplay(display, name), rest, out)
		return
	}
	entries, err := x.fs.ReadDir(dir)
	if err != nil {
		return
	}
	o := matchOpts{extglob: x.st.opts.ExtGlob, foldCase: x.st.opts.NoCaseMatch}
	for _, e := range entries {
		name := e.Name()
		if !x.globNameVisible(name, seg) {
			continue
		}
		if !matchPattern(seg, name, o) {
			continue
		}
		if len(rest) == 0 {
			*out = append(*out, joinDisplay(display, name))
			continue
		}
		x.globWalk(path.Join(dir, name), joinDisplay(display, name), rest, out)
	}
}

// globNameVisible applies dotglob/globskipdots rules.
func (x *Interp) globNameVisible(name, seg string) bool {
	if name == "." || name == ".." {
		return !x.st.opts.GlobSkipDots && strings.HasPrefix(seg, ".")
	}
	if strings.HasPrefix(name, ".") {
		return x.st.opts.DotGlob || strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, `\.`)
	}
	return true
}

// globStarAll collects every file and directory below dir.
func (x *Interp) globStarAll(dir, display string, out *[]string) {
	entries, err := x.fs.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		if strings.HasPrefix(name, ".") && !x.st.opts.DotGlob {
			continue
		}
		d := joinDisplay(display, name)
		*out = append(*out, d)
		if e.IsDir() {
			x.globStarAll(path.Join(dir, name), d, out)
		}
	}
}

// globStarDirs recurses into every subdirectory for `**` followed by more
// segments.
func (x *Interp) globStarDirs(dir, display string, rest []string, out *[]string) {
	entries, err := x.fs.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == "." || name == ".." {
			continue
		}
		if strings.HasPrefix(name, ".") && !x.st.opts.DotGlob {
			continue
		}
		d := joinDisplay(display, name)
		x.globWalk(path.Join(dir, name), d, rest, out)
		x.globStarDirs(path.Join(dir, name), d, rest, out)
	}
}

func joinDisplay(display, name string) string {
	if display == "" {
		return name
	}
	if strings.HasSuffix(display, "/") {
		return display + name
	}
	return display + "/" + name
}
