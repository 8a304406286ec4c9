package vfs

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// MemFS is the in-memory filesystem: an afero MemMapFs plus a symlink
// table, since MemMapFs has no native symlinks. Symlinks also exist as
// placeholder files so directory listings include them.
type MemFS struct {
	backend  afero.Fs
	symlinks map[string]string
}

// NewMemFS returns an empty in-memory filesystem with a root directory.
func NewMemFS() *MemFS {
	m := &MemFS{backend: afero.NewMemMapFs(), symlinks: map[string]string{}}
	_ = m.backend.MkdirAll("/", 0o755)
	return m
}

const maxLinkDepth = 40

// resolve follows symlinks in every component; the final component is
// followed only when followLast is set.
func (m *MemFS) resolve(p string, followLast bool) (string, error) {
	p = path.Clean(p)
	if !path.IsAbs(p) {
		p = "/" + p
	}
	resolved := "/"
	comps := strings.Split(strings.TrimPrefix(p, "/"), "/")
	depth := 0
	for i, comp := range comps {
		if comp == "" {
			continue
		}
		cur := path.Join(resolved, comp)
		last := i == len(comps)-1
		for {
			target, ok := m.symlinks[cur]
			if !ok || (last && !followLast) {
				break
			}
			depth++
			if depth > maxLinkDepth {
				return "", &os.PathError{Op: "open", Path: p, Err: ErrLoop}
			}
			if path.IsAbs(target) {
				cur = path.Clean(target)
			} else {
				cur = path.Clean(path.Join(path.Dir(cur), target))
			}
		}
		resolved = cur
	}
	return resolved, nil
}

func (m *MemFS) ReadFile(p string) ([]byte, error) {
	rp, err := m.resolve(p, true)
	if err != nil {
		return nil, err
	}
	fi, err := m.backend.Stat(rp)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, &os.PathError{Op: "read", Path: p, Err: ErrIsDir}
	}
	return afero.ReadFile(m.backend, rp)
}

func (m *MemFS) WriteFile(p string, data []byte, opts WriteOpts) error {
	rp, err := m.resolve(p, true)
	if err != nil {
		return err
	}
	if fi, err := m.backend.Stat(rp); err == nil {
		if fi.IsDir() {
			return &os.PathError{Op: "write", Path: p, Err: ErrIsDir}
		}
		if opts.CreateNew {
			return &os.PathError{Op: "write", Path: p, Err: fs.ErrExist}
		}
	}
	if dir := path.Dir(rp); !m.dirExists(dir) {
		return &os.PathError{Op: "write", Path: p, Err: fs.ErrNotExist}
	}
	mode := opts.Mode
	if mode == 0 {
		mode = 0o644
	}
	if opts.Append {
		old, err := afero.ReadFile(m.backend, rp)
		if err == nil {
			data = append(old, data...)
		}
	}
	return afero.WriteFile(m.backend, rp, data, mode)
}

func (m *MemFS) dirExists(p string) bool {
	fi, err := m.backend.Stat(p)
	return err == nil && fi.IsDir()
}

func (m *MemFS) Stat(p string) (os.FileInfo, error) {
	rp, err := m.resolve(p, true)
	if err != nil {
		return nil, err
	}
	return m.backend.Stat(rp)
}

func (m *MemFS) Lstat(p string) (os.FileInfo, error) {
	rp, err := m.resolve(p, false)
	if err != nil {
		return nil, err
	}
	if target, ok := m.symlinks[rp]; ok {
		return &linkInfo{name: path.Base(rp), target: target}, nil
	}
	return m.backend.Stat(rp)
}

func (m *MemFS) ReadDir(p string) ([]os.FileInfo, error) {
	rp, err := m.resolve(p, true)
	if err != nil {
		return nil, err
	}
	fi, err := m.backend.Stat(rp)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: ErrNotDir}
	}
	infos, err := afero.ReadDir(m.backend, rp)
	if err != nil {
		return nil, err
	}
	out := make([]os.FileInfo, 0, len(infos))
	for _, in := range infos {
		full := path.Join(rp, in.Name())
		if target, ok := m.symlinks[full]; ok {
			out = append(out, &linkInfo{name: in.Name(), target: target})
			continue
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (m *MemFS) Symlink(target, link string) error {
	rp, err := m.resolve(link, false)
	if err != nil {
		return err
	}
	if m.Exists(rp) || m.symlinks[rp] != "" {
		return &os.PathError{Op: "symlink", Path: link, Err: fs.ErrExist}
	}
	if err := afero.WriteFile(m.backend, rp, []byte(target), 0o777); err != nil {
		return err
	}
	m.symlinks[rp] = target
	return nil
}

func (m *MemFS) Readlink(p string) (string, error) {
	rp, err := m.resolve(p, false)
	if err != nil {
		return "", err
	}
	if target, ok := m.symlinks[rp]; ok {
		return target, nil
	}
	return "", &os.PathError{Op: "readlink", Path: p, Err: fs.ErrInvalid}
}

func (m *MemFS) RealPath(p string) (string, error) {
	rp, err := m.resolve(p, true)
	if err != nil {
		return "", err
	}
	if _, err := m.backend.Stat(rp); err != nil {
		return "", err
	}
	return rp, nil
}

func (m *MemFS) Mkdir(p string, recursive bool) error {
	rp, err := m.resolve(p, true)
	if err != nil {
		return err
	}
	if recursive {
		return m.backend.MkdirAll(rp, 0o755)
	}
	if m.Exists(rp) {
		return &os.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	if !m.dirExists(path.Dir(rp)) {
		return &os.PathError{Op: "mkdir", Path: p, Err: fs.ErrNotExist}
	}
	return m.backend.Mkdir(rp, 0o755)
}

func (m *MemFS) Remove(p string, recursive, force bool) error {
	rp, err := m.resolve(p, false)
	if err != nil {
		return err
	}
	fi, statErr := m.Lstat(rp)
	if statErr != nil {
		if force {
			return nil
		}
		return statErr
	}
	if fi.IsDir() && !recursive {
		entries, _ := m.ReadDir(rp)
		if len(entries) > 0 {
			return &os.PathError{Op: "remove", Path: p, Err: ErrNotEmpty}
		}
		return m.backend.Remove(rp)
	}
	if recursive {
		m.dropLinksUnder(rp)
		return m.backend.RemoveAll(rp)
	}
	delete(m.symlinks, rp)
	return m.backend.Remove(rp)
}

func (m *MemFS) dropLinksUnder(prefix string) {
	for k := range m.symlinks {
		if k == prefix || strings.HasPrefix(k, prefix+"/") {
			delete(m.symlinks, k)
		}
	}
}

func (m *MemFS) Chmod(p string, mode os.FileMode) error {
	rp, err := m.resolve(p, true)
	if err != nil {
		return err
	}
	return m.backend.Chmod(rp, mode)
}

func (m *MemFS) Utimes(p string, mtime time.Time) error {
	rp, err := m.resolve(p, true)
	if err != nil {
		return err
	}
	return m.backend.Chtimes(rp, mtime, mtime)
}

func (m *MemFS) Exists(p string) bool {
	rp, err := m.resolve(p, true)
	if err != nil {
		return false
	}
	_, err = m.backend.Stat(rp)
	return err == nil
}

func (m *MemFS) Copy(src, dst string, recursive bool) error {
	sfi, err := m.Stat(src)
	if err != nil {
		return err
	}
	if sfi.IsDir() {
		if !recursive {
			return &os.PathError{Op: "copy", Path: src, Err: ErrIsDir}
		}
		if dfi, err := m.Stat(dst); err == nil && dfi.IsDir() {
			dst = path.Join(dst, path.Base(src))
		}
		if err := m.Mkdir(dst, true); err != nil {
			return err
		}
		entries, err := m.ReadDir(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := m.Copy(path.Join(src, e.Name()), path.Join(dst, e.Name()), true); err != nil {
				return err
			}
		}
		return nil
	}
	data, err := m.ReadFile(src)
	if err != nil {
		return err
	}
	if dfi, err := m.Stat(dst); err == nil && dfi.IsDir() {
		dst = path.Join(dst, path.Base(src))
	}
	return m.WriteFile(dst, data, WriteOpts{Mode: sfi.Mode().Perm()})
}

func (m *MemFS) Rename(src, dst string) error {
	rs, err := m.resolve(src, false)
	if err != nil {
		return err
	}
	rd, err := m.resolve(dst, true)
	if err != nil {
		return err
	}
	if dfi, err := m.Stat(rd); err == nil && dfi.IsDir() {
		rd = path.Join(rd, path.Base(rs))
	}
	if target, ok := m.symlinks[rs]; ok {
		delete(m.symlinks, rs)
		m.symlinks[rd] = target
	}
	return m.backend.Rename(rs, rd)
}

// linkInfo is the Lstat view of a symlink.
type linkInfo struct {
	name   string
	target string
}

func (l *linkInfo) Name() string       { return l.name }
func (l *linkInfo) Size() int64        { return int64(len(l.target)) }
func (l *linkInfo) Mode() os.FileMode  { return os.ModeSymlink | 0o777 }
func (l *linkInfo) ModTime() time.Time { return time.Time{} }
func (l *linkInfo) IsDir() bool        { return false }
func (l *linkInfo) Sys() interface{}   { return nil }
