// Package vfs is the virtual filesystem the interpreter and the virtual
// utilities run against. The interface mirrors what the executor and the
// command contract consume; MemFS is the standard in-memory implementation.
package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"time"
)

// WriteOpts control WriteFile behavior.
type WriteOpts struct {
	Append    bool
	CreateNew bool
	Mode      os.FileMode
}

// FS is the filesystem adapter consumed by the interpreter core. All paths
// are absolute; callers resolve the working directory first (see Join).
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, opts WriteOpts) error
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	Symlink(target, link string) error
	Readlink(path string) (string, error)
	RealPath(path string) (string, error)
	Mkdir(path string, recursive bool) error
	Remove(path string, recursive, force bool) error
	Chmod(path string, mode os.FileMode) error
	Utimes(path string, mtime time.Time) error
	Exists(path string) bool
	Copy(src, dst string, recursive bool) error
	Rename(src, dst string) error
}

var (
	ErrNotDir   = errors.New("not a directory")
	ErrIsDir    = errors.New("is a directory")
	ErrNotEmpty = errors.New("directory not empty")
	ErrLoop     = errors.New("too many levels of symbolic links")
)

// Join resolves p against cwd and cleans it.
func Join(cwd, p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Clean(path.Join(cwd, p))
}

// ShellMsg maps adapter errors to the conventional shell diagnostics.
func ShellMsg(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fs.ErrNotExist):
		return "No such file or directory"
	case errors.Is(err, fs.ErrPermission):
		return "Permission denied"
	case errors.Is(err, fs.ErrExist):
		return "File exists"
	case errors.Is(err, ErrIsDir):
		return "Is a directory"
	case errors.Is(err, ErrNotDir):
		return "Not a directory"
	case errors.Is(err, ErrNotEmpty):
		return "Directory not empty"
	case errors.Is(err, ErrLoop):
		return "Too many levels of symbolic links"
	default:
		return err.Error()
	}
}
