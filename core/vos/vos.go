// Package vos carries the process context handed to virtual commands: the
// dispatch contract between the executor and a command implementation.
// Commands see argv, buffered stdin, captured output writers, the exported
// environment, the working directory and the shared filesystem — never the
// interpreter state.
package vos

import (
	"io"
	"time"

	"github.com/bish-sh/bish/core/vfs"
	"github.com/bish-sh/bish/core/vnet"
)

// Process is one command invocation.
type Process struct {
	Argv   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
	Env    map[string]string
	FS     vfs.FS
	Net    *vnet.Client
	// Deadline is the invocation's wall-clock bound; zero means none.
	Deadline time.Time
}

// Getenv looks up an exported variable.
func (p *Process) Getenv(key string) string { return p.Env[key] }

// Path resolves arg against the working directory.
func (p *Process) Path(arg string) string { return vfs.Join(p.Dir, arg) }

// CommandFunc is a virtual command entry point; the return value is the
// exit status.
type CommandFunc func(*Process) int

// Registry maps command names to implementations.
type Registry map[string]CommandFunc
