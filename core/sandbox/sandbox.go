// Package sandbox is the embedding surface: it assembles a filesystem, a
// command registry, limits and an optional network adapter, and runs
// scripts against them. The interpreter itself persists nothing between
// invocations; the filesystem carries all state.
package sandbox

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/bish-sh/bish/commands"
	"github.com/bish-sh/bish/core/config"
	"github.com/bish-sh/bish/core/interp"
	"github.com/bish-sh/bish/core/vfs"
	"github.com/bish-sh/bish/core/vnet"
	"github.com/bish-sh/bish/core/vos"
)

// Options configure a sandbox.
type Options struct {
	Cwd      string
	Env      map[string]string
	Limits   interp.Limits
	FS       vfs.FS
	Commands vos.Registry
	Net      *vnet.Client
	// Name is reported as $0; defaults to "bish".
	Name string
}

// Result mirrors the interpreter result.
type Result = interp.Result

// Sandbox runs scripts against one filesystem. Runs share the filesystem;
// variables and options do not leak between runs.
type Sandbox struct {
	opts Options
}

// New builds a sandbox, filling defaults: in-memory filesystem, the full
// command registry, standard limits and no network.
func New(opts Options) *Sandbox {
	if opts.FS == nil {
		opts.FS = vfs.NewMemFS()
	}
	if opts.Commands == nil {
		opts.Commands = commands.Registry()
	}
	if opts.Limits.MaxCallDepth == 0 {
		opts.Limits = interp.DefaultLimits()
	}
	if opts.Cwd == "" {
		opts.Cwd = "/root"
	}
	_ = opts.FS.Mkdir(opts.Cwd, true)
	_ = opts.FS.Mkdir("/tmp", true)
	return &Sandbox{opts: opts}
}

// FromProfile builds a sandbox from a loaded profile.
func FromProfile(p *config.Profile) (*Sandbox, error) {
	fs := vfs.NewMemFS()
	for _, f := range p.Files {
		fp := f.Path
		if !path.IsAbs(fp) {
			fp = "/" + fp
		}
		if f.Dir {
			if err := fs.Mkdir(fp, true); err != nil {
				return nil, err
			}
			continue
		}
		if err := fs.Mkdir(path.Dir(fp), true); err != nil {
			return nil, err
		}
		mode := os.FileMode(f.Mode)
		if mode == 0 {
			mode = 0o644
		}
		if err := fs.WriteFile(fp, []byte(f.Content), vfs.WriteOpts{Mode: mode}); err != nil {
			return nil, err
		}
	}
	limits := interp.Limits{
		MaxCallDepth: p.Limits.MaxCallDepth,
		MaxCommands:  p.Limits.MaxCommands,
		MaxLoopIter:  p.Limits.MaxLoopIter,
	}
	if limits.MaxCallDepth == 0 {
		limits.MaxCallDepth = interp.DefaultLimits().MaxCallDepth
	}
	if limits.MaxCommands == 0 {
		limits.MaxCommands = interp.DefaultLimits().MaxCommands
	}
	if limits.MaxLoopIter == 0 {
		limits.MaxLoopIter = interp.DefaultLimits().MaxLoopIter
	}
	if p.Limits.TimeoutMs > 0 {
		limits.Deadline = time.Now().Add(time.Duration(p.Limits.TimeoutMs) * time.Millisecond)
	}
	var net *vnet.Client
	if len(p.Network.AllowHosts) > 0 {
		net = vnet.New(p.Network.AllowHosts, p.Network.RequestsPerSecond)
	}
	return New(Options{
		Cwd:    p.Cwd,
		Env:    p.Env,
		Limits: limits,
		FS:     fs,
		Net:    net,
	}), nil
}

// FS exposes the sandbox filesystem for seeding and inspection.
func (s *Sandbox) FS() vfs.FS { return s.opts.FS }

// Run executes a script to completion.
func (s *Sandbox) Run(ctx context.Context, script string) Result {
	return s.RunArgs(ctx, script, nil)
}

// RunArgs executes a script with positional parameters.
func (s *Sandbox) RunArgs(ctx context.Context, script string, args []string) Result {
	return interp.Run(ctx, script, interp.RunOptions{
		Cwd:      s.opts.Cwd,
		Env:      s.opts.Env,
		Limits:   s.opts.Limits,
		FS:       s.opts.FS,
		Commands: s.opts.Commands,
		Net:      s.opts.Net,
		Name:     s.opts.Name,
		Args:     args,
	})
}
