package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfile = `cwd: /work
env:
  USER: agent
limits:
  max_commands: 500
  timeout_ms: 2000
files:
  - path: /work/hello.txt
    content: "hi\n"
  - path: /work/dir
    dir: true
network:
  allow_hosts:
    - api.example.com
  requests_per_second: 2
`

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfile), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/work", p.Cwd)
	assert.Equal(t, "agent", p.Env["USER"])
	assert.Equal(t, 500, p.Limits.MaxCommands)
	assert.Equal(t, 2000, p.Limits.TimeoutMs)
	require.Len(t, p.Files, 2)
	assert.True(t, p.Files[1].Dir)
	assert.Equal(t, []string{"api.example.com"}, p.Network.AllowHosts)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus_key: true\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsNegativeLimits(t *testing.T) {
	p := &Profile{Limits: Limits{MaxCommands: -1}}
	require.Error(t, p.Validate())
}

func TestValidateRequiresFilePath(t *testing.T) {
	p := &Profile{Files: []FileEntry{{Content: "x"}}}
	require.Error(t, p.Validate())
}
