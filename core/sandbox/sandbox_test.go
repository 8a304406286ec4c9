package sandbox

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bish-sh/bish/core/config"
)

func TestRunBasics(t *testing.T) {
	sb := New(Options{})
	res := sb.Run(context.Background(), `echo hello`)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestFilesystemPersistsAcrossRuns(t *testing.T) {
	sb := New(Options{})
	res := sb.Run(context.Background(), `echo persisted > /tmp/state.txt`)
	require.Equal(t, 0, res.ExitCode)
	res = sb.Run(context.Background(), `cat /tmp/state.txt`)
	assert.Equal(t, "persisted\n", res.Stdout)
}

func TestVariablesDoNotPersistAcrossRuns(t *testing.T) {
	sb := New(Options{})
	sb.Run(context.Background(), `x=1`)
	res := sb.Run(context.Background(), `echo "${x-gone}"`)
	assert.Equal(t, "gone\n", res.Stdout)
}

func TestEnvSeed(t *testing.T) {
	sb := New(Options{Env: map[string]string{"GREETING": "hi"}})
	res := sb.Run(context.Background(), `echo "$GREETING"; env | grep GREETING`)
	assert.Equal(t, "hi\nGREETING=hi\n", res.Stdout)
}

func TestFromProfile(t *testing.T) {
	sb, err := FromProfile(&config.Profile{
		Cwd: "/work",
		Env: map[string]string{"NAME": "prof"},
		Files: []config.FileEntry{
			{Path: "/work/in.txt", Content: "seeded\n"},
			{Path: "/work/sub", Dir: true},
		},
	})
	require.NoError(t, err)
	res := sb.Run(context.Background(), `pwd; cat in.txt; echo "$NAME"`)
	assert.Equal(t, "/work\nseeded\nprof\n", res.Stdout)
}

func TestRunArgs(t *testing.T) {
	sb := New(Options{Name: "script.sh"})
	res := sb.RunArgs(context.Background(), `echo "$0 got $1 and $2"`, []string{"a", "b"})
	assert.Equal(t, "script.sh got a and b\n", res.Stdout)
}

func TestGoldenWordcount(t *testing.T) {
	sb := New(Options{})
	res := sb.Run(context.Background(), `
printf 'apple\nbanana\napple\ncherry\n' > fruits.txt
sort fruits.txt | uniq -c
rm fruits.txt
`)
	require.Equal(t, 0, res.ExitCode)
	require.Empty(t, res.Stderr)
	g := goldie.New(t)
	g.Assert(t, "wordcount", []byte(res.Stdout))
}

func TestGoldenControlFlow(t *testing.T) {
	sb := New(Options{})
	res := sb.Run(context.Background(), `
greet() { echo "hello, $1"; }
for name in ada grace alan; do greet "$name"; done
x=10
if (( x > 5 )); then echo big; else echo small; fi
case big in b*) echo "starts with b";; esac
i=0
while (( i < 3 )); do printf 'tick %d\n' "$i"; i=$((i+1)); done
`)
	require.Equal(t, 0, res.ExitCode)
	require.Empty(t, res.Stderr)
	g := goldie.New(t)
	g.Assert(t, "control_flow", []byte(res.Stdout))
}
