package interp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bish-sh/bish/commands"
	"github.com/bish-sh/bish/core/interp"
	"github.com/bish-sh/bish/core/vfs"
)

func run(t *testing.T, script string) interp.Result {
	t.Helper()
	return runFS(t, script, vfs.NewMemFS())
}

func runFS(t *testing.T, script string, fs vfs.FS) interp.Result {
	t.Helper()
	return interp.Run(context.Background(), script, interp.RunOptions{
		Cwd:      "/",
		FS:       fs,
		Commands: commands.Registry(),
	})
}

func TestExpansionAndSplitting(t *testing.T) {
	res := run(t, `x="a b c"; for w in $x; do echo "[$w]"; done`)
	assert.Equal(t, "[a]\n[b]\n[c]\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestQuotingPreservesOneArg(t *testing.T) {
	res := run(t, `x="a b c"; for w in "$x"; do echo "[$w]"; done`)
	assert.Equal(t, "[a b c]\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestPipefail(t *testing.T) {
	res := run(t, `set -o pipefail; false | true; echo $?`)
	assert.Equal(t, "1\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)

	res = run(t, `false | true; echo $?`)
	assert.Equal(t, "0\n", res.Stdout)
}

func TestErrexitForgivenPosition(t *testing.T) {
	res := run(t, `set -e; if false; then echo x; fi; echo ok`)
	assert.Equal(t, "ok\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestErrexitTerminates(t *testing.T) {
	res := run(t, "set -e\nfalse\necho unreachable")
	assert.Equal(t, "", res.Stdout)
	assert.Equal(t, 1, res.ExitCode)
}

func TestErrexitShortCircuitPositions(t *testing.T) {
	res := run(t, "set -e\nfalse || echo rescued\n! false\necho done")
	assert.Equal(t, "rescued\ndone\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestSubshellIsolation(t *testing.T) {
	res := run(t, `x=1; ( x=2; echo inner $x ); echo outer $x`)
	assert.Equal(t, "inner 2\nouter 1\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)

	res = run(t, `(X=1); echo "${X-unset}"`)
	assert.Equal(t, "unset\n", res.Stdout)
}

func TestArithmeticAndArrays(t *testing.T) {
	res := run(t, `a=(10 20 30); echo $((a[0]+a[2])); echo ${#a[@]}`)
	assert.Equal(t, "40\n3\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestPipelineDeterminism(t *testing.T) {
	script := `for i in 1 2 3; do echo "line $i"; done | grep 2 | wc -l`
	first := run(t, script)
	second := run(t, script)
	assert.Equal(t, first, second)
	assert.Equal(t, "1\n", first.Stdout)
}

func TestFunctionScope(t *testing.T) {
	res := run(t, `x=outer
f() { local x=inner; echo "in:$x"; }
f
echo "out:$x"`)
	assert.Equal(t, "in:inner\nout:outer\n", res.Stdout)
}

func TestFunctionReturnAndArgs(t *testing.T) {
	res := run(t, `f() { echo "$1-$2"; return 3; }; f a b; echo $?`)
	assert.Equal(t, "a-b\n3\n", res.Stdout)
}

func TestFunctionRecursionLimit(t *testing.T) {
	res := interp.Run(context.Background(), `f() { f; }; f`, interp.RunOptions{
		FS:       vfs.NewMemFS(),
		Commands: commands.Registry(),
		Limits: interp.Limits{
			MaxCallDepth: 10,
			MaxCommands:  100000,
			MaxLoopIter:  1000,
		},
	})
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, res.Stderr, "recursion depth")
}

func TestLoopIterationLimit(t *testing.T) {
	res := interp.Run(context.Background(), `while true; do :; done`, interp.RunOptions{
		FS:       vfs.NewMemFS(),
		Commands: commands.Registry(),
		Limits: interp.Limits{
			MaxCallDepth: 10,
			MaxCommands:  1000000,
			MaxLoopIter:  50,
		},
	})
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, res.Stderr, "loop iterations")
}

func TestCommandCountLimit(t *testing.T) {
	res := interp.Run(context.Background(), `while :; do :; done`, interp.RunOptions{
		FS:       vfs.NewMemFS(),
		Commands: commands.Registry(),
		Limits: interp.Limits{
			MaxCallDepth: 10,
			MaxCommands:  25,
			MaxLoopIter:  1000000,
		},
	})
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, res.Stderr, "commands")
}

func TestTimeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	res := interp.Run(ctx, `echo hi`, interp.RunOptions{
		FS:       vfs.NewMemFS(),
		Commands: commands.Registry(),
	})
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, res.Stderr, "timed out")
}

func TestExitStatusWraps(t *testing.T) {
	res := run(t, `exit 257`)
	assert.Equal(t, 1, res.ExitCode)
	res = run(t, `exit 256`)
	assert.Equal(t, 0, res.ExitCode)
}

func TestCommandNotFound(t *testing.T) {
	res := run(t, `definitely_not_a_command`)
	assert.Equal(t, 127, res.ExitCode)
	assert.Contains(t, res.Stderr, "command not found")
}

func TestCaseTerminators(t *testing.T) {
	res := run(t, `case b in
a) echo A;;
b) echo B;&
c) echo C;;
d) echo D;;
esac`)
	assert.Equal(t, "B\nC\n", res.Stdout)

	res = run(t, `case ab in
a*) echo first;;&
*b) echo second;;
esac`)
	assert.Equal(t, "first\nsecond\n", res.Stdout)
}

func TestWhileReadLoop(t *testing.T) {
	fs := vfs.NewMemFS()
	require.NoError(t, fs.WriteFile("/data.txt", []byte("one\ntwo\nthree\n"), vfs.WriteOpts{}))
	res := runFS(t, `while read line; do echo "got:$line"; done < /data.txt`, fs)
	assert.Equal(t, "got:one\ngot:two\ngot:three\n", res.Stdout)
}

func TestHeredoc(t *testing.T) {
	res := run(t, `name=world
cat <<EOF
hello $name
EOF`)
	assert.Equal(t, "hello world\n", res.Stdout)

	res = run(t, `name=world
cat <<'EOF'
hello $name
EOF`)
	assert.Equal(t, "hello $name\n", res.Stdout)
}

func TestHerestring(t *testing.T) {
	res := run(t, `read x y <<< "a b"; echo "$y"`)
	assert.Equal(t, "b\n", res.Stdout)
}

func TestRedirections(t *testing.T) {
	fs := vfs.NewMemFS()
	res := runFS(t, `echo one > f.txt; echo two >> f.txt; cat f.txt`, fs)
	assert.Equal(t, "one\ntwo\n", res.Stdout)

	res = runFS(t, `echo oops >&2`, fs)
	assert.Equal(t, "", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)

	res = runFS(t, `{ echo out; echo err >&2; } 2>&1`, fs)
	assert.Equal(t, "out\nerr\n", res.Stdout)
}

func TestNoclobber(t *testing.T) {
	fs := vfs.NewMemFS()
	res := runFS(t, `set -C; echo a > f; echo b > f; echo $?; echo c >| f; cat f`, fs)
	assert.Contains(t, res.Stderr, "cannot overwrite")
	assert.Equal(t, "1\nc\n", res.Stdout)
}

func TestCommandSubstitution(t *testing.T) {
	res := run(t, `x=$(echo hi); echo "got $x"`)
	assert.Equal(t, "got hi\n", res.Stdout)

	res = run(t, "echo `echo back`")
	assert.Equal(t, "back\n", res.Stdout)

	res = run(t, `x=$(false); echo $?`)
	assert.Equal(t, "1\n", res.Stdout)
}

func TestGlobbing(t *testing.T) {
	fs := vfs.NewMemFS()
	for _, f := range []string{"/a.txt", "/b.txt", "/c.log", "/.hidden.txt"} {
		require.NoError(t, fs.WriteFile(f, nil, vfs.WriteOpts{}))
	}
	res := runFS(t, `echo *.txt`, fs)
	assert.Equal(t, "a.txt b.txt\n", res.Stdout)

	res = runFS(t, `shopt -s dotglob; echo *.txt`, fs)
	assert.Equal(t, ".hidden.txt a.txt b.txt\n", res.Stdout)

	res = runFS(t, `echo *.missing`, fs)
	assert.Equal(t, "*.missing\n", res.Stdout)

	res = runFS(t, `shopt -s nullglob; echo x *.missing y`, fs)
	assert.Equal(t, "x y\n", res.Stdout)

	res = runFS(t, `shopt -s failglob; echo *.missing; echo after`, fs)
	assert.NotEqual(t, "", res.Stderr)
}

func TestGlobSorted(t *testing.T) {
	fs := vfs.NewMemFS()
	for _, f := range []string{"/z", "/m", "/a"} {
		require.NoError(t, fs.WriteFile(f, nil, vfs.WriteOpts{}))
	}
	res := runFS(t, `echo *`, fs)
	assert.Equal(t, "a m z\n", res.Stdout)
}

func TestParamDefaults(t *testing.T) {
	res := run(t, `echo "${x:-fallback}"; echo "${x-absent}"; x=""; echo "${x:-empty}"; echo "[${x-set}]"`)
	assert.Equal(t, "fallback\nabsent\nempty\n[]\n", res.Stdout)
}

func TestParamAssignDefault(t *testing.T) {
	res := run(t, `echo "${x:=v}"; echo "$x"`)
	assert.Equal(t, "v\nv\n", res.Stdout)
}

func TestParamAlternative(t *testing.T) {
	res := run(t, `x=1; echo "[${x:+yes}]"; echo "[${y:+yes}]"`)
	assert.Equal(t, "[yes]\n[]\n", res.Stdout)
}

func TestParamErrorOp(t *testing.T) {
	res := run(t, `echo "${x:?is required}"; echo unreached`)
	assert.Contains(t, res.Stderr, "is required")
	assert.NotContains(t, res.Stdout, "unreached")
}

func TestParamPatternOps(t *testing.T) {
	res := run(t, `x=aabbcc
echo "${x#a}"
echo "${x##*b}"
echo "${x%c}"
echo "${x%%c*}"
echo "${x/bb/XX}"
echo "${x//c/Z}"`)
	assert.Equal(t, "abbcc\ncc\naabbc\naabb\naaXXcc\naabbZZ\n", res.Stdout)
}

func TestParamCaseOps(t *testing.T) {
	res := run(t, `x=hello; echo "${x^}"; echo "${x^^}"; y=WORLD; echo "${y,}"; echo "${y,,}"`)
	assert.Equal(t, "Hello\nHELLO\nwORLD\nworld\n", res.Stdout)
}

func TestParamSubstring(t *testing.T) {
	res := run(t, `x=abcdef; echo "${x:1:3}"; echo "${x: -2}"; echo "${x:2}"`)
	assert.Equal(t, "bcd\nef\ncdef\n", res.Stdout)
}

func TestParamLengthAndIndirection(t *testing.T) {
	res := run(t, `x=hello; echo "${#x}"; ptr=x; echo "${!ptr}"`)
	assert.Equal(t, "5\nhello\n", res.Stdout)
}

func TestParamTransforms(t *testing.T) {
	res := run(t, `x="it's"; echo "${x@Q}"; y=abc; echo "${y@U}"`)
	assert.Equal(t, "'it'\\''s'\nABC\n", res.Stdout)
}

func TestBadSubstitution(t *testing.T) {
	res := run(t, `x=abc; echo "${x@Z}"; echo after`)
	assert.Contains(t, res.Stderr, "bad substitution")
}

func TestNounset(t *testing.T) {
	res := run(t, `set -u; echo "$MISSING"; echo after`)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stderr, "unbound variable")
	assert.NotContains(t, res.Stdout, "after")

	res = run(t, `set -u; echo "[${MISSING-}]"; echo after`)
	assert.Equal(t, "[]\nafter\n", res.Stdout)
}

func TestPositionalParams(t *testing.T) {
	res := interp.Run(context.Background(), `echo "$#"; echo "$1"; shift; echo "$1"; echo "$@"`, interp.RunOptions{
		FS:       vfs.NewMemFS(),
		Commands: commands.Registry(),
		Args:     []string{"one", "two", "three"},
	})
	assert.Equal(t, "3\none\ntwo\ntwo three\n", res.Stdout)
}

func TestDollarAtQuoted(t *testing.T) {
	res := interp.Run(context.Background(), `for a in "$@"; do echo "[$a]"; done`, interp.RunOptions{
		FS:       vfs.NewMemFS(),
		Commands: commands.Registry(),
		Args:     []string{"a b", "c"},
	})
	assert.Equal(t, "[a b]\n[c]\n", res.Stdout)
}

func TestArrays(t *testing.T) {
	res := run(t, `a=(x y z)
echo "${a[1]}"
a[3]=w
echo "${a[@]}"
echo "${!a[@]}"
a+=(v)
echo "${#a[@]}"
unset 'a[1]'
echo "${a[@]}"`)
	assert.Equal(t, "y\nx y z w\n0 1 2 3\n5\nx z w v\n", res.Stdout)
}

func TestAssocArrays(t *testing.T) {
	res := run(t, `declare -A m
m[one]=1
m[two]=2
echo "${m[one]}"
echo "${#m[@]}"
m=([a]=x [b]=y)
echo "${m[b]}"`)
	assert.Equal(t, "1\n2\ny\n", res.Stdout)
}

func TestCStyleFor(t *testing.T) {
	res := run(t, `for ((i=0; i<3; i++)); do echo "i=$i"; done`)
	assert.Equal(t, "i=0\ni=1\ni=2\n", res.Stdout)
}

func TestBreakContinueLevels(t *testing.T) {
	res := run(t, `for i in 1 2; do for j in a b; do
if [[ $j == b ]]; then continue 2; fi
echo "$i$j"
done; done`)
	assert.Equal(t, "1a\n2a\n", res.Stdout)

	res = run(t, `for i in 1 2 3; do if (( i == 2 )); then break; fi; echo $i; done`)
	assert.Equal(t, "1\n", res.Stdout)
}

func TestUntilLoop(t *testing.T) {
	res := run(t, `n=0; until (( n >= 3 )); do echo $n; n=$((n+1)); done`)
	assert.Equal(t, "0\n1\n2\n", res.Stdout)
}

func TestConditionalCommand(t *testing.T) {
	res := run(t, `[[ abc == a* ]] && echo glob
[[ 2 -lt 10 ]] && echo numeric
[[ abc =~ ^a(b)c$ ]] && echo "re:${BASH_REMATCH[1]}"
[[ -z "" && -n x ]] && echo strings
[[ ! a == b ]] && echo negated`)
	assert.Equal(t, "glob\nnumeric\nre:b\nstrings\nnegated\n", res.Stdout)
}

func TestTestBuiltin(t *testing.T) {
	res := run(t, `[ a = a ] && echo eq
[ a = b ] || echo ne
[ 3 -gt 1 ] && echo gt
test -n hello && echo nonempty`)
	assert.Equal(t, "eq\nne\ngt\nnonempty\n", res.Stdout)
}

func TestFileTests(t *testing.T) {
	fs := vfs.NewMemFS()
	require.NoError(t, fs.WriteFile("/file.txt", []byte("x"), vfs.WriteOpts{}))
	require.NoError(t, fs.Mkdir("/dir", false))
	res := runFS(t, `[[ -e /file.txt ]] && echo e
[[ -f /file.txt ]] && echo f
[[ -d /dir ]] && echo d
[[ -s /file.txt ]] && echo s
[[ -f /missing ]] || echo missing`, fs)
	assert.Equal(t, "e\nf\nd\ns\nmissing\n", res.Stdout)
}

func TestBraceExpansionInCommand(t *testing.T) {
	res := run(t, `echo {a,b,c}x; echo {1..4}`)
	assert.Equal(t, "ax bx cx\n1 2 3 4\n", res.Stdout)
}

func TestTildeExpansion(t *testing.T) {
	res := run(t, `echo ~`)
	assert.Equal(t, "/root\n", res.Stdout)
}

func TestIFSCustom(t *testing.T) {
	res := run(t, `IFS=:; x="a:b:c"; for f in $x; do echo "[$f]"; done`)
	assert.Equal(t, "[a]\n[b]\n[c]\n", res.Stdout)
}

func TestIFSEmptyDisablesSplitting(t *testing.T) {
	res := run(t, `IFS=; x="a b  c"; for f in $x; do echo "[$f]"; done`)
	assert.Equal(t, "[a b  c]\n", res.Stdout)
}

func TestBackgroundIsSynchronous(t *testing.T) {
	res := run(t, `echo first &
echo second`)
	assert.Equal(t, "first\nsecond\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestLastpipe(t *testing.T) {
	res := run(t, `shopt -s lastpipe; echo hello | read x; echo "got:$x"`)
	assert.Equal(t, "got:hello\n", res.Stdout)

	res = run(t, `echo hello | read x; echo "got:$x"`)
	assert.Equal(t, "got:\n", res.Stdout)
}

func TestXtrace(t *testing.T) {
	res := run(t, `set -x; echo hi`)
	assert.Equal(t, "hi\n", res.Stdout)
	assert.Contains(t, res.Stderr, "+ echo hi")
}

func TestEvalAndAliases(t *testing.T) {
	res := run(t, `shopt -s expand_aliases
alias greet='echo hello'
eval greet`)
	assert.Equal(t, "hello\n", res.Stdout)
}

func TestSourceBuiltin(t *testing.T) {
	fs := vfs.NewMemFS()
	require.NoError(t, fs.WriteFile("/lib.sh", []byte("sourced_var=42\n"), vfs.WriteOpts{}))
	res := runFS(t, `source /lib.sh; echo $sourced_var`, fs)
	assert.Equal(t, "42\n", res.Stdout)
}

func TestTrapExit(t *testing.T) {
	res := run(t, `trap 'echo cleanup' EXIT; echo body`)
	assert.Equal(t, "body\ncleanup\n", res.Stdout)
}

func TestPrintfRoundtrip(t *testing.T) {
	res := run(t, `s='a "quoted" $var and spaces  '; printf '%s' "$s"`)
	assert.Equal(t, `a "quoted" $var and spaces  `, res.Stdout)
}

func TestArithPrintRoundtrip(t *testing.T) {
	res := run(t, `echo $((42)); echo $((-7)); echo $((9223372036854775807))`)
	assert.Equal(t, "42\n-7\n9223372036854775807\n", res.Stdout)
}

func TestAssignmentReadBack(t *testing.T) {
	res := run(t, `X='v with "stuff" and $dollar'; printf '%s' "$X"`)
	assert.Equal(t, `v with "stuff" and $dollar`, res.Stdout)
}

func TestParseErrorStatus(t *testing.T) {
	res := run(t, `if true; then echo x`)
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, res.Stderr, "syntax error")
}

func TestGetopts(t *testing.T) {
	res := interp.Run(context.Background(), `while getopts "ab:" opt; do echo "$opt:${OPTARG-}"; done`, interp.RunOptions{
		FS:       vfs.NewMemFS(),
		Commands: commands.Registry(),
		Args:     []string{"-a", "-b", "val", "rest"},
	})
	assert.Equal(t, "a:\nb:val\n", res.Stdout)
}

func TestSelectLoop(t *testing.T) {
	res := run(t, `select x in apple banana; do echo "picked:$x"; break; done <<< "2"`)
	assert.Contains(t, res.Stderr, "1) apple")
	assert.Equal(t, "picked:banana\n", res.Stdout)
}

func TestNamerefs(t *testing.T) {
	res := run(t, `target=hello
declare -n ref=target
echo "$ref"
ref=changed
echo "$target"`)
	assert.Equal(t, "hello\nchanged\n", res.Stdout)
}

func TestIntegerAttribute(t *testing.T) {
	res := run(t, `declare -i n
n=2+3
echo "$n"`)
	assert.Equal(t, "5\n", res.Stdout)
}

func TestCaseTransformAttributes(t *testing.T) {
	res := run(t, `declare -u up; up=hello; echo "$up"
declare -l low; low=WORLD; echo "$low"`)
	assert.Equal(t, "HELLO\nworld\n", res.Stdout)
}

func TestReadonlyVariable(t *testing.T) {
	res := run(t, `readonly r=1; r=2; echo status=$?`)
	assert.Contains(t, res.Stderr, "readonly")
}
