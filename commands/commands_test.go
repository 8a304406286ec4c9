package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bish-sh/bish/core/vfs"
	"github.com/bish-sh/bish/core/vos"
)

// testProc builds a process context the way the executor does.
func testProc(stdin string, argv ...string) (*vos.Process, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &vos.Process{
		Argv:   argv,
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: &errOut,
		Dir:    "/",
		Env:    map[string]string{},
		FS:     vfs.NewMemFS(),
	}, &out, &errOut
}

func TestEcho(t *testing.T) {
	p, out, _ := testProc("", "echo", "hello", "world")
	assert.Equal(t, 0, Echo(p))
	assert.Equal(t, "hello world\n", out.String())

	p, out, _ = testProc("", "echo", "-n", "abc")
	Echo(p)
	assert.Equal(t, "abc", out.String())

	p, out, _ = testProc("", "echo", "-e", `a\tb`)
	Echo(p)
	assert.Equal(t, "a\tb\n", out.String())
}

func TestPrintf(t *testing.T) {
	p, out, _ := testProc("", "printf", "%s-%d\n", "x", "7")
	assert.Equal(t, 0, Printf(p))
	assert.Equal(t, "x-7\n", out.String())

	// format reuse over remaining arguments
	p, out, _ = testProc("", "printf", "[%s]", "a", "b")
	Printf(p)
	assert.Equal(t, "[a][b]", out.String())

	p, out, _ = testProc("", "printf", "%05d\n", "42")
	Printf(p)
	assert.Equal(t, "00042\n", out.String())
}

func TestCat(t *testing.T) {
	p, out, _ := testProc("from stdin", "cat")
	assert.Equal(t, 0, Cat(p))
	assert.Equal(t, "from stdin", out.String())

	p, out, errOut := testProc("", "cat", "/missing")
	assert.Equal(t, 1, Cat(p))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "No such file")

	p, out, _ = testProc("", "cat", "/f.txt")
	require.NoError(t, p.FS.WriteFile("/f.txt", []byte("contents\n"), vfs.WriteOpts{}))
	assert.Equal(t, 0, Cat(p))
	assert.Equal(t, "contents\n", out.String())
}

func TestGrep(t *testing.T) {
	in := "alpha\nbeta\ngamma\nbeta again\n"
	p, out, _ := testProc(in, "grep", "beta")
	assert.Equal(t, 0, Grep(p))
	assert.Equal(t, "beta\nbeta again\n", out.String())

	p, out, _ = testProc(in, "grep", "-c", "beta")
	Grep(p)
	assert.Equal(t, "2\n", out.String())

	p, out, _ = testProc(in, "grep", "-v", "beta")
	Grep(p)
	assert.Equal(t, "alpha\ngamma\n", out.String())

	p, _, _ = testProc(in, "grep", "-q", "nothing")
	assert.Equal(t, 1, Grep(p))
}

func TestWc(t *testing.T) {
	p, out, _ := testProc("one two\nthree\n", "wc")
	assert.Equal(t, 0, Wc(p))
	assert.Equal(t, "2 3 14\n", out.String())

	p, out, _ = testProc("one two\nthree\n", "wc", "-l")
	Wc(p)
	assert.Equal(t, "2\n", out.String())
}

func TestHeadTail(t *testing.T) {
	in := "1\n2\n3\n4\n5\n"
	p, out, _ := testProc(in, "head", "-n", "2")
	assert.Equal(t, 0, Head(p))
	assert.Equal(t, "1\n2\n", out.String())

	p, out, _ = testProc(in, "tail", "-n", "2")
	assert.Equal(t, 0, Tail(p))
	assert.Equal(t, "4\n5\n", out.String())
}

func TestSortUniq(t *testing.T) {
	p, out, _ := testProc("b\na\nc\na\n", "sort")
	assert.Equal(t, 0, Sort(p))
	assert.Equal(t, "a\na\nb\nc\n", out.String())

	p, out, _ = testProc("b\na\nc\na\n", "sort", "-u")
	Sort(p)
	assert.Equal(t, "a\nb\nc\n", out.String())

	p, out, _ = testProc("10\n9\n2\n", "sort", "-n")
	Sort(p)
	assert.Equal(t, "2\n9\n10\n", out.String())

	p, out, _ = testProc("a\na\nb\n", "uniq", "-c")
	assert.Equal(t, 0, Uniq(p))
	assert.Equal(t, "      2 a\n      1 b\n", out.String())
}

func TestCut(t *testing.T) {
	p, out, _ := testProc("a:b:c\nd:e:f\n", "cut", "-d", ":", "-f", "2")
	assert.Equal(t, 0, Cut(p))
	assert.Equal(t, "b\ne\n", out.String())

	p, out, _ = testProc("abcdef\n", "cut", "-c", "1-3")
	Cut(p)
	assert.Equal(t, "abc\n", out.String())
}

func TestTr(t *testing.T) {
	p, out, _ := testProc("hello", "tr", "a-z", "A-Z")
	assert.Equal(t, 0, Tr(p))
	assert.Equal(t, "HELLO", out.String())

	p, out, _ = testProc("a-b-c", "tr", "-d", "-")
	Tr(p)
	assert.Equal(t, "abc", out.String())
}

func TestSeq(t *testing.T) {
	p, out, _ := testProc("", "seq", "3")
	assert.Equal(t, 0, Seq(p))
	assert.Equal(t, "1\n2\n3\n", out.String())

	p, out, _ = testProc("", "seq", "2", "2", "8")
	Seq(p)
	assert.Equal(t, "2\n4\n6\n8\n", out.String())
}

func TestBasenameDirname(t *testing.T) {
	p, out, _ := testProc("", "basename", "/a/b/c.txt", ".txt")
	assert.Equal(t, 0, Basename(p))
	assert.Equal(t, "c\n", out.String())

	p, out, _ = testProc("", "dirname", "/a/b/c.txt")
	assert.Equal(t, 0, Dirname(p))
	assert.Equal(t, "/a/b\n", out.String())
}

func TestMkdirLs(t *testing.T) {
	p, out, _ := testProc("", "mkdir", "-p", "/x/y")
	assert.Equal(t, 0, Mkdir(p))
	require.NoError(t, p.FS.WriteFile("/x/file", nil, vfs.WriteOpts{}))

	p2 := *p
	p2.Argv = []string{"ls", "/x"}
	p2.Stdout = out
	out.Reset()
	assert.Equal(t, 0, Ls(&p2))
	assert.Equal(t, "file\ny\n", out.String())
}

func TestXargs(t *testing.T) {
	p, out, _ := testProc("a 'b c' d", "xargs", "echo")
	assert.Equal(t, 0, Xargs(p))
	assert.Equal(t, "a b c d\n", out.String())

	p, out, _ = testProc("1 2 3 4", "xargs", "-n", "2", "echo")
	Xargs(p)
	assert.Equal(t, "1 2\n3 4\n", out.String())
}

func TestAwk(t *testing.T) {
	p, out, _ := testProc("1 red\n2 blue\n", "awk", "{print $2}")
	assert.Equal(t, 0, Awk(p))
	assert.Equal(t, "red\nblue\n", out.String())

	p, out, _ = testProc("a:b\n", "awk", "-F", ":", "{print $1}")
	Awk(p)
	assert.Equal(t, "a\n", out.String())

	p, out, _ = testProc("", "awk", "BEGIN { print 2+3 }")
	Awk(p)
	assert.Equal(t, "5\n", out.String())
}

func TestCurlDisabled(t *testing.T) {
	p, _, errOut := testProc("", "curl", "http://example.com/")
	assert.Equal(t, 6, Curl(p))
	assert.Contains(t, errOut.String(), "network access is disabled")
}

func TestRegistryContents(t *testing.T) {
	reg := Registry()
	for _, name := range []string{"echo", "cat", "grep", "ls", "awk", "xargs", "curl", "true", "false"} {
		_, ok := reg[name]
		assert.True(t, ok, name)
	}
}
