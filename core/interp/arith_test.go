package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bish-sh/bish/core/vfs"
)

func testInterp() *Interp {
	return &Interp{
		st:   NewState("/", nil, DefaultLimits()),
		fs:   vfs.NewMemFS(),
		w1:   &bytes.Buffer{},
		w2:   &bytes.Buffer{},
		psub: new(int),
	}
}

func evalArith(t *testing.T, x *Interp, src string) int64 {
	t.Helper()
	n, err := x.arithEvalText(src)
	require.NoError(t, err, src)
	return n
}

func TestArithPrecedence(t *testing.T) {
	x := testInterp()
	cases := map[string]int64{
		"1+2*3":         7,
		"(1+2)*3":       9,
		"10-3-2":        5,
		"2**10":         1024,
		"2**3**2":       512, // right associative
		"7/2":           3,
		"7%2":           1,
		"1<<4":          16,
		"256>>4":        16,
		"5&3":           1,
		"5|3":           7,
		"5^3":           6,
		"~0":            -1,
		"!5":            0,
		"!0":            1,
		"1<2":           1,
		"2<=1":          0,
		"3==3":          1,
		"3!=3":          0,
		"1&&2":          1,
		"1&&0":          0,
		"0||3":          1,
		"1?10:20":       10,
		"0?10:20":       20,
		"1,2,3":         3,
		"-5+2":          -3,
		"0x1f":          31,
		"010":           8,
		"2#1010":        10,
		"16#ff":         255,
		"1 < 2 ? 3 : 4": 3,
	}
	for src, want := range cases {
		assert.Equal(t, want, evalArith(t, x, src), src)
	}
}

func TestArithVariables(t *testing.T) {
	x := testInterp()
	x.st.Set("a", "5")
	x.st.Set("b", "a+1") // strings evaluate recursively
	assert.Equal(t, int64(5), evalArith(t, x, "a"))
	assert.Equal(t, int64(6), evalArith(t, x, "b"))
	assert.Equal(t, int64(0), evalArith(t, x, "unset_var"))
	assert.Equal(t, int64(6), evalArith(t, x, "$a + 1"))
}

func TestArithAssignment(t *testing.T) {
	x := testInterp()
	assert.Equal(t, int64(4), evalArith(t, x, "v = 4"))
	assert.Equal(t, "4", x.st.GetStr("v"))
	assert.Equal(t, int64(6), evalArith(t, x, "v += 2"))
	assert.Equal(t, int64(12), evalArith(t, x, "v *= 2"))
	assert.Equal(t, int64(3), evalArith(t, x, "v >>= 2"))
}

func TestArithIncDec(t *testing.T) {
	x := testInterp()
	x.st.Set("n", "5")
	assert.Equal(t, int64(5), evalArith(t, x, "n++"))
	assert.Equal(t, "6", x.st.GetStr("n"))
	assert.Equal(t, int64(7), evalArith(t, x, "++n"))
	assert.Equal(t, int64(7), evalArith(t, x, "n--"))
	assert.Equal(t, "6", x.st.GetStr("n"))
}

func TestArithArrayElements(t *testing.T) {
	x := testInterp()
	require.NoError(t, x.setElement("arr", "0", "10"))
	require.NoError(t, x.setElement("arr", "2", "30"))
	assert.Equal(t, int64(40), evalArith(t, x, "arr[0]+arr[2]"))
	assert.Equal(t, int64(11), evalArith(t, x, "arr[0] += 1"))
	x.st.Set("i", "2")
	assert.Equal(t, int64(30), evalArith(t, x, "arr[i]"))
}

func TestArithDivisionByZero(t *testing.T) {
	x := testInterp()
	_, err := x.arithEvalText("1/0")
	require.Error(t, err)
	_, err = x.arithEvalText("1%0")
	require.Error(t, err)
}

func TestArithTwosComplement(t *testing.T) {
	x := testInterp()
	assert.Equal(t, int64(-9223372036854775808), evalArith(t, x, "9223372036854775807 + 1"))
}
