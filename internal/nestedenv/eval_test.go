package nestedenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalBasic(t *testing.T) {
	out, err := Eval("foo $(1+$(1+1)) after_foo")
	require.NoError(t, err)
	assert.Equal(t, "foo 3 after_foo", out)
}

func TestEvalNestedParens(t *testing.T) {
	out, err := Eval("$((0))")
	require.NoError(t, err)
	assert.Equal(t, "0", out)
}

func TestEvalMax(t *testing.T) {
	out, err := Eval("$(max(1,2,3,4))")
	require.NoError(t, err)
	assert.Equal(t, "4", out)
}

func TestEvalNamespacedStringFn(t *testing.T) {
	out, err := Eval(`$(str::to_uppercase "foobar")`)
	require.NoError(t, err)
	assert.Equal(t, "FOOBAR", out)
}

func TestEvalUnchanged(t *testing.T) {
	out, err := Eval("just some text")
	require.NoError(t, err)
	assert.Equal(t, "just some text", out)
}

func TestEvalEscapedDollar(t *testing.T) {
	literal := "just some $$(foo) text"
	out, err := Eval(literal)
	require.NoError(t, err)
	assert.Equal(t, literal, out)
}

func TestEvalEscapedDollarWithAnother(t *testing.T) {
	out, err := Eval("$(1) just some $$(1) text")
	require.NoError(t, err)
	assert.Equal(t, "1 just some $$(1) text", out)
}
