package nestedenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandNoExpansion(t *testing.T) {
	out, err := Expand("simple string", map[string]string{}, IfMissingError)
	require.NoError(t, err)
	assert.Equal(t, "simple string", out)
}

func TestExpandSingle(t *testing.T) {
	vars := map[string]string{"A": "a"}
	out, err := Expand("${A} simple string", vars, IfMissingError)
	require.NoError(t, err)
	assert.Equal(t, "a simple string", out)
}

func TestExpandMulti(t *testing.T) {
	vars := map[string]string{"A": "a", "B": "with variables"}
	out, err := Expand("${A} simple string ${B}", vars, IfMissingError)
	require.NoError(t, err)
	assert.Equal(t, "a simple string with variables", out)
}

func TestExpandErrorMissing(t *testing.T) {
	_, err := Expand("simple string ${A}", map[string]string{}, IfMissingError)
	require.Error(t, err)
	var ee *ExpandError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExpandMissing, ee.Kind)
	assert.Equal(t, "A", ee.Key)
}

func TestExpandIfMissingEmpty(t *testing.T) {
	out, err := Expand("simple string ${A}", map[string]string{}, IfMissingEmpty)
	require.NoError(t, err)
	assert.Equal(t, "simple string ", out)
}

func TestExpandIfMissingIgnore(t *testing.T) {
	out, err := Expand("simple string ${A}", map[string]string{}, IfMissingIgnore)
	require.NoError(t, err)
	assert.Equal(t, "simple string ${A}", out)
}

func TestExpandRecursive(t *testing.T) {
	vars := map[string]string{"A": "a(${B})", "B": "b()"}
	out, err := Expand("x${A}x", vars, IfMissingError)
	require.NoError(t, err)
	assert.Equal(t, "xa(b())x", out)
}

func TestExpandEscaped(t *testing.T) {
	vars := map[string]string{"A": "\\${a}"}
	out, err := Expand("${A} simple string", vars, IfMissingError)
	require.NoError(t, err)
	assert.Equal(t, "${a} simple string", out)
}

func TestExpandCycle(t *testing.T) {
	vars := map[string]string{"A": "${B}", "B": "${A}"}
	_, err := Expand("${A}", vars, IfMissingError)
	require.Error(t, err)
	var ee *ExpandError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExpandCycle, ee.Kind)
}

func TestExpandUnclosed(t *testing.T) {
	_, err := Expand("broken ${A", map[string]string{"A": "x"}, IfMissingError)
	require.Error(t, err)
	var ee *ExpandError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExpandUnclosed, ee.Kind)
}
