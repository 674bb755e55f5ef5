package nestedenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeNonexistingSingle(t *testing.T) {
	merged := New()
	Merge(merged, New())
	upper := New()
	upper.Set("mykey", Single("upper_value"))
	Merge(merged, upper)

	v, ok := merged.Get("mykey")
	require.True(t, ok)
	assert.Equal(t, Single("upper_value"), v)
}

func TestMergeOverwritingSingle(t *testing.T) {
	lower := New()
	lower.Set("mykey", Single("lower_value"))
	upper := New()
	upper.Set("mykey", Single("upper_value"))

	merged := New()
	Merge(merged, lower)
	Merge(merged, upper)

	v, ok := merged.Get("mykey")
	require.True(t, ok)
	assert.Equal(t, Single("upper_value"), v)
}

func TestMergeOverwritingListWithSingle(t *testing.T) {
	lower := New()
	lower.Set("mykey", List("lower_value_1", "lower_value_2"))
	upper := New()
	upper.Set("mykey", Single("upper_value"))

	merged := New()
	Merge(merged, lower)
	Merge(merged, upper)

	v, ok := merged.Get("mykey")
	require.True(t, ok)
	assert.Equal(t, Single("upper_value"), v)
}

func TestMergeOverwritingSingleWithList(t *testing.T) {
	lower := New()
	lower.Set("mykey", Single("lower_value"))
	upper := New()
	upper.Set("mykey", List("upper_value_1", "upper_value_2"))

	merged := New()
	Merge(merged, lower)
	Merge(merged, upper)

	v, ok := merged.Get("mykey")
	require.True(t, ok)
	assert.Equal(t, List("upper_value_1", "upper_value_2"), v)
}

func TestMergeMergingList(t *testing.T) {
	lower := New()
	lower.Set("mykey", List("lower_value_1", "lower_value_2"))
	upper := New()
	upper.Set("mykey", List("upper_value_1", "upper_value_2"))

	merged := New()
	Merge(merged, lower)
	Merge(merged, upper)

	v, ok := merged.Get("mykey")
	require.True(t, ok)
	assert.Equal(t, List("lower_value_1", "lower_value_2", "upper_value_1", "upper_value_2"), v)
}

func TestFlatten(t *testing.T) {
	env := New()
	env.Set("single", Single("a"))
	env.Set("list", List("a", "b", "c"))

	flat := Flatten(env)
	assert.Equal(t, "a", flat["single"])
	assert.Equal(t, "a b c", flat["list"])
}

func TestCloneIsIndependent(t *testing.T) {
	env := New()
	env.Set("a", Single("1"))
	clone := env.Clone()
	clone.Set("a", Single("2"))

	v, _ := env.Get("a")
	assert.Equal(t, Single("1"), v)
	cv, _ := clone.Get("a")
	assert.Equal(t, Single("2"), cv)
}
