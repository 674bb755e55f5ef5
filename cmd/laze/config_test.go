package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/laze/internal/generator"
)

func TestParsePartitionEmptyIsZeroValue(t *testing.T) {
	p, err := parsePartition("")
	require.NoError(t, err)
	assert.Equal(t, generator.Partition{}, p)
}

func TestParsePartitionParsesOneBasedShard(t *testing.T) {
	p, err := parsePartition("2/4")
	require.NoError(t, err)
	assert.Equal(t, generator.Partition{Index: 1, Total: 4}, p)
}

func TestParsePartitionRejectsMalformedInput(t *testing.T) {
	for _, s := range []string{"bad", "0/4", "5/4", "2/notanumber"} {
		_, err := parsePartition(s)
		assert.Error(t, err, s)
	}
}

func TestDefineFlagMapSplitsKeyValue(t *testing.T) {
	got := defineFlagMap([]string{"FOO=bar", "BAZ=qux"})
	assert.Equal(t, map[string]string{"FOO": "bar", "BAZ": "qux"}, got)
}

func TestDefineFlagMapIgnoresEntriesWithoutEquals(t *testing.T) {
	got := defineFlagMap([]string{"NOTAKEYVALUE"})
	assert.Empty(t, got)
}

func TestSelectsFromNamesParsesShorthand(t *testing.T) {
	deps := selectsFromNames([]string{"base", "?optional"})
	require.Len(t, deps, 2)
	assert.Equal(t, "base", deps[0].GetName())
	assert.Equal(t, "optional", deps[1].GetName())
}
