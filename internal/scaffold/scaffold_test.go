package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesIncludesDefault(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	assert.Contains(t, names, "default")
}

func TestNewWritesRenderedProject(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "myproject")

	require.NoError(t, New(target, "default"))

	data, err := os.ReadFile(filepath.Join(target, "laze.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: myproject")
	assert.NotContains(t, string(data), "{{")

	_, err = os.Stat(filepath.Join(target, "main.c"))
	assert.NoError(t, err)
}

func TestNewRejectsUnknownTemplate(t *testing.T) {
	err := New(t.TempDir(), "nope")
	assert.Error(t, err)
}

func TestNewRejectsNonEmptyExistingPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing"), []byte("x"), 0o644))

	err := New(root, "default")
	assert.Error(t, err)
}
