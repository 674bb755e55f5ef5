package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, projectFileName), []byte(content), 0o644))
}

func TestLoadSingleFileProject(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, `
builders:
  - name: native

modules:
  - name: base
    context: native

  - name: hello
    context: native
    is_binary: true
    selects:
      - base
`)

	bag, err := Load(root)
	require.NoError(t, err)

	native, ok := bag.GetByName("native")
	require.True(t, ok)
	assert.True(t, native.IsBuilder)

	hello, ok := native.Module("hello")
	require.True(t, ok)
	require.Len(t, hello.Selects, 1)
	assert.Equal(t, "base", hello.Selects[0].Name)
}

func TestLoadRecursesIntoSubdirs(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, `
subdirs:
  - apps/hello

builders:
  - name: native
`)
	writeProjectFile(t, filepath.Join(root, "apps/hello"), `
modules:
  - name: hello
    context: native
    is_binary: true
`)

	bag, err := Load(root)
	require.NoError(t, err)
	native, _ := bag.GetByName("native")
	m, ok := native.Module("hello")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("apps", "hello"), m.Relpath)
}

func TestParseDependencyShorthand(t *testing.T) {
	assert.Equal(t, "base", ParseDependency("base").Name)
	assert.Equal(t, "base", ParseDependency("?base").Name)
	d := ParseDependency("wifi!driver")
	assert.Equal(t, "wifi", d.Other)
	assert.Equal(t, "driver", d.Name)
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, `
contexts:
  - parent: nope
`)
	_, err := Load(root)
	assert.Error(t, err)
}
