package runconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaultsMissingFileIsNotAnError(t *testing.T) {
	d, err := LoadFileDefaults(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, d.Builders)
}

func TestLoadFileDefaultsParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazerc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
builders = ["native"]
jobs = 4
log_level = "verbose"
`), 0o644))

	d, err := LoadFileDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"native"}, d.Builders)
	assert.Equal(t, 4, d.Jobs)
	assert.Equal(t, "verbose", d.LogLevel)
}

func TestResolveFlagsBeatEnvBeatFile(t *testing.T) {
	t.Setenv("LAZE_BUILDERS", "from-env")
	t.Setenv("LAZE_JOBS", "2")

	file := FileDefaults{Builders: []string{"from-file"}, Jobs: 1}
	cli := Selectors{Jobs: 8}

	s := Resolve(file, cli)
	assert.Equal(t, []string{"from-env"}, s.Builders) // no CLI override, env wins over file
	assert.Equal(t, 8, s.Jobs)                         // CLI beats env
}

func TestResolveAppliesDefaultsWhenUnset(t *testing.T) {
	s := Resolve(FileDefaults{}, Selectors{})
	assert.Equal(t, "build", s.BuildDir)
	assert.Equal(t, 1, s.Jobs)
}

func TestResolveParsesDefineAssignments(t *testing.T) {
	cli := Selectors{Define: map[string]string{"FOO": "bar"}}
	s := Resolve(FileDefaults{Define: []string{"BASE=1"}}, cli)
	assert.Equal(t, "1", s.Define["BASE"])
	assert.Equal(t, "bar", s.Define["FOO"])
}
