package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskBuildAppReflectsBuildField(t *testing.T) {
	assert.True(t, Task{Build: true}.BuildApp())
	assert.False(t, Task{Build: false}.BuildApp())
}

func TestCheckRequirementsMissingVar(t *testing.T) {
	task := Task{RequiredVars: []string{"FOO"}}
	err := task.CheckRequirements("mytask", map[string]string{}, nil)
	assert.Error(t, err)
}

func TestCheckRequirementsMissingModule(t *testing.T) {
	task := Task{RequiredModules: []string{"needed"}}
	err := task.CheckRequirements("mytask", nil, map[string]bool{"other": true})
	assert.Error(t, err)
}

func TestCheckRequirementsSatisfied(t *testing.T) {
	task := Task{RequiredVars: []string{"FOO"}, RequiredModules: []string{"needed"}}
	err := task.CheckRequirements("mytask", map[string]string{"FOO": "bar"}, map[string]bool{"needed": true})
	assert.NoError(t, err)
}

func TestWithEnvExpandsCommandVariables(t *testing.T) {
	task := Task{Cmd: []string{"echo ${NAME}"}}
	bound, err := task.WithEnv(map[string]string{"NAME": "world"})
	require.NoError(t, err)
	assert.Equal(t, "echo world", bound.Cmd[0])
}

func TestWithEnvEvalExpandsExports(t *testing.T) {
	content := "${NAME}"
	task := Task{
		Cmd:    []string{"echo ${NAME}"},
		Export: []VarExportSpec{{Variable: "GREETING", Content: &content}},
	}
	bound, err := task.WithEnvEval(map[string]string{"NAME": "world"})
	require.NoError(t, err)
	require.Len(t, bound.Export, 1)
	assert.Equal(t, "world", *bound.Export[0].Content)
}

func TestJoinShellWordsQuotesWhenNeeded(t *testing.T) {
	assert.Equal(t, "plain", joinShellWords([]string{"plain"}))
	assert.Equal(t, `'has space'`, joinShellWords([]string{"has space"}))
	assert.Equal(t, `''`, joinShellWords([]string{""}))
}
