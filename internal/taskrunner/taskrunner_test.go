package taskrunner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/laze/internal/generator"
	"github.com/standardbeagle/laze/internal/model"
)

func buildsWithTask(name string, cmd []string, requiredVars []string) []generator.Result {
	return []generator.Result{
		{
			Builder: "native",
			Binary:  "hello",
			Info: generator.BuildInfo{
				Tasks:   map[string]model.Task{name: {Cmd: cmd, RequiredVars: requiredVars}},
				Env:     map[string]string{},
				Modules: map[string]bool{},
			},
		},
	}
}

func TestRunExecutesMatchingTask(t *testing.T) {
	builds := buildsWithTask("flash", []string{"true"}, nil)
	results, errors := Run(builds, "flash", t.TempDir(), nil, 0, 0)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 0, errors)
}

func TestRunReportsMissingRequiredVar(t *testing.T) {
	builds := buildsWithTask("flash", []string{"true"}, []string{"PORT"})
	results, errors := Run(builds, "flash", t.TempDir(), nil, 0, 0)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Equal(t, 1, errors)
}

func TestRunSkipsNonMatchingPairs(t *testing.T) {
	builds := buildsWithTask("flash", []string{"true"}, nil)
	results, _ := Run(builds, "other-task", t.TempDir(), nil, 0, 0)
	assert.Empty(t, results)
}

func TestMatchesReportsPresence(t *testing.T) {
	builds := buildsWithTask("flash", []string{"true"}, nil)
	assert.True(t, Matches(builds, "flash"))
	assert.False(t, Matches(builds, "nope"))
}

func TestRunStopsAfterKeepGoingFailures(t *testing.T) {
	builds := []generator.Result{
		{Builder: "native", Binary: "a", Info: generator.BuildInfo{Tasks: map[string]model.Task{"t": {Cmd: []string{"false"}}}, Env: map[string]string{}, Modules: map[string]bool{}}},
		{Builder: "native", Binary: "b", Info: generator.BuildInfo{Tasks: map[string]model.Task{"t": {Cmd: []string{"false"}}}, Env: map[string]string{}, Modules: map[string]bool{}}},
		{Builder: "native", Binary: "c", Info: generator.BuildInfo{Tasks: map[string]model.Task{"t": {Cmd: []string{"true"}}}, Env: map[string]string{}, Modules: map[string]bool{}}},
	}
	results, errors := Run(builds, "t", t.TempDir(), nil, 0, 1)
	assert.Len(t, results, 1) // stops after the first failure since keepGoing=1
	assert.Equal(t, 1, errors)
}
