// Package taskrunner is the reference task executor: for every
// (builder, binary) pair that collected a matching task, it checks the
// task's required_vars/required_modules, runs its command list, and
// keeps going across pairs according to a keep_going error budget -
// grounded on original_source/src/task_runner.rs's run_tasks.
package taskrunner

import (
	"github.com/standardbeagle/laze/internal/generator"
	"github.com/standardbeagle/laze/internal/lazelog"
	"github.com/standardbeagle/laze/internal/model"
)

// Match is one (builder, binary) pair whose collected tasks include
// the one being run.
type Match struct {
	Builder string
	Binary  string
	Task    model.Task
	Env     map[string]string
	Modules map[string]bool
}

// Result is the outcome of running a task for one matched pair.
type Result struct {
	Match Match
	Err   error
}

// Run executes taskName's command list for every result in builds that
// collected it, in order. keepGoing of 0 means "run every match
// regardless of failures" (the original's default); keepGoing > 0
// stops once that many matches have failed, matching
// original_source/src/task_runner.rs's `errors >= keep_going` check.
func Run(builds []generator.Result, taskName string, startDir string, args []string, verbose int, keepGoing int) ([]Result, int) {
	var matches []Match
	for _, b := range builds {
		if t, ok := b.Info.Tasks[taskName]; ok {
			matches = append(matches, Match{Builder: b.Builder, Binary: b.Binary, Task: t, Env: b.Info.Env, Modules: b.Info.Modules})
		}
	}

	var results []Result
	errors := 0
	for _, m := range matches {
		lazelog.Verbosef("laze: executing task %s for builder %s bin %s", taskName, m.Builder, m.Binary)

		err := m.Task.CheckRequirements(taskName, m.Env, m.Modules)
		if err == nil {
			err = m.Task.Execute(startDir, args, verbose)
		}
		results = append(results, Result{Match: m, Err: err})

		if err != nil {
			errors++
			if keepGoing > 0 && errors >= keepGoing {
				break
			}
		}
	}

	return results, errors
}

// Matches reports whether any (builder, binary) pair in builds
// collected taskName, used to produce a helpful error when a user asks
// for an unknown task.
func Matches(builds []generator.Result, taskName string) bool {
	for _, b := range builds {
		if _, ok := b.Info.Tasks[taskName]; ok {
			return true
		}
	}
	return false
}
