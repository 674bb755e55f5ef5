package model

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/standardbeagle/laze/internal/lazerr"
	"github.com/standardbeagle/laze/internal/nestedenv"
)

// ignoreSigint mirrors the original's process-global IGNORE_SIGINT
// flag: while a task with ignore_ctrl_c runs, the runner's own signal
// handler is expected to consult this and swallow SIGINT so only the
// child process sees it.
var ignoreSigint atomic.Bool

// IgnoringSigint reports whether a running task currently wants SIGINT
// suppressed at this process's level.
func IgnoringSigint() bool { return ignoreSigint.Load() }

// Task is a named, runnable command list attached to a context or
// module, with optional preconditions and environment export.
type Task struct {
	Cmd             []string
	Help            string
	RequiredVars    []string
	RequiredModules []string
	Export          []VarExportSpec
	Build           bool // whether this task needs the app built first; defaults true
	IgnoreCtrlC     bool
}

// BuildApp reports whether running this task requires the application
// binary to be built first.
func (t Task) BuildApp() bool { return t.Build }

// CheckRequirements validates required_vars/required_modules against a
// flattened environment and the resolved module set, returning an
// ExternalError naming the first unmet requirement.
func (t Task) CheckRequirements(taskName string, env map[string]string, modules map[string]bool) error {
	for _, v := range t.RequiredVars {
		if env[v] == "" {
			return lazerr.RequiredVarMissing(taskName, v)
		}
	}
	for _, m := range t.RequiredModules {
		if !modules[m] {
			return lazerr.RequiredModuleMissing(taskName, m)
		}
	}
	return nil
}

// WithEnv returns a copy of t with each command line run through
// variable interpolation (but not expression evaluation) against env.
func (t Task) WithEnv(env map[string]string) (Task, error) {
	return t.withEnv(env, false)
}

// WithEnvEval returns a copy of t with each command line and export
// entry run through interpolation followed by expression evaluation.
func (t Task) WithEnvEval(env map[string]string) (Task, error) {
	return t.withEnv(env, true)
}

func (t Task) withEnv(env map[string]string, doEval bool) (Task, error) {
	out := t
	out.Cmd = make([]string, len(t.Cmd))
	for i, c := range t.Cmd {
		var expanded string
		var err error
		if doEval {
			expanded, err = nestedenv.ExpandEval(c, env, nestedenv.IfMissingIgnore)
		} else {
			expanded, err = nestedenv.Expand(c, env, nestedenv.IfMissingIgnore)
		}
		if err != nil {
			return Task{}, err
		}
		out.Cmd[i] = expanded
	}
	if doEval {
		exports, err := ExpandExports(t.Export, env)
		if err != nil {
			return Task{}, err
		}
		out.Export = exports
	}
	return out, nil
}

// Execute runs each command of the task's cmd list through "sh -c" in
// startDir, exporting the task's resolved export vars into the child's
// environment and appending args to the final argument, matching the
// original shell-joining behavior. verbose>0 passes "-x" to sh.
func (t Task) Execute(startDir string, args []string, verbose int) error {
	for _, cmd := range t.Cmd {
		shellCmd := strings.ReplaceAll(cmd, "$$", "$")

		shArgs := []string{}
		if verbose > 0 {
			shArgs = append(shArgs, "-x")
		}
		shArgs = append(shArgs, "-c")

		full := shellCmd
		if len(args) > 0 {
			full = shellCmd + " " + joinShellWords(args)
		}
		shArgs = append(shArgs, full)

		command := exec.Command("sh", shArgs...)
		command.Dir = startDir
		command.Stdout = os.Stdout
		command.Stderr = os.Stderr
		command.Stdin = os.Stdin

		env := os.Environ()
		for _, entry := range t.Export {
			if entry.Content != nil {
				env = append(env, fmt.Sprintf("%s=%s", entry.Variable, *entry.Content))
			}
		}
		command.Env = env

		if t.IgnoreCtrlC {
			ignoreSigint.Store(true)
		}

		err := command.Run()

		if t.IgnoreCtrlC {
			ignoreSigint.Store(false)
		}

		if err != nil {
			return lazerr.NewExternalError("task execution", fmt.Errorf("task failed: %w", err))
		}
	}
	return nil
}

// joinShellWords quotes args that need it so they survive a further
// "sh -c" pass, mirroring shell_words::join.
func joinShellWords(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$`") {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
