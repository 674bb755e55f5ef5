package model

import (
	"fmt"

	"github.com/standardbeagle/laze/internal/nestedenv"
)

// VarExportSpec is one entry of a task's "export:" list: a variable
// name plus the content to assign it, defaulting to "${variable}" when
// content is omitted.
type VarExportSpec struct {
	Variable string
	Content  *string
}

// ApplyEnv expands this entry's content (or "${variable}" if content is
// unset) against env via interpolation followed by expression
// evaluation, returning a new spec with the resolved content.
func (v VarExportSpec) ApplyEnv(env map[string]string) (VarExportSpec, error) {
	content := fmt.Sprintf("${%s}", v.Variable)
	if v.Content != nil {
		content = *v.Content
	}
	expanded, err := nestedenv.ExpandEval(content, env, nestedenv.IfMissingEmpty)
	if err != nil {
		return VarExportSpec{}, err
	}
	return VarExportSpec{Variable: v.Variable, Content: &expanded}, nil
}

// ExpandExports applies ApplyEnv to every entry of exports, e.g. to
// turn a declared "export: [FOO, BAR=bar, FOOBAR=${foobar}]" into
// resolved FOO=value/BAR=bar/FOOBAR=other_value pairs.
func ExpandExports(exports []VarExportSpec, env map[string]string) ([]VarExportSpec, error) {
	if exports == nil {
		return nil, nil
	}
	out := make([]VarExportSpec, len(exports))
	for i, e := range exports {
		applied, err := e.ApplyEnv(env)
		if err != nil {
			return nil, err
		}
		out[i] = applied
	}
	return out, nil
}
