// Package loader is the reference YAML front end: the real laze front
// end is an external collaborator the core only consumes parsed data
// from, but this thin implementation lets the core be exercised end to
// end without one. Each directory contributes one "laze.yml" declaring
// zero or more contexts/builders/modules and, optionally, further
// subdirectories to recurse into.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/laze/internal/contextbag"
	"github.com/standardbeagle/laze/internal/lazerr"
	"github.com/standardbeagle/laze/internal/model"
	"github.com/standardbeagle/laze/internal/nestedenv"
)

const projectFileName = "laze.yml"

// Load walks projectRoot and every directory reachable through
// "subdirs" entries, parsing each laze.yml into the returned
// ContextBag. The bag is finalized (parent resolution, inherited env,
// provides propagation) before being returned.
func Load(projectRoot string) (*contextbag.ContextBag, error) {
	bag := contextbag.New()
	if err := loadDir(bag, projectRoot, projectRoot, make(map[string]bool)); err != nil {
		return nil, err
	}
	if err := bag.Finalize(); err != nil {
		return nil, err
	}
	bag.MergeProvides()
	return bag, nil
}

func loadDir(bag *contextbag.ContextBag, projectRoot, dir string, visited map[string]bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return lazerr.NewExternalError("resolve project directory", err)
	}
	if visited[abs] {
		return nil
	}
	visited[abs] = true

	path := filepath.Join(dir, projectFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return lazerr.NewExternalError(fmt.Sprintf("read %s", path), err)
	}

	var record map[string]any
	if err := yaml.Unmarshal(data, &record); err != nil {
		return lazerr.NewConfigurationError(fmt.Sprintf("%s: invalid YAML: %v", path, err)).WithDefinedIn(path)
	}
	if err := validateProjectFile(record); err != nil {
		return lazerr.NewConfigurationError(fmt.Sprintf("%s: schema validation failed: %v", path, err)).WithDefinedIn(path)
	}

	var file rawFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return lazerr.NewConfigurationError(fmt.Sprintf("%s: %v", path, err)).WithDefinedIn(path)
	}

	relpath, err := filepath.Rel(projectRoot, dir)
	if err != nil {
		relpath = dir
	}
	if relpath == "." {
		relpath = ""
	}

	for i := range file.Builders {
		c, err := buildContext(file.Builders[i], path)
		if err != nil {
			return err
		}
		if _, err := bag.AddContextOrBuilder(c, true); err != nil {
			return err
		}
	}
	for i := range file.Contexts {
		c, err := buildContext(file.Contexts[i], path)
		if err != nil {
			return err
		}
		if _, err := bag.AddContextOrBuilder(c, false); err != nil {
			return err
		}
	}
	for i := range file.Modules {
		m, err := buildModule(file.Modules[i], path, dir, relpath)
		if err != nil {
			return err
		}
		if err := bag.AddModule(m); err != nil {
			return err
		}
	}

	for _, sub := range file.Subdirs {
		if err := loadDir(bag, projectRoot, filepath.Join(dir, sub), visited); err != nil {
			return err
		}
	}

	return nil
}

func buildContext(rc rawContext, definedIn string) (*contextbag.Context, error) {
	c := contextbag.New(rc.Name, rc.Parent)
	c.DefinedIn = definedIn
	c.Disable = rc.Disable

	for _, s := range rc.Select {
		c.Select = append(c.Select, ParseDependency(s))
	}

	if rc.Env != nil {
		env, err := buildEnv(rc.Env)
		if err != nil {
			return nil, lazerr.NewConfigurationError(fmt.Sprintf("%s: context %q env: %v", definedIn, rc.Name, err)).WithDefinedIn(definedIn)
		}
		c.Env = env
	}
	if rc.EnvEarly != nil {
		early, err := buildEnv(rc.EnvEarly)
		if err != nil {
			return nil, err
		}
		c.EnvEarly = early
		if err := c.ApplyEarlyEnv(); err != nil {
			return nil, err
		}
	}
	if rc.VarOptions != nil {
		c.VarOptions = make(map[string]nestedenv.MergeOption, len(rc.VarOptions))
		for k, v := range rc.VarOptions {
			opt, err := parseMergeOption(v)
			if err != nil {
				return nil, lazerr.NewConfigurationError(fmt.Sprintf("%s: context %q var_options[%q]: %v", definedIn, rc.Name, k, err)).WithDefinedIn(definedIn)
			}
			c.VarOptions[k] = opt
		}
	}
	if rc.Tasks != nil {
		c.Tasks = make(map[string]model.Task, len(rc.Tasks))
		for name, rt := range rc.Tasks {
			c.Tasks[name] = buildTask(rt)
		}
	}
	return c, nil
}

func buildModule(rm rawModule, definedIn, dir, relpath string) (*model.Module, error) {
	m := model.New(rm.Name, rm.Context)
	m.Help = rm.Help
	m.Provides = rm.Provides
	m.Conflicts = rm.Conflicts
	m.Disable = rm.Disable
	m.Blocklist = rm.Blocklist
	m.Allowlist = rm.Allowlist
	m.NotifyAll = rm.NotifyAll
	m.IsBinary = rm.IsBinary
	m.DefinedIn = definedIn
	m.Relpath = relpath
	m.Srcdir = dir

	for _, s := range rm.Selects {
		m.Selects = append(m.Selects, ParseDependency(s))
	}
	for _, s := range rm.Imports {
		m.Imports = append(m.Imports, ParseDependency(s))
	}

	sources, err := expandSources(dir, rm.Sources)
	if err != nil {
		return nil, lazerr.NewConfigurationError(fmt.Sprintf("%s: module %q sources: %v", definedIn, rm.Name, err)).WithDefinedIn(definedIn)
	}
	m.Sources = sources

	for key, globs := range rm.SourcesOptional {
		expanded, err := expandSources(dir, globs)
		if err != nil {
			return nil, lazerr.NewConfigurationError(fmt.Sprintf("%s: module %q sources_optional[%q]: %v", definedIn, rm.Name, key, err)).WithDefinedIn(definedIn)
		}
		m.SetSourcesOptional(key, expanded)
	}

	for _, pair := range []struct {
		raw    map[string]any
		target **nestedenv.Env
	}{
		{rm.EnvLocal, &m.EnvLocal},
		{rm.EnvExport, &m.EnvExport},
		{rm.EnvGlobal, &m.EnvGlobal},
		{rm.EnvEarly, &m.EnvEarly},
	} {
		if pair.raw == nil {
			continue
		}
		env, err := buildEnv(pair.raw)
		if err != nil {
			return nil, lazerr.NewConfigurationError(fmt.Sprintf("%s: module %q env: %v", definedIn, rm.Name, err)).WithDefinedIn(definedIn)
		}
		*pair.target = env
	}

	if rm.Tasks != nil {
		for name, rt := range rm.Tasks {
			m.Tasks[name] = buildTask(rt)
		}
	}

	if rm.Build != nil {
		m.Build = &model.CustomBuild{Cmd: rm.Build.Cmd, Out: rm.Build.Out}
	}
	if rm.Download != nil {
		m.Download = &model.DownloadSpec{Name: rm.Download.Name, Location: rm.Download.Location, Revision: rm.Download.Revision}
	}

	if err := m.ApplyEarlyEnv(); err != nil {
		return nil, err
	}

	return m, nil
}

func buildTask(rt rawTask) model.Task {
	t := model.Task{
		Cmd:             rt.Cmd,
		Help:            rt.Help,
		RequiredVars:    rt.RequiredVars,
		RequiredModules: rt.RequiredModules,
		IgnoreCtrlC:     rt.IgnoreCtrlC,
		Build:           true,
	}
	if rt.Build != nil {
		t.Build = *rt.Build
	}
	for _, e := range rt.Export {
		if idx := strings.IndexByte(e, '='); idx >= 0 {
			content := e[idx+1:]
			t.Export = append(t.Export, model.VarExportSpec{Variable: e[:idx], Content: &content})
		} else {
			t.Export = append(t.Export, model.VarExportSpec{Variable: e})
		}
	}
	return t
}

// expandSources resolves each glob pattern against dir via doublestar,
// in declaration order, deduplicating repeats across patterns.
func expandSources(dir string, patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	fsys := os.DirFS(dir)
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			out = append(out, pattern)
			continue
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			if !seen[pattern] {
				seen[pattern] = true
				out = append(out, pattern)
			}
			continue
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				out = append(out, match)
			}
		}
	}
	return out, nil
}

// buildEnv converts a decoded YAML map (string/string-list values) into
// an Env, preserving the map's iteration... decoding order isn't stable
// in plain map[string]any, so callers needing deterministic order
// should prefer yaml.Node based decoding; this reference loader accepts
// the nondeterminism as out of scope for a thin front end.
func buildEnv(raw map[string]any) (*nestedenv.Env, error) {
	env := nestedenv.New()
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			env.Set(k, nestedenv.Single(val))
		case []any:
			items := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("env key %q: list item is not a string", k)
				}
				items = append(items, s)
			}
			env.Set(k, nestedenv.List(items...))
		default:
			return nil, fmt.Errorf("env key %q: unsupported value type %T", k, v)
		}
	}
	return env, nil
}

// ParseDependency decodes a module's select/import entry shorthand, or
// a CLI "-s" selector string (the same compact encoding, exported for
// that second use site):
//
//	"name"        hard dependency
//	"?name"       soft dependency
//	"other?name"  if Other is resolved, then Name as a soft dependency
//	"other!name"  if Other is resolved, then Name as a hard dependency
func ParseDependency(s string) model.Dependency[string] {
	if idx := strings.IndexByte(s, '!'); idx >= 0 {
		return model.IfThenHard(s[:idx], s[idx+1:])
	}
	if idx := strings.IndexByte(s, '?'); idx >= 0 {
		if idx == 0 {
			return model.Soft(s[1:])
		}
		return model.IfThenSoft(s[:idx], s[idx+1:])
	}
	return model.Hard(s)
}

func parseMergeOption(s string) (nestedenv.MergeOption, error) {
	switch s {
	case "join_space", "":
		return nestedenv.MergeJoinSpace, nil
	case "join_comma":
		return nestedenv.MergeJoinComma, nil
	case "join_newline":
		return nestedenv.MergeJoinNewline, nil
	case "keep_first":
		return nestedenv.MergeKeepFirst, nil
	case "keep_last":
		return nestedenv.MergeKeepLast, nil
	default:
		return 0, fmt.Errorf("unknown merge option %q", s)
	}
}
