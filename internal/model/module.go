package model

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/laze/internal/nestedenv"
)

// CustomBuild replaces a module's ordinary extension-keyed compile
// rule lookup with an explicit command list and declared outputs, for
// sources that don't fit the extension-to-rule model.
type CustomBuild struct {
	Cmd []string
	Out []string
}

// DownloadSpec is the core's only view of an externally imported
// module: a name, a location, and an optional revision. The core never
// interprets these fields; a loader/importer collaborator attaches
// them and a downstream mechanism resolves them.
type DownloadSpec struct {
	Name     string
	Location string
	Revision string
}

// Module is a named unit of sources, dependencies, and environment
// fragments, scoped to one context.
type Module struct {
	Name        string
	ContextName string

	Help string

	Selects   []Dependency[string]
	Imports   []Dependency[string]
	Provides  []string
	Conflicts []string
	Disable   []string // modules this one disables, unioned into the build's disabled set when selected as a binary
	NotifyAll bool

	Blocklist []string
	Allowlist []string

	Sources             []string
	sourcesOptionalKeys []string
	sourcesOptional     map[string][]string

	Tasks map[string]Task

	Build *CustomBuild

	EnvLocal  *nestedenv.Env
	EnvExport *nestedenv.Env
	EnvGlobal *nestedenv.Env
	EnvEarly  *nestedenv.Env

	Download *DownloadSpec

	ContextID        int // -1 when unresolved
	DefinedIn        string
	Relpath          string
	Srcdir           string
	BuildDepFiles    []string
	IsBuildDep       bool
	IsGlobalBuildDep bool
	IsBinary         bool
}

// New returns a Module with its environment fragments initialized and
// context name defaulted to "default".
func New(name, contextName string) *Module {
	if contextName == "" {
		contextName = "default"
	}
	return &Module{
		Name:        name,
		ContextName: contextName,
		Tasks:       make(map[string]Task),
		EnvLocal:    nestedenv.New(),
		EnvExport:   nestedenv.New(),
		EnvGlobal:   nestedenv.New(),
		EnvEarly:    nestedenv.New(),
		ContextID:   -1,
	}
}

// SetSourcesOptional sets the sources_optional table in declaration
// order; key is the name of the module that, if present in the
// resolved set, activates the associated optional sources.
func (m *Module) SetSourcesOptional(key string, sources []string) {
	if m.sourcesOptional == nil {
		m.sourcesOptional = make(map[string][]string)
	}
	if _, exists := m.sourcesOptional[key]; !exists {
		m.sourcesOptionalKeys = append(m.sourcesOptionalKeys, key)
	}
	m.sourcesOptional[key] = sources
}

// OptionalSourcesFor returns the optional sources activated when the
// given set of resolved module names is present, in declaration order.
func (m *Module) OptionalSourcesFor(resolved map[string]bool) []string {
	var out []string
	for _, key := range m.sourcesOptionalKeys {
		if resolved[key] {
			out = append(out, m.sourcesOptional[key]...)
		}
	}
	return out
}

// IsContextModule reports whether this module represents a synthetic
// per-context module (named "context::...") rather than a user one.
func (m *Module) IsContextModule() bool {
	return strings.HasPrefix(m.Name, "context::")
}

// String formats the module as "name" in the default context, or
// "context:name" otherwise.
func (m *Module) String() string {
	if m.ContextName == "default" || m.ContextName == "" {
		return m.Name
	}
	return m.ContextName + ":" + m.Name
}

// createModuleDefine turns the module's name into an uppercased,
// symbol-safe identifier suitable as a preprocessor define, e.g.
// "lib/foo-bar" -> "LIB_FOO_BAR".
func (m *Module) createModuleDefine() string {
	var b strings.Builder
	for _, r := range m.Name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r == '/' || r == '.' || r == '-' || r == ':':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AddBuildDepFile records a Ninja target name as a build dependency
// for this module, deduplicating repeats.
func (m *Module) AddBuildDepFile(dep string) {
	for _, existing := range m.BuildDepFiles {
		if existing == dep {
			return
		}
	}
	m.BuildDepFiles = append(m.BuildDepFiles, dep)
}

// ApplyEarlyEnv expands env_local/env_export/env_global against
// env_early, letting later fragments reference env_early's keys via
// "${...}" before the normal merge happens.
func (m *Module) ApplyEarlyEnv() error {
	var err error
	if m.EnvLocal, err = nestedenv.ExpandEnv(m.EnvLocal, m.EnvEarly); err != nil {
		return err
	}
	if m.EnvExport, err = nestedenv.ExpandEnv(m.EnvExport, m.EnvEarly); err != nil {
		return err
	}
	if m.EnvGlobal, err = nestedenv.ExpandEnv(m.EnvGlobal, m.EnvEarly); err != nil {
		return err
	}
	return nil
}

// ResolvedSet is the read-only view of a resolution result that
// BuildEnv needs: the selected module set plus the provider index,
// keyed by name - never back-pointers, so a Module never has to know
// about the resolver that produced its environment.
type ResolvedSet struct {
	Modules   map[string]*Module
	Order     []string // module names in resolution order
	Providers map[string][]*Module
}

// getImportsRecursive walks this module's "imports" dependency list
// (and the modules that provide one of those names), depth-first,
// returning every reachable module (including m) with no duplicates,
// in post-order so a dependency's exported env merges before its
// dependent's.
func (m *Module) getImportsRecursive(resolved *ResolvedSet, seen map[string]bool) []*Module {
	if seen == nil {
		seen = make(map[string]bool)
	}
	if seen[m.Name] {
		return nil
	}
	seen[m.Name] = true

	var result []*Module
	for _, dep := range m.Imports {
		depName := dep.GetName()
		switch dep.Kind {
		case DepIfThenHard, DepIfThenSoft:
			if _, ok := resolved.Modules[dep.Other]; !ok {
				continue
			}
		}

		if other, ok := resolved.Modules[depName]; ok {
			result = append(result, other.getImportsRecursive(resolved, seen)...)
		}
		for _, provider := range resolved.Providers[depName] {
			result = append(result, provider.getImportsRecursive(resolved, seen)...)
		}
	}
	result = append(result, m)
	return result
}

// BuildEnv assembles this module's final environment: the global env,
// merged with every (recursive) import's exported env, with a
// "notify" list of imported (or, if notify_all, all) module defines,
// and finally this module's own local env on top. It also returns the
// set of modules this one pulls in as file-level build dependencies.
func (m *Module) BuildEnv(globalEnv *nestedenv.Env, resolved *ResolvedSet) (*nestedenv.Env, []*Module) {
	moduleEnv := globalEnv.Clone()
	var buildDepModules []*Module
	seenDep := make(map[string]bool)

	deps := m.getImportsRecursive(resolved, nil)

	for _, dep := range deps {
		nestedenv.Merge(moduleEnv, dep.EnvExport)

		if !m.NotifyAll {
			notify, ok := moduleEnv.Get("notify")
			if !ok {
				notify = nestedenv.List()
			}
			notify = nestedenv.List(append(append([]string{}, notify.List...), dep.createModuleDefine())...)
			moduleEnv.Set("notify", notify)
		}

		if dep != m && dep.IsBuildDep && !seenDep[dep.Name] {
			seenDep[dep.Name] = true
			buildDepModules = append(buildDepModules, dep)
		}
	}

	if m.NotifyAll {
		var defines []string
		for _, name := range resolved.Order {
			mod := resolved.Modules[name]
			if mod.IsContextModule() {
				continue
			}
			defines = append(defines, mod.createModuleDefine())
		}
		moduleEnv.Set("notify", nestedenv.List(defines...))
	}

	nestedenv.Merge(moduleEnv, m.EnvLocal)

	return moduleEnv, buildDepModules
}

// Extension returns the filename extension (without the dot, case
// kept as written) of a source path, e.g. "src/foo.c" -> "c".
func Extension(source string) string {
	ext := filepath.Ext(source)
	return strings.TrimPrefix(ext, ".")
}
