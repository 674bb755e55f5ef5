// Package build resolves, for one (builder, binary) pair, the
// complete set of modules a binary pulls in under hard/soft/
// conditional dependency and provides/conflicts semantics, with
// backtracking when a speculative choice turns out to conflict.
package build

import (
	"fmt"

	"github.com/standardbeagle/laze/internal/contextbag"
	"github.com/standardbeagle/laze/internal/lazerr"
	"github.com/standardbeagle/laze/internal/model"
	"github.com/standardbeagle/laze/internal/nestedenv"
	"github.com/standardbeagle/laze/internal/orderedmap"
)

// Build is one instantiation of a binary module for a builder context:
// it owns the synthetic build context (named "$builder:$binary") whose
// environment and provides inherit from the builder.
type Build struct {
	Bag          *contextbag.ContextBag
	Binary       *model.Module
	Builder      *contextbag.Context
	BuildContext *contextbag.Context
}

// New instantiates a Build for binary under builder. cliSelects (from
// the command line), the binary's own selects, and the build context's
// inherited selects are concatenated in that precedence order (CLI
// wins, declared last among equals).
func New(binary *model.Module, builder *contextbag.Context, bag *contextbag.ContextBag, cliSelects []model.Dependency[string]) *Build {
	buildContext := contextbag.NewBuildContext(builder.Name, builder)
	if parent := buildContext.GetParent(bag); parent != nil {
		buildContext.Provides = parent.Provides
	}

	binaryCopy := *binary
	var selects []model.Dependency[string]
	selects = append(selects, cliSelects...)
	selects = append(selects, binary.Selects...)
	selects = append(selects, buildContext.CollectSelectedModules(bag)...)
	binaryCopy.Selects = selects

	buildContext.Name = buildContext.Name + ":" + binaryCopy.Name

	var buildEnv *nestedenv.Env
	if builder.Env != nil {
		buildEnv = builder.Env.Clone()
	} else {
		buildEnv = nestedenv.New()
	}
	buildEnv.Set("builder", nestedenv.Single(builder.Name))
	buildEnv.Set("app", nestedenv.Single(binaryCopy.Name))
	buildContext.Env = buildEnv

	return &Build{
		Bag:          bag,
		Binary:       &binaryCopy,
		Builder:      builder,
		BuildContext: buildContext,
	}
}

// Result is the output of a successful resolution: the selected module
// set in resolution order, and a provider index (provided-name to the
// resolved modules that provide it) for Module.BuildEnv's notify-list
// and exported-env traversal.
type Result struct {
	Modules   map[string]*model.Module
	Order     []string
	Providers map[string][]*model.Module
}

// ToResolvedSet adapts Result to model.ResolvedSet, the narrow view
// Module.BuildEnv actually needs.
func (r *Result) ToResolvedSet() *model.ResolvedSet {
	return &model.ResolvedSet{Modules: r.Modules, Order: r.Order, Providers: r.Providers}
}

// ResolveSelects runs the backtracking resolver over the build's
// binary module, starting from disabledModules (already unioned across
// the build context's and binary's "disable" declarations).
func (b *Build) ResolveSelects(disabledModules map[string]bool) (*Result, error) {
	r := newResolver(b)
	for name := range disabledModules {
		r.disabledModules.Insert(name)
	}

	if err := r.resolveModuleDeep(b.Binary); err != nil {
		return nil, err
	}

	modules := make(map[string]*model.Module, r.moduleSet.Len())
	order := r.moduleSet.Keys()
	for _, name := range order {
		m, _ := r.moduleSet.Get(name)
		modules[name] = m
	}

	providers := make(map[string][]*model.Module)
	for provided, names := range b.BuildContext.Provides {
		for _, name := range names {
			if m, ok := modules[name]; ok {
				providers[provided] = append(providers[provided], m)
			}
		}
	}

	return &Result{Modules: modules, Order: order, Providers: providers}, nil
}

type resolverState struct {
	moduleSetLen       int
	ifThenDepsLen      int
	disabledModulesLen int
	providedSetLen     int
}

type resolver struct {
	build *Build

	moduleSet       *orderedmap.Map[string, *model.Module]
	ifThenDeps      *orderedmap.Map[string, []model.Dependency[string]]
	disabledModules *orderedmap.Set[string]
	providedSet     *orderedmap.Set[string]
}

func newResolver(b *Build) *resolver {
	return &resolver{
		build:           b,
		moduleSet:       orderedmap.New[string, *model.Module](),
		ifThenDeps:      orderedmap.New[string, []model.Dependency[string]](),
		disabledModules: orderedmap.NewSet[string](),
		providedSet:     orderedmap.NewSet[string](),
	}
}

func (r *resolver) state() resolverState {
	return resolverState{
		moduleSetLen:       r.moduleSet.Len(),
		ifThenDepsLen:      r.ifThenDeps.Len(),
		disabledModulesLen: r.disabledModules.Len(),
		providedSetLen:     r.providedSet.Len(),
	}
}

func (r *resolver) reset(s resolverState) {
	r.moduleSet.Truncate(s.moduleSetLen)
	r.ifThenDeps.Truncate(s.ifThenDepsLen)
	r.disabledModules.Truncate(s.disabledModulesLen)
	r.providedSet.Truncate(s.providedSetLen)
}

// resolveModuleDeep inserts module and recursively resolves its
// selects (plus any "if_then" deps it just activated), checkpointing
// before the insert so a hard-dependency failure anywhere below can
// roll this whole subtree back.
func (r *resolver) resolveModuleDeep(module *model.Module) error {
	state := r.state()
	r.moduleSet.Set(module.Name, module)

	if module.Provides != nil {
		for _, provided := range module.Provides {
			if r.disabledModules.Contains(provided) {
				r.reset(state)
				return lazerr.NewResolutionError(r.build.Builder.Name, r.build.Binary.Name, module.Name, provided,
					fmt.Sprintf("provides disabled/conflicted module %q", provided))
			}
			r.providedSet.Insert(provided)
		}
	}

	if module.Conflicts != nil {
		for _, conflict := range module.Conflicts {
			r.disabledModules.Insert(conflict)
		}
	}

	var lateIfThenDeps []model.Dependency[string]
	if deps, ok := r.ifThenDeps.Get(module.Name); ok {
		lateIfThenDeps = append(lateIfThenDeps, deps...)
	}

	allDeps := make([]model.Dependency[string], 0, len(module.Selects)+len(lateIfThenDeps))
	allDeps = append(allDeps, module.Selects...)
	allDeps = append(allDeps, lateIfThenDeps...)

	for _, dep := range allDeps {
		var depName string
		optional := false

		switch dep.Kind {
		case model.DepHard:
			depName = dep.Name
		case model.DepSoft:
			depName, optional = dep.Name, true
		case model.DepIfThenHard:
			if r.moduleSet.Contains(dep.Other) {
				depName = dep.Name
			} else {
				r.addIfThenDep(dep.Other, model.Hard(dep.Name))
				continue
			}
		case model.DepIfThenSoft:
			if r.moduleSet.Contains(dep.Other) {
				depName, optional = dep.Name, true
			} else {
				r.addIfThenDep(dep.Other, model.Soft(dep.Name))
				continue
			}
		}

		if r.moduleSet.Contains(depName) {
			continue
		}

		if r.providedSet.Contains(depName) {
			optional = true
		}

		if r.disabledModules.Contains(depName) {
			if !optional {
				r.reset(state)
				return lazerr.NewResolutionError(r.build.Builder.Name, r.build.Binary.Name, module.Name, depName,
					"disabled/conflicted module")
			}
			continue
		}

		if providingModules, ok := r.build.BuildContext.Provides[depName]; ok {
			if r.resolveModuleList(providingModules, depName) > 0 {
				optional = true
				r.providedSet.Insert(depName)
				if r.disabledModules.Contains(depName) {
					continue
				}
			}
		}

		_, depModule, found := r.build.BuildContext.ResolveModule(depName, r.build.Bag)
		if !found {
			if optional {
				continue
			}
			r.reset(state)
			return lazerr.NewResolutionError(r.build.Builder.Name, r.build.Binary.Name, module.Name, depName,
				"unavailable module")
		}

		if err := r.resolveModuleDeep(depModule); err != nil {
			if !optional {
				r.reset(state)
				return err
			}
		}
	}

	return nil
}

func (r *resolver) addIfThenDep(other string, dep model.Dependency[string]) {
	existing, _ := r.ifThenDeps.Get(other)
	r.ifThenDeps.Set(other, append(existing, dep))
}

// resolveModuleList resolves the first candidate providing providedName
// that is actually available (first-provider-wins: a later provider
// never supplements or overrides an earlier one that resolved
// successfully), skipping disabled candidates and falling through to
// the next candidate if resolution fails. A provider that itself
// conflicts with providedName disables providedName once chosen, so no
// other dependent can later pull in a second, different provider.
// Returns how many providers ended up resolved (0 or 1).
//
// This stops at the first success; the original (build.rs's
// resolve_module_list) keeps iterating and resolves every
// non-self-conflicting provider it can, coexistence being the
// uncommon case. Deliberate divergence, matching spec.md §8 scenario
// 3's "first declared wins" reading of providers and recorded as Open
// Question (i) in DESIGN.md.
func (r *resolver) resolveModuleList(providingModules []string, providedName string) int {
	for _, moduleName := range providingModules {
		if r.moduleSet.Contains(moduleName) {
			return 1
		}
		if r.disabledModules.Contains(providedName) {
			continue
		}
		if r.disabledModules.Contains(moduleName) {
			continue
		}

		_, module, found := r.build.BuildContext.ResolveModule(moduleName, r.build.Bag)
		if !found {
			continue
		}

		moduleConflicts := false
		if module.Conflicts != nil {
			for _, c := range module.Conflicts {
				if c == providedName {
					moduleConflicts = true
				}
			}
		}

		if err := r.resolveModuleDeep(module); err == nil {
			if moduleConflicts {
				r.disabledModules.Insert(providedName)
			}
			return 1
		}
	}
	return 0
}
