// Package generator turns a finalized ContextBag into a Ninja build
// file: for every (builder, binary) pair selected on the command line,
// it resolves the binary's module set, assembles each module's final
// environment, emits a compile rule/build pair per source file and a
// link rule/build for the binary, and collects the pair's tasks.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/laze/internal/build"
	"github.com/standardbeagle/laze/internal/contextbag"
	"github.com/standardbeagle/laze/internal/lazerr"
	"github.com/standardbeagle/laze/internal/model"
	"github.com/standardbeagle/laze/internal/nestedenv"
	"github.com/standardbeagle/laze/internal/ninjawriter"
)

// Mode selects whether every binary in the project is considered
// (Global) or only those declared under one starting directory
// (Local), mirroring a build invoked from a project subdirectory.
type Mode int

const (
	ModeGlobal Mode = iota
	ModeLocal
)

// Partition splits the full (builder, binary) work list into Total
// roughly equal slices and configures only the Index'th one, so a CI
// matrix can shard a large project across workers. Total of 0 (the
// zero value) means "no partitioning".
type Partition struct {
	Index int
	Total int
}

func (p Partition) active() bool { return p.Total > 1 }

// Options configures one Generate call.
type Options struct {
	BuildDir      string
	Mode          Mode
	LocalStartDir string
	Builders      []string                   // empty means every builder context
	Apps          []string                   // empty means every binary
	CLISelects    []model.Dependency[string] // "-s", highest-precedence selects per §4.3
	CLIDisables   []string                   // "-d"
	Defines       map[string]string          // "-D KEY=VALUE", seeded into every pair's global env
	Partition     Partition
}

// BuildInfo is what a successfully configured (builder, binary) pair
// contributes: its collected, environment-bound tasks, the flattened
// final environment they were bound against (for a task's
// required_vars check), the resolved module name set (for a task's
// required_modules check), and its per-source compile commands (for
// the CLI's "-c" compile_commands.json export).
type BuildInfo struct {
	Tasks          map[string]model.Task
	Env            map[string]string
	Modules        map[string]bool
	CompileCommand []CompileCommand
}

// CompileCommand is one entry of a clang-compatible compile_commands.json:
// the fully resolved (no "${in}"/"${out}" placeholders left) command
// line used to compile one source file.
type CompileCommand struct {
	Directory string
	Command   string
	File      string
}

// Result names one configured (builder, binary) pair.
type Result struct {
	Builder string
	Binary  string
	Info    BuildInfo
}

// Generate configures every selected (builder, binary) pair against
// bag, writing compile/link rules and builds into writer, and returns
// one Result per pair that resolved successfully (a pair whose
// dependencies don't resolve, or that's blocklisted for its builder,
// is silently skipped, matching the reference tool's "keep going"
// behavior across a large app matrix). A pair whose configureBuild
// returns an error (no rule for a source, no LINK rule, a failed
// expansion) is skipped the same way; that error is not returned.
func Generate(bag *contextbag.ContextBag, writer *ninjawriter.Writer, opts Options) ([]Result, error) {
	lazeEnv := nestedenv.New()
	lazeEnv.Set("in", nestedenv.Single("\\${in}"))
	lazeEnv.Set("out", nestedenv.Single("\\${out}"))
	lazeEnv.Set("build-dir", nestedenv.Single(opts.BuildDir))
	for k, v := range opts.Defines {
		lazeEnv.Set(k, nestedenv.Single(v))
	}

	builders, err := selectBuilders(bag, opts.Builders)
	if err != nil {
		return nil, err
	}
	binaries := selectBinaries(bag, opts)

	type pair struct {
		builder *contextbag.Context
		binary  *model.Module
	}
	var pairs []pair
	for _, b := range builders {
		for _, bin := range binaries {
			pairs = append(pairs, pair{b, bin})
		}
	}

	if opts.Partition.active() {
		pairs = partitionPairs(pairs, opts.Partition)
	}

	// Each pair resolves against its own local writer so parallel
	// goroutines never interleave rule/build emission order; the local
	// writers are merged into the shared one single-threaded, in
	// canonical (builder, binary) order, below. This is what keeps the
	// emitted Ninja file byte-identical across runs regardless of which
	// pair's goroutine happens to finish first (§5).
	results := make([]*Result, len(pairs))
	localWriters := make([]*ninjawriter.Writer, len(pairs))
	g := new(errgroup.Group)
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			lw := ninjawriter.New()
			info, err := configureBuild(p.binary, bag, p.builder, lw, lazeEnv, opts.CLISelects, opts.CLIDisables)
			if err != nil {
				return nil // a pair that fails to configure is skipped, not fatal
			}
			if info != nil {
				results[i] = &Result{Builder: p.builder.Name, Binary: p.binary.Name, Info: *info}
				localWriters[i] = lw
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(results))
	for i, r := range results {
		if r != nil {
			writer.Merge(localWriters[i])
			out = append(out, *r)
		}
	}
	return out, nil
}

func selectBuilders(bag *contextbag.ContextBag, names []string) ([]*contextbag.Context, error) {
	if len(names) == 0 {
		return bag.Builders(), nil
	}
	return bag.BuildersByName(names)
}

func selectBinaries(bag *contextbag.ContextBag, opts Options) []*model.Module {
	wantApp := make(map[string]bool, len(opts.Apps))
	for _, a := range opts.Apps {
		wantApp[a] = true
	}
	allApps := len(opts.Apps) == 0

	var bins []*model.Module
	for _, c := range bag.Contexts {
		for _, name := range c.ModuleOrder() {
			m, _ := c.Module(name)
			if !m.IsBinary {
				continue
			}
			if !allApps && !wantApp[m.Name] {
				continue
			}
			if opts.Mode == ModeLocal && m.Relpath != opts.LocalStartDir {
				continue
			}
			bins = append(bins, m)
		}
	}
	return bins
}

// partitionPairs deterministically shards pairs into p.Total
// roughly equal, contiguous slices and returns the p.Index'th.
func partitionPairs[T any](pairs []T, p Partition) []T {
	if len(pairs) == 0 {
		return pairs
	}
	n := len(pairs)
	base := n / p.Total
	rem := n % p.Total
	start := p.Index*base + min(p.Index, rem)
	count := base
	if p.Index < rem {
		count++
	}
	end := start + count
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	return pairs[start:end]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// configureBuild resolves and emits one (builder, binary) pair. It
// returns (nil, nil) when the pair is legitimately skipped (blocklisted
// builder, unresolved dependency), and a non-nil error only for a
// structural problem (e.g. a builder with no LINK rule).
func configureBuild(binary *model.Module, bag *contextbag.ContextBag, builder *contextbag.Context, writer *ninjawriter.Writer, lazeEnv *nestedenv.Env, cliSelects []model.Dependency[string], cliDisables []string) (*BuildInfo, error) {
	switch bag.IsAllowed(builder, binary.Blocklist, binary.Allowlist).Kind {
	case contextbag.Blocked, contextbag.BlockedBy:
		return nil, nil
	}

	b := build.New(binary, builder, bag, cliSelects)

	globalEnv := nestedenv.New()
	nestedenv.Merge(globalEnv, lazeEnv)
	nestedenv.Merge(globalEnv, b.BuildContext.Env)

	disabled := b.BuildContext.CollectDisabledModules(bag)
	for _, d := range binary.Disable {
		disabled[d] = true
	}
	for _, d := range cliDisables {
		disabled[d] = true
	}

	resolved, err := b.ResolveSelects(disabled)
	if err != nil {
		return nil, nil
	}

	rules := b.BuildContext.CollectRules(bag)

	// merge module env_global fragments in reverse resolution order, so
	// the binary's own global env ends up innermost.
	for i := len(resolved.Order) - 1; i >= 0; i-- {
		m := resolved.Modules[resolved.Order[i]]
		nestedenv.Merge(globalEnv, m.EnvGlobal)
	}

	type compileJob struct {
		rule ninjawriter.Rule
		in   string
		out  string
	}
	var jobs []compileJob

	resolvedSet := resolved.ToResolvedSet()
	resolvedNames := make(map[string]bool, len(resolved.Modules))
	for name := range resolved.Modules {
		resolvedNames[name] = true
	}

	for _, name := range resolved.Order {
		m := resolved.Modules[name]
		moduleEnv, _ := m.BuildEnv(globalEnv, resolvedSet)

		flattened := nestedenv.FlattenWithOptions(moduleEnv, builder.VarOptions)

		sources := append(append([]string{}, m.Sources...), m.OptionalSourcesFor(resolvedNames)...)
		if len(sources) == 0 {
			continue
		}

		moduleRules := make(map[string]ninjawriter.Rule)
		for _, source := range sources {
			ext := model.Extension(source)
			if _, ok := moduleRules[ext]; ok {
				continue
			}
			rule, ok := rules[ext]
			if !ok {
				return nil, lazerr.NewConfigurationError(
					fmt.Sprintf("no rule found for %q of module %q", source, m.Name)).
					WithDefinedIn(m.DefinedIn)
			}
			expanded, err := nestedenv.Expand(rule.Cmd, flattened, nestedenv.IfMissingEmpty)
			if err != nil {
				return nil, err
			}
			moduleRules[ext] = ninjawriter.Rule{
				Name:    rule.Name,
				Command: expanded,
				Depfile: depfileFor(rule),
				Deps:    depsFor(rule),
			}
		}

		for _, source := range sources {
			ext := model.Extension(source)
			rule := rules[ext]
			ninjaRule := moduleRules[ext]
			srcpath := filepath.Join(m.Srcdir, source)
			out := outputFor(srcpath, rule.Out)
			jobs = append(jobs, compileJob{rule: ninjaRule, in: srcpath, out: out})
		}
	}

	var linkRule *model.Rule
	for _, r := range rules {
		if r.Name == "LINK" {
			linkRule = r
			break
		}
	}
	if linkRule == nil {
		return nil, lazerr.NewConfigurationError(fmt.Sprintf("missing LINK rule for builder %q", builder.Name))
	}

	globalEnv.Set("relpath", nestedenv.Single(binary.Relpath))
	linkFlat := nestedenv.Flatten(globalEnv)
	linkExpanded, err := nestedenv.Expand(linkRule.Cmd, linkFlat, nestedenv.IfMissingEmpty)
	if err != nil {
		return nil, err
	}
	bindir, err := nestedenv.Expand("${bindir}", linkFlat, nestedenv.IfMissingEmpty)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, lazerr.NewExternalError("resolve working directory", err)
	}

	var objects []string
	var compileCommands []CompileCommand
	for _, job := range jobs {
		ruleName := writer.WriteRuleDedup(job.rule)
		object := filepath.Join(bindir, job.out)
		writer.AddBuild(ninjawriter.Build{Rule: ruleName, Out: []string{object}, In: []string{job.in}})
		objects = append(objects, object)

		resolvedCmd := strings.ReplaceAll(job.rule.Command, "${in}", job.in)
		resolvedCmd = strings.ReplaceAll(resolvedCmd, "${out}", object)
		compileCommands = append(compileCommands, CompileCommand{Directory: cwd, Command: resolvedCmd, File: job.in})
	}

	outElf := filepath.Join(bindir, binary.Name+".elf")
	linkRuleName := writer.WriteRuleDedup(ninjawriter.Rule{Name: linkRule.Name, Command: linkExpanded})
	sort.Strings(objects) // deterministic link-line ordering across runs
	writer.AddBuild(ninjawriter.Build{Rule: linkRuleName, Out: []string{outElf}, In: objects})

	taskEnv := globalEnv.Clone()
	taskEnv.Set("out", nestedenv.Single(outElf))
	flattenedTaskEnv := nestedenv.Flatten(taskEnv)
	tasks, err := b.BuildContext.CollectTasks(bag, flattenedTaskEnv)
	if err != nil {
		return nil, err
	}

	return &BuildInfo{Tasks: tasks, Env: flattenedTaskEnv, Modules: resolvedNames, CompileCommand: compileCommands}, nil
}

func depfileFor(r *model.Rule) string {
	if r.Deps.GCCDepfile != "" {
		return r.Deps.GCCDepfile
	}
	return ""
}

func depsFor(r *model.Rule) string {
	if r.Deps.GCCDepfile != "" {
		return "gcc"
	}
	return ""
}

func outputFor(srcpath string, outExt string) string {
	if outExt == "" {
		outExt = "o"
	}
	ext := filepath.Ext(srcpath)
	return srcpath[:len(srcpath)-len(ext)] + "." + outExt
}
