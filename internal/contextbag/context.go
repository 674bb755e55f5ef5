package contextbag

import (
	"github.com/standardbeagle/laze/internal/model"
	"github.com/standardbeagle/laze/internal/nestedenv"
)

// Context is one node of the build-context tree: builders, their
// sub-contexts, and the synthetic per-(builder,binary) build context
// the resolver instantiates all inherit from a chain of Contexts.
// Parent/child links are indices into the owning ContextBag, never
// pointers, so a Context never has to know how it will be copied or
// relocated.
type Context struct {
	Name       string
	ParentName string

	Index       int // -1 until added to a ContextBag
	ParentIndex int // -1 when this is a root context

	moduleOrder []string
	modules     map[string]*model.Module

	ruleOrder []string
	rules     map[string]*model.Rule

	Env        *nestedenv.Env
	Select     []model.Dependency[string]
	Disable    []string
	VarOptions map[string]nestedenv.MergeOption

	Tasks     map[string]model.Task
	EnvEarly  *nestedenv.Env
	IsBuilder bool
	DefinedIn string

	// Provides maps a provided name to the set of module names (within
	// this context) that declare "provides: [name]", merged down from
	// parent contexts by ContextBag.MergeProvides.
	Provides map[string][]string
}

// New returns a Context with no parent.
func New(name, parentName string) *Context {
	return &Context{
		Name:        name,
		ParentName:  parentName,
		Index:       -1,
		ParentIndex: -1,
		modules:     make(map[string]*model.Module),
		rules:       make(map[string]*model.Rule),
		EnvEarly:    nestedenv.New(),
	}
}

// NewBuildContext returns the synthetic per-(builder,binary) context a
// Build instantiates, parented directly to builder.
func NewBuildContext(name string, builder *Context) *Context {
	c := New(name, builder.Name)
	c.ParentIndex = builder.Index
	return c
}

// AddModule registers a module under its declared name, returning
// false if the name is already taken in this context.
func (c *Context) AddModule(m *model.Module) bool {
	if _, exists := c.modules[m.Name]; exists {
		return false
	}
	c.moduleOrder = append(c.moduleOrder, m.Name)
	c.modules[m.Name] = m
	return true
}

func (c *Context) Module(name string) (*model.Module, bool) {
	m, ok := c.modules[name]
	return m, ok
}

func (c *Context) Modules() map[string]*model.Module { return c.modules }
func (c *Context) ModuleOrder() []string              { return c.moduleOrder }

// AddRule registers a rule keyed by its input extension (or, absent
// that, its name), overwriting any rule previously registered under
// the same key in this context.
func (c *Context) AddRule(r *model.Rule) {
	key := r.In
	if key == "" {
		key = r.Name
	}
	if _, exists := c.rules[key]; !exists {
		c.ruleOrder = append(c.ruleOrder, key)
	}
	c.rules[key] = r
}

// GetParent resolves this context's parent via bag, or returns nil for
// a root context.
func (c *Context) GetParent(bag *ContextBag) *Context {
	if c.ParentIndex < 0 {
		return nil
	}
	return bag.ContextByID(c.ParentIndex)
}

func (c *Context) getParents(bag *ContextBag, result *[]*Context) {
	if parent := c.GetParent(bag); parent != nil {
		parent.getParents(bag, result)
	}
	*result = append(*result, c)
}

// ResolveModule looks up moduleName in this context, then walks up the
// parent chain until found or exhausted.
func (c *Context) ResolveModule(moduleName string, bag *ContextBag) (*Context, *model.Module, bool) {
	if m, ok := c.modules[moduleName]; ok {
		return c, m, true
	}
	if parent := c.GetParent(bag); parent != nil {
		return parent.ResolveModule(moduleName, bag)
	}
	return nil, nil, false
}

// CountParents returns the number of ancestors above this context.
func (c *Context) CountParents(bag *ContextBag) int {
	if c.ParentIndex < 0 {
		return 0
	}
	return bag.ContextByID(c.ParentIndex).CountParents(bag) + 1
}

// CollectRules gathers the rules of this context and every ancestor,
// keyed by input extension, with descendant contexts' rules
// overriding ancestors' for the same key.
func (c *Context) CollectRules(bag *ContextBag) map[string]*model.Rule {
	var parents []*Context
	c.getParents(bag, &parents)
	result := make(map[string]*model.Rule)
	for _, parent := range parents {
		for _, key := range parent.ruleOrder {
			result[key] = parent.rules[key]
		}
	}
	return result
}

// CollectTasks gathers tasks from this context and its ancestors, each
// bound to env via Task.WithEnvEval (interpolation then expression
// evaluation, so a task's export entries reach the executor already
// expanded), with descendants overriding ancestors of the same name.
func (c *Context) CollectTasks(bag *ContextBag, env map[string]string) (map[string]model.Task, error) {
	var parents []*Context
	c.getParents(bag, &parents)
	result := make(map[string]model.Task)
	for _, parent := range parents {
		for name, task := range parent.Tasks {
			bound, err := task.WithEnvEval(env)
			if err != nil {
				return nil, err
			}
			result[name] = bound
		}
	}
	return result, nil
}

// CollectDisabledModules unions the "disable" lists of this context
// and every ancestor.
func (c *Context) CollectDisabledModules(bag *ContextBag) map[string]bool {
	var parents []*Context
	c.getParents(bag, &parents)
	result := make(map[string]bool)
	for _, parent := range parents {
		for _, name := range parent.Disable {
			result[name] = true
		}
	}
	return result
}

// CollectSelectedModules concatenates the "select" lists of this
// context and every ancestor, in ancestor-to-descendant order.
func (c *Context) CollectSelectedModules(bag *ContextBag) []model.Dependency[string] {
	var parents []*Context
	c.getParents(bag, &parents)
	var result []model.Dependency[string]
	for _, parent := range parents {
		result = append(result, parent.Select...)
	}
	return result
}

// ApplyEarlyEnv expands this context's env against its env_early
// fragment, the context-level counterpart of Module.ApplyEarlyEnv.
func (c *Context) ApplyEarlyEnv() error {
	if c.Env == nil {
		return nil
	}
	expanded, err := nestedenv.ExpandEnv(c.Env, c.EnvEarly)
	if err != nil {
		return err
	}
	c.Env = expanded
	return nil
}
