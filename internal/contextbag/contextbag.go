// Package contextbag holds the ContextBag: the arena of every Context
// a project declares, plus the cross-context bookkeeping (parent
// resolution, inherited environments, provider shadowing, and the
// block/allow list check) that only makes sense once every context is
// known.
package contextbag

import (
	"fmt"
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/laze/internal/lazerr"
	"github.com/standardbeagle/laze/internal/model"
	"github.com/standardbeagle/laze/internal/nestedenv"
)

// ContextBag owns every Context by index; Contexts refer to each other
// (and to modules' context_id) purely by index into this arena.
type ContextBag struct {
	Contexts   []*Context
	contextMap map[string]int

	topoSorted []numParents // set by Finalize
}

type numParents struct {
	index      int
	numParents int
}

func New() *ContextBag {
	return &ContextBag{contextMap: make(map[string]int)}
}

func (b *ContextBag) GetByName(name string) (*Context, bool) {
	id, ok := b.contextMap[name]
	if !ok {
		return nil, false
	}
	return b.Contexts[id], true
}

func (b *ContextBag) ContextByID(id int) *Context { return b.Contexts[id] }

// AddContextOrBuilder registers context, failing if its name is
// already taken.
func (b *ContextBag) AddContextOrBuilder(c *Context, isBuilder bool) (*Context, error) {
	if existing, ok := b.contextMap[c.Name]; ok {
		return nil, lazerr.NewConfigurationError(
			fmt.Sprintf("context name %q already defined", c.Name)).
			WithDefinedIn(b.Contexts[existing].DefinedIn)
	}
	c.IsBuilder = isBuilder
	c.Index = len(b.Contexts)
	b.contextMap[c.Name] = c.Index
	b.Contexts = append(b.Contexts, c)
	return c, nil
}

func (b *ContextBag) AddContext(c *Context) (*Context, error) {
	return b.AddContextOrBuilder(c, false)
}

// AddModule registers module under its declared context, failing if
// that context is unknown or the name collides within it.
func (b *ContextBag) AddModule(m *model.Module) error {
	contextID, ok := b.contextMap[m.ContextName]
	if !ok {
		return lazerr.NewConfigurationError(
			fmt.Sprintf("module %q: undefined context %q", m.Name, m.ContextName)).
			WithDefinedIn(m.DefinedIn)
	}
	context := b.Contexts[contextID]
	m.ContextID = contextID
	if !context.AddModule(m) {
		other, _ := context.Module(m.Name)
		return lazerr.NewConfigurationError(
			fmt.Sprintf("module %q, context %q: name already used in %s", m.Name, m.ContextName, other.DefinedIn)).
			WithDefinedIn(m.DefinedIn)
	}
	if m.Provides != nil {
		if context.Provides == nil {
			context.Provides = make(map[string][]string)
		}
		for _, provided := range m.Provides {
			context.Provides[provided] = appendUnique(context.Provides[provided], m.Name)
		}
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// Finalize resolves every context's parent index, merges inherited
// environments and var_options down the parent chain (processed in
// ascending order of ancestor count, so a context's parent is always
// already resolved), and must run before any resolution is attempted.
func (b *ContextBag) Finalize() error {
	if _, ok := b.GetByName("default"); !ok {
		if _, err := b.AddContext(New("default", "")); err != nil {
			return err
		}
	}

	for _, c := range b.Contexts {
		if c.ParentName != "" {
			parentID, ok := b.contextMap[c.ParentName]
			if !ok {
				return lazerr.NewConfigurationError(
					fmt.Sprintf("context %q has unknown parent %q", c.Name, c.ParentName)).
					WithDefinedIn(c.DefinedIn)
			}
			c.ParentIndex = parentID
		}
	}

	sorted := make([]numParents, len(b.Contexts))
	for i, c := range b.Contexts {
		sorted[i] = numParents{index: i, numParents: c.CountParents(b)}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].numParents < sorted[j].numParents })

	for _, entry := range sorted {
		if entry.numParents == 0 {
			continue
		}
		c := b.Contexts[entry.index]
		parent := b.Contexts[c.ParentIndex]
		if parent.Env != nil {
			merged := parent.Env.Clone()
			if c.Env != nil {
				nestedenv.Merge(merged, c.Env)
			}
			c.Env = merged
		}
	}

	for _, entry := range sorted {
		if entry.numParents == 0 {
			continue
		}
		c := b.Contexts[entry.index]
		parent := b.Contexts[c.ParentIndex]
		if parent.VarOptions != nil && c.VarOptions == nil {
			combined := make(map[string]nestedenv.MergeOption, len(parent.VarOptions))
			for k, v := range parent.VarOptions {
				combined[k] = v
			}
			c.VarOptions = combined
		} else if parent.VarOptions != nil {
			for k, v := range parent.VarOptions {
				if _, exists := c.VarOptions[k]; !exists {
					c.VarOptions[k] = v
				}
			}
		}
	}

	b.topoSorted = sorted
	return nil
}

// Builders returns every context flagged as a builder.
func (b *ContextBag) Builders() []*Context {
	var out []*Context
	for _, c := range b.Contexts {
		if c.IsBuilder {
			out = append(out, c)
		}
	}
	return out
}

// BuildersByName resolves a set of builder names, failing if any name
// is unknown or names a non-builder context.
func (b *ContextBag) BuildersByName(names []string) ([]*Context, error) {
	var out []*Context
	for _, name := range names {
		c, ok := b.GetByName(name)
		if !ok {
			return nil, lazerr.NewConfigurationError(fmt.Sprintf("unknown builder %q", name))
		}
		if !c.IsBuilder {
			return nil, lazerr.NewConfigurationError(fmt.Sprintf("context %q is not a build context", name))
		}
		out = append(out, c)
	}
	return out, nil
}

type builderDistance struct {
	distance int
	context  *Context
}

// BuilderDistances ranks every builder context by edit distance from
// name, ascending.
func (b *ContextBag) BuilderDistances(name string) []builderDistance {
	distances := make([]builderDistance, 0, len(b.Contexts))
	for _, builder := range b.Builders() {
		distances = append(distances, builderDistance{distance: editDistance(name, builder.Name), context: builder})
	}
	sort.SliceStable(distances, func(i, j int) bool { return distances[i].distance < distances[j].distance })
	return distances
}

// ClosestBuilderWithin returns the nearest builder context to name by
// edit distance, if its distance is within maxDistance.
func (b *ContextBag) ClosestBuilderWithin(name string, maxDistance int) *Context {
	distances := b.BuilderDistances(name)
	if len(distances) == 0 {
		return nil
	}
	if distances[0].distance <= maxDistance {
		return distances[0].context
	}
	return nil
}

// editDistance estimates an integer Levenshtein distance from
// go-edlib's normalized similarity score, scaled by the longer
// string's length, matching the "closest builder" suggestion the
// original computes via a raw edit-distance crate.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	similarity, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return len(a) + len(b)
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return int((1 - similarity) * float32(maxLen))
}

// IsAncestorResult is the outcome of a context ancestry check: either
// no match, or a match at the given index and depth.
type IsAncestorResult struct {
	Found bool
	Index int
	Depth int
}

// IsAncestor reports whether contextID is an ancestor of
// otherContextID (or the same context, at depth 0).
func (b *ContextBag) IsAncestor(contextID, otherContextID, depth int) IsAncestorResult {
	if contextID == otherContextID {
		return IsAncestorResult{Found: true, Index: contextID, Depth: depth}
	}
	other := b.ContextByID(otherContextID)
	if other.ParentIndex < 0 {
		return IsAncestorResult{}
	}
	return b.IsAncestor(contextID, other.ParentIndex, depth+1)
}

func (b *ContextBag) isAncestorInList(context *Context, list []string) IsAncestorResult {
	for _, name := range list {
		listed, ok := b.GetByName(name)
		if !ok {
			continue
		}
		if result := b.IsAncestor(listed.Index, context.Index, 0); result.Found {
			return result
		}
	}
	return IsAncestorResult{}
}

// IsAllowed checks context against a module's blocklist/allowlist,
// matching against the nearest listed ancestor context (including
// context itself at depth 0). When both lists match, whichever match
// is strictly closer (shallower depth) wins; an allow/block tie favors
// allow.
func (b *ContextBag) IsAllowed(context *Context, blocklist, allowlist []string) BlockAllow {
	var allowResult, blockResult IsAncestorResult
	if allowlist != nil {
		allowResult = b.isAncestorInList(context, allowlist)
	}
	if blocklist != nil {
		blockResult = b.isAncestorInList(context, blocklist)
	}

	if allowlist != nil {
		if blocklist != nil {
			if allowResult.Found {
				if blockResult.Found && allowResult.Depth > blockResult.Depth {
					return block(blockResult.Index, blockResult.Depth)
				}
				return allow(allowResult.Index, allowResult.Depth)
			} else if blockResult.Found {
				return block(blockResult.Index, blockResult.Depth)
			}
		} else if !allowResult.Found {
			return BlockAllow{Kind: Blocked}
		}
	} else if blocklist != nil {
		if blockResult.Found {
			return block(blockResult.Index, blockResult.Depth)
		}
	}

	return BlockAllow{Kind: Allowed}
}

// MergeProvides propagates each context's "provides" index down to its
// children (children see everything their ancestors provide, filtered
// to exclude any provider a child has itself redefined without that
// provides entry). Must run after Finalize.
func (b *ContextBag) MergeProvides() {
	for _, entry := range b.topoSorted {
		if entry.numParents == 0 {
			continue
		}
		context := b.Contexts[entry.index]
		parent := b.Contexts[context.ParentIndex]

		combined := make(map[string][]string)
		for k, v := range parent.Provides {
			combined[k] = append([]string{}, v...)
		}
		for k, v := range context.Provides {
			for _, name := range v {
				combined[k] = appendUnique(combined[k], name)
			}
		}

		for provided, providers := range combined {
			filtered := providers[:0:0]
			for _, providerName := range providers {
				m, ok := context.Module(providerName)
				if !ok {
					filtered = append(filtered, providerName)
					continue
				}
				for _, p := range m.Provides {
					if p == provided {
						filtered = append(filtered, providerName)
						break
					}
				}
			}
			combined[provided] = filtered
		}

		context.Provides = combined
	}
}
