// Package nestedenv implements laze's layered key/value environment:
// scalar-or-list fragments that merge along the context hierarchy and the
// module import graph, then expand via variable interpolation and
// expression evaluation.
package nestedenv

import "strings"

// ValueKind tags the two shapes an environment value can take.
type ValueKind int

const (
	KindSingle ValueKind = iota
	KindList
)

// Value is a tagged union over a scalar string or an ordered list of
// strings. It intentionally has no interface-based variants: a plain
// Kind tag switched on in methods avoids virtual dispatch for a closed,
// two-shape type.
type Value struct {
	Kind   ValueKind
	Single string
	List   []string
}

// Single constructs a scalar Value.
func Single(s string) Value { return Value{Kind: KindSingle, Single: s} }

// List constructs a list Value. The slice is copied so callers may reuse
// their backing array.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{Kind: KindList, List: cp}
}

// Flatten joins a list value with single spaces; a scalar value is
// returned unchanged.
func (v Value) Flatten() string {
	if v.Kind == KindSingle {
		return v.Single
	}
	out := ""
	for i, s := range v.List {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

// merge combines a lower (less specific) value with an upper (more
// specific) one. List+List concatenates (lower first); any other
// combination lets upper replace lower outright.
func merge(lower, upper Value) Value {
	if lower.Kind == KindList && upper.Kind == KindList {
		combined := make([]string, 0, len(lower.List)+len(upper.List))
		combined = append(combined, lower.List...)
		combined = append(combined, upper.List...)
		return Value{Kind: KindList, List: combined}
	}
	return upper
}

// Env is an insertion-ordered string->Value map. Insertion order is
// preserved across merges so Flatten/Expand stay deterministic.
type Env struct {
	order  []string
	values map[string]Value
}

// New returns an empty Env.
func New() *Env {
	return &Env{values: make(map[string]Value)}
}

// Clone returns a deep copy.
func (e *Env) Clone() *Env {
	out := New()
	for _, k := range e.order {
		v := e.values[k]
		if v.Kind == KindList {
			v = List(v.List...)
		}
		out.Set(k, v)
	}
	return out
}

// Get returns the value for key and whether it was present.
func (e *Env) Get(key string) (Value, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Set inserts or overwrites key with value outright (no merge semantics).
func (e *Env) Set(key string, value Value) {
	if _, exists := e.values[key]; !exists {
		e.order = append(e.order, key)
	}
	e.values[key] = value
}

// Keys returns keys in insertion order.
func (e *Env) Keys() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Len reports the number of keys.
func (e *Env) Len() int { return len(e.order) }

// Merge merges upper into lower in place: for each key in upper, if
// lower lacks it, copy; otherwise combine via merge(lower[key],
// upper[key]).
func Merge(lower, upper *Env) {
	if upper == nil {
		return
	}
	for _, k := range upper.order {
		uv := upper.values[k]
		if lv, ok := lower.values[k]; ok {
			lower.Set(k, merge(lv, uv))
		} else {
			lower.Set(k, uv)
		}
	}
}

// Flatten turns an Env into a plain string->string map by flattening
// every value.
func Flatten(env *Env) map[string]string {
	out := make(map[string]string, env.Len())
	for _, k := range env.order {
		out[k] = env.values[k].Flatten()
	}
	return out
}

// MergeOption overrides how a specific key's list value flattens, for
// keys where simple space-joining isn't the right separator or where
// only one element of an accumulated list should survive to the final
// command line (e.g. a builder's var_options declaring that "CFLAGS"
// entries should be newline-joined for readability in generated
// build logs, or that "LINKER" should keep only the most specific
// entry instead of concatenating every layer's contribution).
type MergeOption int

const (
	MergeJoinSpace MergeOption = iota
	MergeJoinComma
	MergeJoinNewline
	MergeKeepFirst
	MergeKeepLast
)

func (v Value) flattenWith(opt MergeOption) string {
	if v.Kind == KindSingle {
		return v.Single
	}
	switch opt {
	case MergeJoinComma:
		return strings.Join(v.List, ",")
	case MergeJoinNewline:
		return strings.Join(v.List, "\n")
	case MergeKeepFirst:
		if len(v.List) > 0 {
			return v.List[0]
		}
		return ""
	case MergeKeepLast:
		if len(v.List) > 0 {
			return v.List[len(v.List)-1]
		}
		return ""
	default:
		return v.Flatten()
	}
}

// FlattenWithOptions is Flatten, but keys present in opts flatten using
// their declared MergeOption instead of the default space-join.
func FlattenWithOptions(env *Env, opts map[string]MergeOption) map[string]string {
	out := make(map[string]string, env.Len())
	for _, k := range env.order {
		if opt, ok := opts[k]; ok {
			out[k] = env.values[k].flattenWith(opt)
			continue
		}
		out[k] = env.values[k].Flatten()
	}
	return out
}
