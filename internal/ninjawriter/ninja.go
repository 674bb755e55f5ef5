// Package ninjawriter renders the resolved build graph as a Ninja
// build file: one rule per distinct compile command (deduplicated by
// content hash across contexts that declare byte-identical rules), and
// one build statement per source-to-output edge.
package ninjawriter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Rule is one Ninja "rule" block.
type Rule struct {
	Name    string
	Command string
	Depfile string
	Deps    string // "gcc" or ""
	Pool    string
	Options map[string]string
}

func (r Rule) hash() uint64 {
	var b strings.Builder
	b.WriteString(r.Command)
	b.WriteByte(0)
	b.WriteString(r.Depfile)
	b.WriteByte(0)
	b.WriteString(r.Deps)
	b.WriteByte(0)
	b.WriteString(r.Pool)
	keys := make([]string, 0, len(r.Options))
	for k := range r.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(r.Options[k])
	}
	return xxhash.Sum64String(b.String())
}

func (r Rule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s\n", r.Name)
	fmt.Fprintf(&b, "  command = %s\n", r.Command)
	if r.Depfile != "" {
		fmt.Fprintf(&b, "  depfile = %s\n", r.Depfile)
	}
	if r.Deps != "" {
		fmt.Fprintf(&b, "  deps = %s\n", r.Deps)
	}
	if r.Pool != "" {
		fmt.Fprintf(&b, "  pool = %s\n", r.Pool)
	}
	keys := make([]string, 0, len(r.Options))
	for k := range r.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s = %s\n", k, r.Options[k])
	}
	return b.String()
}

// Build is one Ninja "build" statement.
type Build struct {
	Rule           string
	Out            []string
	In             []string
	ImplicitIn     []string
	OrderOnlyIn    []string
	Vars           map[string]string
	Always         bool
	Rspfile        string
	RspfileContent string
}

func (bu Build) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "build %s: %s %s", strings.Join(bu.Out, " "), bu.Rule, strings.Join(bu.In, " "))
	if len(bu.ImplicitIn) > 0 {
		fmt.Fprintf(&b, " | %s", strings.Join(bu.ImplicitIn, " "))
	}
	if len(bu.OrderOnlyIn) > 0 {
		fmt.Fprintf(&b, " || %s", strings.Join(bu.OrderOnlyIn, " "))
	}
	b.WriteByte('\n')

	keys := make([]string, 0, len(bu.Vars))
	for k := range bu.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s = %s\n", k, bu.Vars[k])
	}
	if bu.Rspfile != "" {
		fmt.Fprintf(&b, "  rspfile = %s\n", bu.Rspfile)
		fmt.Fprintf(&b, "  rspfile_content = %s\n", bu.RspfileContent)
	}
	if bu.Always {
		b.WriteString("  restat = 0\n")
	}
	return b.String()
}

// Writer accumulates rules (deduplicated by content hash) and build
// statements, and renders them to a Ninja file in declaration order.
// WriteRuleDedup and AddBuild take the Writer's lock; Merge, Outputs
// and Render do not. The generator gives each (builder, binary) pair
// its own Writer and merges them into the shared one single-threaded.
type Writer struct {
	mu sync.Mutex

	ruleByHash map[uint64]string
	rules      map[string]Rule
	ruleOrder  []string

	builds []Build
}

func New() *Writer {
	return &Writer{
		ruleByHash: make(map[uint64]string),
		rules:      make(map[string]Rule),
	}
}

// WriteRuleDedup registers rule under a name unique to its content
// (base name plus a content hash suffix), reusing the existing unique
// name if a rule with identical content (command, depfile, deps, pool,
// options) was already registered under any base name. Every compile
// rule the generator builds shares the base model name (e.g. "CC"),
// but the per-module env expansion makes most commands differ, so the
// hash suffix is what keeps two distinct-content rules from colliding
// under one Ninja rule name.
func (w *Writer) WriteRuleDedup(rule Rule) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := rule.hash()
	if name, ok := w.ruleByHash[h]; ok {
		return name
	}
	suffix := fmt.Sprintf("_%d", h)
	name := rule.Name
	if !strings.HasSuffix(name, suffix) {
		name += suffix
	}
	rule.Name = name
	w.ruleByHash[h] = name
	w.rules[name] = rule
	w.ruleOrder = append(w.ruleOrder, name)
	return name
}

func (w *Writer) AddBuild(b Build) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.builds = append(w.builds, b)
}

// Merge appends other's rules and builds into w, deduplicating rules
// by content hash exactly as WriteRuleDedup does. Intended for a
// single-threaded, deterministic-order flush of per-pair local writers
// collected from parallel generation (see the generator package),
// never for concurrent use on either argument.
func (w *Writer) Merge(other *Writer) {
	rename := make(map[string]string, len(other.ruleOrder))
	for _, name := range other.ruleOrder {
		rule := other.rules[name]
		newName := w.WriteRuleDedup(rule)
		rename[name] = newName
	}
	for _, b := range other.builds {
		if newName, ok := rename[b.Rule]; ok {
			b.Rule = newName
		}
		w.AddBuild(b)
	}
}

// Outputs returns every build statement's output paths, in
// registration order, for a caller that needs to know what a
// generation produced without re-parsing the rendered file (e.g.
// "clean -u" pruning orphaned files from a build directory).
func (w *Writer) Outputs() []string {
	var out []string
	for _, b := range w.builds {
		out = append(out, b.Out...)
	}
	return out
}

// Render writes every registered rule (in first-seen order), followed
// by every build statement (in registration order), separated by blank
// lines, Ninja's usual layout.
func (w *Writer) Render(out io.Writer) error {
	for _, name := range w.ruleOrder {
		if _, err := fmt.Fprintln(out, w.rules[name].String()); err != nil {
			return err
		}
	}
	for _, b := range w.builds {
		if _, err := fmt.Fprintln(out, b.String()); err != nil {
			return err
		}
	}
	return nil
}
