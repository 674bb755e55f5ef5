package ninjawriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleStringIncludesCommand(t *testing.T) {
	r := Rule{Name: "cc", Command: "gcc -c $in -o $out"}
	s := r.String()
	assert.Contains(t, s, "rule cc")
	assert.Contains(t, s, "command = gcc -c $in -o $out")
}

func TestRuleStringOmitsEmptyFields(t *testing.T) {
	r := Rule{Name: "cc", Command: "gcc -c $in -o $out"}
	s := r.String()
	assert.NotContains(t, s, "depfile")
	assert.NotContains(t, s, "deps =")
	assert.NotContains(t, s, "pool =")
}

func TestRuleStringIncludesOptionalFields(t *testing.T) {
	r := Rule{Name: "cc", Command: "gcc -MMD -MF $out.d -c $in -o $out", Depfile: "$out.d", Deps: "gcc", Pool: "link_pool"}
	s := r.String()
	assert.Contains(t, s, "depfile = $out.d")
	assert.Contains(t, s, "deps = gcc")
	assert.Contains(t, s, "pool = link_pool")
}

func TestBuildStringFormatsInputsAndOutputs(t *testing.T) {
	b := Build{Rule: "cc", Out: []string{"out/foo.o"}, In: []string{"src/foo.c"}}
	s := b.String()
	assert.True(t, strings.HasPrefix(s, "build out/foo.o: cc src/foo.c"))
}

func TestBuildStringIncludesImplicitAndOrderOnly(t *testing.T) {
	b := Build{
		Rule:        "cc",
		Out:         []string{"out/foo.o"},
		In:          []string{"src/foo.c"},
		ImplicitIn:  []string{"out/gen.h"},
		OrderOnlyIn: []string{"out/.dirstamp"},
	}
	s := b.String()
	assert.Contains(t, s, "| out/gen.h")
	assert.Contains(t, s, "|| out/.dirstamp")
}

func TestWriteRuleDedupReusesIdenticalRule(t *testing.T) {
	w := New()
	name1 := w.WriteRuleDedup(Rule{Name: "cc_default", Command: "gcc -c $in -o $out"})
	name2 := w.WriteRuleDedup(Rule{Name: "cc_other_context", Command: "gcc -c $in -o $out"})
	assert.Equal(t, name1, name2)
	assert.Len(t, w.ruleOrder, 1)
}

func TestWriteRuleDedupKeepsDistinctRules(t *testing.T) {
	w := New()
	w.WriteRuleDedup(Rule{Name: "cc", Command: "gcc -c $in -o $out"})
	w.WriteRuleDedup(Rule{Name: "cxx", Command: "g++ -c $in -o $out"})
	assert.Len(t, w.ruleOrder, 2)
}

func TestMergeDedupesRulesAcrossWriters(t *testing.T) {
	w := New()
	name := w.WriteRuleDedup(Rule{Name: "cc", Command: "gcc -c $in -o $out"})
	w.AddBuild(Build{Rule: name, Out: []string{"out/a.o"}, In: []string{"a.c"}})

	other := New()
	otherName := other.WriteRuleDedup(Rule{Name: "cc_other", Command: "gcc -c $in -o $out"})
	other.AddBuild(Build{Rule: otherName, Out: []string{"out/b.o"}, In: []string{"b.c"}})

	w.Merge(other)

	assert.Len(t, w.ruleOrder, 1)
	assert.ElementsMatch(t, w.Outputs(), []string{"out/a.o", "out/b.o"})

	var sb strings.Builder
	assert.NoError(t, w.Render(&sb))
	assert.Contains(t, sb.String(), "build out/b.o: "+name+" b.c")
}

func TestOutputsReflectsAllBuilds(t *testing.T) {
	w := New()
	w.AddBuild(Build{Rule: "cc", Out: []string{"out/a.o"}})
	w.AddBuild(Build{Rule: "link", Out: []string{"out/a.elf"}})
	assert.ElementsMatch(t, w.Outputs(), []string{"out/a.o", "out/a.elf"})
}

func TestRenderOrdersRulesThenBuilds(t *testing.T) {
	w := New()
	w.WriteRuleDedup(Rule{Name: "cc", Command: "gcc -c $in -o $out"})
	w.AddBuild(Build{Rule: "cc", Out: []string{"out/foo.o"}, In: []string{"src/foo.c"}})

	var sb strings.Builder
	require := assert.New(t)
	require.NoError(w.Render(&sb))

	out := sb.String()
	ruleIdx := strings.Index(out, "rule cc")
	buildIdx := strings.Index(out, "build out/foo.o")
	require.True(ruleIdx >= 0 && buildIdx > ruleIdx)
}
