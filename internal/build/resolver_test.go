package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/laze/internal/contextbag"
	"github.com/standardbeagle/laze/internal/model"
)

func newTestBag(t *testing.T) (*contextbag.ContextBag, *contextbag.Context) {
	t.Helper()
	bag := contextbag.New()
	builder, err := bag.AddContextOrBuilder(contextbag.New("builder", ""), true)
	require.NoError(t, err)
	require.NoError(t, bag.Finalize())
	bag.MergeProvides()
	return bag, builder
}

func addModule(t *testing.T, bag *contextbag.ContextBag, m *model.Module) {
	t.Helper()
	require.NoError(t, bag.AddModule(m))
}

func TestResolveSelectsHardDependency(t *testing.T) {
	bag, builder := newTestBag(t)

	base := model.New("base", "builder")
	addModule(t, bag, base)

	app := model.New("app", "builder")
	app.Selects = []model.Dependency[string]{model.Hard("base")}
	app.IsBinary = true
	addModule(t, bag, app)

	b := New(app, builder, bag, nil)
	result, err := b.ResolveSelects(nil)
	require.NoError(t, err)

	assert.Contains(t, result.Modules, "app")
	assert.Contains(t, result.Modules, "base")
	assert.Equal(t, []string{"app", "base"}, result.Order)
}

func TestResolveSelectsMissingHardDependencyFails(t *testing.T) {
	bag, builder := newTestBag(t)

	app := model.New("app", "builder")
	app.Selects = []model.Dependency[string]{model.Hard("missing")}
	addModule(t, bag, app)

	b := New(app, builder, bag, nil)
	_, err := b.ResolveSelects(nil)
	assert.Error(t, err)
}

func TestResolveSelectsSoftDependencyIsOptional(t *testing.T) {
	bag, builder := newTestBag(t)

	app := model.New("app", "builder")
	app.Selects = []model.Dependency[string]{model.Soft("missing")}
	addModule(t, bag, app)

	b := New(app, builder, bag, nil)
	result, err := b.ResolveSelects(nil)
	require.NoError(t, err)
	assert.Contains(t, result.Modules, "app")
	assert.NotContains(t, result.Modules, "missing")
}

func TestResolveSelectsProvidesFirstWins(t *testing.T) {
	bag, builder := newTestBag(t)

	impl1 := model.New("impl1", "builder")
	impl1.Provides = []string{"backend"}
	addModule(t, bag, impl1)

	impl2 := model.New("impl2", "builder")
	impl2.Provides = []string{"backend"}
	addModule(t, bag, impl2)

	app := model.New("app", "builder")
	app.Selects = []model.Dependency[string]{model.Hard("backend")}
	addModule(t, bag, app)

	bag.MergeProvides()

	b := New(app, builder, bag, nil)
	result, err := b.ResolveSelects(nil)
	require.NoError(t, err)

	assert.Contains(t, result.Modules, "impl1")
	assert.NotContains(t, result.Modules, "impl2")
	assert.Equal(t, []*model.Module{impl1}, result.Providers["backend"])
}

func TestResolveSelectsDisabledModuleBlocksHardDependency(t *testing.T) {
	bag, builder := newTestBag(t)

	base := model.New("base", "builder")
	addModule(t, bag, base)

	app := model.New("app", "builder")
	app.Selects = []model.Dependency[string]{model.Hard("base")}
	addModule(t, bag, app)

	b := New(app, builder, bag, nil)
	_, err := b.ResolveSelects(map[string]bool{"base": true})
	assert.Error(t, err)
}

func TestResolveSelectsIfThenHardActivatesOnLateInsertion(t *testing.T) {
	bag, builder := newTestBag(t)

	extra := model.New("extra", "builder")
	addModule(t, bag, extra)

	base := model.New("base", "builder")
	addModule(t, bag, base)

	app := model.New("app", "builder")
	app.Selects = []model.Dependency[string]{
		model.IfThenHard("base", "extra"),
		model.Hard("base"),
	}
	addModule(t, bag, app)

	b := New(app, builder, bag, nil)
	result, err := b.ResolveSelects(nil)
	require.NoError(t, err)
	assert.Contains(t, result.Modules, "extra")
}
