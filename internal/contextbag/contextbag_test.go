package contextbag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/laze/internal/model"
	"github.com/standardbeagle/laze/internal/nestedenv"
)

func TestFinalizeMergesParentEnvIntoChild(t *testing.T) {
	bag := New()

	parent, err := bag.AddContext(New("parent", ""))
	require.NoError(t, err)
	parent.Env = nestedenv.New()
	parent.Env.Set("FOO", nestedenv.Single("bar"))

	child, err := bag.AddContext(New("child", "parent"))
	require.NoError(t, err)

	require.NoError(t, bag.Finalize())

	require.NotNil(t, child.Env)
	assert.Equal(t, parent.Index, child.ParentIndex)
}

func TestFinalizeAddsImplicitDefaultContext(t *testing.T) {
	bag := New()
	require.NoError(t, bag.Finalize())

	_, ok := bag.GetByName("default")
	assert.True(t, ok)
}

func TestFinalizeUnknownParentErrors(t *testing.T) {
	bag := New()
	_, err := bag.AddContext(New("child", "missing-parent"))
	require.NoError(t, err)

	err = bag.Finalize()
	assert.Error(t, err)
}

func TestClosestBuilderWithinFindsNearMatch(t *testing.T) {
	bag := New()
	_, err := bag.AddContextOrBuilder(New("native", ""), true)
	require.NoError(t, err)
	require.NoError(t, bag.Finalize())

	got := bag.ClosestBuilderWithin("nativ", 2)
	require.NotNil(t, got)
	assert.Equal(t, "native", got.Name)
}

func TestClosestBuilderWithinRespectsMaxDistance(t *testing.T) {
	bag := New()
	_, err := bag.AddContextOrBuilder(New("native", ""), true)
	require.NoError(t, err)
	require.NoError(t, bag.Finalize())

	assert.Nil(t, bag.ClosestBuilderWithin("completely-different", 1))
}

func TestIsAllowedNoListsAllowsEverything(t *testing.T) {
	bag, ctx := oneContext(t)
	result := bag.IsAllowed(ctx, nil, nil)
	assert.Equal(t, Allowed, result.Kind)
}

func TestIsAllowedAllowlistExcludesUnlisted(t *testing.T) {
	bag := New()
	other, err := bag.AddContext(New("other", ""))
	require.NoError(t, err)
	_, err = bag.AddContext(New("allowed", ""))
	require.NoError(t, err)
	require.NoError(t, bag.Finalize())

	result := bag.IsAllowed(other, nil, []string{"allowed"})
	assert.Equal(t, Blocked, result.Kind)
}

func TestIsAllowedTieFavorsAllow(t *testing.T) {
	bag := New()
	ctx, err := bag.AddContext(New("target", ""))
	require.NoError(t, err)
	require.NoError(t, bag.Finalize())

	// Both lists match ctx itself, at the same depth (0): allow wins.
	result := bag.IsAllowed(ctx, []string{"target"}, []string{"target"})
	assert.Equal(t, Allowed, result.Kind)
}

func TestIsAllowedBlocklistCloserThanAllowlistBlocks(t *testing.T) {
	bag := New()
	grandparent, err := bag.AddContext(New("grandparent", ""))
	require.NoError(t, err)
	parent, err := bag.AddContext(New("parent", "grandparent"))
	require.NoError(t, err)
	child, err := bag.AddContext(New("child", "parent"))
	require.NoError(t, err)
	require.NoError(t, bag.Finalize())

	result := bag.IsAllowed(child, []string{parent.Name}, []string{grandparent.Name})
	assert.Equal(t, BlockedBy, result.Kind)
}

func TestMergeProvidesPropagatesToChild(t *testing.T) {
	bag := New()
	parent, err := bag.AddContext(New("parent", ""))
	require.NoError(t, err)
	child, err := bag.AddContext(New("child", "parent"))
	require.NoError(t, err)

	provider := model.New("provider", parent.Name)
	provider.Provides = []string{"thing"}
	require.NoError(t, bag.AddModule(provider))

	require.NoError(t, bag.Finalize())
	bag.MergeProvides()

	assert.Contains(t, child.Provides["thing"], "provider")
}

func oneContext(t *testing.T) (*ContextBag, *Context) {
	t.Helper()
	bag := New()
	ctx, err := bag.AddContext(New("solo", ""))
	require.NoError(t, err)
	require.NoError(t, bag.Finalize())
	return bag, ctx
}
