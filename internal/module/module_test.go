package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/basemodule"
)

func registryWithGrouping(t *testing.T) (*Registry, *basemodule.Registry) {
	t.Helper()
	bm := basemodule.NewRegistry()
	bm.DefineSymbol("mod_grouping", basemodule.SymInit, func(argstr string) (any, error) {
		return map[string][]int{}, nil
	})
	return NewRegistry(bm), bm
}

func TestBuiltinHooksPreregistered(t *testing.T) {
	r, _ := registryWithGrouping(t)
	id := r.ResolveHook("ledsAdded")
	assert.Greater(t, id, 0)
	// resolving again returns the same id
	assert.Equal(t, id, r.ResolveHook("ledsAdded"))
}

func TestInstantiateConstructsNewNamedModule(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)
	assert.Equal(t, "grouping", m.Ident)
	assert.Equal(t, "g1", m.Instance)
}

func TestInstantiateReturnsSameNamedInstance(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m1, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)
	m2, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)
	assert.Same(t, m1, m2)
}

func TestInstantiateUnknownIdentErrors(t *testing.T) {
	r, _ := registryWithGrouping(t)
	_, err := r.Instantiate("nonexistent", "x1", "")
	assert.Error(t, err)
}

func TestRegisterCommandThenLookup(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)

	err = r.RegisterCommand(m, "group_add", func(argstr, source string) error { return nil }, nil)
	require.NoError(t, err)

	cmd, ok := r.Lookup("group_add")
	require.True(t, ok)
	assert.Equal(t, "group_add", cmd.Name)
}

func TestRegisterCommandDuplicateErrors(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)
	require.NoError(t, r.RegisterCommand(m, "group_add", func(string, string) error { return nil }, nil))
	assert.Error(t, r.RegisterCommand(m, "group_add", func(string, string) error { return nil }, nil))
}

func TestRemoveUnregistersCommands(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)
	require.NoError(t, r.RegisterCommand(m, "group_add", func(string, string) error { return nil }, nil))

	require.NoError(t, r.Remove("g1"))
	_, ok := r.Lookup("group_add")
	assert.False(t, ok)
}

func TestRemoveUnknownErrors(t *testing.T) {
	r, _ := registryWithGrouping(t)
	assert.Error(t, r.Remove("nope"))
}

func TestHookTriggerInvokesSubscribersInOrder(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)

	var order []int
	r.Hook(m, "ledsAdded", func(args ...any) { order = append(order, 1) })
	r.Hook(m, "ledsAdded", func(args ...any) { order = append(order, 2) })

	r.Trigger("ledsAdded")
	assert.Equal(t, []int{1, 2}, order)
}

func TestHookSkipsDeadModuleSubscriptions(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)

	fired := false
	r.Hook(m, "ledsAdded", func(args ...any) { fired = true })

	require.NoError(t, r.Remove("g1"))
	r.Trigger("ledsAdded")
	assert.False(t, fired)
}

func TestRegisterCommandTriggersIDLChanged(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)

	fired := false
	r.Hook(m, "idlChanged", func(args ...any) { fired = true })
	require.NoError(t, r.RegisterCommand(m, "group_add", func(string, string) error { return nil }, nil))
	assert.True(t, fired)
}

func TestDescribeAssemblesRegisteredCommands(t *testing.T) {
	r, _ := registryWithGrouping(t)
	m, err := r.Instantiate("grouping", "g1", "")
	require.NoError(t, err)

	require.NoError(t, r.RegisterCommand(m, "group_add", func(string, string) error { return nil },
		func() *IDLNode { return Sequence(String(), Integer(false, 0, 0)) }))

	tree := r.Describe()
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "group_add", tree.Children[0].Name)
}
