package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/egress"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/module"
)

func TestEgressInitConsoleCreatesInstance(t *testing.T) {
	bm := basemodule.NewRegistry()
	mr := module.NewRegistry(bm)
	f := frame.New()
	eg := egress.NewList(f, egress.Hooks{})

	_, err := RegisterEgress(bm, mr, eg)
	require.NoError(t, err)

	cmd, ok := mr.Lookup("egress_init")
	require.True(t, ok)
	require.NoError(t, cmd.Handler("console strip0 4 width 4", "test"))

	inst, offset, ok := eg.Get("strip0")
	require.True(t, ok)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 4, inst.Count)
	assert.Equal(t, 4, f.Len())
}

func TestEgressInitNullBackendAcceptsFlush(t *testing.T) {
	bm := basemodule.NewRegistry()
	mr := module.NewRegistry(bm)
	f := frame.New()
	eg := egress.NewList(f, egress.Hooks{})

	_, err := RegisterEgress(bm, mr, eg)
	require.NoError(t, err)

	cmd, ok := mr.Lookup("egress_init")
	require.True(t, ok)
	require.NoError(t, cmd.Handler("null strip0 2", "test"))

	f.FlushAnim()
	f.FlushEgress()
	errs := eg.FlushAll()
	assert.Empty(t, errs)
}

func TestEgressInitUnknownKindErrors(t *testing.T) {
	bm := basemodule.NewRegistry()
	mr := module.NewRegistry(bm)
	eg := egress.NewList(frame.New(), egress.Hooks{})

	_, err := RegisterEgress(bm, mr, eg)
	require.NoError(t, err)

	cmd, ok := mr.Lookup("egress_init")
	require.True(t, ok)
	assert.Error(t, cmd.Handler("not_a_kind strip0 4", "test"))
}
