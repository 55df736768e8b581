package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/animation"
	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/command"
	"github.com/freyr-engine/freyr/internal/compositor"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/module"
)

func defineSolidAnim(bm *basemodule.Registry, name string, value float64) {
	bm.DefineSymbol("anim_"+name, basemodule.SymIterate, animation.IterateFunc(
		func(f *frame.Frame, ledv []int, userdata any, dt, t float64) {
			for _, i := range ledv {
				f.SetAnim(i, frame.Pixel{R: value})
			}
		}))
}

func newDisplayHarness(t *testing.T) (*basemodule.Registry, *module.Registry, *compositor.Compositor, *frame.Frame, *Display) {
	t.Helper()
	bm := basemodule.NewRegistry()
	mr := module.NewRegistry(bm)
	f := frame.New()
	f.LEDsAdded(4)
	f.FlushAnim()

	comp := compositor.New(animation.NewPool(1))
	d, err := RegisterDisplay(bm, mr, comp, f, nil, nil)
	require.NoError(t, err)
	return bm, mr, comp, f, d
}

func TestDisplayInstallsAnimationOnAllSelector(t *testing.T) {
	bm, mr, comp, _, _ := newDisplayHarness(t)
	defineSolidAnim(bm, "solid", 1.0)

	cmd, ok := mr.Lookup("display")
	require.True(t, ok)
	require.NoError(t, cmd.Handler("solid on all", "test"))

	comp.Flush(4)
	tier := comp.Tier("default")
	require.Len(t, tier.Handles, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, tier.Handles[0].ActualLEDs.Data())
}

func TestDisplaySetsTierAndPriority(t *testing.T) {
	bm, mr, comp, _, _ := newDisplayHarness(t)
	defineSolidAnim(bm, "solid", 1.0)

	cmd, ok := mr.Lookup("display")
	require.True(t, ok)
	require.NoError(t, cmd.Handler("solid on all tier fg priority 5", "test"))

	tier := comp.Tier("fg")
	assert.Equal(t, 5, tier.Major)
	require.Len(t, tier.Handles, 1)
}

func TestDisplayUnknownAnimationErrors(t *testing.T) {
	_, mr, _, _, _ := newDisplayHarness(t)
	cmd, ok := mr.Lookup("display")
	require.True(t, ok)
	err := cmd.Handler("nonexistent on all", "test")
	require.Error(t, err)
	// an unknown animation name is not a transient failure; the command bus
	// must surface it at LevelError, not LevelWarn.
	assert.ErrorAs(t, err, new(*command.SevereError))
}

func TestDisplayBlendInstallsBlendHandle(t *testing.T) {
	bm, mr, comp, f, _ := newDisplayHarness(t)
	defineSolidAnim(bm, "old", 0.0)
	defineSolidAnim(bm, "next", 1.0)

	cmd, ok := mr.Lookup("display")
	require.True(t, ok)
	require.NoError(t, cmd.Handler("old on all", "test"))
	comp.Flush(f.Len())

	require.NoError(t, cmd.Handler("next on all blend fade 1.0", "test"))
	comp.Flush(f.Len())
	tier := comp.Tier("default")
	require.Len(t, tier.Handles, 1)
	assert.NotNil(t, tier.Handles[0].Blend)
}

func TestFloatRemovesLEDsFromTier(t *testing.T) {
	bm, mr, comp, f, _ := newDisplayHarness(t)
	defineSolidAnim(bm, "solid", 1.0)

	displayCmd, ok := mr.Lookup("display")
	require.True(t, ok)
	require.NoError(t, displayCmd.Handler("solid on all", "test"))
	comp.Flush(f.Len())

	floatCmd, ok := mr.Lookup("float")
	require.True(t, ok)
	require.NoError(t, floatCmd.Handler("all", "test"))
	comp.Flush(f.Len())

	tier := comp.Tier("default")
	assert.Empty(t, tier.Handles)
}

func TestTierElevatePriorityRemove(t *testing.T) {
	bm, mr, comp, f, _ := newDisplayHarness(t)
	defineSolidAnim(bm, "solid", 1.0)

	displayCmd, ok := mr.Lookup("display")
	require.True(t, ok)
	require.NoError(t, displayCmd.Handler("solid on all tier fg", "test"))
	comp.Flush(f.Len())

	tierCmd, ok := mr.Lookup("tier")
	require.True(t, ok)
	require.NoError(t, tierCmd.Handler("fg priority 9", "test"))
	assert.Equal(t, 9, comp.Tier("fg").Major)

	require.NoError(t, tierCmd.Handler("fg elevate", "test"))
	require.NoError(t, tierCmd.Handler("fg remove", "test"))
	assert.Empty(t, comp.Tier("fg").Handles)
}
