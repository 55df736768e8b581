package animation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/ledset"
)

func registryWithSolid(t *testing.T) *basemodule.Registry {
	t.Helper()
	r := basemodule.NewRegistry()
	r.DefineSymbol("anim_solid", basemodule.SymIterate, IterateFunc(
		func(f *frame.Frame, ledv []int, userdata any, dt, t float64) {
			for _, i := range ledv {
				f.SetAnim(i, frame.Pixel{R: 1})
			}
		}))
	return r
}

func TestNewRejectsModuleWithoutIterate(t *testing.T) {
	r := basemodule.NewRegistry()
	r.DefineSymbol("mod_bare", basemodule.SymInit, InitFunc(func(string) (any, error) { return nil, nil }))
	mod, err := r.Init("mod_bare")
	require.NoError(t, err)

	_, err = New("a1", mod)
	assert.ErrorIs(t, err, ErrInvalidAnimation)
}

func TestNewRejectsDeinitWithoutInit(t *testing.T) {
	r := basemodule.NewRegistry()
	r.DefineSymbol("anim_leaky", basemodule.SymIterate, IterateFunc(
		func(*frame.Frame, []int, any, float64, float64) {}))
	r.DefineSymbol("anim_leaky", basemodule.SymDeinit, DeinitFunc(func(any) {}))
	mod, err := r.Init("anim_leaky")
	require.NoError(t, err)

	_, err = New("a1", mod)
	assert.ErrorIs(t, err, ErrInvalidAnimation)
}

func TestLifecycleBindInitializeIterateDestroy(t *testing.T) {
	r := registryWithSolid(t)
	mod, err := r.Init("anim_solid")
	require.NoError(t, err)

	a, err := New("a1", mod)
	require.NoError(t, err)
	a.Bind(ledset.New(0, 1, 2))
	require.NoError(t, a.Initialize(""))

	f := frame.New()
	f.LEDsAdded(3)
	f.FlushAnim()
	a.Iterate(f, 0.016, 1.0)

	assert.Equal(t, frame.Pixel{R: 1}, f.GetAnim(1))
	require.NoError(t, a.Destroy())
}

func TestInitializeTwiceErrors(t *testing.T) {
	r := registryWithSolid(t)
	mod, err := r.Init("anim_solid")
	require.NoError(t, err)
	a, err := New("a1", mod)
	require.NoError(t, err)

	require.NoError(t, a.Initialize(""))
	assert.Error(t, a.Initialize(""))
}

func TestInitFailurePropagates(t *testing.T) {
	r := basemodule.NewRegistry()
	r.DefineSymbol("anim_bad", basemodule.SymIterate, IterateFunc(
		func(*frame.Frame, []int, any, float64, float64) {}))
	r.DefineSymbol("anim_bad", basemodule.SymInit, InitFunc(
		func(string) (any, error) { return nil, errors.New("bad args") }))
	mod, err := r.Init("anim_bad")
	require.NoError(t, err)

	a, err := New("a1", mod)
	require.NoError(t, err)
	assert.Error(t, a.Initialize("garbage"))
}

func TestRestrictIntersectsLEDs(t *testing.T) {
	r := registryWithSolid(t)
	mod, err := r.Init("anim_solid")
	require.NoError(t, err)
	a, err := New("a1", mod)
	require.NoError(t, err)
	a.Bind(ledset.New(0, 1, 2, 3))

	a.Restrict(ledset.New(1, 2, 9))
	assert.Equal(t, []int{1, 2}, a.LEDs().Data())
}

func TestUsageCountGrabRelease(t *testing.T) {
	r := registryWithSolid(t)
	mod, err := r.Init("anim_solid")
	require.NoError(t, err)
	a, err := New("a1", mod)
	require.NoError(t, err)

	assert.Equal(t, 1, a.UsageCount())
	a.Grab()
	assert.Equal(t, 2, a.UsageCount())
	assert.Equal(t, 1, a.Release())
}
