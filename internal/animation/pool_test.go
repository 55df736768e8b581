package animation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/ledset"
)

func newSolidAnimation(t *testing.T, leds *ledset.LEDSet) *Animation {
	t.Helper()
	r := basemodule.NewRegistry()
	r.DefineSymbol("anim_solid", basemodule.SymIterate, IterateFunc(
		func(f *frame.Frame, ledv []int, userdata any, dt, t float64) {
			for _, i := range ledv {
				f.SetAnim(i, frame.Pixel{R: 1})
			}
		}))
	mod, err := r.Init("anim_solid")
	require.NoError(t, err)
	a, err := New("solid", mod)
	require.NoError(t, err)
	a.Bind(leds)
	require.NoError(t, a.Initialize(""))
	return a
}

func TestInstallThenFlushThenRender(t *testing.T) {
	p := NewPool(1)
	a := newSolidAnimation(t, ledset.New(0, 1, 2))
	p.Install(a)
	p.Flush()

	f := frame.New()
	f.LEDsAdded(3)
	f.FlushAnim()
	p.Render(f, 0)

	assert.Equal(t, frame.Pixel{R: 1}, f.GetAnim(0))
	assert.Equal(t, frame.Pixel{R: 1}, f.GetAnim(1))
	assert.Equal(t, frame.Pixel{R: 1}, f.GetAnim(2))
}

func TestRenderBeforeFlushSeesNothing(t *testing.T) {
	p := NewPool(1)
	a := newSolidAnimation(t, ledset.New(0))
	p.Install(a)

	f := frame.New()
	f.LEDsAdded(1)
	f.FlushAnim()
	p.Render(f, 0)

	assert.Equal(t, frame.Pixel{}, f.GetAnim(0))
}

func TestInstallPreemptsOverlappingPriorInstall(t *testing.T) {
	p := NewPool(1)
	a1 := newSolidAnimation(t, ledset.New(0, 1, 2))
	p.Install(a1)
	p.Flush()

	a2 := newSolidAnimation(t, ledset.New(1))
	p.Install(a2)
	p.Flush()

	// a1's sub-animation on LED 1 was preempted; only LED 1 belongs to a2
	// now, LEDs 0 and 2 belong to nothing (compositor is responsible for
	// reinstalling them, per §4.4 "new installation preempts existing").
	f := frame.New()
	f.LEDsAdded(3)
	f.FlushAnim()
	p.Render(f, 0)

	assert.Equal(t, frame.Pixel{}, f.GetAnim(0))
	assert.Equal(t, frame.Pixel{R: 1}, f.GetAnim(1))
	assert.Equal(t, frame.Pixel{}, f.GetAnim(2))
}

func TestClearDropsEmptySubAnimations(t *testing.T) {
	p := NewPool(1)
	a := newSolidAnimation(t, ledset.New(0, 1))
	p.Install(a)
	p.Flush()

	p.Clear(ledset.New(0, 1))
	p.Flush()

	f := frame.New()
	f.LEDsAdded(2)
	f.FlushAnim()
	p.Render(f, 0)

	assert.Equal(t, frame.Pixel{}, f.GetAnim(0))
	assert.Equal(t, frame.Pixel{}, f.GetAnim(1))
}

func TestFlushReapsAnimationsBelowUsageThreshold(t *testing.T) {
	p := NewPool(1)
	a := newSolidAnimation(t, ledset.New(0))
	p.Install(a)
	// usage count is 1 (constructor default); nothing else grabbed a
	// reference, so the pool's own bookkeeping is the sole owner and Flush
	// should reap it immediately.
	errs := p.Flush()
	assert.Empty(t, errs)

	p.mu.Lock()
	_, stillTracked := p.animations[a.ID]
	p.mu.Unlock()
	assert.False(t, stillTracked)
}

func TestFlushKeepsAnimationWithCompositorReference(t *testing.T) {
	p := NewPool(1)
	a := newSolidAnimation(t, ledset.New(0))
	a.Grab() // simulate the compositor also holding a reference
	p.Install(a)
	p.Flush()

	p.mu.Lock()
	_, stillTracked := p.animations[a.ID]
	p.mu.Unlock()
	assert.True(t, stillTracked)
}

func TestLEDsRemovedCascadesIntoSubAnimations(t *testing.T) {
	p := NewPool(1)
	a := newSolidAnimation(t, ledset.New(0, 5, 10))
	p.Install(a)
	p.Flush()

	p.LEDsRemoved(3, 2) // removes [3,5)
	p.Flush()

	f := frame.New()
	f.LEDsAdded(9)
	f.FlushAnim()
	p.Render(f, 0)

	// 0 unaffected, 5 -> 3, 10 -> 8
	assert.Equal(t, frame.Pixel{R: 1}, f.GetAnim(0))
	assert.Equal(t, frame.Pixel{R: 1}, f.GetAnim(3))
	assert.Equal(t, frame.Pixel{R: 1}, f.GetAnim(8))
}

func TestCountReflectsWorkerNumber(t *testing.T) {
	p := NewPool(4)
	assert.Equal(t, 4, p.Count())
}

func TestCountFloorsAtOne(t *testing.T) {
	p := NewPool(0)
	assert.Equal(t, 1, p.Count())
}
