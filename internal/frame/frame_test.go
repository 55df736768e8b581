package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLEDsAddedAppendsZeroPixels(t *testing.T) {
	f := New()
	f.LEDsAdded(3)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, Pixel{}, f.GetPreanim(0))
}

func TestLEDsRemovedSplices(t *testing.T) {
	f := New()
	f.LEDsAdded(5)
	f.FlushAnim()
	for i := 0; i < 5; i++ {
		f.SetAnim(i, Pixel{R: float64(i)})
	}
	f.FlushEgress() // preanim now mirrors anim: {0,1,2,3,4}
	f.LEDsRemoved(1, 2)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, Pixel{R: 0}, f.GetPreanim(0))
	assert.Equal(t, Pixel{R: 3}, f.GetPreanim(1))
	assert.Equal(t, Pixel{R: 4}, f.GetPreanim(2))
}

func TestFlushCycleRestoresPreanim(t *testing.T) {
	f := New()
	f.LEDsAdded(2)
	f.FlushAnim()
	f.SetAnim(0, Pixel{R: 1})
	f.SetAnim(1, Pixel{G: 1})
	f.FlushEgress()

	assert.Equal(t, Pixel{R: 1}, f.Egress()[0])
	assert.Equal(t, Pixel{G: 1}, f.Egress()[1])
	// preanim now mirrors what was rendered, ready for the next frame's
	// animations and filters to observe.
	assert.Equal(t, f.Egress(), f.Preanim())
}

func TestClampBoundsComponents(t *testing.T) {
	p := Pixel{R: 1.5, G: -0.5, B: 0.5}.Clamp()
	assert.Equal(t, Pixel{R: 1, G: 0, B: 0.5}, p)
}

func TestMutateEgress(t *testing.T) {
	f := New()
	f.LEDsAdded(2)
	f.FlushAnim()
	f.SetAnim(0, Pixel{R: 1, G: 1, B: 1})
	f.SetAnim(1, Pixel{R: 1, G: 1, B: 1})
	f.FlushEgress()

	f.MutateEgress(func(i int, p Pixel) Pixel {
		return Pixel{R: p.R * 0.5, G: p.G * 0.5, B: p.B * 0.5}
	})
	assert.Equal(t, Pixel{R: 0.5, G: 0.5, B: 0.5}, f.Egress()[0])
}
