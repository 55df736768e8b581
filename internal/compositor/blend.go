package compositor

import (
	"sort"
	"sync"

	"github.com/freyr-engine/freyr/internal/animation"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/ledset"
)

// BlendState is returned by a MixFunc each iteration. Done signals the
// blend has completed and the handle should hand off to the new animation
// outright.
type BlendState int

const (
	BlendActive BlendState = iota
	BlendDone
)

// MixFunc composes the outgoing animation's rendered pixels (old) with the
// incoming animation's (next) over the blending LEDs, writing the result
// into out (aligned 1:1 with ledv, the actual pixel indices backing each
// position). Returns BlendDone once the transition has finished.
type MixFunc func(out, old, next []frame.Pixel, ledv []int, dt, t float64) BlendState

// Blend is a cross-fade or wipe in progress on a set of pixels shared by an
// outgoing and incoming animation.
type Blend struct {
	leds *ledset.LEDSet
	old  *animation.Animation
	next *animation.Animation
	mix  MixFunc

	mu    sync.Mutex
	state BlendState

	anim *animation.Animation
}

// NewBlend constructs a blend over leds between old and next, driven by mix.
func NewBlend(leds *ledset.LEDSet, old, next *animation.Animation, mix MixFunc) *Blend {
	b := &Blend{leds: leds, old: old, next: next, mix: mix}
	b.anim = animation.NewSynthetic("blend", leds, b.iterate)
	return b
}

// Done reports whether the last iterate call returned BlendDone.
func (b *Blend) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == BlendDone
}

// asAnimation exposes the blend as an Animation so the compositor can treat
// a blending handle uniformly with a settled one for AnimatorPool purposes.
func (b *Blend) asAnimation() *animation.Animation {
	return b.anim
}

// iterate renders old and next into scratch frames sized to the shared
// frame length, reads their outputs back for the blending LEDs, and
// delegates composition to mix.
func (b *Blend) iterate(f *frame.Frame, ledv []int, userdata any, dt, t float64) {
	scratchOld := frame.New()
	scratchOld.LEDsAdded(f.Len())
	scratchOld.FlushAnim()
	b.old.Iterate(scratchOld, dt, t)

	scratchNext := frame.New()
	scratchNext.LEDsAdded(f.Len())
	scratchNext.FlushAnim()
	b.next.Iterate(scratchNext, dt, t)

	oldPixels := make([]frame.Pixel, len(ledv))
	nextPixels := make([]frame.Pixel, len(ledv))
	for i, idx := range ledv {
		oldPixels[i] = scratchOld.GetAnim(idx)
		nextPixels[i] = scratchNext.GetAnim(idx)
	}

	out := make([]frame.Pixel, len(ledv))
	state := b.mix(out, oldPixels, nextPixels, ledv, dt, t)

	for i, idx := range ledv {
		f.SetAnim(idx, out[i])
	}

	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}

// Fade is a uniform linear cross-fade lasting duration seconds.
func Fade(duration float64) MixFunc {
	if duration <= 0 {
		duration = 0.001
	}
	elapsed := 0.0
	return func(out, old, next []frame.Pixel, ledv []int, dt, t float64) BlendState {
		elapsed += dt
		frac := elapsed / duration
		if frac > 1 {
			frac = 1
		}
		for i := range out {
			out[i] = lerpPixel(old[i], next[i], frac)
		}
		if frac >= 1 {
			return BlendDone
		}
		return BlendActive
	}
}

func lerpPixel(a, b frame.Pixel, frac float64) frame.Pixel {
	return frame.Pixel{
		R: a.R + (b.R-a.R)*frac,
		G: a.G + (b.G-a.G)*frac,
		B: a.B + (b.B-a.B)*frac,
	}
}

// Wipe sweeps a sharp boundary across the overlap set in array-index order
// (coordinate-aware wipes consult a Coordinates source instead, via
// WipeByCoordinate), completing after duration seconds.
func Wipe(duration float64) MixFunc {
	if duration <= 0 {
		duration = 0.001
	}
	elapsed := 0.0
	return func(out, old, next []frame.Pixel, ledv []int, dt, t float64) BlendState {
		elapsed += dt
		frac := elapsed / duration
		if frac > 1 {
			frac = 1
		}
		boundary := int(frac * float64(len(out)))
		for i := range out {
			if i < boundary {
				out[i] = next[i]
			} else {
				out[i] = old[i]
			}
		}
		if frac >= 1 {
			return BlendDone
		}
		return BlendActive
	}
}

// WipeByCoordinate sweeps the boundary in ascending-X order of each
// position's physical coordinate instead of raw array order, so the sweep
// travels across space rather than through however pixels happen to be
// indexed. A pixel absent from coords (or coords itself nil) falls back to
// its position in ledv, matching Wipe. The sweep order is recomputed from
// ledv on every call rather than cached, since a blend's ledv is fixed for
// its lifetime but this keeps the function a pure closure over duration.
func WipeByCoordinate(duration float64, coords CoordinateSource) MixFunc {
	if duration <= 0 {
		duration = 0.001
	}
	elapsed := 0.0
	return func(out, old, next []frame.Pixel, ledv []int, dt, t float64) BlendState {
		type ranked struct {
			pos int
			x   float64
		}
		order := make([]ranked, len(ledv))
		for i, idx := range ledv {
			x := float64(i)
			if coords != nil {
				if c, ok := coords.Coordinate(idx); ok {
					x = c.X
				}
			}
			order[i] = ranked{pos: i, x: x}
		}
		sort.Slice(order, func(a, b int) bool { return order[a].x < order[b].x })
		rank := make([]int, len(ledv))
		for sweepPos, r := range order {
			rank[r.pos] = sweepPos
		}

		elapsed += dt
		frac := elapsed / duration
		if frac > 1 {
			frac = 1
		}
		boundary := int(frac * float64(len(out)))
		for i := range out {
			if rank[i] < boundary {
				out[i] = next[i]
			} else {
				out[i] = old[i]
			}
		}
		if frac >= 1 {
			return BlendDone
		}
		return BlendActive
	}
}
