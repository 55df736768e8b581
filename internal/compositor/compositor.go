package compositor

import (
	"fmt"
	"sync"

	"github.com/freyr-engine/freyr/internal/animation"
	"github.com/freyr-engine/freyr/internal/ledset"
)

// Compositor resolves, for every pixel, which anim-handle across every tier
// ultimately paints it, and installs the resulting actual_leds sets into the
// AnimatorPool.
type Compositor struct {
	pool *animation.AnimatorPool

	mu    sync.Mutex
	tiers map[string]*Tier
	dirty bool
}

// New creates a compositor driving pool.
func New(pool *animation.AnimatorPool) *Compositor {
	return &Compositor{pool: pool, tiers: make(map[string]*Tier)}
}

// Tier returns the named tier, creating it at (major 0, minor 0) if absent.
func (c *Compositor) Tier(name string) *Tier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tierLocked(name)
}

func (c *Compositor) tierLocked(name string) *Tier {
	t, ok := c.tiers[name]
	if !ok {
		t = &Tier{Name: name}
		c.tiers[name] = t
	}
	return t
}

// SetPriority sets a tier's major and re-elevates it among its peers.
func (c *Compositor) SetPriority(name string, major int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.tierLocked(name)
	t.Major = major
	elevate(c.tiers, t)
	c.dirty = true
}

// Elevate re-runs tier elevation for name against its current peers.
func (c *Compositor) Elevate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.tierLocked(name)
	elevate(c.tiers, t)
	c.dirty = true
}

// RemoveTier deletes a tier and drops every handle on it (releasing their
// animation references).
func (c *Compositor) RemoveTier(name string) error {
	c.mu.Lock()
	t, ok := c.tiers[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("tier %q not found", name)
	}
	delete(c.tiers, name)
	c.dirty = true
	c.mu.Unlock()

	for _, h := range t.Handles {
		if h.Blend != nil {
			h.Blend.old.Release()
			h.Blend.next.Release()
			continue
		}
		if h.Animation != nil {
			h.Animation.Release()
		}
	}
	return nil
}

// Install implements the no-blend install sequence of §4.7 step 4: clears
// this tier's existing anims on leds and appends anim as a fresh handle.
func (c *Compositor) Install(tierName string, anim *animation.Animation, leds *ledset.LEDSet) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.tierLocked(tierName)
	h := t.install(anim, leds)
	c.dirty = true
	return h
}

// BlendTo implements §4.7 step 5: for every existing handle on the tier
// whose desired LEDs intersect next's, compute the overlap, subtract it
// from the existing handle's desired set, and allocate a blend over the
// overlap composing the old and new animations via mix. The remainder of
// next's LEDs (not blended anywhere) installs directly as a fresh handle.
func (c *Compositor) BlendTo(tierName string, next *animation.Animation, leds *ledset.LEDSet, mix MixFunc) []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.tierLocked(tierName)

	remaining := leds.Clone()
	var blended []*Handle

	for _, h := range t.Handles {
		if h.Blend != nil {
			continue // a handle already mid-blend is not itself re-blended
		}
		overlap := ledset.Intersection(h.DesiredLEDs, remaining)
		if overlap.Empty() {
			continue
		}
		h.DesiredLEDs = ledset.Difference(h.DesiredLEDs, overlap)
		h.LedsDirty = true

		h.Animation.Grab()
		next.Grab()
		blend := NewBlend(overlap, h.Animation, next, mix)
		blendHandle := &Handle{
			Blend:       blend,
			DesiredLEDs: overlap,
			ActualLEDs:  ledset.New(),
		}
		t.Handles = append(t.Handles, blendHandle)
		blended = append(blended, blendHandle)

		remaining = ledset.Difference(remaining, overlap)
	}

	if !remaining.Empty() {
		h := t.install(next, remaining)
		blended = append(blended, h)
	}

	c.dirty = true
	return blended
}

// Float removes the selector's pixels from the named tier (or every tier if
// tierName is empty) without releasing the underlying animation objects.
func (c *Compositor) Float(tierName string, leds *ledset.LEDSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, t := range c.tiers {
		if tierName != "" && name != tierName {
			continue
		}
		for _, h := range t.Handles {
			h.DesiredLEDs = ledset.Difference(h.DesiredLEDs, leds)
			h.LedsDirty = true
		}
	}
	c.dirty = true
}

// LEDsRemoved shifts every tier's handles to track a frame shrink: every
// handle's desired and actual LED sets have indices at or past offset+count
// pulled down by count, matching the frame buffer's own rotation. Marks the
// compositor dirty so the next Flush re-resolves ownership and rebinds
// every surviving animation to its shifted actual set.
func (c *Compositor) LEDsRemoved(offset, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tiers {
		for _, h := range t.Handles {
			h.DesiredLEDs.AdjustRemoved(offset, count)
			h.ActualLEDs.AdjustRemoved(offset, count)
		}
	}
	c.dirty = true
}

// Flush implements §4.7's two-pass flush: compact (drop dead handles,
// promote staged replacements, re-restrict dirty handles), then, if dirty,
// resolve tier ownership per pixel and install each handle's actual_leds
// into the AnimatorPool.
func (c *Compositor) Flush(frameLen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.compact()
	if !c.dirty {
		return
	}

	owner := c.resolveOwnership(frameLen)

	for _, t := range c.tiers {
		for _, h := range t.Handles {
			actual := ledset.New()
			for _, idx := range h.DesiredLEDs.Data() {
				if owner[idx] == t {
					actual.Append(idx)
				}
			}
			h.ActualLEDs = actual
			if !actual.Empty() {
				anim := h.currentAnimation()
				// actual is always a subset of the animation's desired
				// LEDs; Bind (not Restrict) is used here because a handle
				// freshly handed off from a completed blend has never had
				// its target animation bound to anything yet.
				anim.Bind(actual)
				c.pool.Install(anim)
			}
		}
	}
	c.dirty = false
}

func (c *Compositor) compact() {
	for _, t := range c.tiers {
		live := t.Handles[:0]
		for _, h := range t.Handles {
			if h.Blend != nil && h.Blend.Done() {
				h.Blend.old.Release()
				h.Animation = h.Blend.next
				h.Blend = nil
				h.AnimnoDirty = false
			}
			if h.AnimnoDirty && h.staged != nil {
				h.Animation = h.staged
				h.staged = nil
				h.AnimnoDirty = false
			}
			if h.DesiredLEDs.Empty() && h.Blend == nil {
				if h.Animation != nil {
					h.Animation.Release()
				}
				continue
			}
			if h.LedsDirty {
				if h.Animation != nil {
					h.Animation.Restrict(h.DesiredLEDs)
				}
				h.LedsDirty = false
			}
			live = append(live, h)
		}
		t.Handles = live
	}
}

// resolveOwnership builds pixel -> winning tier, the highest (major, minor,
// name) tier whose handles' desired_leds union contains that pixel.
func (c *Compositor) resolveOwnership(frameLen int) []*Tier {
	var all []*Tier
	for _, t := range c.tiers {
		all = append(all, t)
	}
	ordered := sortTiers(all)

	owner := make([]*Tier, frameLen)
	for _, t := range ordered {
		for _, h := range t.Handles {
			for _, idx := range h.DesiredLEDs.Data() {
				if idx < 0 || idx >= frameLen {
					continue
				}
				if owner[idx] == nil {
					owner[idx] = t
				}
			}
		}
	}
	return owner
}
