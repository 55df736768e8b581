package animation

import (
	"sync"
	"time"

	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/ledset"
)

// subAnimation pairs an Animation with the LEDSet it actually renders on
// this animator (which may be a subset of the animation's full bound set
// once the pool has distributed work across workers).
type subAnimation struct {
	anim *Animation
	leds *ledset.LEDSet
}

// Animator is one render worker: a queue of active sub-animations plus a
// staged next queue promoted atomically at Flush.
type Animator struct {
	mu       sync.Mutex
	active   []subAnimation
	next     []subAnimation
	lastTick time.Time
}

func newAnimator() *Animator {
	return &Animator{lastTick: time.Time{}}
}

// render runs iterate for every active sub-animation, writing into f's anim
// buffer. dt is this animator's own per-frame delta (so multiple animators
// running at different cadences do not skew each other's animations); t is
// the pool-wide epoch-relative clock, shared.
func (an *Animator) render(f *frame.Frame, t float64) {
	an.mu.Lock()
	now := time.Now()
	var dt float64
	if an.lastTick.IsZero() {
		dt = 0
	} else {
		dt = now.Sub(an.lastTick).Seconds()
	}
	an.lastTick = now
	subs := make([]subAnimation, len(an.active))
	copy(subs, an.active)
	an.mu.Unlock()

	for _, s := range subs {
		s.anim.Iterate(f, dt, t)
	}
}

// AnimatorPool owns animations and fans them out across Animators. install,
// clear and flush implement the preempt-then-promote discipline of §4.4: a
// new installation immediately clears any prior ownership of its LEDs, but
// the new assignment only becomes visible to rendering at the next Flush.
type AnimatorPool struct {
	mu        sync.Mutex
	animators []*Animator
	epoch     time.Time
	dirty     bool

	animations map[uint64]*Animation
}

// NewPool creates a pool with n animator workers (n ≥ 1).
func NewPool(n int) *AnimatorPool {
	if n < 1 {
		n = 1
	}
	p := &AnimatorPool{
		epoch:      time.Now(),
		animations: make(map[uint64]*Animation),
	}
	for i := 0; i < n; i++ {
		p.animators = append(p.animators, newAnimator())
	}
	return p
}

// Count returns the number of animator workers.
func (p *AnimatorPool) Count() int {
	return len(p.animators)
}

// Install clears any existing sub-animation ownership overlapping anim's
// LEDs from all animators, registers anim in the pool, then appends it to
// the last animator's staged next queue. Flush promotes each animator's
// queue as it stands and does not redistribute sub-animations across
// workers, so every installation renders on the last animator.
func (p *AnimatorPool) Install(anim *Animation) {
	leds := anim.LEDs()

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, an := range p.animators {
		an.mu.Lock()
		an.active = clearOverlap(an.active, leds)
		an.next = clearOverlap(an.next, leds)
		an.mu.Unlock()
	}

	p.animations[anim.ID] = anim
	last := p.animators[len(p.animators)-1]
	last.mu.Lock()
	last.next = append(last.next, subAnimation{anim: anim, leds: leds.Clone()})
	last.mu.Unlock()

	p.dirty = true
}

func clearOverlap(subs []subAnimation, leds *ledset.LEDSet) []subAnimation {
	out := subs[:0]
	for _, s := range subs {
		remaining := ledset.Difference(s.leds, leds)
		if remaining.Empty() {
			continue
		}
		s.leds = remaining
		out = append(out, s)
	}
	return out
}

// Clear subtracts set from every active and staged sub-animation's LEDs on
// every animator, dropping any that become empty. Marks the pool dirty.
func (p *AnimatorPool) Clear(set *ledset.LEDSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, an := range p.animators {
		an.mu.Lock()
		an.active = clearOverlap(an.active, set)
		an.next = clearOverlap(an.next, set)
		an.mu.Unlock()
	}
	p.dirty = true
}

// Flush promotes each animator's next queue into active (if dirty), then
// reaps animations whose usage count has dropped below 2 — meaning the
// compositor no longer holds a reference and only the pool's own bookkeeping
// remains.
func (p *AnimatorPool) Flush() []error {
	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return nil
	}
	for _, an := range p.animators {
		an.mu.Lock()
		an.active = an.next
		an.next = make([]subAnimation, len(an.active))
		copy(an.next, an.active)
		an.mu.Unlock()
	}
	p.dirty = false

	var reap []*Animation
	for id, a := range p.animations {
		if a.UsageCount() < 2 {
			reap = append(reap, a)
			delete(p.animations, id)
		}
	}
	p.mu.Unlock()

	var errs []error
	for _, a := range reap {
		if err := a.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Render runs animator i's active sub-animations against f, using the
// pool-wide epoch-relative clock for t.
func (p *AnimatorPool) Render(f *frame.Frame, i int) {
	p.mu.Lock()
	if i < 0 || i >= len(p.animators) {
		p.mu.Unlock()
		return
	}
	an := p.animators[i]
	t := time.Since(p.epoch).Seconds()
	p.mu.Unlock()

	an.render(f, t)
}

// LEDsRemoved cascades offset/count removal into every animator's
// sub-animation LEDSets via AdjustRemoved, then marks the pool dirty so the
// next Flush republishes the shifted assignments.
func (p *AnimatorPool) LEDsRemoved(offset, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, an := range p.animators {
		an.mu.Lock()
		for i := range an.active {
			an.active[i].leds.AdjustRemoved(offset, count)
		}
		for i := range an.next {
			an.next[i].leds.AdjustRemoved(offset, count)
		}
		an.mu.Unlock()
	}
	p.dirty = true
}
