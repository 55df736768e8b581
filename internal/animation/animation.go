// Package animation implements Animation instances and the AnimatorPool that
// distributes them across one or more render workers. An Animation binds an
// anim_* base module to an LEDSet; the AnimatorPool owns the install/clear/
// flush bookkeeping that lets the compositor preempt and reassign pixel
// ownership between frames without racing the render pass.
package animation

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/ledset"
)

// ErrInvalidAnimation is returned when a named base module cannot back an
// animation because it does not export iterate, or exports deinit without
// init.
var ErrInvalidAnimation = errors.New("animation: invalid base module for animation role")

// IterateFunc is the per-frame callback an anim_* module exports. ledv is the
// sorted index array the animation currently owns; dt and t are seconds.
type IterateFunc func(f *frame.Frame, ledv []int, userdata any, dt, t float64)

// InitFunc constructs userdata for an animation instance from its init args.
type InitFunc func(args string) (userdata any, err error)

// DeinitFunc releases userdata.
type DeinitFunc func(userdata any)

var animIDs atomic.Uint64

// Animation is an instantiation of an anim_* base module bound to an
// LEDSet. Per §4.4/§3, it is jointly owned by the compositor and the
// AnimatorPool; usageCount reflects both references and is used by
// AnimatorPool.Flush to reap animations the compositor has released.
type Animation struct {
	ID         uint64
	Identifier string

	module *basemodule.BaseModule
	leds   *ledset.LEDSet

	mu          sync.Mutex
	userdata    any
	usageCount  int
	initialized bool

	iterate IterateFunc
	init    InitFunc
	deinit  DeinitFunc
}

// New constructs an unbound animation instance backed by mod. The caller
// must call Bind then Initialize before the first Iterate.
func New(identifier string, mod *basemodule.BaseModule) (*Animation, error) {
	iterateSym, hasIterate := mod.Resolve(basemodule.SymIterate)
	_, hasInit := mod.Resolve(basemodule.SymInit)
	deinitSym, hasDeinit := mod.Resolve(basemodule.SymDeinit)

	if !hasIterate {
		return nil, fmt.Errorf("%w: %q exports no iterate", ErrInvalidAnimation, mod.Name)
	}
	if hasDeinit && !hasInit {
		return nil, fmt.Errorf("%w: %q exports deinit without init", ErrInvalidAnimation, mod.Name)
	}

	iterate, ok := iterateSym.(IterateFunc)
	if !ok {
		return nil, fmt.Errorf("%w: %q iterate has the wrong signature", ErrInvalidAnimation, mod.Name)
	}

	a := &Animation{
		ID:         animIDs.Add(1),
		Identifier: identifier,
		module:     mod,
		leds:       ledset.New(),
		usageCount: 1,
		iterate:    iterate,
	}
	if fn, ok := mod.Resolve(basemodule.SymInit); ok {
		if initFn, ok := fn.(InitFunc); ok {
			a.init = initFn
		}
	}
	if hasDeinit {
		if deinitFn, ok := deinitSym.(DeinitFunc); ok {
			a.deinit = deinitFn
		}
	}
	mod.Grab()
	return a, nil
}

// NewSynthetic constructs an animation with no backing base module, driven
// directly by iterate. Used by the compositor's blend engine, which
// composes two existing animations' output rather than resolving a module
// symbol of its own.
func NewSynthetic(identifier string, leds *ledset.LEDSet, iterate IterateFunc) *Animation {
	return &Animation{
		ID:          animIDs.Add(1),
		Identifier:  identifier,
		leds:        leds,
		usageCount:  1,
		initialized: true,
		iterate:     iterate,
	}
}

// Bind sets the LEDs this animation owns. Must be called before Initialize.
func (a *Animation) Bind(set *ledset.LEDSet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.leds = set
}

// Initialize runs the module's init (if any) exactly once.
func (a *Animation) Initialize(args string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return fmt.Errorf("animation %d already initialized", a.ID)
	}
	if a.init != nil {
		userdata, err := a.init(args)
		if err != nil {
			return fmt.Errorf("initializing animation %d (%s): %w", a.ID, a.Identifier, err)
		}
		a.userdata = userdata
	}
	a.initialized = true
	return nil
}

// Restrict intersects the bound LEDSet with envelope. Per §3, this is the
// only legal way to change an animation's LEDs after initialization.
func (a *Animation) Restrict(envelope *ledset.LEDSet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.leds = ledset.Intersection(a.leds, envelope)
}

// LEDs returns the currently bound LEDSet.
func (a *Animation) LEDs() *ledset.LEDSet {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.leds
}

// Grab increments the shared usage count (compositor/pool co-ownership).
func (a *Animation) Grab() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usageCount++
}

// Release decrements the usage count and returns the count remaining.
func (a *Animation) Release() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usageCount--
	return a.usageCount
}

// UsageCount reports the current reference count.
func (a *Animation) UsageCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usageCount
}

// Iterate invokes the module's iterate callback over the bound LEDs' current
// snapshot. Safe for concurrent use by distinct animators on distinct
// animations; a single Animation must not be iterated concurrently.
func (a *Animation) Iterate(f *frame.Frame, dt, t float64) {
	a.mu.Lock()
	ledv := a.leds.Data()
	userdata := a.userdata
	a.mu.Unlock()
	a.iterate(f, ledv, userdata, dt, t)
}

// Destroy calls the module's deinit (if any) and releases the base module
// reference. Must only be called once; AnimatorPool.Flush calls it when it
// reaps an animation whose usage count has dropped below 2.
func (a *Animation) Destroy() error {
	a.mu.Lock()
	deinit := a.deinit
	userdata := a.userdata
	a.mu.Unlock()
	if deinit != nil {
		deinit(userdata)
	}
	if a.module == nil {
		return nil
	}
	return a.module.Drop()
}
