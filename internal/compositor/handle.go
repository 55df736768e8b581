package compositor

import (
	"github.com/freyr-engine/freyr/internal/animation"
	"github.com/freyr-engine/freyr/internal/ledset"
)

// Handle is an anim-handle: a bound animation plus the LEDs it would like
// to own (desired) and the LEDs tier resolution actually grants it
// (actual). A handle mid cross-fade instead holds a Blend in place of a
// settled Animation.
type Handle struct {
	Animation *animation.Animation
	Blend     *Blend

	DesiredLEDs *ledset.LEDSet
	ActualLEDs  *ledset.LEDSet

	LedsDirty   bool
	AnimnoDirty bool

	staged *animation.Animation
}

// stageReplacement arranges for next to replace Animation at the next
// compaction. A completed Blend does not go through it: compact hands the
// blend's target animation over directly.
func (h *Handle) stageReplacement(next *animation.Animation) {
	h.staged = next
	h.AnimnoDirty = true
}

// currentAnimation returns the animation this handle currently renders:
// either its settled Animation, or its in-progress Blend.
func (h *Handle) currentAnimation() *animation.Animation {
	if h.Blend != nil {
		return h.Blend.asAnimation()
	}
	return h.Animation
}
