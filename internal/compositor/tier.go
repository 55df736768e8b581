// Package compositor implements the tiered display compositor: the
// subsystem users address via the display/float/tier commands. It resolves,
// pixel by pixel, which installed animation-handle ultimately owns that
// pixel across every tier, and drives cross-fade/wipe blending between an
// outgoing and incoming animation on the same pixels.
package compositor

import (
	"sort"

	"github.com/freyr-engine/freyr/internal/animation"
	"github.com/freyr-engine/freyr/internal/ledset"
)

// Tier is a named priority layer with a (major, minor) sort key and the
// anim-handles installed on it.
type Tier struct {
	Name    string
	Major   int
	Minor   int
	Handles []*Handle
}

// tierLess orders tiers by (major, minor, name) descending — highest wins.
func tierLess(a, b *Tier) bool {
	if a.Major != b.Major {
		return a.Major > b.Major
	}
	if a.Minor != b.Minor {
		return a.Minor > b.Minor
	}
	return a.Name > b.Name
}

// sortTiers returns tiers ordered highest-priority first.
func sortTiers(tiers []*Tier) []*Tier {
	out := append([]*Tier(nil), tiers...)
	sort.Slice(out, func(i, j int) bool { return tierLess(out[i], out[j]) })
	return out
}

// install clears this tier's existing handles on leds, then appends a fresh
// handle for anim on the remaining desired set. The new handle is a
// co-owner of anim alongside whatever registered it with the pool, so it
// takes its own counted reference.
func (t *Tier) install(anim *animation.Animation, leds *ledset.LEDSet) *Handle {
	for _, h := range t.Handles {
		h.DesiredLEDs = ledset.Difference(h.DesiredLEDs, leds)
		h.LedsDirty = true
	}
	anim.Grab()
	h := &Handle{Animation: anim, DesiredLEDs: leds.Clone(), ActualLEDs: ledset.New()}
	t.Handles = append(t.Handles, h)
	return h
}

// elevate bumps minor to one above the current max among tiers sharing
// major, so name collisions don't create ordering ambiguity.
func elevate(all map[string]*Tier, target *Tier) {
	maxMinor := -1
	for _, t := range all {
		if t.Major == target.Major && t != target && t.Minor > maxMinor {
			maxMinor = t.Minor
		}
	}
	target.Minor = maxMinor + 1
}
