package modules

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/ledset"
	"github.com/freyr-engine/freyr/internal/module"
)

// BrightnessFilter applies a single global gain to every egress pixel on
// the applyFilter hook. Gain defaults to 1 (no-op).
type BrightnessFilter struct {
	mu   sync.RWMutex
	gain float64
}

// NewBrightnessFilter creates a filter at full brightness.
func NewBrightnessFilter() *BrightnessFilter {
	return &BrightnessFilter{gain: 1}
}

// Gain returns the currently configured gain.
func (b *BrightnessFilter) Gain() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gain
}

func (b *BrightnessFilter) set(argstr string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(argstr), 64)
	if err != nil {
		return fmt.Errorf("brightness_set: invalid gain %q", argstr)
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	b.mu.Lock()
	b.gain = v
	b.mu.Unlock()
	return nil
}

func (b *BrightnessFilter) apply(f *frame.Frame) {
	gain := b.Gain()
	if gain == 1 {
		return
	}
	px := f.Egress()
	for i, p := range px {
		px[i] = frame.Pixel{R: p.R * gain, G: p.G * gain, B: p.B * gain}
	}
}

// RegisterBrightnessFilter defines mod_filter_brightness, instantiates it,
// subscribes its applyFilter hook, and registers brightness_set.
func RegisterBrightnessFilter(bm *basemodule.Registry, mr *module.Registry) (*BrightnessFilter, error) {
	b := NewBrightnessFilter()
	bm.DefineSymbol("mod_filter_brightness", basemodule.SymInit, func(string) (any, error) { return b, nil })

	m, err := mr.Instantiate("filter_brightness", "filter_brightness", "")
	if err != nil {
		return nil, fmt.Errorf("registering mod_filter_brightness: %w", err)
	}

	mr.Hook(m, "applyFilter", func(args ...any) {
		if len(args) == 0 {
			return
		}
		if f, ok := args[0].(*frame.Frame); ok {
			b.apply(f)
		}
	})

	if err := mr.RegisterCommand(m, "brightness_set", func(argstr, _ string) error {
		return b.set(argstr)
	}, func() *module.IDLNode {
		return module.Sequence(module.String())
	}); err != nil {
		return nil, err
	}

	return b, nil
}

// OverlayMode selects how OverlayFilter combines its color into a pixel.
type OverlayMode string

const (
	OverlayAdd OverlayMode = "add"
	OverlayMul OverlayMode = "mul"
)

// OverlayFilter adds or multiplies a fixed color into a target pixel set
// (the whole buffer by default, or a named group) on every applyFilter
// trigger, implementing a tint/wash effect independent of whatever
// animation is currently driving those pixels.
type OverlayFilter struct {
	mu     sync.RWMutex
	mode   OverlayMode
	color  frame.Pixel
	target *ledset.LEDSet // nil = entire buffer
	groups GroupLookup
}

// GroupLookup resolves a group name to its member set; satisfied by
// *Grouping. Declared locally to avoid importing compositor just for this
// one method shape.
type GroupLookup interface {
	Group(name string) (*ledset.LEDSet, bool)
}

// NewOverlayFilter creates a disabled overlay filter (zero color, add mode).
func NewOverlayFilter(groups GroupLookup) *OverlayFilter {
	return &OverlayFilter{mode: OverlayAdd, groups: groups}
}

func (o *OverlayFilter) set(argstr string) error {
	fields := strings.Fields(argstr)
	if len(fields) < 4 {
		return fmt.Errorf("overlay_set: expected <add|mul> <r> <g> <b> [group]")
	}
	mode := OverlayMode(fields[0])
	if mode != OverlayAdd && mode != OverlayMul {
		return fmt.Errorf("overlay_set: mode must be add or mul, got %q", fields[0])
	}
	r, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("overlay_set: invalid r %q", fields[1])
	}
	g, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("overlay_set: invalid g %q", fields[2])
	}
	b, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return fmt.Errorf("overlay_set: invalid b %q", fields[3])
	}

	var target *ledset.LEDSet
	if len(fields) >= 5 {
		if o.groups == nil {
			return fmt.Errorf("overlay_set: no group source configured")
		}
		s, ok := o.groups.Group(fields[4])
		if !ok {
			return fmt.Errorf("overlay_set: unknown group %q", fields[4])
		}
		target = s
	}

	o.mu.Lock()
	o.mode, o.color, o.target = mode, frame.Pixel{R: r, G: g, B: b}, target
	o.mu.Unlock()
	return nil
}

func (o *OverlayFilter) apply(f *frame.Frame) {
	o.mu.RLock()
	mode, color, target := o.mode, o.color, o.target
	o.mu.RUnlock()

	if color == (frame.Pixel{}) && mode == OverlayAdd {
		return
	}

	px := f.Egress()
	combine := func(p frame.Pixel) frame.Pixel {
		if mode == OverlayMul {
			return frame.Pixel{R: p.R * color.R, G: p.G * color.G, B: p.B * color.B}
		}
		return frame.Pixel{R: p.R + color.R, G: p.G + color.G, B: p.B + color.B}
	}

	if target == nil {
		for i, p := range px {
			px[i] = combine(p)
		}
		return
	}
	for _, idx := range target.Data() {
		if idx < 0 || idx >= len(px) {
			continue
		}
		px[idx] = combine(px[idx])
	}
}

// RegisterOverlayFilter defines mod_filter_overlay, instantiates it,
// subscribes its applyFilter hook, and registers overlay_set. groups may be
// nil if no grouping module is configured; group-scoped overlay_set calls
// then fail with a clear error instead of panicking.
func RegisterOverlayFilter(bm *basemodule.Registry, mr *module.Registry, groups GroupLookup) (*OverlayFilter, error) {
	o := NewOverlayFilter(groups)
	bm.DefineSymbol("mod_filter_overlay", basemodule.SymInit, func(string) (any, error) { return o, nil })

	m, err := mr.Instantiate("filter_overlay", "filter_overlay", "")
	if err != nil {
		return nil, fmt.Errorf("registering mod_filter_overlay: %w", err)
	}

	mr.Hook(m, "applyFilter", func(args ...any) {
		if len(args) == 0 {
			return
		}
		if f, ok := args[0].(*frame.Frame); ok {
			o.apply(f)
		}
	})

	if err := mr.RegisterCommand(m, "overlay_set", func(argstr, _ string) error {
		return o.set(argstr)
	}, func() *module.IDLNode {
		return module.Sequence(module.String(), module.String(), module.String(), module.String())
	}); err != nil {
		return nil, err
	}

	return o, nil
}
