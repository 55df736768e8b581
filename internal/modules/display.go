package modules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freyr-engine/freyr/internal/animation"
	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/command"
	"github.com/freyr-engine/freyr/internal/compositor"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/module"
)

// Display wires the display/float/tier command family onto a
// compositor.Compositor: it resolves an anim_* base module by name, binds
// it to a parsed selector, and installs or blends it onto a named tier.
type Display struct {
	bm     *basemodule.Registry
	comp   *compositor.Compositor
	frame  *frame.Frame
	coords compositor.CoordinateSource
	groups compositor.GroupSource
}

// NewDisplay creates a display command handler driving comp. coords/groups
// may be nil if the corresponding module is not configured; selectors that
// need them then fail with a clear error instead of panicking.
func NewDisplay(bm *basemodule.Registry, comp *compositor.Compositor, f *frame.Frame, coords compositor.CoordinateSource, groups compositor.GroupSource) *Display {
	return &Display{bm: bm, comp: comp, frame: f, coords: coords, groups: groups}
}

func (d *Display) selectorContext() compositor.SelectorContext {
	return compositor.SelectorContext{FrameLen: d.frame.Len(), Coordinates: d.coords, Groups: d.groups}
}

// displayKeywords are the tokens that end a selector clause in the display
// and float command grammars.
var displayKeywords = map[string]bool{"tier": true, "priority": true, "blend": true}

// consumeSelectorTokens splits fields into a leading run of selector terms
// (terminated by a display/float keyword or end of input) and whatever
// follows. Mirrors compositor.parseOne's own per-term consumption counts so
// the split lands exactly where ParseSelectors would stop.
func consumeSelectorTokens(fields []string) (sel, rest []string) {
	i := 0
	for i < len(fields) {
		if displayKeywords[fields[i]] {
			break
		}
		if fields[i] == "voxel" {
			consumed := 1
			for consumed < len(fields)-i && consumed < 7 {
				if _, err := strconv.ParseFloat(fields[i+consumed], 64); err != nil {
					break
				}
				consumed++
			}
			i += consumed
			continue
		}
		i++
	}
	return fields[:i], fields[i:]
}

// display parses "<anim> on <selector> [tier T] [priority P] [blend B args…] args…"
func (d *Display) display(argstr string) error {
	fields := strings.Fields(argstr)
	if len(fields) < 3 {
		return fmt.Errorf("display: expected <anim> on <selector>")
	}
	animName := fields[0]
	if fields[1] != "on" {
		return fmt.Errorf("display: expected %q, got %q", "on", fields[1])
	}

	selTokens, rest := consumeSelectorTokens(fields[2:])
	if len(selTokens) == 0 {
		return fmt.Errorf("display: missing selector")
	}
	leds, err := compositor.ParseSelectors(selTokens, d.selectorContext())
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}

	tierName := "default"
	priority := (*int)(nil)
	blendName := ""
	var blendArgs []string

	i := 0
keywordLoop:
	for i < len(rest) {
		switch rest[i] {
		case "tier":
			if i+1 >= len(rest) {
				return fmt.Errorf("display: tier requires a name")
			}
			tierName = rest[i+1]
			i += 2
		case "priority":
			if i+1 >= len(rest) {
				return fmt.Errorf("display: priority requires a value")
			}
			p, err := strconv.Atoi(rest[i+1])
			if err != nil {
				return fmt.Errorf("display: invalid priority %q", rest[i+1])
			}
			priority = &p
			i += 2
		case "blend":
			if i+1 >= len(rest) {
				return fmt.Errorf("display: blend requires a name")
			}
			blendName = rest[i+1]
			i += 2
			for i < len(rest) {
				if _, err := strconv.ParseFloat(rest[i], 64); err != nil {
					break
				}
				blendArgs = append(blendArgs, rest[i])
				i++
			}
		default:
			break keywordLoop
		}
	}
	initArgs := strings.Join(rest[i:], " ")

	base, err := d.bm.Init("anim_" + animName)
	if err != nil {
		return command.Severe(fmt.Errorf("display: unknown animation %q: %w", animName, err))
	}
	anim, err := animation.New(animName, base)
	if err != nil {
		_ = base.Drop()
		return fmt.Errorf("display: %w", err)
	}
	anim.Bind(leds)
	if err := anim.Initialize(initArgs); err != nil {
		_ = anim.Destroy()
		return fmt.Errorf("display: %w", err)
	}

	if priority != nil {
		d.comp.SetPriority(tierName, *priority)
	}

	if blendName != "" {
		mix, err := d.resolveBlend(blendName, blendArgs)
		if err != nil {
			_ = anim.Destroy()
			return err
		}
		d.comp.BlendTo(tierName, anim, leds, mix)
		return nil
	}

	d.comp.Install(tierName, anim, leds)
	return nil
}

func (d *Display) resolveBlend(name string, args []string) (compositor.MixFunc, error) {
	duration := 1.0
	if len(args) > 0 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("display: invalid blend duration %q", args[0])
		}
		duration = v
	}
	switch name {
	case "fade":
		return compositor.Fade(duration), nil
	case "wipe":
		// coordinate-ordered when mod_coordinates is configured, array-index
		// order otherwise — WipeByCoordinate falls back on its own when
		// coords is nil or a given pixel has no entry.
		return compositor.WipeByCoordinate(duration, d.coords), nil
	default:
		return nil, fmt.Errorf("display: unknown blend %q", name)
	}
}

// float parses "<selector> [tier T]".
func (d *Display) float(argstr string) error {
	fields := strings.Fields(argstr)
	selTokens, rest := consumeSelectorTokens(fields)
	if len(selTokens) == 0 {
		return fmt.Errorf("float: missing selector")
	}
	leds, err := compositor.ParseSelectors(selTokens, d.selectorContext())
	if err != nil {
		return fmt.Errorf("float: %w", err)
	}

	tierName := ""
	if len(rest) >= 2 && rest[0] == "tier" {
		tierName = rest[1]
	}
	d.comp.Float(tierName, leds)
	return nil
}

// tier parses "<name> (elevate | priority <n> | remove)".
func (d *Display) tier(argstr string) error {
	fields := strings.Fields(argstr)
	if len(fields) < 2 {
		return fmt.Errorf("tier: expected <name> elevate|priority|remove")
	}
	name, op := fields[0], fields[1]
	switch op {
	case "elevate":
		d.comp.Elevate(name)
		return nil
	case "priority":
		if len(fields) < 3 {
			return fmt.Errorf("tier: priority requires a value")
		}
		p, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("tier: invalid priority %q", fields[2])
		}
		d.comp.SetPriority(name, p)
		return nil
	case "remove":
		return d.comp.RemoveTier(name)
	default:
		return fmt.Errorf("tier: unknown operation %q", op)
	}
}

// RegisterDisplay defines mod_display's static symbols, instantiates it as
// the registry's display singleton, and wires the display/float/tier
// commands onto comp.
func RegisterDisplay(bm *basemodule.Registry, mr *module.Registry, comp *compositor.Compositor, f *frame.Frame, coords compositor.CoordinateSource, groups compositor.GroupSource) (*Display, error) {
	d := NewDisplay(bm, comp, f, coords, groups)
	bm.DefineSymbol("mod_display", basemodule.SymInit, func(string) (any, error) { return d, nil })

	m, err := mr.Instantiate("display", "display", "")
	if err != nil {
		return nil, fmt.Errorf("registering mod_display: %w", err)
	}

	if err := mr.RegisterCommand(m, "display", func(argstr, _ string) error {
		return d.display(argstr)
	}, func() *module.IDLNode {
		return module.Sequence(module.String(), module.String(), module.Repeat(module.String()))
	}); err != nil {
		return nil, err
	}
	if err := mr.RegisterCommand(m, "float", func(argstr, _ string) error {
		return d.float(argstr)
	}, func() *module.IDLNode {
		return module.Sequence(module.Repeat(module.String()))
	}); err != nil {
		return nil, err
	}
	if err := mr.RegisterCommand(m, "tier", func(argstr, _ string) error {
		return d.tier(argstr)
	}, func() *module.IDLNode {
		return module.Sequence(module.String(), module.String(), module.Repeat(module.String()))
	}); err != nil {
		return nil, err
	}

	return d, nil
}
