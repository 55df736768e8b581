// Package modules implements the built-in mod_* modules supplementing the
// core engine: per-pixel coordinates, named groups, stream schema
// definitions, and the applyFilter-hooked brightness/overlay filters.
// Each type here is registered into a basemodule.Registry as a static
// symbol table and instantiated into a module.Registry the same way a
// dynamically loaded module would be, so the command/hook wiring is
// identical regardless of where the module's code actually lives.
package modules

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/compositor"
	"github.com/freyr-engine/freyr/internal/egress"
	"github.com/freyr-engine/freyr/internal/module"
)

// Coordinates stores a per-pixel (x,y,z) table, mirrored into a stable
// "anim" snapshot each flush the way the frame buffer promotes preanim into
// anim, so the voxel selector never sees a table mid-resize.
type Coordinates struct {
	mu      sync.RWMutex
	preanim []compositor.Coordinate
	anim    []compositor.Coordinate
}

// NewCoordinates creates an empty coordinate table.
func NewCoordinates() *Coordinates {
	return &Coordinates{}
}

// Coordinate implements compositor.CoordinateSource.
func (c *Coordinates) Coordinate(index int) (compositor.Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.anim) {
		return compositor.Coordinate{}, false
	}
	return c.anim[index], true
}

// Len implements compositor.CoordinateSource.
func (c *Coordinates) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.anim)
}

func (c *Coordinates) onLEDsAdded(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preanim = append(c.preanim, make([]compositor.Coordinate, n)...)
}

func (c *Coordinates) onLEDsRemoved(offset, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offset < 0 || offset+n > len(c.preanim) {
		return
	}
	c.preanim = append(c.preanim[:offset], c.preanim[offset+n:]...)
}

func (c *Coordinates) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anim = append([]compositor.Coordinate(nil), c.preanim...)
}

// set parses "[egressName] x1 y1 z1 x2 y2 z2 ..." starting at egressName's
// offset (0 if omitted or empty) and overwrites consecutive preanim entries.
func (c *Coordinates) set(argstr string, eg *egress.List) error {
	fields := strings.Fields(argstr)
	offset := 0
	if len(fields) > 0 {
		if _, instOffset, ok := eg.Get(fields[0]); ok {
			offset = instOffset
			fields = fields[1:]
		} else if n, err := strconv.Atoi(fields[0]); err == nil {
			offset = n
			fields = fields[1:]
		}
	}

	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("coordinates_set: invalid coordinate %q", f)
		}
		nums = append(nums, v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i+2 < len(nums); i += 3 {
		idx := offset + i/3
		if idx < 0 || idx >= len(c.preanim) {
			break
		}
		c.preanim[idx] = compositor.Coordinate{X: nums[i], Y: nums[i+1], Z: nums[i+2]}
	}
	return nil
}

// RegisterCoordinates defines mod_coordinates' static symbols, instantiates
// it as the registry's coordinates singleton, and wires its ledsAdded/
// ledsRemoved hooks, its flush symbol and its coordinates_set^H command.
func RegisterCoordinates(bm *basemodule.Registry, mr *module.Registry, eg *egress.List) (*Coordinates, error) {
	c := NewCoordinates()
	bm.DefineSymbol("mod_coordinates", basemodule.SymInit, func(string) (any, error) { return c, nil })
	bm.DefineSymbol("mod_coordinates", basemodule.SymFlush, func(any) { c.flush() })

	m, err := mr.Instantiate("coordinates", "coordinates", "")
	if err != nil {
		return nil, fmt.Errorf("registering mod_coordinates: %w", err)
	}

	mr.Hook(m, "ledsAdded", func(args ...any) {
		if n, ok := args[0].(int); ok {
			c.onLEDsAdded(n)
		}
	})
	mr.Hook(m, "ledsRemoved", func(args ...any) {
		if len(args) < 2 {
			return
		}
		offset, ok1 := args[0].(int)
		n, ok2 := args[1].(int)
		if ok1 && ok2 {
			c.onLEDsRemoved(offset, n)
		}
	})

	if err := mr.RegisterCommand(m, "coordinates_set", func(argstr, _ string) error {
		return c.set(argstr, eg)
	}, func() *module.IDLNode {
		return module.Sequence(module.String(), module.Repeat(module.Sequence(module.String(), module.String(), module.String())))
	}); err != nil {
		return nil, err
	}

	return c, nil
}

// Flush promotes every staged coordinate write into the stable snapshot
// consulted by the voxel selector. module.Registry.FlushModules calls this
// automatically each frame via the registered flush symbol; exported so
// tests and non-frame-loop callers can force a promotion too.
func (c *Coordinates) Flush() { c.flush() }
