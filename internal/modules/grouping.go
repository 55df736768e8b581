package modules

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/egress"
	"github.com/freyr-engine/freyr/internal/ledset"
	"github.com/freyr-engine/freyr/internal/module"
)

// Grouping holds named pixel groups, consumed by the <group-name> selector
// term. Group membership is adjusted on every ledsRemoved the same way a
// tier or animation's own LEDSet is.
type Grouping struct {
	mu     sync.RWMutex
	groups map[string]*ledset.LEDSet
}

// NewGrouping creates an empty group table.
func NewGrouping() *Grouping {
	return &Grouping{groups: make(map[string]*ledset.LEDSet)}
}

// Group implements compositor.GroupSource.
func (g *Grouping) Group(name string) (*ledset.LEDSet, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.groups[name]
	return s, ok
}

// Names returns every defined group name (diagnostics).
func (g *Grouping) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.groups))
	for n := range g.groups {
		names = append(names, n)
	}
	return names
}

func (g *Grouping) add(name string, first, count int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.groups[name]
	if !ok {
		s = ledset.New()
		g.groups[name] = s
	}
	s.Batch()
	for i := 0; i < count; i++ {
		s.Append(first + i)
	}
	s.EndBatch()
}

func (g *Grouping) clear(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.groups, name)
}

func (g *Grouping) onLEDsRemoved(offset, count int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for name, s := range g.groups {
		s.AdjustRemoved(offset, count)
		if s.Empty() {
			delete(g.groups, name)
		}
	}
}

// cmdGroupAdd parses "<name> [egress] <first> <count>" — an explicit egress
// name resolves <first> relative to that instance's offset, matching
// coordinates_set's convention.
func (g *Grouping) cmdGroupAdd(argstr string, eg *egress.List) error {
	fields := strings.Fields(argstr)
	if len(fields) < 2 {
		return fmt.Errorf("group_add: requires at least a name and a count")
	}
	name := fields[0]
	rest := fields[1:]

	offset := 0
	if len(rest) >= 1 {
		if _, instOffset, ok := eg.Get(rest[0]); ok {
			offset = instOffset
			rest = rest[1:]
		}
	}
	if len(rest) < 2 {
		return fmt.Errorf("group_add: requires first and count")
	}
	first, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("group_add: invalid first %q", rest[0])
	}
	count, err := strconv.Atoi(rest[1])
	if err != nil {
		return fmt.Errorf("group_add: invalid count %q", rest[1])
	}
	g.add(name, offset+first, count)
	return nil
}

func (g *Grouping) cmdGroupClear(argstr string) error {
	name := strings.TrimSpace(argstr)
	if name == "" {
		return fmt.Errorf("group_clear: requires a group name")
	}
	g.clear(name)
	return nil
}

// cmdGroupRemove removes count pixels from name's group starting at first,
// relative to an optional named egress instance.
func (g *Grouping) cmdGroupRemove(argstr string, eg *egress.List) error {
	fields := strings.Fields(argstr)
	if len(fields) < 2 {
		return fmt.Errorf("group_remove: requires at least a name and a count")
	}
	name := fields[0]
	rest := fields[1:]

	offset := 0
	if len(rest) >= 1 {
		if _, instOffset, ok := eg.Get(rest[0]); ok {
			offset = instOffset
			rest = rest[1:]
		}
	}
	if len(rest) < 2 {
		return fmt.Errorf("group_remove: requires first and count")
	}
	first, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("group_remove: invalid first %q", rest[0])
	}
	count, err := strconv.Atoi(rest[1])
	if err != nil {
		return fmt.Errorf("group_remove: invalid count %q", rest[1])
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.groups[name]
	if !ok {
		return fmt.Errorf("group_remove: unknown group %q", name)
	}
	keep := ledset.New()
	remFirst, remLast := offset+first, offset+first+count-1
	for _, idx := range s.Data() {
		if idx < remFirst || idx > remLast {
			keep.Append(idx)
		}
	}
	g.groups[name] = keep
	return nil
}

// RegisterGrouping defines mod_grouping's static symbols, instantiates it as
// the registry's grouping singleton, and wires group_add/group_remove/
// group_clear and the ledsRemoved hook.
func RegisterGrouping(bm *basemodule.Registry, mr *module.Registry, eg *egress.List) (*Grouping, error) {
	g := NewGrouping()
	bm.DefineSymbol("mod_grouping", basemodule.SymInit, func(string) (any, error) { return g, nil })

	m, err := mr.Instantiate("grouping", "grouping", "")
	if err != nil {
		return nil, fmt.Errorf("registering mod_grouping: %w", err)
	}

	mr.Hook(m, "ledsRemoved", func(args ...any) {
		if len(args) < 2 {
			return
		}
		offset, ok1 := args[0].(int)
		count, ok2 := args[1].(int)
		if ok1 && ok2 {
			g.onLEDsRemoved(offset, count)
		}
	})

	if err := mr.RegisterCommand(m, "group_add", func(argstr, _ string) error {
		return g.cmdGroupAdd(argstr, eg)
	}, func() *module.IDLNode {
		return module.Sequence(module.String(), module.Integer(false, 0, 0), module.Integer(false, 0, 0))
	}); err != nil {
		return nil, err
	}
	if err := mr.RegisterCommand(m, "group_remove", func(argstr, _ string) error {
		return g.cmdGroupRemove(argstr, eg)
	}, func() *module.IDLNode {
		return module.Sequence(module.String(), module.Integer(false, 0, 0), module.Integer(false, 0, 0))
	}); err != nil {
		return nil, err
	}
	if err := mr.RegisterCommand(m, "group_clear", func(argstr, _ string) error {
		return g.cmdGroupClear(argstr)
	}, func() *module.IDLNode {
		return module.Sequence(module.String())
	}); err != nil {
		return nil, err
	}

	return g, nil
}
