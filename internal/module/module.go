// Package module implements named module instances backed by mod_* base
// modules, the command registry they populate, and the named hook channels
// (ledsAdded, ledsRemoved, applyFilter, idlChanged) that let modules react
// to engine events without the engine importing them.
package module

import (
	"fmt"
	"sync"

	"github.com/freyr-engine/freyr/internal/basemodule"
)

// CommandFunc handles a dispatched command's argument string.
type CommandFunc func(argstr string, source string) error

// DescribeFunc produces the IDL description node for a registered command.
type DescribeFunc func() *IDLNode

// Command is one registered verb.
type Command struct {
	Name     string
	Handler  CommandFunc
	Describe DescribeFunc
	modno    uint64
}

var nextModno uint64

// Module is a named singleton or instance of a mod_* base module.
type Module struct {
	ID       uint64
	Ident    string
	Instance string

	base     *basemodule.BaseModule
	userdata any

	mu       sync.Mutex
	commands []string
	hooks    []hookSubscription
}

type hookSubscription struct {
	hook string
}

// Registry resolves module identifiers/instance names to Module instances,
// holds the global command table, and dispatches hook triggers.
type Registry struct {
	baseModules *basemodule.Registry

	mu         sync.Mutex
	singletons map[string]*Module
	named      map[string]*Module

	cmdMu    sync.Mutex
	commands map[string]*Command

	hookMu      sync.Mutex
	hookIDs     map[string]int
	nextHookID  int
	subscribers map[int][]hookEntry

	onIDLChanged func()
}

type hookEntry struct {
	modno uint64
	fn    func(args ...any)
	alive func() bool
}

// NewRegistry creates an empty module registry backed by baseModules for
// mod_* symbol resolution.
func NewRegistry(baseModules *basemodule.Registry) *Registry {
	r := &Registry{
		baseModules: baseModules,
		singletons:  make(map[string]*Module),
		named:       make(map[string]*Module),
		commands:    make(map[string]*Command),
		hookIDs:     make(map[string]int),
		subscribers: make(map[int][]hookEntry),
	}
	for _, name := range []string{"ledsAdded", "ledsRemoved", "applyFilter", "idlChanged"} {
		r.ResolveHook(name)
	}
	return r
}

// Instantiate returns an existing singleton, an existing named instance, or
// constructs a new module from base module "mod_<ident>". If the base
// module exports a SingletonInstance symbol, the module is cached globally
// by ident rather than by instance name.
func (r *Registry) Instantiate(ident, instanceName, args string) (*Module, error) {
	r.mu.Lock()
	if m, ok := r.singletons[ident]; ok {
		r.mu.Unlock()
		return m, nil
	}
	if instanceName != "" {
		if m, ok := r.named[instanceName]; ok {
			r.mu.Unlock()
			return m, nil
		}
	}
	r.mu.Unlock()

	base, err := r.baseModules.Init("mod_" + ident)
	if err != nil {
		return nil, fmt.Errorf("instantiating module %q: %w", ident, err)
	}

	nextModno++
	m := &Module{ID: nextModno, Ident: ident, Instance: instanceName, base: base}

	if initFn, ok := base.Resolve(basemodule.SymInit); ok {
		if fn, ok := initFn.(func(argstr string) (any, error)); ok {
			userdata, err := fn(args)
			if err != nil {
				_ = base.Drop()
				return nil, fmt.Errorf("initializing module %q: %w", ident, err)
			}
			m.userdata = userdata
		}
	}

	r.mu.Lock()
	if _, isSingleton := base.Resolve("SingletonInstance"); isSingleton {
		r.singletons[ident] = m
	} else if instanceName != "" {
		r.named[instanceName] = m
	}
	r.mu.Unlock()

	return m, nil
}

// Remove tears down a named module instance: unregisters its commands and
// hook subscriptions, calls deinit, and drops its base module reference.
func (r *Registry) Remove(instanceName string) error {
	r.mu.Lock()
	m, ok := r.named[instanceName]
	if ok {
		delete(r.named, instanceName)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("module %q not found", instanceName)
	}

	r.cmdMu.Lock()
	m.mu.Lock()
	for _, name := range m.commands {
		delete(r.commands, name)
	}
	m.commands = nil
	m.mu.Unlock()
	r.cmdMu.Unlock()

	if deinitFn, ok := m.base.Resolve(basemodule.SymDeinit); ok {
		if fn, ok := deinitFn.(func(any)); ok {
			fn(m.userdata)
		}
	}
	return m.base.Drop()
}

// RegisterCommand inserts name into the global command table, attributed to
// m so Remove can later unregister it.
func (r *Registry) RegisterCommand(m *Module, name string, handler CommandFunc, describe DescribeFunc) error {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	r.commands[name] = &Command{Name: name, Handler: handler, Describe: describe, modno: m.ID}
	m.mu.Lock()
	m.commands = append(m.commands, name)
	m.mu.Unlock()
	r.TriggerIDLChanged()
	return nil
}

// Lookup returns the handler registered for verb.
func (r *Registry) Lookup(verb string) (*Command, bool) {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	c, ok := r.commands[verb]
	return c, ok
}

// ResolveHook returns a stable integer id for name, allocating on first use.
func (r *Registry) ResolveHook(name string) int {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	if id, ok := r.hookIDs[name]; ok {
		return id
	}
	r.nextHookID++
	id := r.nextHookID
	r.hookIDs[name] = id
	return id
}

// Hook subscribes fn to the named hook on behalf of m. The subscription is
// a weak reference: alive is consulted at trigger time and dead
// subscriptions are skipped (and lazily pruned).
func (r *Registry) Hook(m *Module, name string, fn func(args ...any)) {
	id := r.ResolveHook(name)
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.subscribers[id] = append(r.subscribers[id], hookEntry{
		modno: m.ID,
		fn:    fn,
		alive: func() bool { return r.moduleAlive(m.ID) },
	})
}

func (r *Registry) moduleAlive(modno uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.singletons {
		if m.ID == modno {
			return true
		}
	}
	for _, m := range r.named {
		if m.ID == modno {
			return true
		}
	}
	return false
}

// Trigger invokes every live subscriber of the named hook, in subscription
// order.
func (r *Registry) Trigger(name string, args ...any) {
	id := r.ResolveHook(name)
	r.hookMu.Lock()
	entries := r.subscribers[id]
	live := entries[:0]
	var toRun []func(args ...any)
	for _, e := range entries {
		if e.alive() {
			live = append(live, e)
			toRun = append(toRun, e.fn)
		}
	}
	r.subscribers[id] = live
	r.hookMu.Unlock()

	for _, fn := range toRun {
		fn(args...)
	}
}

// TriggerIDLChanged fires the idlChanged hook; called whenever the command
// set or a referenced enumeration changes.
func (r *Registry) TriggerIDLChanged() {
	r.Trigger("idlChanged")
}

// FlushModules calls every live module's flush symbol, if it exports one.
// Step 5 of the frame loop: modules promote whatever state they staged while
// handling commands earlier in the same iteration.
func (r *Registry) FlushModules() {
	r.mu.Lock()
	mods := make([]*Module, 0, len(r.singletons)+len(r.named))
	for _, m := range r.singletons {
		mods = append(mods, m)
	}
	for _, m := range r.named {
		mods = append(mods, m)
	}
	r.mu.Unlock()

	for _, m := range mods {
		fn, ok := m.base.Resolve(basemodule.SymFlush)
		if !ok {
			continue
		}
		if flush, ok := fn.(func(userdata any)); ok {
			flush(m.userdata)
		}
	}
}

// Describe assembles the IDL tree for every registered command.
func (r *Registry) Describe() *IDLNode {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	seq := &IDLNode{Kind: IDLSequence}
	for _, c := range r.commands {
		if c.Describe == nil {
			continue
		}
		child := c.Describe()
		child.Name = c.Name
		seq.Children = append(seq.Children, child)
	}
	return seq
}
