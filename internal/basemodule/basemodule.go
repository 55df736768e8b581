// Package basemodule implements the symbol resolver that backs every
// animation, egress, blend, and mod_* module: given a module identifier, it
// yields named function values (init, deinit, iterate, flush, describe,
// mix). Two backends are supported: a compile-time static table and a
// directory scan that dlopens Go plugins.
package basemodule

import (
	"fmt"
	"sync"
)

// Symbols are the named function-pointer slots a BaseModule may export.
// Not every module exports every symbol; animations need Iterate, egresses
// need Flush, blend modules need Mix, and so on. Presence is checked by
// type-asserting the result of Resolve.
const (
	SymInit     = "init"
	SymDeinit   = "deinit"
	SymIterate  = "iterate"
	SymFlush    = "flush"
	SymDescribe = "describe"
	SymMix      = "mix"
)

// BaseModule is a named bundle of function pointers, reference-counted so
// that the last Drop() can unload a dynamically loaded library.
type BaseModule struct {
	Name string

	mu      sync.Mutex
	symbols map[string]any
	refs    int
	dynamic bool
	unload  func() error
}

// HasSymbol reports whether the named symbol is exported.
func (b *BaseModule) HasSymbol(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.symbols[name]
	return ok
}

// Resolve returns the function value bound to name, or nil, false if the
// module does not export it.
func (b *BaseModule) Resolve(name string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn, ok := b.symbols[name]
	return fn, ok
}

// Grab increments the reference count.
func (b *BaseModule) Grab() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refs++
}

// Drop decrements the reference count; at zero, a dynamically loaded module
// is unloaded.
func (b *BaseModule) Drop() error {
	b.mu.Lock()
	b.refs--
	refs := b.refs
	unload := b.unload
	b.mu.Unlock()
	if refs > 0 || unload == nil {
		return nil
	}
	return unload()
}

// RefCount returns the current reference count (for diagnostics/tests).
func (b *BaseModule) RefCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refs
}

// Registry resolves module identifiers to BaseModule instances. init is
// idempotent: the first lookup for a name constructs it (from the static
// table or the dynamic search path), subsequent lookups return the same
// instance with an incremented reference count.
type Registry struct {
	mu       sync.Mutex
	static   map[string]map[string]any
	modules  map[string]*BaseModule
	searches []Loader
}

// Loader is implemented by a dynamic backend capable of producing a
// BaseModule for a name it recognizes (e.g. by opening modname.so from a
// search directory). It returns ok=false, nil error when the name is simply
// not one it handles.
type Loader interface {
	Load(name string) (symbols map[string]any, unload func() error, ok bool, err error)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		static:  make(map[string]map[string]any),
		modules: make(map[string]*BaseModule),
	}
}

// DefineSymbol populates the static backend: module name -> symbol name ->
// function value. Intended to be called from package init() in each
// built-in module's source file, mirroring a compile-time symbol table.
func (r *Registry) DefineSymbol(moduleName, symbolName string, fn any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tbl, ok := r.static[moduleName]
	if !ok {
		tbl = make(map[string]any)
		r.static[moduleName] = tbl
	}
	tbl[symbolName] = fn
}

// AddLoader registers a dynamic backend consulted when a name is not found
// in the static table.
func (r *Registry) AddLoader(l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, l)
}

// Init idempotently returns the BaseModule for name, constructing it on
// first use.
func (r *Registry) Init(name string) (*BaseModule, error) {
	r.mu.Lock()
	if m, ok := r.modules[name]; ok {
		r.mu.Unlock()
		m.Grab()
		return m, nil
	}
	static, isStatic := r.static[name]
	loaders := append([]Loader(nil), r.searches...)
	r.mu.Unlock()

	if isStatic {
		m := &BaseModule{Name: name, symbols: static, refs: 1}
		r.store(name, m)
		return m, nil
	}

	for _, l := range loaders {
		symbols, unload, ok, err := l.Load(name)
		if err != nil {
			return nil, fmt.Errorf("loading module %q: %w", name, err)
		}
		if !ok {
			continue
		}
		m := &BaseModule{Name: name, symbols: symbols, refs: 1, dynamic: true, unload: unload}
		r.store(name, m)
		return m, nil
	}

	return nil, fmt.Errorf("base module %q not found", name)
}

func (r *Registry) store(name string, m *BaseModule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = m
}

// Drop releases the registry's reference to name; once the module's own
// refcount reaches zero it is unloaded and removed from the registry.
func (r *Registry) Drop(name string) error {
	r.mu.Lock()
	m, ok := r.modules[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("base module %q not loaded", name)
	}
	r.mu.Unlock()

	if err := m.Drop(); err != nil {
		return err
	}
	if m.RefCount() <= 0 {
		r.mu.Lock()
		delete(r.modules, name)
		r.mu.Unlock()
	}
	return nil
}

// Get returns the already-loaded module for name without affecting its
// reference count, for read-only inspection.
func (r *Registry) Get(name string) (*BaseModule, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[name]
	return m, ok
}
