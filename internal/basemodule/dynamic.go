//go:build linux || darwin

package basemodule

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// sharedObjectExt is the platform shared-library extension consulted by
// DirLoader when scanning a search directory.
const sharedObjectExt = ".so"

// DirLoader enumerates shared objects in a search directory and resolves
// the six well-known symbols (Init, Deinit, Iterate, Flush, Describe, Mix)
// from each. Modules named with a "mod_" prefix are noted as
// process-global-visibility candidates in the original C ABI design; Go's
// plugin package always links at process scope, so the distinction is
// recorded for parity but has no separate code path here.
type DirLoader struct {
	dir string
	log *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewDirLoader scans dir for files named "<module>.so" on demand.
func NewDirLoader(dir string, log *zap.Logger) *DirLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirLoader{dir: dir, log: log}
}

// Load implements Loader by opening "<dir>/<name>.so" and resolving the
// canonical symbol names (capitalized per Go plugin export rules: Init,
// Deinit, Iterate, Flush, Describe, Mix).
func (d *DirLoader) Load(name string) (map[string]any, func() error, bool, error) {
	path := filepath.Join(d.dir, name+sharedObjectExt)
	if _, err := os.Stat(path); err != nil {
		return nil, nil, false, nil
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, nil, false, fmt.Errorf("opening %s: %w", path, err)
	}

	symbols := make(map[string]any)
	for wire, exported := range map[string]string{
		SymInit:     "Init",
		SymDeinit:   "Deinit",
		SymIterate:  "Iterate",
		SymFlush:    "Flush",
		SymDescribe: "Describe",
		SymMix:      "Mix",
	} {
		if sym, err := p.Lookup(exported); err == nil {
			symbols[wire] = sym
		}
	}

	if _, hasIterate := symbols[SymIterate]; !hasIterate {
		if _, hasFlush := symbols[SymFlush]; !hasFlush {
			if _, hasMix := symbols[SymMix]; !hasMix {
				d.log.Warn("loaded module exports none of iterate/flush/mix",
					zap.String("module", name), zap.String("path", path))
			}
		}
	}

	// plugin.Open never returns a closer: the Go runtime has no unload
	// primitive for .so plugins. Unload is therefore a no-op that only
	// exists to satisfy the Loader contract's lifecycle symmetry.
	return symbols, func() error { return nil }, true, nil
}

// WatchReload starts an fsnotify watch on the search directory so that
// newly dropped or replaced .so files can be noticed; onChange is invoked
// with the base module name (without extension) whenever a create/write
// event fires for a *.so file.
func (d *DirLoader) WatchReload(onChange func(name string)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating module directory watcher: %w", err)
	}
	if err := w.Add(d.dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", d.dir, err)
	}
	d.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, sharedObjectExt) {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				name := strings.TrimSuffix(filepath.Base(ev.Name), sharedObjectExt)
				onChange(name)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				d.log.Warn("module directory watch error", zap.Error(err))
			}
		}
	}()
	return nil
}

// Close stops the directory watch, if any.
func (d *DirLoader) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.watcher == nil {
		return nil
	}
	err := d.watcher.Close()
	d.watcher = nil
	return err
}
