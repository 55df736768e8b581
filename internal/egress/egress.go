// Package egress implements the ordered output-instance list: each instance
// owns a contiguous pixel range within the shared frame and a Flush callback
// that encodes and transmits it. Offsets are a prefix sum of prior counts;
// adding or removing an instance renumbers every instance after it and fans
// out ledsAdded/ledsRemoved notifications.
package egress

import (
	"fmt"
	"sync"

	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/frame"
)

// Backend is implemented by a concrete transport (console, GPIO, UDP, S3
// archiver, ...). Flush is called once per frame with this instance's slice
// of the egress buffer.
type Backend interface {
	Flush(offset, count int, pixels []frame.Pixel) error
}

// Hooks lets the egress list notify interested parties (the module registry's
// hook channels, the compositor, the AnimatorPool) without importing them
// directly.
type Hooks struct {
	LEDsAdded   func(n int)
	LEDsRemoved func(offset, count int)
}

// Instance is one egress: identifier, optional base module pointer, LED
// count, instance name, and active flag, per §3.
type Instance struct {
	ID       uint64
	Name     string
	Count    int
	Active   bool
	Backend  Backend
	Module   *basemodule.BaseModule
	Userdata any

	Schema []StreamSegment
}

// StreamSegment is one (encoding, count) partition of an instance's pixel
// range, declared by streams_define.
type StreamSegment struct {
	Encoding string
	Count    int
}

var nextID uint64

// List is the ordered egress registry. Position determines offset: the
// prefix sum of every prior instance's Count.
type List struct {
	mu    sync.Mutex
	items []*Instance
	f     *frame.Frame
	hooks Hooks
}

// NewList creates an egress list backed by f, publishing ledsAdded/Removed
// through hooks.
func NewList(f *frame.Frame, hooks Hooks) *List {
	return &List{f: f, hooks: hooks}
}

// Add appends a new egress instance with the given name and pixel count,
// growing the shared frame and triggering ledsAdded.
func (l *List) Add(name string, count int, backend Backend) *Instance {
	l.mu.Lock()
	nextID++
	inst := &Instance{ID: nextID, Name: name, Count: count, Active: true, Backend: backend}
	l.items = append(l.items, inst)
	l.mu.Unlock()

	l.f.LEDsAdded(count)
	if l.hooks.LEDsAdded != nil {
		l.hooks.LEDsAdded(count)
	}
	return inst
}

// Remove deletes the named egress instance, shifting every subsequent
// instance's offset down by its count and triggering ledsRemoved(oldOffset,
// count).
func (l *List) Remove(name string) error {
	l.mu.Lock()
	idx := -1
	offset := 0
	for i, inst := range l.items {
		if inst.Name == name {
			idx = i
			break
		}
		offset += inst.Count
	}
	if idx < 0 {
		l.mu.Unlock()
		return fmt.Errorf("egress %q not found", name)
	}
	inst := l.items[idx]
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	l.mu.Unlock()

	if l.hooks.LEDsRemoved != nil {
		l.hooks.LEDsRemoved(offset, inst.Count)
	}
	l.f.LEDsRemoved(offset, inst.Count)
	return nil
}

// Get returns the named instance and its current offset.
func (l *List) Get(name string) (*Instance, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	offset := 0
	for _, inst := range l.items {
		if inst.Name == name {
			return inst, offset, true
		}
		offset += inst.Count
	}
	return nil, 0, false
}

// SetActive toggles whether an instance participates in FlushAll.
func (l *List) SetActive(name string, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, inst := range l.items {
		if inst.Name == name {
			inst.Active = active
			return nil
		}
	}
	return fmt.Errorf("egress %q not found", name)
}

// Total returns the sum of every instance's Count, which must always equal
// frame.Len().
func (l *List) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, inst := range l.items {
		total += inst.Count
	}
	return total
}

// FlushAll calls Flush(offset, count, slice) on every active instance in
// list order, per §4.1 step 3. Errors are collected, not short-circuited, so
// one misbehaving backend does not block the rest of the frame.
func (l *List) FlushAll() []error {
	l.mu.Lock()
	egress := l.f.Egress()
	type job struct {
		inst   *Instance
		offset int
	}
	var jobs []job
	offset := 0
	for _, inst := range l.items {
		if inst.Active {
			jobs = append(jobs, job{inst: inst, offset: offset})
		}
		offset += inst.Count
	}
	l.mu.Unlock()

	var errs []error
	for _, j := range jobs {
		end := j.offset + j.inst.Count
		if end > len(egress) {
			errs = append(errs, fmt.Errorf("egress %q: offset/count exceeds frame length", j.inst.Name))
			continue
		}
		if err := j.inst.Backend.Flush(j.offset, j.inst.Count, egress[j.offset:end]); err != nil {
			errs = append(errs, fmt.Errorf("egress %q: %w", j.inst.Name, err))
		}
	}
	return errs
}

// DefineStream sets the stream schema for the named instance. The sum of
// segment counts must equal the instance's pixel count.
func (l *List) DefineStream(name string, segments []StreamSegment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, inst := range l.items {
		if inst.Name != name {
			continue
		}
		total := 0
		for _, s := range segments {
			total += s.Count
		}
		if total != inst.Count {
			return fmt.Errorf("egress %q: stream segments sum to %d, want %d", name, total, inst.Count)
		}
		inst.Schema = segments
		return nil
	}
	return fmt.Errorf("egress %q not found", name)
}

// Names returns every instance name in list order (for diagnostics/IDL).
func (l *List) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.items))
	for i, inst := range l.items {
		names[i] = inst.Name
	}
	return names
}
