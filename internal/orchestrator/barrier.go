package orchestrator

import "sync"

// WorkerState is a barrier-tracked worker lifecycle state.
type WorkerState int

const (
	// Animating: the worker is between park points, running its render pass.
	Animating WorkerState = iota
	// Ready: the worker finished rendering and is about to park.
	Ready
	// Pending: the worker is parked, waiting for the next start_frame.
	Pending
)

// AnimBarrier is the multi-thread rendezvous point between the orchestrator
// and its animator worker threads. No pixel is read or written outside the
// phases the barrier demarcates: workers render only between wait_for_frame
// returning and their next park; the orchestrator touches frame/anim only
// outside that window.
type AnimBarrier struct {
	mu   sync.Mutex
	cond *sync.Cond

	generation int
	parked     int
	collectors int
	states     map[int]WorkerState
	stopped    bool
}

// NewAnimBarrier creates a barrier for n animator workers.
func NewAnimBarrier(n int) *AnimBarrier {
	b := &AnimBarrier{states: make(map[int]WorkerState, n)}
	b.cond = sync.NewCond(&b.mu)
	for i := 0; i < n; i++ {
		b.states[i] = Pending
	}
	return b
}

// WaitForFrame blocks worker id until the orchestrator calls StartFrame for
// a generation this worker has not yet observed, then returns that
// generation and whether the barrier has been stopped.
func (b *AnimBarrier) WaitForFrame(id int, lastSeen int) (generation int, stopped bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.generation == lastSeen && !b.stopped {
		b.cond.Wait()
	}
	if b.stopped {
		return b.generation, true
	}
	b.states[id] = Animating
	return b.generation, false
}

// Park records that worker id finished rendering this generation (Ready,
// then Pending) and wakes any orchestrator blocked in WaitForAnimators.
func (b *AnimBarrier) Park(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[id] = Ready
	b.states[id] = Pending
	b.parked++
	b.cond.Broadcast()
}

// StartFrame admits a new generation, releasing every worker blocked in
// WaitForFrame, once no collector guard is outstanding.
func (b *AnimBarrier) StartFrame() {
	b.mu.Lock()
	for b.collectors > 0 {
		b.cond.Wait()
	}
	b.generation++
	b.parked = 0
	b.mu.Unlock()
	b.cond.Broadcast()
}

// WaitForAnimators blocks until n workers have parked for the current
// generation.
func (b *AnimBarrier) WaitForAnimators(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.parked < n && !b.stopped {
		b.cond.Wait()
	}
}

// Stop releases every worker permanently, for clean shutdown/join.
func (b *AnimBarrier) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Collector is a short-lived guard that delays StartFrame until Release is
// called, used by subsystems that need an atomic cross-thread view (e.g. a
// diagnostics snapshot) before the next frame's writes begin.
type Collector struct {
	b        *AnimBarrier
	released bool
}

// NewCollector registers a collector guard against b.
func (b *AnimBarrier) NewCollector() *Collector {
	b.mu.Lock()
	b.collectors++
	b.mu.Unlock()
	return &Collector{b: b}
}

// Release lifts the guard. Idempotent.
func (c *Collector) Release() {
	if c.released {
		return
	}
	c.released = true
	c.b.mu.Lock()
	c.b.collectors--
	c.b.mu.Unlock()
	c.b.cond.Broadcast()
}
