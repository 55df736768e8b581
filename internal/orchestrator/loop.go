package orchestrator

import (
	"context"

	"github.com/freyr-engine/freyr/internal/animation"
	"github.com/freyr-engine/freyr/internal/command"
	"github.com/freyr-engine/freyr/internal/egress"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/module"
)

// CompositorFlusher is implemented by *compositor.Compositor. Kept as an
// interface here so orchestrator does not import compositor directly (the
// compositor already imports animation, and this keeps the dependency
// graph a DAG matching §4's component layering).
type CompositorFlusher interface {
	Flush(frameLen int)
}

// FrameObserver receives per-frame diagnostics: the Drummer overrun count
// (>=2 means a dropped frame) and any errors collected flushing egresses or
// reaping animations.
type FrameObserver func(overrun int, egressErrs, poolErrs []error)

// Loop drives the strict 9-step frame ordering of §4.1. It owns no
// goroutines of its own beyond what Run/RunAnimatorWorker's callers start.
type Loop struct {
	Frame      *frame.Frame
	Egress     *egress.List
	Modules    *module.Registry
	Bus        *command.Bus
	Pool       *animation.AnimatorPool
	Compositor CompositorFlusher
	Queue      *CommandQueue
	Drummer    *Drummer
	Barrier    *AnimBarrier // nil selects single-threaded rendering

	Observer FrameObserver
}

// Step runs one full frame iteration (§4.1 steps 1-9) and returns whether
// the loop should keep running (ctx not yet cancelled).
func (l *Loop) Step(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	// 1. publish last frame's anim to egress, restore preanim.
	l.Frame.FlushEgress()

	// 2. post-processing filters read/rewrite egress.
	l.Modules.Trigger("applyFilter", l.Frame)

	// 3. flush every active egress instance.
	egressErrs := l.Egress.FlushAll()

	// 4. drain the pending command queue.
	for _, cmd := range l.Queue.Drain() {
		_ = l.Bus.Run(cmd.line, cmd.source)
	}

	// 5. modules promote staged state; the display compositor resolves tier
	// ownership and installs actual_leds into the pool here too.
	if l.Compositor != nil {
		l.Compositor.Flush(l.Frame.Len())
	}
	l.Modules.FlushModules()

	// 6. promote staged sub-animation assignments, reap dropped animations.
	poolErrs := l.Pool.Flush()

	// 7. snapshot preanim into anim: the input this frame's animations see.
	l.Frame.FlushAnim()

	// 8. wait on frame cadence.
	overrun := l.Drummer.Sync()

	// 9. render.
	if l.Barrier == nil {
		for i := 0; i < l.Pool.Count(); i++ {
			l.Pool.Render(l.Frame, i)
		}
	} else {
		l.Barrier.StartFrame()
		l.Barrier.WaitForAnimators(l.Pool.Count())
	}

	if l.Observer != nil {
		l.Observer(overrun, egressErrs, poolErrs)
	}
	return ctx.Err() == nil
}

// Run executes Step in a loop until ctx is cancelled. If a Barrier is
// configured, it is stopped on exit so parked animator workers can join.
func (l *Loop) Run(ctx context.Context) {
	for l.Step(ctx) {
	}
	if l.Barrier != nil {
		l.Barrier.Stop()
	}
}

// RunAnimatorWorker is the body of one multi-threaded animator worker: it
// parks in the barrier, renders animator id when released, and reports back
// by parking again, until the barrier is stopped.
func (l *Loop) RunAnimatorWorker(id int) {
	lastSeen := 0
	for {
		gen, stopped := l.Barrier.WaitForFrame(id, lastSeen)
		if stopped {
			return
		}
		lastSeen = gen
		l.Pool.Render(l.Frame, id)
		l.Barrier.Park(id)
	}
}
