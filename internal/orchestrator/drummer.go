// Package orchestrator implements the frame-cadence driver: the Drummer
// clock, the AnimBarrier multi-thread rendezvous, the pending-command queue,
// and the Loop that ties them to the rest of the engine in the strict
// per-frame ordering.
package orchestrator

import "time"

// Drummer is a monotonic-clock frame-cadence scheduler. sync() blocks until
// the next deadline, then advances the deadline forward in whole intervals
// until it is strictly in the future, reporting how many intervals were
// skipped (>=2 signals the loop fell behind real time).
type Drummer struct {
	interval time.Duration
	tNext    time.Time
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewDrummer creates a Drummer ticking at fps frames per second.
func NewDrummer(fps float64) *Drummer {
	if fps <= 0 {
		fps = 60
	}
	interval := time.Duration(float64(time.Second) / fps)
	now := time.Now()
	return &Drummer{
		interval: interval,
		tNext:    now.Add(interval),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Sync blocks until the deadline, then advances it. Returns the number of
// whole intervals consumed reaching a deadline strictly after now; 1 is the
// steady-state case, >=2 means one or more frames were dropped.
func (d *Drummer) Sync() int {
	now := d.now()
	if d.tNext.After(now) {
		d.sleep(d.tNext.Sub(now))
	}

	advances := 0
	now = d.now()
	for !d.tNext.After(now) {
		d.tNext = d.tNext.Add(d.interval)
		advances++
	}
	return advances
}

// Interval returns the configured frame interval.
func (d *Drummer) Interval() time.Duration {
	return d.interval
}
