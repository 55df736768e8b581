package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDrummerSyncSleepsUntilDeadline(t *testing.T) {
	d := NewDrummer(100) // 10ms interval
	var slept time.Duration
	base := time.Now()
	cur := base
	d.now = func() time.Time { return cur }
	d.sleep = func(dur time.Duration) { slept = dur; cur = cur.Add(dur) }
	d.tNext = base.Add(10 * time.Millisecond)

	advances := d.Sync()
	assert.Equal(t, 1, advances)
	assert.Equal(t, 10*time.Millisecond, slept)
}

func TestDrummerSyncReportsOverrunWithoutDrift(t *testing.T) {
	d := NewDrummer(100) // 10ms interval
	base := time.Now()
	cur := base
	d.now = func() time.Time { return cur }
	d.sleep = func(dur time.Duration) { cur = cur.Add(dur) }
	d.tNext = base // deadline already passed

	// simulate the clock having already jumped 35ms past the deadline
	cur = base.Add(35 * time.Millisecond)

	advances := d.Sync()
	assert.GreaterOrEqual(t, advances, 2)
	// the new deadline is quantized forward in whole intervals, never drifting
	assert.True(t, d.tNext.After(cur))
}
