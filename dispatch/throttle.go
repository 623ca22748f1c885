// Package dispatch implements the dispatch throttle: the hardware-counter
// paced emitter that evenly spaces outgoing fabric packets so a burst of
// spikes cannot saturate the fabric. The pacing is a correctness
// mechanism, not an optimisation, and is preserved exactly — no
// sleep-based spacer is substituted for the busy-wait.
package dispatch

import "time"

// Fabric is the non-blocking "send one packet" primitive this package
// assumes. Send returns false if the fabric is momentarily full; Throttle
// retries until it returns true.
type Fabric interface {
	Send(key uint32) bool
}

// Clock reads the monotonic hardware tick counter the throttle paces
// against.
type Clock interface {
	Now() uint64
}

// Throttle paces a sequence of fabric sends so consecutive dispatches are
// at least gapTicks hardware ticks apart.
type Throttle struct {
	clock    Clock
	fabric   Fabric
	gapTicks uint64

	expectedTime uint64

	// backoff is called between failed send attempts; it is a field
	// (rather than a hardcoded time.Sleep) purely so tests can make a
	// "congested fabric" retry loop run without a real 1us sleep per
	// attempt.
	backoff func()
}

// New returns a Throttle that paces sends at least gapTicks apart on
// clock's tick scale, emitting through fabric.
func New(clock Clock, fabric Fabric, gapTicks uint64) *Throttle {
	return &Throttle{
		clock:    clock,
		fabric:   fabric,
		gapTicks: gapTicks,
		backoff:  func() { time.Sleep(time.Microsecond) },
	}
}

// StartTick sets the dispatch-throttle target for a new tick: expected_time
// = hw_counter() - inter_spike_gap_ticks, so that the very first Send of
// the tick does not itself wait a full gap.
func (t *Throttle) StartTick() {
	now := t.clock.Now()
	if now < t.gapTicks {
		t.expectedTime = 0
		return
	}
	t.expectedTime = now - t.gapTicks
}

// Send busy-waits until the hardware counter reaches expected_time, then
// advances expected_time by gapTicks and attempts a non-blocking send in a
// retry loop, yielding between attempts. The fabric send never
// fails terminally within this function — congestion is retried
// indefinitely. It returns the number of failed attempts before the
// eventual success, so the caller can feed a retry counter.
func (t *Throttle) Send(key uint32) int {
	for t.clock.Now() < t.expectedTime {
	}
	t.expectedTime += t.gapTicks

	retries := 0
	for !t.fabric.Send(key) {
		retries++
		t.backoff()
	}
	return retries
}
