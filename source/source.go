// Package source owns the per-source record type and the dense source
// table addressable by local index.
package source

import "math"

// Regime tags which of a Record's two numeric fields is live.
type Regime int

const (
	// Fast sources draw a spike count per tick from ExpMinusLambda.
	Fast Regime = iota
	// Slow sources draw an inter-spike interval from MeanISITicks.
	Slow
)

func (r Regime) String() string {
	if r == Fast {
		return "fast"
	}
	return "slow"
}

// Record is one Poisson source. The storage is flat (so the source table
// can be bulk-copied to and from shared memory as a contiguous array), but
// every mutation goes through SetFast/SetSlow, which enforce the
// tagged-variant invariant: exactly one of ExpMinusLambda and MeanISITicks
// is ever semantically live for a given Regime, and the dead field is
// always zeroed rather than left stale.
type Record struct {
	StartTick uint64
	EndTick   uint64

	Regime Regime

	// ExpMinusLambda is live only when Regime == Fast.
	ExpMinusLambda float64
	// MeanISITicks and TimeToSpikeTicks are live only when Regime == Slow.
	MeanISITicks     float64
	TimeToSpikeTicks float64
}

// Active reports whether the source is inside its [start, end) window at
// tick t.
func (r *Record) Active(t uint64) bool {
	return t >= r.StartTick && t < r.EndTick
}

// SetFast switches the record to the Fast regime with the given
// precomputed exp(-lambda), and clears MeanISITicks.
func (r *Record) SetFast(expMinusLambda float64) {
	r.Regime = Fast
	r.ExpMinusLambda = expMinusLambda
	r.MeanISITicks = 0
	// TimeToSpikeTicks is intentionally left alone, here as in SetSlow: a
	// source that flips back to Slow later resumes its countdown from the
	// value it held when it went Fast.
}

// SetSlow switches the record to the Slow regime with the given mean ISI.
// TimeToSpikeTicks is deliberately NOT reinitialised here: the next
// slow-lane evaluation rolls a fresh interval when the counter next
// crosses zero.
func (r *Record) SetSlow(meanISITicks float64) {
	r.Regime = Slow
	r.MeanISITicks = meanISITicks
	r.ExpMinusLambda = 0
}

// Table is the dense, index-addressable array of source records for one
// core. It is allocated once and re-used across pause/resume: Load
// re-populates it in place rather than reallocating.
type Table struct {
	records []Record
}

// NewTable allocates a table of exactly n records, each active for all
// ticks ([0, max)) until a loader narrows its window (the rate controller
// never changes a window). Window placement is a loader's job, not this package's;
// defaulting to "always active" is the only sensible starting point a
// component with no loader wired in can pick, and it leaves every window
// invariant (start_tick ≤ end_tick, silent-window semantics) intact.
func NewTable(n int) *Table {
	records := make([]Record, n)
	for i := range records {
		records[i].EndTick = math.MaxUint64
	}
	return &Table{records: records}
}

// Len returns the number of sources in the table.
func (t *Table) Len() int {
	return len(t.records)
}

// At returns a pointer to the record at local index i, so callers (the
// rate controller, the tick scheduler) can mutate it in place.
func (t *Table) At(i int) *Record {
	return &t.records[i]
}

// Load bulk-copies src into the table's backing array. len(src) must equal
// t.Len(); this is the shared-memory "re-read into the existing
// allocation" path used both at first initialise and at resume.
func (t *Table) Load(src []Record) {
	copy(t.records, src)
}

// Store copies the table's current state into dst, the shared-memory
// mirror of the table, used at pause/finalise.
func (t *Table) Store(dst []Record) {
	copy(dst, t.records)
}
