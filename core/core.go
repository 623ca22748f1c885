// Package core owns Core — the single top-level struct that replaces what
// would otherwise be a scatter of process-wide globals (parameters, the
// source array, spike counters, tick/expected-time, recording flags) with
// one value a caller constructs, steps, pauses and resumes — and implements
// the per-tick scheduler.
package core

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/neuromorph/poissoncore/config"
	"github.com/neuromorph/poissoncore/dispatch"
	"github.com/neuromorph/poissoncore/errs"
	"github.com/neuromorph/poissoncore/hwclock"
	"github.com/neuromorph/poissoncore/metrics"
	"github.com/neuromorph/poissoncore/ratectl"
	"github.com/neuromorph/poissoncore/recorder"
	"github.com/neuromorph/poissoncore/rng"
	"github.com/neuromorph/poissoncore/source"
)

// maxSources bounds the source table and recording buffer allocation.
// A genuine allocation failure is effectively unreproducible on a host OS
// the way it would be on memory-constrained embedded hardware, so this cap
// gives the out-of-memory path something concrete to trip on.
const maxSources = 1 << 20

// Core is the owner of everything a tick touches: the parameter block, the
// source table, the random stream, the recording buffer, the rate
// controller and the dispatch throttle. Every exported method runs on the
// timer path except SetRate-adjacent calls documented in doc.go.
type Core struct {
	params config.Parameters
	table  *source.Table
	stream *rng.Stream
	ctl    *ratectl.Controller
	rec    *recorder.Buffer

	fabric   dispatch.Fabric
	throttle *dispatch.Throttle
	clock    hwclock.Clock
	writer   recorder.Writer
	store    Store

	counters *metrics.Counters

	tick   uint64
	paused bool

	// LogEvent is a settable diagnostics sink, defaulting to a no-op so
	// library use never forces a logging dependency on the caller.
	// cmd/corerunner and cmd/coreserver assign their own.
	LogEvent func(msg string)

	// Sleep is the random-backoff wait primitive. It is a field, not a
	// hardcoded time.Sleep call, purely so tests run without actually
	// sleeping.
	Sleep func(time.Duration)

	randSrc *rand.Rand // backs the jitter draw only, never the spike schedule
}

// New allocates a fresh Core: a new source table and recording buffer, a
// seeded random stream, and the rate controller/dispatch throttle bound to
// them. If store is non-nil and holds exactly NSources records, the initial
// source table is bulk-copied from it; otherwise the table keeps its
// defaults. fabric and writer may be nil to disable emission and recording
// respectively.
func New(params config.Parameters, store Store, fabric dispatch.Fabric, writer recorder.Writer, clock hwclock.Clock) (*Core, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.NSources > maxSources {
		return nil, errs.OOM("n_sources %d exceeds maximum %d", params.NSources, maxSources)
	}

	stream, err := rng.NewStream(params.Seed)
	if err != nil {
		return nil, errs.Startup("constructing random stream: %v", err)
	}

	table := source.NewTable(int(params.NSources))
	if store != nil {
		records, err := store.LoadSources()
		if err != nil {
			return nil, errs.Startup("loading initial source table: %v", err)
		}
		if len(records) == table.Len() {
			table.Load(records)
		}
	}

	c := &Core{
		params:   params,
		table:    table,
		stream:   stream,
		rec:      recorder.New(int(params.NSources)),
		fabric:   fabric,
		clock:    clock,
		writer:   writer,
		store:    store,
		counters: metrics.New(),
		LogEvent: func(string) {},
		Sleep:    time.Sleep,
		randSrc:  rand.New(rand.NewSource(int64(params.Seed[0]) + 1)),
	}
	c.ctl = ratectl.New(&c.params, table)
	if fabric != nil {
		c.throttle = dispatch.New(clock, fabric, c.params.InterSpikeGapTicks)
	}
	return c, nil
}

// Controller exposes the rate controller so intake callbacks can apply
// updates.
func (c *Core) Controller() *ratectl.Controller { return c.ctl }

// Parameters returns a copy of the current parameter block.
func (c *Core) Parameters() config.Parameters { return c.params }

// Tick returns the current tick index.
func (c *Core) Tick() uint64 { return c.tick }

// Paused reports whether the core is between a pause and its Resume call.
func (c *Core) Paused() bool { return c.paused }

// Counters returns the live counter set for metrics reporting.
func (c *Core) Counters() *metrics.Counters { return c.counters }

// RecordingSnapshot exposes the recording buffer for read-only inspection
// (tests).
func (c *Core) RecordingSnapshot() (nLayers int, bit func(layer, source int) bool) {
	return c.rec.NLayers(), c.rec.Bit
}

// Step runs exactly one tick of the scheduler. Calling it while paused is
// a no-op: the host must call Resume first.
func (c *Core) Step() {
	if c.paused {
		return
	}

	if c.params.TotalTicks > 0 && c.tick >= c.params.TotalTicks {
		c.pauseAndPersist()
		return
	}

	c.randomBackoff()

	if c.throttle != nil {
		c.throttle.StartTick()
	}

	c.rec.Reset()
	prevCap := c.rec.Capacity()

	var tickSpikes, tickPackets uint64
	for i := 0; i < c.table.Len(); i++ {
		rec := c.table.At(i)
		switch {
		case rec.Regime == source.Fast && rec.Active(c.tick):
			tickSpikes, tickPackets = c.stepFastSource(i, rec, tickSpikes, tickPackets)
		case rec.Regime == source.Slow && rec.Active(c.tick) && rec.MeanISITicks != 0:
			tickSpikes, tickPackets = c.stepSlowSource(i, rec, tickSpikes, tickPackets)
		}
	}

	if c.rec.Capacity() != prevCap {
		c.counters.AddRecorderReallocation()
	}
	c.counters.AddSpikes(tickSpikes)
	c.counters.AddPacketsSent(tickPackets)
	c.counters.SetTick(c.tick)

	if c.writer != nil {
		c.waitForWriterFree()
		c.rec.Flush(c.tick, c.writer)
		c.LogEvent(fmt.Sprintf("tick %d complete", c.tick))
	}

	c.tick++
}

// stepFastSource draws this tick's spike count for a fast-regime source
// and marks/dispatches it.
func (c *Core) stepFastSource(idx int, rec *source.Record, tickSpikes, tickPackets uint64) (uint64, uint64) {
	k := c.stream.FastCount(rec.ExpMinusLambda)
	if k == 0 {
		return tickSpikes, tickPackets
	}
	c.rec.Mark(idx, int(k))
	tickSpikes += k
	if c.params.HasKey && c.throttle != nil {
		key := c.params.BaseKey | uint32(idx)
		for n := uint64(0); n < k; n++ {
			if retries := c.throttle.Send(key); retries > 0 {
				for r := 0; r < retries; r++ {
					c.counters.AddFabricRetry()
				}
			}
		}
		tickPackets += k
	}
	return tickSpikes, tickPackets
}

// stepSlowSource walks a slow-regime source's countdown: every crossing of
// TimeToSpikeTicks through zero in this tick is one spike, marked and
// optionally dispatched individually, before the counter is unconditionally
// decremented once more.
func (c *Core) stepSlowSource(idx int, rec *source.Record, tickSpikes, tickPackets uint64) (uint64, uint64) {
	crossings := 0
	for rec.TimeToSpikeTicks <= 0 {
		crossings++
		c.rec.Mark(idx, crossings)
		if c.params.HasKey && c.throttle != nil {
			retries := c.throttle.Send(c.params.BaseKey | uint32(idx))
			for r := 0; r < retries; r++ {
				c.counters.AddFabricRetry()
			}
			tickPackets++
		}
		rec.TimeToSpikeTicks += c.stream.SlowISI(rec.MeanISITicks)
	}
	tickSpikes += uint64(crossings)
	rec.TimeToSpikeTicks--
	return tickSpikes, tickPackets
}

// randomBackoff busy-waits for a uniform random delay in
// [0, RandomBackoffUS] microseconds, desynchronising cores that share a
// timer. The jitter draw comes from a private PRNG, not the
// spike-generating Stream, so toggling it on or off never perturbs the
// deterministic spike schedule.
func (c *Core) randomBackoff() {
	if c.params.RandomBackoffUS == 0 {
		return
	}
	us := c.randSrc.Float64() * float64(c.params.RandomBackoffUS)
	c.Sleep(time.Duration(us * float64(time.Microsecond)))
}

// waitForWriterFree cooperatively waits for any outstanding flush to
// complete, modeled as a spin rather than a blocking wait (tests always
// complete their fake writer synchronously, so this never actually spins
// in this repo's test suite).
func (c *Core) waitForWriterFree() {
	for c.rec.WriterBusy() {
	}
}

// pauseAndPersist persists parameters and the source table, flushes the
// recorder synchronously, enters the paused state, and decrements tick so
// the same tick replays after Resume.
func (c *Core) pauseAndPersist() {
	if c.store != nil {
		_ = c.store.SaveParameters(c.params)
		records := make([]source.Record, c.table.Len())
		c.table.Store(records)
		_ = c.store.SaveSources(records)
	}
	if c.writer != nil {
		c.waitForWriterFree()
		c.rec.Flush(c.tick, c.writer)
		c.waitForWriterFree()
	}
	c.paused = true
	c.counters.AddPause()
	if c.tick > 0 {
		c.tick--
	}
	c.LogEvent(fmt.Sprintf("paused at tick %d", c.tick))
}

// Resume re-reads the parameter block and source table from the store,
// since the host may have mutated them while paused, and clears the paused
// state so Step resumes from the same tick.
func (c *Core) Resume() error {
	if c.store == nil {
		return errs.Resume("no store configured")
	}
	params, err := c.store.LoadParameters()
	if err != nil {
		return errs.Resume("reloading parameters: %v", err)
	}
	records, err := c.store.LoadSources()
	if err != nil {
		return errs.Resume("reloading source table: %v", err)
	}
	if len(records) != c.table.Len() {
		return errs.Resume("source table size changed across resume: got %d want %d", len(records), c.table.Len())
	}

	c.params = params
	c.table.Load(records)
	if c.fabric != nil {
		c.throttle = dispatch.New(c.clock, c.fabric, c.params.InterSpikeGapTicks)
	}
	c.paused = false
	c.LogEvent(fmt.Sprintf("resumed at tick %d", c.tick))
	return nil
}
