// Package metrics tracks cumulative counters for one core's run and
// exposes them both as a JSON-able snapshot (for the websocket server) and
// as Prometheus gauges (for cmd/coreserver's /metrics endpoint).
package metrics

// Snapshot is a point-in-time, JSON-serializable copy of Counters.
type Snapshot struct {
	Tick                  uint64 `json:"tick"`
	SpikesEmitted         uint64 `json:"spikesEmitted"`
	PacketsSent           uint64 `json:"packetsSent"`
	FabricRetries         uint64 `json:"fabricRetries"`
	RecorderReallocations uint64 `json:"recorderReallocations"`
	PauseCount            uint64 `json:"pauseCount"`
}

// Counters is the mutable counter set owned by one Core. It is not safe
// for concurrent use; it is only ever touched from the timer path, like
// every other per-core mutable structure.
type Counters struct {
	snap Snapshot
}

// New returns a zeroed Counters.
func New() *Counters {
	return &Counters{}
}

// SetTick records the current tick number.
func (c *Counters) SetTick(t uint64) { c.snap.Tick = t }

// AddSpikes adds n to the cumulative spikes-emitted counter.
func (c *Counters) AddSpikes(n uint64) { c.snap.SpikesEmitted += n }

// AddPacketsSent adds n to the cumulative packets-sent counter.
func (c *Counters) AddPacketsSent(n uint64) { c.snap.PacketsSent += n }

// AddFabricRetry increments the fabric-congestion retry counter.
func (c *Counters) AddFabricRetry() { c.snap.FabricRetries++ }

// AddRecorderReallocation increments the recorder-buffer growth counter.
func (c *Counters) AddRecorderReallocation() { c.snap.RecorderReallocations++ }

// AddPause increments the pause counter.
func (c *Counters) AddPause() { c.snap.PauseCount++ }

// Snapshot returns a copy of the current counters.
func (c *Counters) Snapshot() Snapshot {
	return c.snap
}
