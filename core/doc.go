// This file documents the concurrency contract this package assumes. The
// source hardware this models runs a preemptive, priority-ordered callback
// scheduler; Go has no direct equivalent — no interrupt priorities, no
// non-reentrant timer callback — so the contract is restated here as an
// explicit state machine callers must honor, rather than something the
// type system enforces:
//
//   - Step must never be called concurrently with itself, nor
//     concurrently with another Step on the same Core. It is the single
//     "timer tick" caller; cmd/corerunner and cmd/coreserver each drive it
//     from one goroutine.
//   - Controller.SetRate (reached via intake.MulticastCallback and
//     intake.HostMessageCallback) may run concurrently with Step from a
//     different goroutine — mirroring how multicast packets and host
//     messages both preempt the timer on the source hardware. Each call
//     touches exactly one source.Record's regime-related fields, and the
//     resulting race is accepted rather than guarded against: a Step in
//     progress may observe a source mid-transition and emit one tick of
//     stale-regime spikes. This package does not add a mutex around the
//     source table for that reason — doing so would be "fixing" an
//     accepted anomaly at the cost of adding a lock to the hot path.
//   - Resume must only be called while Paused() is true, and Step must
//     not be called while paused (Step is a no-op in that state, not a
//     panic, since a caller racing the two is exactly the resume-latency
//     window a callback-driven resume would also have to tolerate).
package core
