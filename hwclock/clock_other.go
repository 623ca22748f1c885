//go:build !unix

package hwclock

import "time"

// SystemClock is the non-unix fallback, backed by time.Now()'s monotonic
// reading. golang.org/x/sys/unix has no portable ClockGettime off unix, so
// this build only reaches here on platforms this core never actually runs
// on; it exists for `go build` on a developer's non-unix workstation.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns the fallback Clock implementation.
func NewSystemClock() SystemClock {
	return SystemClock{start: time.Now()}
}

// Now returns nanoseconds elapsed since the clock was constructed.
func (c SystemClock) Now() uint64 {
	return uint64(time.Since(c.start).Nanoseconds())
}
