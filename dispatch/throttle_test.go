package dispatch

import (
	"testing"

	"github.com/neuromorph/poissoncore/hwclock"
	"github.com/stretchr/testify/require"
)

type recordingFabric struct {
	sent       []uint32
	failsLeft  int
	failedKeys int
}

func (f *recordingFabric) Send(key uint32) bool {
	if f.failsLeft > 0 {
		f.failsLeft--
		f.failedKeys++
		return false
	}
	f.sent = append(f.sent, key)
	return true
}

func TestThrottlePacesSends(t *testing.T) {
	clock := hwclock.NewFakeClock(1000)
	fabric := &recordingFabric{}
	th := New(clock, fabric, 10)

	th.StartTick() // expectedTime = 1000 - 10 = 990, already behind now
	th.Send(1)
	require.Equal(t, []uint32{1}, fabric.sent)

	// The first send moved the target 10 ticks forward to 1000, which the
	// clock already reads, so the second send would not wait; a third one
	// (target 1010) would. Advance the clock to simulate time passing, as
	// a real busy-wait would observe.
	clock.Advance(10)
	th.Send(2)
	require.Equal(t, []uint32{1, 2}, fabric.sent)
}

func TestThrottleStartTickClampsNearZero(t *testing.T) {
	clock := hwclock.NewFakeClock(2)
	fabric := &recordingFabric{}
	th := New(clock, fabric, 10)

	th.StartTick()
	require.Equal(t, uint64(0), th.expectedTime)
}

func TestThrottleRetriesUntilFabricAccepts(t *testing.T) {
	clock := hwclock.NewFakeClock(100)
	fabric := &recordingFabric{failsLeft: 3}
	th := New(clock, fabric, 5)
	th.backoff = func() {} // no real sleeping in the test

	th.StartTick()
	retries := th.Send(42)
	require.Equal(t, 3, retries)
	require.Equal(t, 3, fabric.failedKeys)
	require.Equal(t, []uint32{42}, fabric.sent)
}
