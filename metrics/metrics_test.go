package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestCountersAccumulate(t *testing.T) {
	c := New()
	c.SetTick(5)
	c.AddSpikes(3)
	c.AddPacketsSent(3)
	c.AddFabricRetry()
	c.AddRecorderReallocation()
	c.AddPause()

	snap := c.Snapshot()
	require.Equal(t, Snapshot{
		Tick:                  5,
		SpikesEmitted:         3,
		PacketsSent:           3,
		FabricRetries:         1,
		RecorderReallocations: 1,
		PauseCount:            1,
	}, snap)
}

func TestPrometheusGaugesRegisterAndUpdate(t *testing.T) {
	g := NewPrometheusGauges()
	reg := prometheus.NewRegistry()
	require.NoError(t, g.Register(reg))

	g.Update(Snapshot{Tick: 7, SpikesEmitted: 42})

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
