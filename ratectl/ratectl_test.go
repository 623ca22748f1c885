package ratectl

import (
	"math"
	"testing"

	"github.com/neuromorph/poissoncore/config"
	"github.com/neuromorph/poissoncore/source"
	"github.com/stretchr/testify/require"
)

func newFixture(n int) (*config.Parameters, *source.Table) {
	p := config.Default()
	p.NSources = uint32(n)
	p.FirstSourceID = 100
	p.SlowFastCutoff = 0.25
	p.SecondsPerTick = 0.001
	p.TicksPerSecond = 1000
	return &p, source.NewTable(n)
}

func TestSetRateOutOfRangeIsNoop(t *testing.T) {
	p, tbl := newFixture(2)
	ctl := New(p, tbl)

	before := *tbl.At(0)
	ctl.SetRate(5, 1000) // global id 5 is below FirstSourceID=100
	require.Equal(t, before, *tbl.At(0))

	ctl.SetRate(1000, 1000) // way above window
	require.Equal(t, before, *tbl.At(0))
}

func TestSetRateFastRegime(t *testing.T) {
	p, tbl := newFixture(1)
	ctl := New(p, tbl)

	ctl.SetRate(100, 1000) // r_tick = 1.0 > cutoff 0.25
	rec := tbl.At(0)
	require.Equal(t, source.Fast, rec.Regime)
	require.InDelta(t, math.Exp(-1.0), rec.ExpMinusLambda, 1e-12)
	require.Equal(t, 0.0, rec.MeanISITicks)
}

func TestSetRateSlowRegime(t *testing.T) {
	p, tbl := newFixture(1)
	ctl := New(p, tbl)

	ctl.SetRate(100, 0.25) // r_tick = 2.5e-4 < cutoff 0.25
	rec := tbl.At(0)
	require.Equal(t, source.Slow, rec.Regime)
	require.InDelta(t, 4000.0, rec.MeanISITicks, 1e-9)
	require.Equal(t, 0.0, rec.ExpMinusLambda)
}

func TestSetRateSlowZeroIsSilent(t *testing.T) {
	p, tbl := newFixture(1)
	ctl := New(p, tbl)

	ctl.SetRate(100, 0)
	rec := tbl.At(0)
	require.Equal(t, source.Slow, rec.Regime)
	require.Equal(t, 0.0, rec.MeanISITicks)
}

func TestSetRateIdempotent(t *testing.T) {
	p, tbl := newFixture(1)
	ctl := New(p, tbl)

	ctl.SetRate(100, 500)
	first := *tbl.At(0)
	ctl.SetRate(100, 500)
	require.Equal(t, first, *tbl.At(0))
}

func TestRegimeDichotomy(t *testing.T) {
	p, tbl := newFixture(1)
	ctl := New(p, tbl)

	rates := []float64{0, 0.1, 0.25, 0.249, 1000, 5000}
	for _, r := range rates {
		ctl.SetRate(100, r)
		rec := tbl.At(0)
		wantFast := r*p.SecondsPerTick > p.SlowFastCutoff
		gotFast := rec.Regime == source.Fast
		require.Equal(t, wantFast, gotFast, "rate=%v", r)
	}
}
