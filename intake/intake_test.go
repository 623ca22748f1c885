package intake

import (
	"testing"

	"github.com/neuromorph/poissoncore/config"
	"github.com/neuromorph/poissoncore/ratectl"
	"github.com/neuromorph/poissoncore/source"
	"github.com/stretchr/testify/require"
)

func newFixture(n int) (*config.Parameters, *source.Table, *ratectl.Controller) {
	p := config.Default()
	p.NSources = uint32(n)
	p.FirstSourceID = 10
	tbl := source.NewTable(n)
	return &p, tbl, ratectl.New(&p, tbl)
}

func TestDecodeRateUpdateAppliesMask(t *testing.T) {
	payload := EncodeRateUpdatePayload(500)
	id, rate, ok := DecodeRateUpdate(0xFF13, payload, 0x00FF)
	require.True(t, ok)
	require.Equal(t, uint32(0x13), id)
	require.Equal(t, 500.0, rate)
}

func TestDecodeRateUpdateRejectsShortPayload(t *testing.T) {
	_, _, ok := DecodeRateUpdate(1, []byte{1, 2, 3}, 0xFF)
	require.False(t, ok)
}

func TestMulticastCallbackAppliesSetRate(t *testing.T) {
	p, tbl, ctl := newFixture(4)
	p.RateUpdateMask = 0xFFFF

	payload := EncodeRateUpdatePayload(2000)
	MulticastCallback(ctl, 12, payload, p.RateUpdateMask) // global id 12 -> local 2

	rec := tbl.At(2)
	require.Equal(t, source.Fast, rec.Regime)
}

func TestHostMessageRoundTrip(t *testing.T) {
	updates := []HostUpdate{{ID: 10, RateHz: 0}, {ID: 11, RateHz: 1000}, {ID: 12, RateHz: 0.1}}
	buf := EncodeHostMessage(updates)

	got, ok := DecodeHostMessage(buf)
	require.True(t, ok)
	require.Equal(t, updates, got)
}

func TestHostMessageCallbackAppliesAllAndReleases(t *testing.T) {
	_, tbl, ctl := newFixture(4)
	updates := []HostUpdate{{ID: 10, RateHz: 2000}, {ID: 11, RateHz: 0}}
	buf := EncodeHostMessage(updates)

	var released []byte
	HostMessageCallback(ctl, buf, func(b []byte) { released = b })

	require.Equal(t, source.Fast, tbl.At(0).Regime)
	require.Equal(t, source.Slow, tbl.At(1).Regime)
	require.Equal(t, buf, released)
}

func TestHostMessageCallbackHandlesMalformedPayloadGracefully(t *testing.T) {
	_, _, ctl := newFixture(2)
	released := false
	HostMessageCallback(ctl, []byte{1}, func(b []byte) { released = true })
	require.True(t, released)
}
