package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())
}

func TestValidateRejectsZeroSources(t *testing.T) {
	p := Default()
	p.NSources = 0
	require.Error(t, p.Validate())
}

func TestValidateRejectsAllZeroSeed(t *testing.T) {
	p := Default()
	p.Seed = [4]uint32{0, 0, 0, 0}
	require.Error(t, p.Validate())
}

func TestEncodeDecodeBlockRoundTrip(t *testing.T) {
	p := Default()
	p.BaseKey = 0xABCD
	p.TotalTicks = 12345

	buf := EncodeBlock(p)
	got, err := DecodeBlock(buf)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestDecodeBlockRejectsShortBuffer(t *testing.T) {
	_, err := DecodeBlock([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	p := Default()
	p.BaseKey = 42

	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	require.NoError(t, SaveYAML(path, p))

	got, err := LoadYAML(path)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestJSONLoadRoundTrip(t *testing.T) {
	p := Default()
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")

	data := `{"hasKey":true,"baseKey":7,"rateUpdateMask":65535,"randomBackoffUs":100,` +
		`"interSpikeGapTicks":10,"secondsPerTick":0.001,"ticksPerSecond":1000,` +
		`"slowFastCutoff":0.25,"firstSourceId":0,"nSources":1,` +
		`"seed":[123456789,362436069,521288629,88675123],"totalTicks":0}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	got, err := LoadJSON(path)
	require.NoError(t, err)
	require.Equal(t, uint32(7), got.BaseKey)
	_ = p
}
