// Package config holds the process-wide parameter block and its loaders: a
// packed little-endian codec for the parameter block a host writes into
// region 1, and JSON/YAML loaders for the CLI and server tooling.
package config

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"

	"github.com/neuromorph/poissoncore/errs"
	"github.com/neuromorph/poissoncore/rng"
	"gopkg.in/yaml.v3"
)

// Parameters is the parameter block written by the loader and re-read on
// resume. It is immutable for the run except via the documented
// rate-update callbacks (which mutate individual source records, not this
// struct) or a full reload.
type Parameters struct {
	// HasKey selects whether this core emits fabric packets at all.
	HasKey bool `json:"hasKey" yaml:"hasKey"`
	// BaseKey is bitwise-ORed with the local source index to form the
	// multicast routing key.
	BaseKey uint32 `json:"baseKey" yaml:"baseKey"`
	// RateUpdateMask ANDs against a fabric key to extract a global source
	// id.
	RateUpdateMask uint32 `json:"rateUpdateMask" yaml:"rateUpdateMask"`
	// RandomBackoffUS is the maximum random start-of-tick delay, in
	// microseconds.
	RandomBackoffUS uint32 `json:"randomBackoffUs" yaml:"randomBackoffUs"`
	// InterSpikeGapTicks is the hardware-counter-tick gap to leave between
	// consecutive dispatches.
	InterSpikeGapTicks uint64 `json:"interSpikeGapTicks" yaml:"interSpikeGapTicks"`
	// SecondsPerTick and TicksPerSecond are a reciprocal pair used to
	// convert between hertz and per-tick rate.
	SecondsPerTick float64 `json:"secondsPerTick" yaml:"secondsPerTick"`
	TicksPerSecond float64 `json:"ticksPerSecond" yaml:"ticksPerSecond"`
	// SlowFastCutoff is the per-tick rate above which a source uses the
	// fast lane; a rate equal to it stays in the slow lane.
	SlowFastCutoff float64 `json:"slowFastCutoff" yaml:"slowFastCutoff"`
	// FirstSourceID is the global-index offset of local source 0.
	FirstSourceID uint32 `json:"firstSourceId" yaml:"firstSourceId"`
	// NSources is the local source count owned by this core.
	NSources uint32 `json:"nSources" yaml:"nSources"`
	// Seed is the four-word state handed to rng.NewStream.
	Seed rng.Seed `json:"seed" yaml:"seed"`
	// TotalTicks is the finite simulation length; 0 means unbounded.
	TotalTicks uint64 `json:"totalTicks" yaml:"totalTicks"`
}

// Default returns a single-source, fast-lane-biased configuration useful
// for tests and as a CLI starting point, mirroring the role of the
// teacher's DefaultConfig.
func Default() Parameters {
	return Parameters{
		HasKey:             true,
		BaseKey:            0,
		RateUpdateMask:     0xFFFF,
		RandomBackoffUS:    100,
		InterSpikeGapTicks: 10,
		SecondsPerTick:     0.001,
		TicksPerSecond:     1000,
		SlowFastCutoff:     0.25,
		FirstSourceID:      0,
		NSources:           1,
		Seed:               rng.Seed{123456789, 362436069, 521288629, 88675123},
		TotalTicks:         0,
	}
}

// Validate checks the parameter block for internally-consistent values.
func (p *Parameters) Validate() error {
	if p.NSources == 0 {
		return errs.Startup("nSources must be >= 1")
	}
	if p.SecondsPerTick <= 0 {
		return errs.Startup("secondsPerTick must be > 0")
	}
	if p.TicksPerSecond <= 0 {
		return errs.Startup("ticksPerSecond must be > 0")
	}
	if p.SlowFastCutoff < 0 {
		return errs.Startup("slowFastCutoff must be >= 0")
	}
	allZero := p.Seed[0] == 0 && p.Seed[1] == 0 && p.Seed[2] == 0 && p.Seed[3] == 0
	if allZero {
		return errs.Startup("seed must not be all zero")
	}
	return nil
}

// LoadJSON reads a Parameters from a JSON file, used by cmd/corerunner
// -config.
func LoadJSON(path string) (Parameters, error) {
	var p Parameters
	data, err := os.ReadFile(path)
	if err != nil {
		return p, errs.Startup("reading config file: %v", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, errs.Startup("parsing config json: %v", err)
	}
	return p, nil
}

// LoadYAML reads a Parameters from a YAML file — an alternate format to
// LoadJSON for operators who keep their fleet's config in YAML.
func LoadYAML(path string) (Parameters, error) {
	var p Parameters
	data, err := os.ReadFile(path)
	if err != nil {
		return p, errs.Startup("reading config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, errs.Startup("parsing config yaml: %v", err)
	}
	return p, nil
}

// SaveYAML writes p to path as YAML.
func SaveYAML(path string, p Parameters) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return errs.Startup("marshaling config yaml: %v", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// blockWireSize is the encoded size, in bytes, of the fixed-size portion
// of Parameters in the shared-memory region layout: everything up to but
// excluding the source-record array that immediately follows it.
const blockWireSize = 1 + 4 + 4 + 4 + 8 + 8 + 8 + 8 + 4 + 4 + 16 + 8

// EncodeBlock serializes p into the wire layout a host reads back at pause.
// Fields are packed little-endian in declaration order with no padding:
// the 1-byte HasKey flag puts every later field at an offset that is not
// word-aligned. Only the parameter block is encoded, not the source records.
func EncodeBlock(p Parameters) []byte {
	buf := make([]byte, blockWireSize)
	i := 0
	if p.HasKey {
		buf[i] = 1
	}
	i++
	binary.LittleEndian.PutUint32(buf[i:], p.BaseKey)
	i += 4
	binary.LittleEndian.PutUint32(buf[i:], p.RateUpdateMask)
	i += 4
	binary.LittleEndian.PutUint32(buf[i:], p.RandomBackoffUS)
	i += 4
	binary.LittleEndian.PutUint64(buf[i:], p.InterSpikeGapTicks)
	i += 8
	binary.LittleEndian.PutUint64(buf[i:], math.Float64bits(p.SecondsPerTick))
	i += 8
	binary.LittleEndian.PutUint64(buf[i:], math.Float64bits(p.TicksPerSecond))
	i += 8
	binary.LittleEndian.PutUint64(buf[i:], math.Float64bits(p.SlowFastCutoff))
	i += 8
	binary.LittleEndian.PutUint32(buf[i:], p.FirstSourceID)
	i += 4
	binary.LittleEndian.PutUint32(buf[i:], p.NSources)
	i += 4
	for w := 0; w < 4; w++ {
		binary.LittleEndian.PutUint32(buf[i:], p.Seed[w])
		i += 4
	}
	binary.LittleEndian.PutUint64(buf[i:], p.TotalTicks)
	i += 8
	return buf[:i]
}

// DecodeBlock parses the wire layout produced by EncodeBlock.
func DecodeBlock(buf []byte) (Parameters, error) {
	var p Parameters
	if len(buf) < blockWireSize {
		return p, errs.Startup("parameter block too short: %d bytes", len(buf))
	}
	i := 0
	p.HasKey = buf[i] != 0
	i++
	p.BaseKey = binary.LittleEndian.Uint32(buf[i:])
	i += 4
	p.RateUpdateMask = binary.LittleEndian.Uint32(buf[i:])
	i += 4
	p.RandomBackoffUS = binary.LittleEndian.Uint32(buf[i:])
	i += 4
	p.InterSpikeGapTicks = binary.LittleEndian.Uint64(buf[i:])
	i += 8
	p.SecondsPerTick = math.Float64frombits(binary.LittleEndian.Uint64(buf[i:]))
	i += 8
	p.TicksPerSecond = math.Float64frombits(binary.LittleEndian.Uint64(buf[i:]))
	i += 8
	p.SlowFastCutoff = math.Float64frombits(binary.LittleEndian.Uint64(buf[i:]))
	i += 8
	p.FirstSourceID = binary.LittleEndian.Uint32(buf[i:])
	i += 4
	p.NSources = binary.LittleEndian.Uint32(buf[i:])
	i += 4
	for w := 0; w < 4; w++ {
		p.Seed[w] = binary.LittleEndian.Uint32(buf[i:])
		i += 4
	}
	p.TotalTicks = binary.LittleEndian.Uint64(buf[i:])
	return p, nil
}
