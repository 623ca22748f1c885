package core

import (
	"math"

	"github.com/neuromorph/poissoncore/config"
	"github.com/neuromorph/poissoncore/source"
)

// Store is the shared-memory access this package assumes: the parameter
// block and the source-record array that immediately follows it. The
// loader/region-resolution machinery that backs a real Store is out of
// scope here; this package only needs the four operations below.
type Store interface {
	SaveParameters(config.Parameters) error
	SaveSources([]source.Record) error
	LoadParameters() (config.Parameters, error)
	LoadSources() ([]source.Record, error)
}

// MemStore is an in-memory Store, used by tests and cmd/corerunner's
// non-persistent mode to stand in for the real shared-memory region.
type MemStore struct {
	params  config.Parameters
	sources []source.Record
}

// NewMemStore returns a MemStore pre-populated with params and n source
// records, each active for all ticks unless its window is rewritten —
// the same "always active" default source.NewTable uses, so routing a
// fresh core through a MemStore never silently reintroduces the
// zero-EndTick bug where every source is silent until a loader sets its
// window (source.NewTable's doc comment covers why "always active" is
// the only sensible default here).
func NewMemStore(params config.Parameters, n int) *MemStore {
	records := make([]source.Record, n)
	for i := range records {
		records[i].EndTick = math.MaxUint64
	}
	return &MemStore{params: params, sources: records}
}

func (m *MemStore) SaveParameters(p config.Parameters) error {
	m.params = p
	return nil
}

func (m *MemStore) SaveSources(records []source.Record) error {
	m.sources = append([]source.Record(nil), records...)
	return nil
}

func (m *MemStore) LoadParameters() (config.Parameters, error) {
	return m.params, nil
}

func (m *MemStore) LoadSources() ([]source.Record, error) {
	return append([]source.Record(nil), m.sources...), nil
}

// MutateParameters lets a test simulate the host rewriting the parameter
// block in shared memory while the core is paused.
func (m *MemStore) MutateParameters(fn func(*config.Parameters)) {
	fn(&m.params)
}
