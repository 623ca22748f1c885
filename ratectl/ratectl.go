// Package ratectl implements the rate controller: the single documented
// mutator of a source's regime and regime-specific fields.
package ratectl

import (
	"math"

	"github.com/neuromorph/poissoncore/config"
	"github.com/neuromorph/poissoncore/source"
)

// Controller applies rate updates to a source table under a fixed
// parameter block.
type Controller struct {
	params *config.Parameters
	table  *source.Table
}

// New returns a Controller bound to params and table. params is read, not
// copied, so changes the host makes between resumes are picked up.
func New(params *config.Parameters, table *source.Table) *Controller {
	return &Controller{params: params, table: table}
}

// SetRate applies rateHz to the source identified by globalID. If globalID
// falls outside this core's [FirstSourceID, FirstSourceID+NSources) window,
// the call is a silent no-op: another core owns that id.
//
// SetRate is idempotent: calling it twice in succession with the same
// rateHz produces the same record, because the computation below depends
// only on rateHz and the (unchanging) parameter block.
func (c *Controller) SetRate(globalID uint32, rateHz float64) {
	if globalID < c.params.FirstSourceID {
		return
	}
	local := int(globalID - c.params.FirstSourceID)
	if local >= int(c.params.NSources) {
		return
	}

	rTick := rateHz * c.params.SecondsPerTick
	rec := c.table.At(local)

	if rTick > c.params.SlowFastCutoff {
		rec.SetFast(math.Exp(-rTick))
		return
	}

	// Slow lane: mean_isi_ticks = 1/r_tick = ticks_per_second / rate_hz.
	// rateHz == 0 is a valid "silent" source and must produce the sentinel
	// 0, not a division by zero.
	meanISI := 0.0
	if rateHz > 0 {
		meanISI = c.params.TicksPerSecond / rateHz
	}
	rec.SetSlow(meanISI)
}
