// Counter normalization: fit raw samples onto the canonical time axis, then
// fix up event-counter rollover and apply unit multipliers.

package stats

import (
	"go.uber.org/zap"

	"jobstats/db"
)

func (j *Job) normalizeHost(h *Host) {
	h.stats = make(map[string]map[string]*Matrix, len(h.raw))
	for typeName, rawTypeStats := range h.raw {
		schema := j.Schema(typeName)
		typeStats := make(map[string]*Matrix, len(rawTypeStats))
		for devName, raw := range rawTypeStats {
			log := h.log.With(
				zap.String("type", typeName), zap.String("dev", devName))
			typeStats[devName] = normalizeDevice(j.times, schema, raw, log)
		}
		h.stats[typeName] = typeStats
	}
	h.raw = nil
}

// normalizeDevice builds the m×n matrix for one (host, type, device).
//
// Row 0 and row m-1 are anchored to the first and last raw sample.  Interior
// rows take the raw sample whose timestamp is closest to the row's canonical
// timestamp, found with a single forward cursor over the raw list; both
// sides are sorted, so this is one pass.
//
// Event columns are then rebased and rollover-corrected independently, top
// to bottom.  A decrease in the raw value means one of three things: a
// wraparound at the column's known bit width (shift the baseline down by
// 2^W); a spurious zero reading, a known sensor artifact on some fabrics
// (reuse the previous raw value); or an unexplainable decrease in a 64-bit
// counter, which cannot be corrected and is left alone.  The running
// previous value always tracks the raw reading, not the corrected one.
// Gauge columns pass through untouched.  Unit multipliers apply last.
func normalizeDevice(times []int64, schema *db.Schema, raw []rawSample, log *zap.Logger) *Matrix {
	m := len(times)
	n := len(schema.Entries)
	A := newMatrix(m, n)

	A.setRow(0, raw[0].vals)
	A.setRow(m-1, raw[len(raw)-1].vals)
	k := 0
	for i := 1; i < m-1; i++ {
		t := times[i]
		for k+1 < len(raw) && absDiff(raw[k+1].time, t) < absDiff(raw[k].time, t) {
			k++
		}
		A.setRow(i, raw[k].vals)
	}

	for col, e := range schema.Entries {
		if e.IsEvent {
			prev := A.At(0, col)
			baseline := prev
			for i := 0; i < m; i++ {
				v := A.At(i, col)
				if v < prev {
					switch {
					case e.Width > 0:
						log.Debug("counter rollover",
							zap.Int64("time", times[i]),
							zap.String("counter", e.Key),
							zap.Uint64("prev", prev),
							zap.Uint64("curr", v))
						baseline -= uint64(1) << e.Width
					case v == 0:
						log.Debug("suspicious zero reading",
							zap.Int64("time", times[i]),
							zap.String("counter", e.Key),
							zap.Uint64("prev", prev))
						v = prev
					default:
						log.Error("64-bit counter rollover, uncorrectable",
							zap.Int64("time", times[i]),
							zap.String("counter", e.Key),
							zap.Uint64("prev", prev),
							zap.Uint64("curr", v))
					}
				}
				A.set(i, col, v-baseline)
				prev = v
			}
		}
		if e.Mult != 0 {
			for i := 0; i < m; i++ {
				A.set(i, col, A.At(i, col)*e.Mult)
			}
		}
	}
	return A
}

func absDiff(a, b int64) int64 {
	if a < b {
		return b - a
	}
	return a - b
}
