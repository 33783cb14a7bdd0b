package stats

import (
	"testing"

	"go.uber.org/zap"

	"jobstats/db"
)

func samples(pairs ...int64) []rawSample {
	var raw []rawSample
	for i := 0; i < len(pairs); i += 2 {
		raw = append(raw, rawSample{time: pairs[i], vals: []uint64{uint64(pairs[i+1])}})
	}
	return raw
}

func column(a *Matrix, j int) []uint64 {
	col := make([]uint64, a.Rows())
	for i := range col {
		col[i] = a.At(i, j)
	}
	return col
}

func checkColumn(t *testing.T, a *Matrix, j int, want []uint64) {
	t.Helper()
	got := column(a, j)
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Row %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestNormalizeRolloverKnownWidth(t *testing.T) {
	// One wraparound is assumed per decrease: with width W, a drop from p
	// to v corrects to v + 2^W - baseline.
	schema := db.ParseSchema("cycles,E,W=8", zap.NewNop())
	times := []int64{10, 20, 30}
	raw := samples(10, 250, 20, 2, 30, 40)

	a := normalizeDevice(times, schema, raw, zap.NewNop())
	// Baseline starts at 250: row 0 rebases to 0; the drop to 2 shifts the
	// baseline down by 256, so 2 corrects to 2+256-250 = 8, then 40 to 46.
	checkColumn(t, a, 0, []uint64{0, 8, 46})
}

func TestNormalizeSpuriousZero(t *testing.T) {
	// A drop to exactly 0 with no width configured reuses the previous raw
	// value: the corrected series stays flat across the bad reading.
	schema := db.ParseSchema("pkts,E", zap.NewNop())
	times := []int64{10, 20, 30}
	raw := samples(10, 50, 20, 0, 30, 60)

	a := normalizeDevice(times, schema, raw, zap.NewNop())
	checkColumn(t, a, 0, []uint64{0, 0, 10})
}

func TestNormalizeUncorrectableDecrease(t *testing.T) {
	// A nonzero decrease with no width cannot be corrected; the subtraction
	// wraps and the value is left alone.
	schema := db.ParseSchema("cnt,E", zap.NewNop())
	times := []int64{10, 20}
	prev, curr := uint64(50), uint64(40)
	raw := samples(10, int64(prev), 20, int64(curr))

	a := normalizeDevice(times, schema, raw, zap.NewNop())
	if got, want := a.At(1, 0), curr-prev; got != want {
		t.Fatalf("Expected %d, got %d", want, got)
	}
}

func TestNormalizeAnchorsAndCursor(t *testing.T) {
	// Gauge columns pass through unmodified.  Row 0 and the last row come
	// from the first and last raw sample regardless of timestamp proximity;
	// interior rows take the closest raw sample.
	schema := db.ParseSchema("load", zap.NewNop())
	times := []int64{0, 10, 20, 30, 100}
	raw := samples(12, 1, 14, 2, 29, 3, 95, 4)

	a := normalizeDevice(times, schema, raw, zap.NewNop())
	// t=10 takes the sample at 12; t=20 keeps the sample at 14 (distance 6
	// beats 29's distance 9); t=30 takes the sample at 29; rows 0 and 4
	// anchor to the first and last sample.
	checkColumn(t, a, 0, []uint64{1, 1, 2, 3, 4})
}

func TestNormalizeUnitConversion(t *testing.T) {
	schema := db.ParseSchema("mem,U=KB ops,E,U=2op", zap.NewNop())
	times := []int64{10, 20}
	raw := []rawSample{
		{time: 10, vals: []uint64{3, 100}},
		{time: 20, vals: []uint64{5, 110}},
	}

	a := normalizeDevice(times, schema, raw, zap.NewNop())
	// mem is a gauge with the KB shorthand: scaled by 1024, not rebased.
	checkColumn(t, a, 0, []uint64{3 * 1024, 5 * 1024})
	// ops is an event column: rebased, then scaled by 2.
	checkColumn(t, a, 1, []uint64{0, 20})
}

func TestNormalizeSingleAxisPoint(t *testing.T) {
	// With m == 1 the last-row anchor wins.
	schema := db.ParseSchema("v", zap.NewNop())
	times := []int64{10}
	raw := samples(10, 7, 20, 9)

	a := normalizeDevice(times, schema, raw, zap.NewNop())
	checkColumn(t, a, 0, []uint64{9})
}

func TestNormalizeConsumesRaw(t *testing.T) {
	j := testJob(5, 100)
	h := addRawHost(j, "a", nil)
	h.Sample("cpu", "cpu0", 10, []uint64{1})
	h.Sample("cpu", "cpu0", 20, []uint64{2})
	j.schemas = map[string]*db.Schema{"cpu": db.ParseSchema("n,E", zap.NewNop())}
	j.times = []int64{10, 20}
	j.phase = phaseAligned

	if err := j.Normalize(); err != nil {
		t.Fatal(err)
	}
	if h.raw != nil {
		t.Fatal("Raw samples must be consumed by normalization")
	}
	m, found := h.Matrix("cpu", "cpu0")
	if !found {
		t.Fatal("No matrix for cpu/cpu0")
	}
	if m.Rows() != 2 || m.Cols() != 1 {
		t.Fatalf("Bad shape: %dx%d", m.Rows(), m.Cols())
	}
	if m.At(1, 0) != 1 {
		t.Fatalf("Expected 1, got %d", m.At(1, 0))
	}
}
