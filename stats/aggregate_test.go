package stats

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"jobstats/db"
)

// A job in the normalized phase with two hosts: host a has two cpu devices
// and one ib device, host b has one cpu device.
func normalizedJob(t *testing.T) *Job {
	t.Helper()
	j := testJob(1000, 2000)
	j.schemas = map[string]*db.Schema{
		"cpu": db.ParseSchema("user,E sys,E", zap.NewNop()),
		"ib":  db.ParseSchema("rx,E", zap.NewNop()),
	}
	j.times = []int64{1000, 1010}

	mtx := func(rows ...[]uint64) *Matrix {
		a := newMatrix(len(rows), len(rows[0]))
		for i, r := range rows {
			a.setRow(i, r)
		}
		return a
	}

	a := newHost("a", zap.NewNop())
	a.stats = map[string]map[string]*Matrix{
		"cpu": {
			"cpu0": mtx([]uint64{0, 0}, []uint64{10, 1}),
			"cpu1": mtx([]uint64{0, 0}, []uint64{20, 2}),
		},
		"ib": {
			"mlx4_0": mtx([]uint64{0}, []uint64{100}),
		},
	}
	b := newHost("b", zap.NewNop())
	b.stats = map[string]map[string]*Matrix{
		"cpu": {
			"cpu0": mtx([]uint64{0, 0}, []uint64{5, 7}),
		},
	}
	j.hosts = map[string]*Host{"a": a, "b": b}
	j.phase = phaseNormalized
	return j
}

func TestAggregateAll(t *testing.T) {
	j := normalizedJob(t)
	a, nrHosts, nrDevs, err := j.Aggregate("cpu", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if nrHosts != 2 || nrDevs != 3 {
		t.Fatalf("Expected 2 hosts 3 devs, got %d %d", nrHosts, nrDevs)
	}
	if a.Rows() != 2 || a.Cols() != 2 {
		t.Fatalf("Bad shape: %dx%d", a.Rows(), a.Cols())
	}
	if a.At(1, 0) != 35 || a.At(1, 1) != 10 {
		t.Fatalf("Bad sums: %v %v", a.At(1, 0), a.At(1, 1))
	}
}

func TestAggregateHostSelection(t *testing.T) {
	j := normalizedJob(t)
	a, nrHosts, nrDevs, err := j.Aggregate("cpu", []string{"b"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if nrHosts != 1 || nrDevs != 1 {
		t.Fatalf("Expected 1 host 1 dev, got %d %d", nrHosts, nrDevs)
	}
	// A single-host selection equals that host's matrix.
	want, _ := j.Host("b").Matrix("cpu", "cpu0")
	for i := 0; i < a.Rows(); i++ {
		for k := 0; k < a.Cols(); k++ {
			if a.At(i, k) != want.At(i, k) {
				t.Fatalf("Mismatch at %d,%d", i, k)
			}
		}
	}
}

func TestAggregateDeviceSelection(t *testing.T) {
	j := normalizedJob(t)
	// Host b has no cpu1; selecting it by name across all hosts is an
	// error.
	if _, _, _, err := j.Aggregate("cpu", nil, []string{"cpu1"}); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("Expected ErrUnknownDevice, got %v", err)
	}
	a, nrHosts, nrDevs, err := j.Aggregate("cpu", []string{"a"}, []string{"cpu1"})
	if err != nil {
		t.Fatal(err)
	}
	if nrHosts != 1 || nrDevs != 1 {
		t.Fatalf("Expected 1 host 1 dev, got %d %d", nrHosts, nrDevs)
	}
	if a.At(1, 0) != 20 {
		t.Fatalf("Expected 20, got %d", a.At(1, 0))
	}
}

func TestAggregateHostsWithoutType(t *testing.T) {
	j := normalizedJob(t)
	a, nrHosts, nrDevs, err := j.Aggregate("ib", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Only host a has ib data; host b is skipped, not an error.
	if nrHosts != 1 || nrDevs != 1 {
		t.Fatalf("Expected 1 host 1 dev, got %d %d", nrHosts, nrDevs)
	}
	if a.At(1, 0) != 100 {
		t.Fatalf("Expected 100, got %d", a.At(1, 0))
	}
}

func TestAggregateErrors(t *testing.T) {
	j := normalizedJob(t)
	if _, _, _, err := j.Aggregate("nvme", nil, nil); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("Expected ErrUnknownType, got %v", err)
	}
	if _, _, _, err := j.Aggregate("cpu", []string{"z"}, nil); !errors.Is(err, ErrUnknownHost) {
		t.Fatalf("Expected ErrUnknownHost, got %v", err)
	}
}
