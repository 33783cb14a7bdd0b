// Per-host state for one job.
//
// A host moves through two phases.  While gathering, it accumulates raw
// samples: per (record type, device), an ordered list of (timestamp, counter
// vector) pairs, plus the list of record-boundary timestamps that feeds time
// alignment.  Normalization consumes the raw samples and replaces them with
// per-device matrices on the job's canonical time axis; after that the raw
// side is gone and the host is read-only.

package stats

import (
	"errors"

	"go.uber.org/zap"

	"jobstats/common"
	"jobstats/db"
)

type rawSample struct {
	time int64
	vals []uint64
}

type Host struct {
	Name string

	// Named markers seen while inside the job's records, e.g. "begin <id>"
	// and "end <id>".  Available for sanity checks, not load-bearing.
	Marks map[string]bool

	log      *zap.Logger
	gathered bool

	// Raw phase.  times is consumed by Job.AlignTimes, raw by
	// Job.Normalize.
	times []int64
	raw   map[string]map[string][]rawSample

	// Normalized phase.
	stats map[string]map[string]*Matrix
}

func newHost(name string, log *zap.Logger) *Host {
	return &Host{
		Name:  name,
		Marks: make(map[string]bool),
		log:   log.With(zap.String("host", name)),
		raw:   make(map[string]map[string][]rawSample),
	}
}

// Boundary, Sample and Mark are the scanner's callbacks (db.SampleSink).
// They are only invoked between construction and the end of gather, when the
// host is exclusively owned by one goroutine.

func (h *Host) Boundary(t int64) {
	h.times = append(h.times, t)
}

func (h *Host) Sample(typeName, devName string, t int64, vals []uint64) {
	typeStats, found := h.raw[typeName]
	if !found {
		typeStats = make(map[string][]rawSample)
		h.raw[typeName] = typeStats
	}
	typeStats[devName] = append(typeStats[devName], rawSample{time: t, vals: vals})
}

func (h *Host) Mark(mark string) {
	h.Marks[mark] = true
}

// gather scans all candidate stats files for the job in chronological order.
// Any failure is absorbed here; the return value says whether the host ended
// up with any data at all.
func (h *Host) gather(cfg *common.Config, job *Job) bool {
	files, err := db.CandidateStatsFiles(cfg, h.Name, job.StartTime, job.EndTime, h.log)
	if err != nil {
		h.log.Error("cannot enumerate stats directory", zap.Error(err))
		return false
	}
	if len(files) == 0 {
		h.log.Error("no stats files overlapping job")
		return false
	}
	for _, f := range files {
		input, err := db.OpenStatsFile(f.Path)
		if err != nil {
			h.log.Error("cannot open stats file",
				zap.String("file", f.Path), zap.Error(err))
			continue
		}
		_, soft, err := db.ScanStatsFile(
			input, f.Path, f.Start, job.Id, job.adoptSchemas, h, h.log)
		input.Close()
		if err != nil && !errors.Is(err, db.ErrSchemaConflict) {
			// Conflicts were already logged by the scanner; this is an I/O
			// failure mid-file.  What was scanned so far is kept.
			h.log.Error("error reading stats file",
				zap.String("file", f.Path), zap.Error(err))
		}
		if soft > 0 {
			h.log.Debug("discarded malformed input",
				zap.String("file", f.Path), zap.Int("lines", soft))
		}
	}
	return len(h.raw) > 0
}

// Matrix returns the normalized matrix for (typeName, devName), or found =
// false.  Valid only after normalization.
func (h *Host) Matrix(typeName, devName string) (m *Matrix, found bool) {
	m, found = h.stats[typeName][devName]
	return
}

// Devices returns the device names present for a record type, in map order.
func (h *Host) Devices(typeName string) []string {
	var names []string
	for name := range h.stats[typeName] {
		names = append(names, name)
	}
	return names
}
