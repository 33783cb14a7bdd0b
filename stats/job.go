// Job-level orchestration.
//
// A Job runs a strictly phased batch pipeline over a closed time window:
//
//	Gather     scan every host's stats files, collect raw samples
//	AlignTimes pick the canonical per-job time axis
//	Normalize  resample every (host, type, device) onto the axis and
//	           correct counters
//	Aggregate  read-only summation over the normalized matrices
//
// Each phase is a barrier: it completes fully before the next may begin, and
// calling a phase out of order is an error.  Within Gather and Normalize the
// per-host work fans out to goroutines; each host is exclusively owned by
// its worker, so the only shared mutable state is the job's schema map,
// which is locked.
package stats

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"jobstats/common"
	"jobstats/db"
)

type jobPhase int

const (
	phaseNew jobPhase = iota
	phaseGathered
	phaseAligned
	phaseNormalized
)

type Job struct {
	Id        string
	StartTime int64
	EndTime   int64
	Acct      *AccountingRecord

	cfg *common.Config
	log *zap.Logger

	phase jobPhase

	// The schema map is established by the first stats file header parsed
	// for the job and validated against by every later file.
	// MT: Locked; written during Gather only.
	schemaMu sync.Mutex
	schemas  map[string]*db.Schema

	hosts map[string]*Host

	// Canonical time axis.  Written once by AlignTimes, read-only after.
	times []int64
}

func NewJob(cfg *common.Config, acct *AccountingRecord) *Job {
	return &Job{
		Id:        acct.Id,
		StartTime: acct.StartTime,
		EndTime:   acct.EndTime,
		Acct:      acct,
		cfg:       cfg,
		log:       cfg.Logger().With(zap.String("job", acct.Id)),
		schemas:   make(map[string]*db.Schema),
		hosts:     make(map[string]*Host),
	}
}

// adoptSchemas is the db.SchemaValidator for this job: first complete header
// wins, later headers must match it.
func (j *Job) adoptSchemas(schemas map[string]*db.Schema) error {
	j.schemaMu.Lock()
	defer j.schemaMu.Unlock()

	if len(j.schemas) == 0 {
		j.schemas = schemas
		return nil
	}
	if !db.SchemaMapsEqual(j.schemas, schemas) {
		return db.ErrSchemaConflict
	}
	return nil
}

// Schema returns the job's schema for a record type, or nil.
func (j *Job) Schema(typeName string) *db.Schema {
	j.schemaMu.Lock()
	defer j.schemaMu.Unlock()
	return j.schemas[typeName]
}

// Times returns the canonical time axis.  Callers must not mutate it.
func (j *Job) Times() []int64 {
	return j.times
}

// Host returns a host by name, or nil.
func (j *Job) Host(name string) *Host {
	return j.hosts[name]
}

// HostNames returns the surviving hosts' names, sorted.
func (j *Job) HostNames() []string {
	names := make([]string, 0, len(j.hosts))
	for name := range j.hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gather resolves the job's host list and scans every host's candidate stats
// files.  Hosts that fail to produce data are dropped with a warning; an
// unusable host list or zero surviving hosts fails the job.
func (j *Job) Gather(lookup HostListLookup) error {
	if j.phase != phaseNew {
		return fmt.Errorf("%w: Gather", ErrBadPhase)
	}

	fn, err := lookup(j.Acct)
	if err != nil {
		j.log.Error("no host list found", zap.Error(err))
		return fmt.Errorf("job %s: %w", j.Id, err)
	}
	hostNames, err := db.ReadHostList(fn)
	if err != nil {
		j.log.Error("cannot read host list", zap.String("file", fn), zap.Error(err))
		return fmt.Errorf("job %s: host list %s: %w", j.Id, fn, err)
	}
	if len(hostNames) == 0 {
		j.log.Error("empty host list", zap.String("file", fn))
		return fmt.Errorf("job %s: %w", j.Id, ErrEmptyHostList)
	}

	// Hosts are scanned in parallel.  Each goroutine owns its Host
	// outright; the hosts map is assembled only after the barrier.
	candidates := make(map[string]*Host, len(hostNames))
	for _, name := range hostNames {
		if _, dup := candidates[name]; !dup {
			candidates[name] = newHost(name, j.log)
		}
	}
	var wg sync.WaitGroup
	for _, h := range candidates {
		wg.Add(1)
		go func(h *Host) {
			defer wg.Done()
			h.gathered = h.gather(j.cfg, j)
		}(h)
	}
	wg.Wait()

	for name, h := range candidates {
		if h.gathered {
			j.hosts[name] = h
		} else {
			j.log.Warn("dropping host without usable stats", zap.String("host", name))
		}
	}
	if len(j.hosts) == 0 {
		j.log.Error("no good hosts")
		return fmt.Errorf("job %s: %w", j.Id, ErrNoGoodHosts)
	}
	j.phase = phaseGathered
	return nil
}

// AlignTimes computes the canonical time axis from the hosts'
// record-boundary timestamp lists and discards those lists.
//
// The axis is the timestamp list of the host with the median list length
// (lists sorted by length, middle position taken), sorted ascending and then
// clamped strictly monotonic with the job's start time as the initial floor.
// The median-length choice is a heuristic inherited from the collection
// tooling; it has no correctness proof when host sample counts diverge
// widely, but changing it would silently change every downstream number.
func (j *Job) AlignTimes() error {
	if j.phase != phaseGathered {
		return fmt.Errorf("%w: AlignTimes", ErrBadPhase)
	}

	timesLists := make([][]int64, 0, len(j.hosts))
	for _, h := range j.hosts {
		timesLists = append(timesLists, h.times)
		h.times = nil
	}
	sort.SliceStable(timesLists, func(a, b int) bool {
		return len(timesLists[a]) < len(timesLists[b])
	})
	candidate := timesLists[len(timesLists)/2]
	if len(candidate) == 0 {
		j.log.Error("empty canonical time axis")
		return fmt.Errorf("job %s: %w", j.Id, ErrEmptyTimes)
	}

	times := append([]int64(nil), candidate...)
	sort.Slice(times, func(a, b int) bool { return times[a] < times[b] })
	tMin := j.StartTime
	for i, t := range times {
		if t < tMin {
			t = tMin
		}
		times[i] = t
		tMin = t + 1
	}

	j.log.Debug("canonical time axis chosen",
		zap.Int("minSamples", len(timesLists[0])),
		zap.Int("midSamples", len(times)),
		zap.Int("maxSamples", len(timesLists[len(timesLists)-1])),
		zap.Int64("startToFirstCollect", times[0]-j.StartTime),
		zap.Int64("lastCollectToEnd", j.EndTime-times[len(times)-1]))

	j.times = times
	j.phase = phaseAligned
	return nil
}

// Normalize maps every host's raw samples onto the canonical time axis,
// corrects event counters and applies unit multipliers.  The hosts' raw
// storage is consumed.
func (j *Job) Normalize() error {
	if j.phase != phaseAligned {
		return fmt.Errorf("%w: Normalize", ErrBadPhase)
	}
	var wg sync.WaitGroup
	for _, h := range j.hosts {
		wg.Add(1)
		go func(h *Host) {
			defer wg.Done()
			j.normalizeHost(h)
		}(h)
	}
	wg.Wait()
	j.phase = phaseNormalized
	return nil
}
