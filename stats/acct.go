package stats

import (
	"jobstats/common"
	"jobstats/db"
)

// AccountingRecord is the job metadata supplied by the accounting system.
// The core treats the accounting system as an opaque provider; parsing its
// files is someone else's problem.  Immutable input.
type AccountingRecord struct {
	Id        string
	StartTime int64
	EndTime   int64
	Owner     string
	Wayness   int
}

// HostListLookup resolves the path of the file holding the job's
// whitespace-separated host list.  The prolog-written date-bucketed layout is
// the usual source but the core does not care.
type HostListLookup func(acct *AccountingRecord) (string, error)

// PrologHostListLookup is the standard lookup against the prolog's host list
// directory in cfg.
func PrologHostListLookup(cfg *common.Config) HostListLookup {
	return func(acct *AccountingRecord) (string, error) {
		return db.FindHostList(cfg, acct.Id, acct.StartTime)
	}
}

// FromAcct constructs a Job from accounting data and runs the full pipeline:
// gather, time alignment, normalization.  On error the returned job is still
// valid for inspection but not for aggregation.
func FromAcct(cfg *common.Config, acct *AccountingRecord, lookup HostListLookup) (*Job, error) {
	job := NewJob(cfg, acct)
	if err := job.Gather(lookup); err != nil {
		return job, err
	}
	if err := job.AlignTimes(); err != nil {
		return job, err
	}
	if err := job.Normalize(); err != nil {
		return job, err
	}
	return job, nil
}
