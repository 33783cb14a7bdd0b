// Lookup and reading of the per-job host list written by the prolog.
//
// The prolog writes one file per job under a date bucket derived from the
// job's start date:
//
//   <hostListDir>/YYYY/MM/DD/prolog_hostfile.<jobid>.<suffix>
//
// Clock skew between the accounting system and the prolog host means the
// bucket can be off by a day either way, so the start date and its two
// neighbors are all probed.

package db

import (
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"jobstats/common"
)

var ErrNoHostList = errors.New("no host list found")

// FindHostList returns the path of the job's host list, probing the start
// date and ±1 day, earliest directory entry first.  Returns ErrNoHostList if
// no bucket holds a matching file.
func FindHostList(cfg *common.Config, jobId string, startTime int64) (string, error) {
	startDate := time.Unix(startTime, 0)
	prefix := "prolog_hostfile." + jobId + "."
	for _, days := range []int{0, -1, 1} {
		d := startDate.AddDate(0, 0, days)
		dir := path.Join(cfg.HostListDir, d.Format("2006/01/02"))
		ents, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, ent := range ents {
			if strings.HasPrefix(ent.Name(), prefix) {
				return path.Join(dir, ent.Name()), nil
			}
		}
	}
	return "", ErrNoHostList
}

// ReadHostList reads a whitespace-separated list of host names.
func ReadHostList(fn string) ([]string, error) {
	bytes, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(bytes)), nil
}
