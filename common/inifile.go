package common

import (
	"errors"
	"os"
	"path"

	ini "github.com/lars-t-hansen/ini"
)

// Optional defaults file for the data directories, so that analysis tools do
// not need to repeat them.  Looked for at ~/.jobstats unless an explicit path
// is given.  Ini format:
//
//   [data-source]
//   stats-dir = /var/stats
//   host-list-dir = /var/prolog_host_lists

// MT: Constant after initialization
var (
	p              = ini.NewParser()
	dataSource     = p.AddSection("data-source")
	defStatsDir    = dataSource.AddString("stats-dir")
	defHostListDir = dataSource.AddString("host-list-dir")
)

// ApplyDefaults fills the config's empty directory fields from the defaults
// file at fn, or from ~/.jobstats if fn is "".  A missing file is not an
// error; a malformed file is.
func (c *Config) ApplyDefaults(fn string) error {
	if fn == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return nil
		}
		fn = path.Join(path.Clean(home), ".jobstats")
	}
	input, err := os.Open(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer input.Close()
	store, err := p.Parse(input)
	if err != nil {
		return err
	}
	applyDefault(&c.StatsDir, defStatsDir, store)
	applyDefault(&c.HostListDir, defHostListDir, store)
	return nil
}

func applyDefault(sp *string, f *ini.Field, store *ini.Store) bool {
	if *sp != "" || store == nil || !f.Present(store) {
		return false
	}
	*sp = os.ExpandEnv(f.StringVal(store))
	return true
}
