// Shared processing context for the jobstats pipeline.
//
// All tunables that used to be process-wide in the agent tooling (data
// directories, time pads, verbosity) live in a Config value that is threaded
// explicitly through Job and Host construction.  Nothing in this module reads
// the environment or mutates globals.

package common

import (
	"go.uber.org/zap"
)

const (
	// A raw stats file whose name encodes start time S covers at most
	// [S, S+RawStatsTimeMax]: a day of collection plus rotation slop.
	RawStatsTimeMax = 86400 + 2*3600

	// Padding applied to both ends of the job window when selecting
	// candidate stats files, to absorb clock skew between the accounting
	// system and the collection hosts.
	RawStatsTimePad = 1200
)

// Config is the processing context for one or more jobs.  It is read-only
// once handed to a Job and may be shared freely across jobs and goroutines.
type Config struct {
	// StatsDir holds one subdirectory per host, each containing raw stats
	// files named by their decimal starting Unix timestamp.
	StatsDir string

	// HostListDir holds the prolog host lists under YYYY/MM/DD buckets.
	HostListDir string

	// Covering interval and pad for stats file selection.  Zero values are
	// replaced by RawStatsTimeMax and RawStatsTimePad.
	TimeMax int64
	TimePad int64

	// Log must be non-nil; use NewLogger or zap.NewNop.
	Log *zap.Logger
}

// NewConfig returns a Config with the standard time constants and a logger at
// the requested verbosity.  The directories come from the caller (or from
// ApplyDefaults, for tools that keep them in a defaults file).
func NewConfig(statsDir, hostListDir string, verbose bool) *Config {
	return &Config{
		StatsDir:    statsDir,
		HostListDir: hostListDir,
		TimeMax:     RawStatsTimeMax,
		TimePad:     RawStatsTimePad,
		Log:         NewLogger(verbose),
	}
}

func (c *Config) EffectiveTimeMax() int64 {
	if c.TimeMax == 0 {
		return RawStatsTimeMax
	}
	return c.TimeMax
}

func (c *Config) EffectiveTimePad() int64 {
	if c.TimePad == 0 {
		return RawStatsTimePad
	}
	return c.TimePad
}

func (c *Config) Logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}
