package stats

import "errors"

// Consistency failures: the only conditions that fail a whole job.  Per-file
// and per-line problems are absorbed and logged where they are detected.
var (
	ErrEmptyHostList = errors.New("empty host list")
	ErrNoGoodHosts   = errors.New("no hosts with usable stats")
	ErrEmptyTimes    = errors.New("empty canonical time axis")
)

// API misuse, not data problems.
var (
	ErrBadPhase      = errors.New("pipeline phase out of order")
	ErrUnknownType   = errors.New("unknown record type")
	ErrUnknownHost   = errors.New("unknown host name")
	ErrUnknownDevice = errors.New("unknown device name")
)
