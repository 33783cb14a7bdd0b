package stats

import (
	"fmt"
)

// Aggregate sums the normalized matrices for typeName over the selected
// hosts and, per host, the selected devices.  Nil selections mean all hosts
// with data for the type, and all devices.  Returns the summed matrix and
// the number of hosts and devices actually summed.
//
// Read-only; requires the pipeline to have completed.  Naming a host or
// device that does not exist is an error, not a recovery case: by this point
// the data is assumed validated.
func (j *Job) Aggregate(typeName string, hostNames, devNames []string) (*Matrix, int, int, error) {
	if j.phase != phaseNormalized {
		return nil, 0, 0, fmt.Errorf("%w: Aggregate", ErrBadPhase)
	}
	schema := j.Schema(typeName)
	if schema == nil {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}

	var hostList []*Host
	if hostNames != nil {
		for _, name := range hostNames {
			h, found := j.hosts[name]
			if !found {
				return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownHost, name)
			}
			hostList = append(hostList, h)
		}
	} else {
		for _, h := range j.hosts {
			hostList = append(hostList, h)
		}
	}

	A := newMatrix(len(j.times), len(schema.Entries))
	nrHosts := 0
	nrDevs := 0
	for _, h := range hostList {
		typeStats := h.stats[typeName]
		if len(typeStats) == 0 {
			continue
		}
		nrHosts++
		if devNames != nil {
			for _, name := range devNames {
				devStats, found := typeStats[name]
				if !found {
					return nil, 0, 0, fmt.Errorf(
						"%w: %s on host %s", ErrUnknownDevice, name, h.Name)
				}
				A.add(devStats)
				nrDevs++
			}
		} else {
			for _, devStats := range typeStats {
				A.add(devStats)
				nrDevs++
			}
		}
	}
	return A, nrHosts, nrDevs, nil
}
