// Enumeration of a host's raw stats files.
//
// Each host has a directory of stats files named by the decimal Unix
// timestamp at which the agent started writing them, optionally with a
// suffix after a dot (rotation and compression artifacts).  A file whose
// name encodes start time S covers at most [S, S+TimeMax].

package db

import (
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"jobstats/common"
)

// StatsFile is one candidate raw stats file, with the starting timestamp
// parsed from its name.
type StatsFile struct {
	Path  string
	Start int64
}

// CandidateStatsFiles returns the stats files under the host's directory
// whose covering interval overlaps the padded job window, sorted by starting
// timestamp.  Files whose names do not open with a digit run are not stats
// files and are skipped silently.
func CandidateStatsFiles(
	cfg *common.Config,
	hostName string,
	startTime, endTime int64,
	log *zap.Logger,
) ([]StatsFile, error) {
	dir := path.Join(cfg.StatsDir, hostName)
	jobStart := startTime - cfg.EffectiveTimePad()
	jobEnd := endTime + cfg.EffectiveTimePad()
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []StatsFile
	for _, ent := range ents {
		base, _, _ := strings.Cut(ent.Name(), ".")
		if base == "" || base[0] < '0' || base[0] > '9' {
			continue
		}
		entStart, err := strconv.ParseInt(base, 10, 64)
		if err != nil {
			continue
		}
		entEnd := entStart + cfg.EffectiveTimeMax()
		if max(jobStart, entStart) <= min(jobEnd, entEnd) {
			full := path.Join(dir, ent.Name())
			files = append(files, StatsFile{Path: full, Start: entStart})
			log.Debug("candidate stats file",
				zap.String("path", full), zap.Int64("start", entStart))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Start < files[j].Start
	})
	return files, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	fErr := g.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

// OpenStatsFile opens a gzip-compressed stats file for reading.  Closing the
// returned reader closes the underlying file.
func OpenStatsFile(fn string) (io.ReadCloser, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	r, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipFile{Reader: r, file: f}, nil
}
