// Scanner for one raw stats file.
//
// A stats file is a textual log written by the collection agent on one host.
// It opens with a header (schema definitions, properties, comments) and then
// carries record blocks: a record boundary line `<timestamp> <jobid>`
// followed by one stat line per (type, device) and separated by blank lines.
// Line dispatch is on the first character:
//
//   !   schema definition: <type_name> <entry_spec> ...
//   $   property (ignored)
//   #   comment (ignored)
//   %   named marker
//   0-9 record boundary
//   a-z stat line: <type_name> <dev_name> <v0> <v1> ...
//
// The scanner extracts only the record blocks belonging to one job.  All
// per-line problems are soft errors: logged, counted, and scanned past.  The
// only early exits are a rejected header (the job already has a different
// schema) and a record boundary for a different job after we have been inside
// our own (the remainder of the file belongs to someone else).

package db

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	SchemaChar   = '!'
	CommentChar  = '#'
	PropertyChar = '$'
	MarkChar     = '%'
)

var ErrSchemaConflict = errors.New("schema conflict")

// SchemaValidator adjudicates a freshly parsed header against the schema map
// the job may already have.  The first complete header for a job wins; a
// validator must return ErrSchemaConflict (possibly wrapped) for a later
// header that differs.  Called once per file, before any body line is
// processed.  Must be thread-safe if hosts are scanned concurrently.
type SchemaValidator func(schemas map[string]*Schema) error

// SampleSink receives the data extracted for the job, in file order.
// Boundary is called for every record boundary belonging to the job, Sample
// for every well-formed stat line inside such a record, Mark for every marker
// line.
type SampleSink interface {
	Boundary(t int64)
	Sample(typeName, devName string, t int64, vals []uint64)
	Mark(mark string)
}

type statsFileScanner struct {
	lines      *bufio.Scanner
	pushed     string
	havePushed bool
}

func (sc *statsFileScanner) next() (string, bool) {
	if sc.havePushed {
		sc.havePushed = false
		return sc.pushed, true
	}
	if !sc.lines.Scan() {
		return "", false
	}
	return sc.lines.Text(), true
}

func (sc *statsFileScanner) pushBack(line string) {
	sc.pushed = line
	sc.havePushed = true
}

// discardRecord skips the remainder of an ill-formed record block: everything
// up to and including the next blank line.
func (sc *statsFileScanner) discardRecord() {
	for {
		line, ok := sc.next()
		if !ok {
			return
		}
		if strings.TrimSpace(line) == "" {
			return
		}
	}
}

// ScanStatsFile scans one decompressed stats file for records belonging to
// jobId.  fileStart is the starting timestamp encoded in the file's name; it
// seeds the record time until the first boundary is seen.  The header's
// schema map is passed to validate before the body is scanned; a rejected
// header aborts the file.
//
// Returns whether any record belonging to the job was found, the number of
// soft errors, and a non-nil error only for an I/O failure or a rejected
// header.
func ScanStatsFile(
	input io.Reader,
	fileName string,
	fileStart int64,
	jobId string,
	validate SchemaValidator,
	sink SampleSink,
	log *zap.Logger,
) (found bool, softErrors int, err error) {
	log = log.With(zap.String("file", fileName))
	sc := &statsFileScanner{lines: bufio.NewScanner(input)}
	sc.lines.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	schemas, nSoft := scanHeader(sc, log)
	softErrors += nSoft
	if err = validate(schemas); err != nil {
		log.Error("schema rejected", zap.Error(err))
		return false, softErrors, err
	}

	recTime := fileStart
	inJob := false
	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		c := line[0]
		switch {
		case c >= '0' && c <= '9':
			t, recJobId, berr := parseBoundary(line)
			if berr != nil {
				log.Debug("discarding ill-formed record",
					zap.String("line", line), zap.Error(berr))
				softErrors++
				sc.discardRecord()
				continue
			}
			recTime = t
			if recJobId != jobId {
				if inJob {
					// The rest of the file belongs to a different job.
					return true, softErrors, nil
				}
				continue
			}
			found = true
			inJob = true
			sink.Boundary(recTime)
		case !inJob:
			// Seeking: only a matching boundary is interesting.
		case isAlpha(c):
			if serr := parseStatLine(line, recTime, schemas, sink); serr != nil {
				log.Debug("discarding stat line",
					zap.String("line", line), zap.Error(serr))
				softErrors++
			}
		case c == MarkChar:
			sink.Mark(strings.TrimSpace(line[1:]))
		case c == CommentChar:
			// Ignored.
		default:
			// Unknown dispatch character, ignored as the agent's own
			// reader does.
		}
	}
	if serr := sc.lines.Err(); serr != nil {
		return found, softErrors, serr
	}
	if !found {
		log.Debug("no records belonging to job")
	}
	return found, softErrors, nil
}

func scanHeader(sc *statsFileScanner, log *zap.Logger) (schemas map[string]*Schema, softErrors int) {
	schemas = make(map[string]*Schema)
	for {
		line, ok := sc.next()
		if !ok {
			return
		}
		if line == "" {
			continue
		}
		switch line[0] {
		case SchemaChar:
			typeName, desc, found := splitFirstField(line[1:])
			if !found || typeName == "" {
				log.Debug("discarding ill-formed schema line", zap.String("line", line))
				softErrors++
				continue
			}
			schemas[typeName] = ParseSchema(desc, log)
		case PropertyChar, CommentChar:
			// Ignored.
		default:
			// First body line: hand it back for the body scan.
			sc.pushBack(line)
			return
		}
	}
}

func parseBoundary(line string) (t int64, jobId string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("expected '<timestamp> <jobid>', got %d fields", len(fields))
	}
	t, err = strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, "", err
	}
	return t, fields[1], nil
}

func parseStatLine(line string, recTime int64, schemas map[string]*Schema, sink SampleSink) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return errors.New("expected '<type> <dev> <values...>'")
	}
	typeName, devName := fields[0], fields[1]
	schema, haveSchema := schemas[typeName]
	if !haveSchema {
		return fmt.Errorf("unknown type `%s'", typeName)
	}
	if len(fields)-2 != len(schema.Entries) {
		return fmt.Errorf("type `%s', expected %d values, read %d",
			typeName, len(schema.Entries), len(fields)-2)
	}
	vals := make([]uint64, len(schema.Entries))
	for i, f := range fields[2:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	sink.Sample(typeName, devName, recTime, vals)
	return nil
}

// splitFirstField splits off the first whitespace-delimited field, returning
// it and the remainder with leading whitespace trimmed.
func splitFirstField(s string) (first, rest string, found bool) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, "", false
	}
	return s[:i], strings.TrimLeft(s[i:], " \t"), true
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
