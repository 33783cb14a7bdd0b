// Schema handling for raw stats files.
//
// The collection agent describes each record type it emits with a header line
// naming the type and one entry spec per column.  An entry spec is
//
//   key[,C][,E][,W=<bits>][,U=<mult><unit>]
//
// with the options in any order.  C marks a control column, E marks an event
// column (a monotonically increasing counter, subject to rollover at its bit
// width W), and U attaches a unit with an optional integer multiplier.  U=KB
// is shorthand for multiplier 1024, unit "B".

package db

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SchemaEntry describes one column of one record type.  Immutable once
// parsed.  Width 0 means the width is unknown; Mult 0 means no multiplier is
// configured.
type SchemaEntry struct {
	Key       string
	Index     int
	IsControl bool
	IsEvent   bool
	Width     uint
	Mult      uint64
	Unit      string
}

// Schema is the ordered column layout of one record type, with a by-key index
// into the entries.  Immutable once parsed.
type Schema struct {
	Desc    string
	Entries []*SchemaEntry
	Keys    map[string]*SchemaEntry
}

// ParseSchema parses a space-separated list of entry specs.  Unrecognized
// options within an entry are logged and ignored; they never fail the schema.
func ParseSchema(desc string, log *zap.Logger) *Schema {
	s := &Schema{
		Desc: desc,
		Keys: make(map[string]*SchemaEntry),
	}
	for i, spec := range strings.Fields(desc) {
		e := parseSchemaEntry(i, spec, log)
		s.Entries = append(s.Entries, e)
		s.Keys[e.Key] = e
	}
	return s
}

func parseSchemaEntry(index int, spec string, log *zap.Logger) *SchemaEntry {
	opts := strings.Split(spec, ",")
	e := &SchemaEntry{
		Key:   opts[0],
		Index: index,
	}
	for _, opt := range opts[1:] {
		switch {
		case opt == "":
			// Tolerated, as in the agent's own reader.
		case opt[0] == 'C':
			e.IsControl = true
		case opt[0] == 'E':
			e.IsEvent = true
		case strings.HasPrefix(opt, "W="):
			w, err := strconv.ParseUint(opt[2:], 10, 8)
			if err != nil {
				log.Warn("bad width in schema entry spec",
					zap.String("opt", opt), zap.String("spec", spec))
				continue
			}
			e.Width = uint(w)
		case strings.HasPrefix(opt, "U="):
			// An optional digit run, then the unit string.  Both parts may
			// be empty.
			j := 2
			for j < len(opt) && opt[j] >= '0' && opt[j] <= '9' {
				j++
			}
			if j > 2 {
				m, err := strconv.ParseUint(opt[2:j], 10, 64)
				if err != nil {
					log.Warn("bad multiplier in schema entry spec",
						zap.String("opt", opt), zap.String("spec", spec))
					continue
				}
				e.Mult = m
			}
			if j < len(opt) {
				e.Unit = opt[j:]
			}
			if e.Unit == "KB" {
				e.Mult = 1024
				e.Unit = "B"
			}
		default:
			log.Warn("unrecognized option in schema entry spec",
				zap.String("opt", opt), zap.String("spec", spec))
		}
	}
	return e
}

// Equal is structural equality over the defined fields, positionally across
// the entry lists.
func (s *Schema) Equal(other *Schema) bool {
	if s.Desc != other.Desc || len(s.Entries) != len(other.Entries) {
		return false
	}
	for i, e := range s.Entries {
		if *e != *other.Entries[i] {
			return false
		}
	}
	return true
}

// SchemaMapsEqual compares two record-type → schema maps: same type names,
// equal schemas.
func SchemaMapsEqual(a, b map[string]*Schema) bool {
	if len(a) != len(b) {
		return false
	}
	for name, sa := range a {
		sb, found := b[name]
		if !found || !sa.Equal(sb) {
			return false
		}
	}
	return true
}
