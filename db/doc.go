// Package db is the file layer of the pipeline: everything that understands
// the on-disk formats the collection agent and the prolog leave behind, and
// nothing that interprets the numbers.
//
// There are three pieces:
//
//   - schema.go parses the column layouts the agent declares in each stats
//     file header
//   - statsdir.go enumerates a host's stats files by time window and opens
//     them (they are gzip-compressed, named by starting timestamp)
//   - statsfile.go scans one file and feeds everything belonging to one job
//     to a SampleSink
//
// The layer is stateless; ownership of the extracted data rests entirely
// with the sink.  Per-line and per-file problems are soft: logged, counted,
// scanned past.  The contract is that no malformed input ever aborts more
// than its own record block.
package db
