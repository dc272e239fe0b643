// Package index provides an optional SQLite mirror of accepted artifact writes.
//
// Each row records the source, artifact path, fingerprint, record count and
// run id of one accepted write. The index is secondary to the JSON artifact
// and change log: it is written after both, and a failure to write it never
// undoes or fails the artifact write.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//
// Query results are ordered by written_at ASC, id ASC. Row ids are UUIDv7,
// so ties on written_at still sort by creation time.
package index
