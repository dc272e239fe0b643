// Package changestore persists a collection only when its content changed.
//
// PersistIfChanged fingerprints the candidate, compares it with the
// fingerprint of the stored artifact and, on difference, atomically replaces
// the artifact and appends one change log entry.
//
// # Ordering
//
// Side effects are strictly ordered: the artifact write completes (fsync and
// rename) before the log append is attempted, so the log never records a
// write that did not happen. A failed log append after a successful artifact
// write is logged and tolerated; the artifact write stands.
//
// # Prior state
//
// A missing artifact and an artifact that fails to parse are both treated as
// "no prior artifact" and never block the write. Any other read failure
// (permission denied, a directory at the artifact path) is returned as
// ErrUnreadableArtifact.
//
// The store is not safe for concurrent writers.
package changestore
