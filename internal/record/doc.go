// Package record defines the normalized record shapes produced by collectors
// and the canonical serialization used to fingerprint them.
//
// This package imports nothing internal. Every other internal package that
// touches collected data imports record; record is the foundational layer.
//
// Key constraints:
//   - Collection order is significant and is never re-sorted
//   - Object keys are ordered by UTF-16 code units at every depth
//   - Strings are NFC normalized at the serialization boundary
//   - Fingerprints are used for equality only, never for integrity
package record
