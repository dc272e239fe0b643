package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCollection prefixes every collection fingerprint.
// The version suffix allows the canonical form to change without old and new
// fingerprints ever comparing equal.
const DomainCollection = "scrapekit/collection/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content fingerprint of c: a 64 character lowercase
// hex digest of its canonical serialization. Two collections have the same
// fingerprint iff their canonical serializations are byte-identical.
// A nil collection fingerprints the same as an empty one.
func Fingerprint(c Collection) (string, error) {
	if c == nil {
		c = Collection{}
	}
	canonical, err := MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainCollection, canonical), nil
}
