package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scrapekit/internal/record"
)

// Fingerprint returns the fingerprint of c, failing the test on error.
func Fingerprint(t testing.TB, c record.Collection) string {
	t.Helper()
	fp, err := record.Fingerprint(c)
	require.NoError(t, err)
	return fp
}
