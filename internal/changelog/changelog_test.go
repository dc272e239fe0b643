package changelog

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrapekit/internal/atomicfile"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func newTestLog(t *testing.T) (*Log, *testclock.Clock) {
	t.Helper()
	clk := testclock.NewClock(time.Date(2026, 10, 15, 9, 30, 5, 0, time.Local))
	path := filepath.Join(t.TempDir(), "output", "alimentos_log.json")
	return New(path, WithClock(clk)), clk
}

func TestReadMissingIsEmpty(t *testing.T) {
	l, _ := newTestLog(t)
	assert.Empty(t, l.Read())
}

func TestRecordAppendsInOrder(t *testing.T) {
	l, clk := newTestLog(t)

	first, err := l.Record("output/alimentos_openfoodfacts.json")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15 09:30:05", first.Timestamp)
	assert.Equal(t, ActionModified, first.Action)

	clk.Advance(90 * time.Second)
	_, err = l.Record("output/alimentos_openfoodfacts.json")
	require.NoError(t, err)

	entries := l.Read()
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0])
	assert.Equal(t, "2026-10-15 09:31:35", entries[1].Timestamp)
	assert.Equal(t, "output/alimentos_openfoodfacts.json", entries[1].File)
}

func TestAppendPreservesPriorEntries(t *testing.T) {
	l, _ := newTestLog(t)

	for i := 0; i < 5; i++ {
		_, err := l.Record("a.json")
		require.NoError(t, err)
		require.Len(t, l.Read(), i+1)
	}
}

func TestLogFileFormat(t *testing.T) {
	l, _ := newTestLog(t)
	_, err := l.Record("output/receitas.json")
	require.NoError(t, err)

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	expected := `[
  {
    "timestamp": "2026-10-15 09:30:05",
    "file": "output/receitas.json",
    "action": "modified"
  }
]
`
	assert.Equal(t, expected, string(data))
}

func TestCorruptLogReadsEmpty(t *testing.T) {
	l, _ := newTestLog(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(l.Path()), 0o755))
	require.NoError(t, os.WriteFile(l.Path(), []byte(`[{"timestamp": `), 0o644))

	assert.Empty(t, l.Read())

	// Appending over a corrupt log starts a fresh history.
	_, err := l.Record("a.json")
	require.NoError(t, err)
	assert.Len(t, l.Read(), 1)
}

func TestUnreadableLogReadsEmpty(t *testing.T) {
	l, _ := newTestLog(t)
	// A directory at the log path cannot be read as a file.
	require.NoError(t, os.MkdirAll(l.Path(), 0o755))
	assert.Empty(t, l.Read())
}

func TestAppendUnreadableLogFails(t *testing.T) {
	l, _ := newTestLog(t)
	require.NoError(t, os.MkdirAll(l.Path(), 0o755))
	keep := filepath.Join(l.Path(), "keep")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	_, err := l.Record("a.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableLog)

	info, err := os.Stat(l.Path())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.FileExists(t, keep)
}

func TestAppendWriteFailure(t *testing.T) {
	crash := errors.New("disk full")
	path := filepath.Join(t.TempDir(), "log.json")
	l := New(path, WithWriter(&atomicfile.Writer{
		BeforeReplace: func(string) error { return crash },
	}))

	_, err := l.Record("a.json")
	require.Error(t, err)
	assert.ErrorContains(t, err, crash.Error())
	assert.Empty(t, l.Read())
}
