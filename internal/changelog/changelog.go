// Package changelog keeps the append-only history of accepted artifact writes.
//
// The log is a single JSON array of entries per data source. Appends rewrite
// the whole file atomically, but no prior entry is ever altered or removed.
// The log is diagnostic, not authoritative: a missing or corrupt log file
// reads as empty history. A log that exists but cannot be read fails Append
// rather than being replaced.
//
// The log is not safe for concurrent writers. A run is single-threaded and
// nothing here takes a lock.
package changelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/juju/clock"

	"github.com/roach88/scrapekit/internal/atomicfile"
)

// ActionModified is the only action this log records.
const ActionModified = "modified"

// TimestampLayout is the wall-clock format of Entry.Timestamp, second resolution.
const TimestampLayout = "2006-01-02 15:04:05"

// Entry is one accepted write.
type Entry struct {
	Timestamp string `json:"timestamp"`
	File      string `json:"file"`
	Action    string `json:"action"`
}

// Log is the change log stored at one path.
type Log struct {
	path   string
	clock  clock.Clock
	writer *atomicfile.Writer
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the clock used to stamp entries. Defaults to clock.WallClock.
func WithClock(c clock.Clock) Option {
	return func(l *Log) { l.clock = c }
}

// WithWriter sets the atomic writer used to rewrite the log file.
func WithWriter(w *atomicfile.Writer) Option {
	return func(l *Log) { l.writer = w }
}

// New returns the log stored at path. The file is not touched until the
// first Append.
func New(path string, opts ...Option) *Log {
	l := &Log{
		path:   path,
		clock:  clock.WallClock,
		writer: &atomicfile.Writer{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// ErrUnreadableLog is returned by Append when the existing log cannot be
// read. The file is left untouched.
var ErrUnreadableLog = errors.New("change log unreadable")

// Read returns all entries in append order.
// A missing file is empty history. An unreadable or corrupt file is also
// empty history; the condition is logged, never returned.
func (l *Log) Read() []Entry {
	entries, err := l.load()
	if err != nil {
		slog.Warn("change log unreadable, treating as empty",
			"path", l.path,
			"error", err,
		)
		return nil
	}
	return entries
}

// load reads the log. A missing or corrupt file yields no entries; any other
// read failure is returned.
func (l *Log) load() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableLog, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("change log corrupt, treating as empty",
			"path", l.path,
			"error", err,
		)
		return nil, nil
	}
	return entries, nil
}

// Append adds e after all existing entries and rewrites the log atomically.
// A log that exists but cannot be read is never overwritten.
func (l *Log) Append(e Entry) error {
	entries, err := l.load()
	if err != nil {
		return fmt.Errorf("append change log %s: %w", l.path, err)
	}
	entries = append(entries, e)
	if err := l.writer.WriteJSON(l.path, entries); err != nil {
		return fmt.Errorf("append change log %s: %w", l.path, err)
	}
	return nil
}

// Record appends a "modified" entry for file stamped with the current time.
// It returns the appended entry.
func (l *Log) Record(file string) (Entry, error) {
	e := Entry{
		Timestamp: l.clock.Now().Format(TimestampLayout),
		File:      file,
		Action:    ActionModified,
	}
	if err := l.Append(e); err != nil {
		return Entry{}, err
	}
	slog.Debug("change log appended",
		"path", l.path,
		"file", file,
	)
	return e, nil
}
