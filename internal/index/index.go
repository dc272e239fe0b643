package index

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Write is one accepted artifact write.
type Write struct {
	ID          string
	RunID       string
	Source      string
	Artifact    string
	Fingerprint string
	Records     int
	WrittenAt   time.Time
}

// Index is the SQLite fingerprint index.
type Index struct {
	db    *sql.DB
	clock clock.Clock
}

// Open creates or opens the index database at path.
// Applies pragmas and schema; safe to call on an existing database.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to index: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Index{db: db, clock: clock.WallClock}, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	if i.db == nil {
		return nil
	}
	return i.db.Close()
}

// SetClock replaces the clock used to stamp writes recorded via a Recorder.
func (i *Index) SetClock(c clock.Clock) {
	i.clock = c
}

// Insert stores w. An empty ID is filled with a new UUIDv7.
func (i *Index) Insert(ctx context.Context, w Write) error {
	if w.ID == "" {
		w.ID = uuid.Must(uuid.NewV7()).String()
	}
	_, err := i.db.ExecContext(ctx, `
		INSERT INTO writes
		(id, run_id, source, artifact, fingerprint, records, written_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		w.ID,
		w.RunID,
		w.Source,
		w.Artifact,
		w.Fingerprint,
		w.Records,
		w.WrittenAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert write: %w", err)
	}
	return nil
}

// Latest returns the most recent write for source.
// The boolean is false when the source has no recorded writes.
func (i *Index) Latest(ctx context.Context, source string) (Write, bool, error) {
	row := i.db.QueryRowContext(ctx, `
		SELECT id, run_id, source, artifact, fingerprint, records, written_at
		FROM writes
		WHERE source = ?
		ORDER BY written_at DESC, id DESC
		LIMIT 1
	`, source)

	w, err := scanWrite(row)
	if err == sql.ErrNoRows {
		return Write{}, false, nil
	}
	if err != nil {
		return Write{}, false, err
	}
	return w, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWrite(s scanner) (Write, error) {
	var (
		w         Write
		writtenAt string
	)
	if err := s.Scan(&w.ID, &w.RunID, &w.Source, &w.Artifact, &w.Fingerprint, &w.Records, &writtenAt); err != nil {
		if err == sql.ErrNoRows {
			return Write{}, err
		}
		return Write{}, fmt.Errorf("scan write: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, writtenAt)
	if err != nil {
		return Write{}, fmt.Errorf("parse written_at %q: %w", writtenAt, err)
	}
	w.WrittenAt = t
	return w, nil
}

// Recorder binds an Index to one source and run.
type Recorder struct {
	index  *Index
	source string
	runID  string
}

// Recorder returns a Recorder that stamps writes with source and runID.
func (i *Index) Recorder(source, runID string) *Recorder {
	return &Recorder{index: i, source: source, runID: runID}
}

// RecordWrite stores one accepted write of artifact.
func (r *Recorder) RecordWrite(ctx context.Context, artifact, fingerprint string, records int) error {
	return r.index.Insert(ctx, Write{
		RunID:       r.runID,
		Source:      r.source,
		Artifact:    artifact,
		Fingerprint: fingerprint,
		Records:     records,
		WrittenAt:   r.index.clock.Now(),
	})
}
