package changestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/scrapekit/internal/atomicfile"
	"github.com/roach88/scrapekit/internal/changelog"
	"github.com/roach88/scrapekit/internal/record"
)

// ErrUnreadableArtifact is returned when an artifact exists but cannot be read.
var ErrUnreadableArtifact = errors.New("artifact unreadable")

// PriorState describes what was found at the artifact path before a write.
type PriorState int

const (
	PriorValid   PriorState = iota // parsed successfully
	PriorMissing                   // no file
	PriorCorrupt                   // file present but not a collection
)

func (p PriorState) String() string {
	switch p {
	case PriorValid:
		return "valid"
	case PriorMissing:
		return "missing"
	case PriorCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("PriorState(%d)", int(p))
	}
}

// Result reports the outcome of PersistIfChanged.
type Result struct {
	// Written is true when the artifact was replaced.
	Written bool

	// Fingerprint of the candidate collection.
	Fingerprint string

	// Previous is the fingerprint of the stored artifact; empty unless
	// Prior is PriorValid.
	Previous string

	Prior   PriorState
	Records int

	// LogErr holds a change log append failure after a successful write.
	LogErr error
}

// ChangeRecorder appends a change log entry for an artifact path.
// *changelog.Log implements it.
type ChangeRecorder interface {
	Record(file string) (changelog.Entry, error)
}

// WriteIndexer mirrors accepted writes into a secondary index.
// *index.Recorder implements it.
type WriteIndexer interface {
	RecordWrite(ctx context.Context, artifact, fingerprint string, records int) error
}

// Store is the change-detecting store for one artifact.
type Store struct {
	path    string
	log     ChangeRecorder
	writer  *atomicfile.Writer
	indexer WriteIndexer
}

// Option configures a Store.
type Option func(*Store)

// WithWriter sets the atomic writer used for the artifact.
func WithWriter(w *atomicfile.Writer) Option {
	return func(s *Store) { s.writer = w }
}

// WithIndexer mirrors every accepted write into idx.
func WithIndexer(idx WriteIndexer) Option {
	return func(s *Store) { s.indexer = idx }
}

// New returns a store for the artifact at path that records accepted writes
// in log.
func New(path string, log ChangeRecorder, opts ...Option) *Store {
	s := &Store{
		path:   path,
		log:    log,
		writer: &atomicfile.Writer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the artifact location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored artifact.
// Missing and corrupt artifacts are reported through PriorState with a nil
// error; only other read failures return an error.
func (s *Store) Load() (record.Collection, PriorState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, PriorMissing, nil
	}
	if err != nil {
		return nil, PriorMissing, fmt.Errorf("%w: %w", ErrUnreadableArtifact, err)
	}

	c, err := record.Decode(data)
	if err != nil {
		slog.Warn("stored artifact is corrupt, treating as absent",
			"path", s.path,
			"error", err,
		)
		return nil, PriorCorrupt, nil
	}
	return c, PriorValid, nil
}

// PersistIfChanged replaces the artifact with candidate unless the stored
// artifact has the same fingerprint. On replacement exactly one change log
// entry is appended. The candidate replaces the stored collection wholesale.
func (s *Store) PersistIfChanged(ctx context.Context, candidate record.Collection) (Result, error) {
	if candidate == nil {
		candidate = record.Collection{}
	}

	fp, err := record.Fingerprint(candidate)
	if err != nil {
		return Result{}, fmt.Errorf("fingerprint candidate: %w", err)
	}
	res := Result{Fingerprint: fp, Records: len(candidate)}

	existing, prior, err := s.Load()
	if err != nil {
		return res, err
	}
	res.Prior = prior

	if prior == PriorValid {
		prev, err := record.Fingerprint(existing)
		if err != nil {
			slog.Warn("stored artifact cannot be fingerprinted, treating as absent",
				"path", s.path,
				"error", err,
			)
			res.Prior = PriorCorrupt
		} else {
			res.Previous = prev
		}
	}

	if res.Previous == fp {
		slog.Info("artifact unchanged",
			"path", s.path,
			"fingerprint", fp,
		)
		return res, nil
	}

	if err := s.writer.WriteJSON(s.path, candidate); err != nil {
		return res, fmt.Errorf("write artifact: %w", err)
	}
	res.Written = true
	slog.Info("artifact written",
		"path", s.path,
		"fingerprint", fp,
		"previous", res.Previous,
		"prior", res.Prior.String(),
		"records", res.Records,
	)

	if _, err := s.log.Record(s.path); err != nil {
		res.LogErr = err
		slog.Error("change log append failed after artifact write",
			"path", s.path,
			"error", err,
		)
	}

	if s.indexer != nil {
		if err := s.indexer.RecordWrite(ctx, s.path, fp, res.Records); err != nil {
			slog.Warn("fingerprint index update failed",
				"path", s.path,
				"error", err,
			)
		}
	}

	return res, nil
}
