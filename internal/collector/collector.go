// Package collector maps remote data sources onto normalized records.
//
// Each collector queries one source and returns a record.Collection in that
// source's schema. Remote failures never escape a collector: they are logged
// and surface as a partial or empty collection.
package collector

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/scrapekit/internal/record"
	"github.com/roach88/scrapekit/internal/schema"
)

// Collector produces a candidate collection of at most count records.
type Collector interface {
	Source() Source
	Fetch(ctx context.Context, count int) record.Collection
}

// Preparer is implemented by collectors that load their catalog before the
// operator chooses a count. Prepare returns the number of items available.
type Preparer interface {
	Prepare(ctx context.Context) (int, error)
}

// Source describes a collector to the driver.
type Source struct {
	Name     string
	Title    string
	Prompt   string
	MinCount int
}

// Deps are the collaborators shared by every collector.
type Deps struct {
	// Client fetches remote documents. Required.
	Client *Client

	// Translator translates text fields. Nil leaves text untouched.
	Translator Translator

	// Validator drops records that do not match the source schema.
	// Nil disables validation.
	Validator *schema.Validator

	// URL overrides the source endpoint.
	URL string

	// Pace is the minimum delay between items. Zero disables pacing.
	Pace time.Duration

	// Progress receives human-readable progress lines. Nil discards them.
	Progress io.Writer
}

func (d Deps) progress() io.Writer {
	if d.Progress == nil {
		return io.Discard
	}
	return d.Progress
}

func validated(v *schema.Validator, kind schema.Kind, source string, c record.Collection) record.Collection {
	if v == nil {
		return c
	}
	kept, errs := v.Filter(kind, c)
	for _, err := range errs {
		slog.Warn("record dropped by schema",
			"source", source,
			"error", err,
		)
	}
	return kept
}
