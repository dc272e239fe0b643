package testutil

import (
	"context"

	"github.com/roach88/scrapekit/internal/collector"
	"github.com/roach88/scrapekit/internal/record"
)

// StubCollector returns canned collections from Fetch, one per call.
// Once Batches is exhausted Fetch returns nil.
type StubCollector struct {
	Src     collector.Source
	Batches []record.Collection

	// Counts records the count argument of every Fetch call.
	Counts []int
}

func (s *StubCollector) Source() collector.Source {
	return s.Src
}

func (s *StubCollector) Fetch(_ context.Context, count int) record.Collection {
	s.Counts = append(s.Counts, count)
	if len(s.Batches) == 0 {
		return nil
	}
	next := s.Batches[0]
	s.Batches = s.Batches[1:]
	if count < len(next) {
		next = next[:count]
	}
	return next
}

// StubPreparer is a StubCollector with a catalog of Available items.
type StubPreparer struct {
	StubCollector
	Available  int
	PrepareErr error
	Prepared   int
}

func (s *StubPreparer) Prepare(context.Context) (int, error) {
	s.Prepared++
	if s.PrepareErr != nil {
		return 0, s.PrepareErr
	}
	return s.Available, nil
}
