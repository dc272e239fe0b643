package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Record is one collected item (a food, an exercise, a recipe).
// Leaves are strings, numbers, bools or nil; nested values are
// map[string]any, []any or []string.
type Record map[string]any

// Collection is the ordered list of records for one data source.
type Collection []Record

// ErrTrailingData is returned by Decode when the document holds more than
// one JSON value.
var ErrTrailingData = errors.New("trailing data after collection")

// Decode parses a persisted artifact into a Collection.
// Numbers are kept as json.Number so that re-fingerprinting does not depend
// on float round-tripping.
func Decode(data []byte) (Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var c Collection
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return c, nil
}
