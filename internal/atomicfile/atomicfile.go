// Package atomicfile writes files so that readers observe either the previous
// contents or the complete new contents, never a partial write.
//
// The data goes to a synced temp file in the destination directory which is
// then renamed over the destination (utils.AtomicWriteFileAndChange).
package atomicfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/juju/utils/v4"
)

// DefaultPerm is the mode of files created by Writer.
const DefaultPerm os.FileMode = 0o644

// Writer performs atomic replace writes. The zero value is ready to use.
type Writer struct {
	// BeforeReplace runs once the data is synced to the temp file at tmp,
	// just before tmp is renamed over the destination. An error aborts the
	// write, removes tmp and leaves the destination untouched.
	BeforeReplace func(tmp string) error

	// Perm is the mode of the written file. Defaults to DefaultPerm.
	Perm os.FileMode
}

// WriteFile atomically replaces path with data, creating the parent
// directory if needed. On failure the temp file is removed and the previous
// contents of path (if any) are left untouched.
func (w *Writer) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	perm, hook := w.perm(), w.beforeReplace()
	err := utils.AtomicWriteFileAndChange(path, data, func(tmp string) error {
		if err := os.Chmod(tmp, perm); err != nil {
			return err
		}
		return hook(tmp)
	})
	if err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// WriteJSON atomically replaces path with the indented JSON encoding of v.
func (w *Writer) WriteJSON(path string, v any) error {
	data, err := MarshalIndent(v)
	if err != nil {
		return err
	}
	return w.WriteFile(path, data)
}

// MarshalIndent encodes v as human-readable JSON: two-space indent, no HTML
// escaping, non-ASCII written literally, trailing newline.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *Writer) beforeReplace() func(string) error {
	if w == nil || w.BeforeReplace == nil {
		return func(string) error { return nil }
	}
	return w.BeforeReplace
}

func (w *Writer) perm() os.FileMode {
	if w == nil || w.Perm == 0 {
		return DefaultPerm
	}
	return w.Perm
}
