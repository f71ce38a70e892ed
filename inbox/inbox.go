// Package inbox persists a reassembled file under a timestamped name,
// preserving the suffix the sender announced.
package inbox

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// DefaultDir is the directory a peer writes reassembled files into.
const DefaultDir = "received-files"

// Writer persists reassembled blobs under a single directory.
type Writer struct {
	dir string
	now func() time.Time
}

// New returns a Writer rooted at dir, using wall-clock time for filenames.
func New(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write creates dir if absent and writes data under
// File-<ISO8601 timestamp><suffix>. suffix may be empty (no extension
// appended). It returns the path written.
func (w *Writer) Write(data []byte, suffix string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating inbox directory %s", w.dir)
	}

	// Mirrors Python's datetime.isoformat(): local time, microsecond
	// precision, no UTC offset.
	name := "File-" + w.now().Format("2006-01-02T15:04:05.000000") + suffix
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing inbox file %s", path)
	}
	return path, nil
}
