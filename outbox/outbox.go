// Package outbox scans a local directory for files waiting to be
// transferred, and removes one once the peer has confirmed delivery.
package outbox

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// DefaultDir is the directory a peer scans for files to send.
const DefaultDir = "send-files"

// Scanner lists pending files under a single directory.
type Scanner struct {
	dir string
}

// New returns a Scanner rooted at dir.
func New(dir string) *Scanner {
	return &Scanner{dir: dir}
}

// Next returns the contents and path of the first pending file in name
// order, or (nil, "", nil) if the outbox is empty.
func (s *Scanner) Next() ([]byte, string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", errors.Wrapf(err, "reading outbox directory %s", s.dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, "", nil
	}
	sort.Strings(names)

	path := filepath.Join(s.dir, names[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading outbox file %s", path)
	}
	return data, path, nil
}

// Remove deletes path after a successful transfer. A file already gone at
// delete time is not an error; the session resets either way.
func (s *Scanner) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(err, "removing outbox file %s", path)
}
