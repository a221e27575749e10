package transcript

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxCollisions bounds the search for a free file name.
const maxCollisions = 10000

// Store writes transcripts to a directory. Existing files are never overwritten.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating transcript directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir is the directory transcripts are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data as "<base>.html". When that file exists "<base>-1.html", "<base>-2.html" and so on
// are tried until a free name is found. It returns the file name used.
func (s *Store) Save(base string, data []byte) (string, error) {
	base = sanitize(base)

	for n := 0; n < maxCollisions; n++ {
		name := base + ".html"
		if n > 0 {
			name = fmt.Sprintf("%s-%d.html", base, n)
		}

		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		} else if err != nil {
			return "", fmt.Errorf("error creating transcript file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("error writing transcript file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("error closing transcript file: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free transcript name for %q", base)
}

// Remove deletes a transcript written by Save. A missing file is not an error.
func (s *Store) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error removing transcript file: %w", err)
	}
	return nil
}

// sanitize keeps the name inside the store directory.
func sanitize(base string) string {
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '-'
		}
		return r
	}, base)
	base = strings.Trim(base, ". ")
	if base == "" {
		return "transcript"
	}
	return base
}
