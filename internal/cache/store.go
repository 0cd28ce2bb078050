// Package cache keeps dataset snapshots on local disk.
//
// Two retention policies share one directory: a dated archive, one immutable
// file per dataset per calendar day, and a latest pointer, a single file per
// dataset that is overwritten on every successful fetch so external tools can
// read a stable path. Archives are never pruned.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/casualty-data-service/internal/domain"
)

// Store resolves and writes cache files under a root directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// ArchivePath is the dated snapshot for dataset on day, e.g.
// data/raw/casualties_daily_2025-06-28.csv.
func (s *Store) ArchivePath(dataset string, day domain.Date) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", dataset, day))
}

// PointerPath is the always-current file for dataset.
func (s *Store) PointerPath(dataset string) string {
	return filepath.Join(s.dir, dataset+".csv")
}

// Exists reports whether path is an existing regular file.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ModTime returns the modification time of path.
func (s *Store) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Fresh reports whether path exists and was modified no more than ttl before now.
func (s *Store) Fresh(path string, ttl time.Duration, now time.Time) bool {
	mod, err := s.ModTime(path)
	if err != nil {
		return false
	}
	return now.Sub(mod) <= ttl
}

// Read returns the contents of path. A missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist).
func (s *Store) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile replaces path with data. The bytes go to a temporary file in the
// same directory which is then renamed over path, so readers never observe a
// partially written file.
func (s *Store) WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// IsNotExist reports whether err means the cache file is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
