package tier2

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lazypower/engram/internal/memory"
)

// DefaultMaxFileMB is the per-period digest file size ceiling.
const DefaultMaxFileMB = 50

// Store is the Tier 2 digest store: one JSONL file per period under
// <root>/memory/tier2/{weekly,monthly}.
type Store struct {
	dir          string
	maxFileBytes int64
}

// NewStore creates a Tier 2 store rooted at dir.
func NewStore(dir string, maxFileMB int64) *Store {
	if maxFileMB <= 0 {
		maxFileMB = DefaultMaxFileMB
	}
	return &Store{dir: dir, maxFileBytes: maxFileMB * 1024 * 1024}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// periodFile returns the bucket path for a digest's period.
func (s *Store) periodFile(d *memory.Digest) string {
	return filepath.Join(s.dir, d.PeriodType.Dir(), d.PeriodID+".jsonl")
}

// Append durably stores one digest, returning the file path and byte offset
// of the written line so the index can locate it later.
func (s *Store) Append(d *memory.Digest) (path string, offset int64, err error) {
	if d == nil {
		return "", 0, memory.ErrNilRecord
	}

	path = s.periodFile(d)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, fmt.Errorf("create tier2 dir: %w", err)
	}
	if st, err := os.Stat(path); err == nil && st.Size() >= s.maxFileBytes {
		return "", 0, fmt.Errorf("%s: %w", filepath.Base(path), memory.ErrStorageFull)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	offset, err = f.Seek(0, io.SeekEnd)
	if err != nil {
		return "", 0, fmt.Errorf("seek %s: %w", path, err)
	}
	if _, err := f.WriteString(EncodeDigest(d) + "\n"); err != nil {
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}
	return path, offset, nil
}

// Stats reports the digest line count and bytes used across both period
// directories.
func (s *Store) Stats() (digests int, bytes int64, err error) {
	for _, sub := range []string{memory.PeriodWeekly.Dir(), memory.PeriodMonthly.Dir()} {
		entries, err := os.ReadDir(filepath.Join(s.dir, sub))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
				continue
			}
			path := filepath.Join(s.dir, sub, e.Name())
			st, err := os.Stat(path)
			if err != nil {
				continue
			}
			bytes += st.Size()

			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			for _, b := range data {
				if b == '\n' {
					digests++
				}
			}
		}
	}
	return digests, bytes, nil
}
