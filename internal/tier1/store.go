package tier1

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lazypower/engram/internal/memory"
)

const (
	// DefaultMaxFileMB is the per-day file size ceiling.
	DefaultMaxFileMB = 100

	dayFileLayout = "2006-01-02"
)

// Store is the Tier 1 record store: one append-only JSONL file per calendar
// day under <root>/memory/tier1. It performs no locking; the host serializes
// writers per identity.
type Store struct {
	dir          string
	maxFileBytes int64
	now          func() time.Time
}

// New creates a Tier 1 store rooted at dir. maxFileMB of 0 selects the
// default ceiling.
func New(dir string, maxFileMB int64) *Store {
	if maxFileMB <= 0 {
		maxFileMB = DefaultMaxFileMB
	}
	return &Store{
		dir:          dir,
		maxFileBytes: maxFileMB * 1024 * 1024,
		now:          time.Now,
	}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// dayFile returns the bucket path for the current calendar day.
func (s *Store) dayFile() string {
	return filepath.Join(s.dir, s.now().Format(dayFileLayout)+".jsonl")
}

// Append writes one record as a single line to today's bucket. It fails with
// memory.ErrStorageFull once the day file reaches the size ceiling.
func (s *Store) Append(r *memory.Record) error {
	if r == nil {
		return memory.ErrNilRecord
	}
	if r.MarkedImportant && r.Archived {
		return fmt.Errorf("record %s: marked important and archived are mutually exclusive", r.ID)
	}
	line := EncodeRecord(r)
	if len(line) >= maxLineBytes {
		// The query scanner caps lines at maxLineBytes; a longer line would
		// be stored but never readable.
		return fmt.Errorf("record %s: line %d bytes: %w", r.ID, len(line), memory.ErrResourceLimit)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create tier1 dir: %w", err)
	}

	path := s.dayFile()
	if st, err := os.Stat(path); err == nil && st.Size() >= s.maxFileBytes {
		return fmt.Errorf("%s: %w", filepath.Base(path), memory.ErrStorageFull)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// dayFiles lists the store's .jsonl bucket files. Descending name order puts
// the newest day first, since the names sort lexically by date.
func (s *Store) dayFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tier1 dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Stats reports the total record line count and bytes used across all
// bucket files.
func (s *Store) Stats() (records int, bytes int64, err error) {
	names, err := s.dayFiles()
	if err != nil {
		return 0, 0, err
	}
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		bytes += st.Size()

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		records += strings.Count(string(data), "\n")
	}
	return records, bytes, nil
}
