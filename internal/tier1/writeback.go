package tier1

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lazypower/engram/internal/memory"
)

// Rewrite replaces the stored line of every record whose id appears in
// updates, leaving all other lines untouched byte-for-byte. It is the
// archival write-back pass: the caller passes records with archived and
// pattern metadata already set, and Rewrite persists them.
//
// Not transactional with the digest store. A crash between digest persist
// and write-back leaves records archived-but-unmarked; the next archival run
// re-selects and re-marks them, so the operation is at-least-once and
// idempotent.
func (s *Store) Rewrite(updates map[string]*memory.Record) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	names, err := s.dayFiles()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, name := range names {
		n, err := rewriteFile(filepath.Join(s.dir, name), updates)
		if err != nil {
			return total, fmt.Errorf("rewrite %s: %w", name, err)
		}
		total += n
	}
	return total, nil
}

func rewriteFile(path string, updates map[string]*memory.Record) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		// Unreadable buckets are skipped on the read path; write-back
		// follows the same policy so one damaged day cannot wedge archival.
		return 0, nil
	}

	var b strings.Builder
	replaced := 0

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := sc.Text()
		rec, err := DecodeRecord(line)
		if err == nil {
			if upd, ok := updates[rec.ID]; ok {
				line = EncodeRecord(upd)
				replaced++
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	scanErr := sc.Err()
	file.Close()
	if scanErr != nil {
		return 0, scanErr
	}
	if replaced == 0 {
		return 0, nil
	}

	// Rewrite via temp file + rename so a crash mid-write cannot truncate
	// the bucket.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return replaced, nil
}
