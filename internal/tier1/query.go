package tier1

import (
	"bufio"
	"log"
	"os"
	"path/filepath"

	"github.com/lazypower/engram/internal/memory"
)

// Query scans bucket files newest-day first, accumulating matches in file
// order. The scan stops once f.Limit (when > 0) matches are collected.
//
// A long-lived corpus accumulates partial damage, so unreadable files and
// malformed lines are skipped, never fatal.
func (s *Store) Query(f memory.Filter) ([]*memory.Record, error) {
	names, err := s.dayFiles()
	if err != nil {
		return nil, err
	}

	var results []*memory.Record
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		done, err := scanFile(path, f, &results)
		if err != nil {
			log.Printf("tier1: skipping unreadable %s: %v", name, err)
			continue
		}
		if done {
			break
		}
	}
	return results, nil
}

// scanFile appends matches from one bucket file to out. It reports true once
// the limit is reached.
func scanFile(path string, f memory.Filter, out *[]*memory.Record) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		rec, err := DecodeRecord(sc.Text())
		if err != nil {
			continue
		}
		if !f.Matches(rec) {
			continue
		}
		*out = append(*out, rec)
		if f.Limit > 0 && len(*out) >= f.Limit {
			return true, nil
		}
	}
	// Scanner errors (oversized line, read failure mid-file) abandon the
	// rest of this file only.
	if err := sc.Err(); err != nil {
		log.Printf("tier1: partial scan of %s: %v", filepath.Base(path), err)
	}
	return false, nil
}

// maxLineBytes caps a single record line during scans.
const maxLineBytes = 1 << 20
