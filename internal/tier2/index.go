package tier2

import (
	"bufio"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/lazypower/engram/internal/memory"
)

// searchLimit caps substring search results.
const searchLimit = 50

const indexSchema = `
CREATE TABLE IF NOT EXISTS digests (
  digest_id TEXT PRIMARY KEY,
  ci_id TEXT NOT NULL,
  timestamp INTEGER NOT NULL,
  period_type INTEGER NOT NULL,
  period_id TEXT NOT NULL,
  digest_type INTEGER NOT NULL,
  source_record_count INTEGER,
  questions_asked INTEGER,
  summary TEXT NOT NULL DEFAULT '',
  archived INTEGER DEFAULT 0,
  file_path TEXT NOT NULL,
  file_offset INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ci_time ON digests(ci_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_period ON digests(period_type, period_id);
CREATE INDEX IF NOT EXISTS idx_type ON digests(digest_type);

CREATE TABLE IF NOT EXISTS themes (
  digest_id TEXT NOT NULL,
  theme TEXT NOT NULL,
  FOREIGN KEY (digest_id) REFERENCES digests(digest_id)
);
CREATE INDEX IF NOT EXISTS idx_themes ON themes(theme, digest_id);

CREATE TABLE IF NOT EXISTS keywords (
  digest_id TEXT NOT NULL,
  keyword TEXT NOT NULL,
  FOREIGN KEY (digest_id) REFERENCES digests(digest_id)
);
CREATE INDEX IF NOT EXISTS idx_keywords ON keywords(keyword, digest_id);
`

// Location points at one digest line inside a Tier 2 file.
type Location struct {
	DigestID string
	FilePath string
	Offset   int64
}

// Index is the derived search index over Tier 2 digests. Every row is
// re-derivable from the JSONL files via Rebuild; the index is never the sole
// source of truth. One shared handle, owned by the engine.
type Index struct {
	db   *sql.DB
	Path string
}

// OpenIndex opens (or creates) the index database at the given path and
// applies pragmas and schema.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return openIndex(path)
}

// OpenMemoryIndex opens an in-memory index for testing.
func OpenMemoryIndex() (*Index, error) {
	return openIndex(":memory:")
}

func openIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	idx := &Index{db: db, Path: path}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply index schema: %w", err)
	}
	return idx, nil
}

// Close closes the underlying database handle.
func (idx *Index) Close() error {
	if idx == nil || idx.db == nil {
		return nil
	}
	return idx.db.Close()
}

// Add inserts a digest's metadata row plus its theme and keyword join rows
// in one transaction; any failure rolls the whole insert back. Re-adding the
// same digest id replaces its rows, so re-indexing a period is idempotent.
func (idx *Index) Add(d *memory.Digest, filePath string, offset int64) error {
	if d == nil {
		return memory.ErrNilRecord
	}
	if idx == nil || idx.db == nil {
		return memory.ErrInvalidState
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM themes WHERE digest_id = ?`, d.ID); err != nil {
		return fmt.Errorf("clear themes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM keywords WHERE digest_id = ?`, d.ID); err != nil {
		return fmt.Errorf("clear keywords: %w", err)
	}

	_, err = tx.Exec(`
INSERT OR REPLACE INTO digests
  (digest_id, ci_id, timestamp, period_type, period_id,
   digest_type, source_record_count, questions_asked, summary, archived,
   file_path, file_offset)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CIID, d.Timestamp, int(d.PeriodType), d.PeriodID,
		int(d.Type), d.SourceRecordCount, d.QuestionsAsked, d.Summary,
		boolToInt(d.Archived), filePath, offset)
	if err != nil {
		return fmt.Errorf("insert digest: %w", err)
	}

	for _, theme := range d.Themes {
		if _, err := tx.Exec(`INSERT INTO themes (digest_id, theme) VALUES (?, ?)`, d.ID, theme); err != nil {
			return fmt.Errorf("insert theme: %w", err)
		}
	}
	for _, kw := range d.Keywords {
		if _, err := tx.Exec(`INSERT INTO keywords (digest_id, keyword) VALUES (?, ?)`, d.ID, kw); err != nil {
			return fmt.Errorf("insert keyword: %w", err)
		}
	}

	return tx.Commit()
}

// Query returns the locations of digests matching the filter, newest first.
// Digests archived to a higher tier are always excluded.
func (idx *Index) Query(f memory.DigestFilter) ([]Location, error) {
	if idx == nil || idx.db == nil {
		return nil, memory.ErrInvalidState
	}

	var conds []string
	var args []any
	if f.CIID != "" {
		conds = append(conds, "ci_id = ?")
		args = append(args, f.CIID)
	}
	if f.StartTime > 0 {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.StartTime)
	}
	if f.EndTime > 0 {
		conds = append(conds, "timestamp <= ?")
		args = append(args, f.EndTime)
	}
	if int(f.PeriodType) != -1 {
		conds = append(conds, "period_type = ?")
		args = append(args, int(f.PeriodType))
	}
	if int(f.Type) != -1 {
		conds = append(conds, "digest_type = ?")
		args = append(args, int(f.Type))
	}
	conds = append(conds, "archived = 0")

	q := "SELECT digest_id, file_path, file_offset FROM digests WHERE " +
		strings.Join(conds, " AND ") + " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	return idx.scanLocations(q, args...)
}

// SearchConcepts substring-matches themes and summaries, returning matching
// digest locations ordered by digest id, capped at the fixed search limit.
func (idx *Index) SearchConcepts(query string) ([]Location, error) {
	if idx == nil || idx.db == nil {
		return nil, memory.ErrInvalidState
	}
	pattern := "%" + query + "%"
	return idx.scanLocations(`
SELECT DISTINCT d.digest_id, d.file_path, d.file_offset
FROM digests d
LEFT JOIN themes t ON t.digest_id = d.digest_id
WHERE t.theme LIKE ? OR d.summary LIKE ?
ORDER BY d.digest_id LIMIT ?`, pattern, pattern, searchLimit)
}

// SearchKeywords substring-matches indexed keywords, returning matching
// digest locations ordered by digest id, capped at the fixed search limit.
func (idx *Index) SearchKeywords(query string) ([]Location, error) {
	if idx == nil || idx.db == nil {
		return nil, memory.ErrInvalidState
	}
	pattern := "%" + query + "%"
	return idx.scanLocations(`
SELECT DISTINCT d.digest_id, d.file_path, d.file_offset
FROM digests d
JOIN keywords k ON k.digest_id = d.digest_id
WHERE k.keyword LIKE ?
ORDER BY d.digest_id LIMIT ?`, pattern, searchLimit)
}

func (idx *Index) scanLocations(query string, args ...any) ([]Location, error) {
	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}
	defer rows.Close()

	var locs []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.DigestID, &loc.FilePath, &loc.Offset); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

// Rebuild clears every index row and re-derives the index by rescanning all
// Tier 2 files under the store. Returns the number of digests indexed.
func (idx *Index) Rebuild(store *Store) (int, error) {
	if idx == nil || idx.db == nil {
		return 0, memory.ErrInvalidState
	}

	for _, table := range []string{"themes", "keywords", "digests"} {
		if _, err := idx.db.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	indexed := 0
	for _, sub := range []string{memory.PeriodWeekly.Dir(), memory.PeriodMonthly.Dir()} {
		dir := filepath.Join(store.Dir(), sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
				continue
			}
			n, err := idx.indexFile(filepath.Join(dir, e.Name()))
			if err != nil {
				log.Printf("tier2: reindex %s: %v", e.Name(), err)
				continue
			}
			indexed += n
		}
	}
	return indexed, nil
}

// indexFile adds every decodable digest line in one file, tracking byte
// offsets. Malformed lines are skipped.
func (idx *Index) indexFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	indexed := 0
	var offset int64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		lineLen := int64(len(sc.Bytes())) + 1
		if d, err := DecodeDigest(line); err == nil {
			if err := idx.Add(d, path, offset); err != nil {
				return indexed, err
			}
			indexed++
		}
		offset += lineLen
	}
	return indexed, sc.Err()
}

// Load reads the digests at the given locations, skipping files that have
// gone missing since indexing.
func Load(locs []Location) []*memory.Digest {
	var out []*memory.Digest
	for _, loc := range locs {
		d, err := loadOne(loc)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

func loadOne(loc Location) (*memory.Digest, error) {
	f, err := os.Open(loc.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("digest %s: %w", loc.DigestID, memory.ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(loc.Offset, 0); err != nil {
		return nil, err
	}
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	return DecodeDigest(line)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
