// Package engine wires the tiers together: record intake, querying, and the
// archival run that compacts old records into Tier 2 digests.
package engine

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/engram/internal/memory"
	"github.com/lazypower/engram/internal/pattern"
	"github.com/lazypower/engram/internal/policy"
	"github.com/lazypower/engram/internal/tier1"
	"github.com/lazypower/engram/internal/tier2"
)

// CentralityFunc annotates graph_centrality on a batch of records in place.
// Centrality is computed by an external module; the engine only consumes it.
type CentralityFunc func(records []*memory.Record)

// Engine owns the open handles for one identity store: the Tier 1 record
// store, the Tier 2 digest store, and the shared index connection. All
// operations are synchronous blocking I/O with no internal threading; the
// host must serialize archival runs per identity.
type Engine struct {
	root  string
	tier1 *tier1.Store
	tier2 *tier2.Store
	index *tier2.Index

	annotate CentralityFunc
	now      func() time.Time
}

// Options tunes engine construction. Zero values select defaults.
type Options struct {
	Tier1MaxFileMB int64
	Tier2MaxFileMB int64
	IndexFile      string // filename under <root>/memory/tier2/index
}

// Open initializes an engine rooted at dir, creating the tier directories
// and index database as needed.
func Open(root string, opts Options) (*Engine, error) {
	if opts.IndexFile == "" {
		opts.IndexFile = "digests.db"
	}
	memDir := filepath.Join(root, "memory")

	idx, err := tier2.OpenIndex(filepath.Join(memDir, "tier2", "index", opts.IndexFile))
	if err != nil {
		return nil, fmt.Errorf("open tier2 index: %w", err)
	}

	return &Engine{
		root:  root,
		tier1: tier1.New(filepath.Join(memDir, "tier1"), opts.Tier1MaxFileMB),
		tier2: tier2.NewStore(filepath.Join(memDir, "tier2"), opts.Tier2MaxFileMB),
		index: idx,
		now:   time.Now,
	}, nil
}

// Close releases the index handle.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	return e.index.Close()
}

// SetCentralityAnnotator configures the external centrality provider.
func (e *Engine) SetCentralityAnnotator(fn CentralityFunc) {
	e.annotate = fn
}

// Store persists one new record to Tier 1, assigning an id and timestamp
// when the caller supplies none.
func (e *Engine) Store(r *memory.Record) error {
	if r == nil {
		return memory.ErrNilRecord
	}
	if r.Content == "" {
		return fmt.Errorf("store record: content required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp == 0 {
		r.Timestamp = e.now().Unix()
	}
	if r.Tier == 0 {
		r.Tier = memory.Tier1
	}
	return e.tier1.Append(r)
}

// Query scans Tier 1 for records matching the filter.
func (e *Engine) Query(f memory.Filter) ([]*memory.Record, error) {
	return e.tier1.Query(f)
}

// Archive runs one consolidation pass for an identity: scan Tier 1, apply
// the retention cascade, exempt pattern outliers, compact the survivors of
// that filtering into Tier 2 digests, index them, and mark the originating
// records archived. Returns the number of records archived; zero with a nil
// error means nothing was eligible.
//
// Digest persistence and write-back are not one transaction. A crash between
// them leaves records archived-but-unmarked; re-running is safe because
// already-archived records are never candidates again.
func (e *Engine) Archive(ciID string, maxAgeDays int) (int, error) {
	if ciID == "" {
		return 0, fmt.Errorf("archive: ci_id required")
	}
	if maxAgeDays < 0 {
		return 0, fmt.Errorf("archive: max age days must be >= 0")
	}

	records, err := e.tier1.Query(memory.Filter{CIID: ciID})
	if err != nil {
		return 0, fmt.Errorf("archive scan: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	// Fresh centrality before the cascade so rule 6 sees current scores.
	if e.annotate != nil {
		e.annotate(records)
	}

	now := e.now()
	candidates := policy.Candidates(records, maxAgeDays, now)
	if len(candidates) == 0 {
		return 0, nil
	}

	pattern.Detect(candidates)
	archiveSet, exempt := pattern.Partition(candidates)

	updates := make(map[string]*memory.Record, len(candidates))
	for _, r := range archiveSet {
		r.Archived = true
		updates[r.ID] = r
	}
	// Outliers stay unarchived but their pattern metadata is persisted in
	// the same rewrite pass, so the enrichment reaches disk.
	for _, r := range exempt {
		updates[r.ID] = r
	}

	if len(archiveSet) > 0 {
		digests := tier2.BuildDigests(ciID, archiveSet, now)
		for _, d := range digests {
			path, offset, err := e.tier2.Append(d)
			if err != nil {
				return 0, fmt.Errorf("store digest %s: %w", d.ID, err)
			}
			if err := e.index.Add(d, path, offset); err != nil {
				return 0, fmt.Errorf("index digest %s: %w", d.ID, err)
			}
		}
		log.Printf("archive: %s: %d records into %d digest(s)", ciID, len(archiveSet), len(digests))
	}

	marked, err := e.tier1.Rewrite(updates)
	if err != nil {
		return 0, fmt.Errorf("archive write-back: %w", err)
	}
	if marked < len(updates) {
		log.Printf("archive: write-back updated %d of %d records", marked, len(updates))
	}

	return len(archiveSet), nil
}

// RebuildIndex re-derives the Tier 2 index from the digest files.
func (e *Engine) RebuildIndex() (int, error) {
	return e.index.Rebuild(e.tier2)
}

// Digests loads the digests matching the filter via the index.
func (e *Engine) Digests(f memory.DigestFilter) ([]*memory.Digest, error) {
	locs, err := e.index.Query(f)
	if err != nil {
		return nil, err
	}
	return tier2.Load(locs), nil
}

// SearchConcepts finds digests whose themes or summaries contain the query.
func (e *Engine) SearchConcepts(query string) ([]*memory.Digest, error) {
	locs, err := e.index.SearchConcepts(query)
	if err != nil {
		return nil, err
	}
	return tier2.Load(locs), nil
}

// SearchKeywords finds digests whose indexed keywords contain the query.
func (e *Engine) SearchKeywords(query string) ([]*memory.Digest, error) {
	locs, err := e.index.SearchKeywords(query)
	if err != nil {
		return nil, err
	}
	return tier2.Load(locs), nil
}
