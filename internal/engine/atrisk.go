package engine

import (
	"fmt"

	"github.com/lazypower/engram/internal/memory"
	"github.com/lazypower/engram/internal/policy"
)

const previewLen = 100

// RiskEntry describes one record an archival run would take.
type RiskEntry struct {
	RecordID       string
	Reason         string
	ContentPreview string
}

// AtRisk dry-runs the retention cascade and reports which records the next
// Archive call would select, without mutating anything.
func (e *Engine) AtRisk(ciID string, maxAgeDays int) ([]RiskEntry, error) {
	if ciID == "" {
		return nil, fmt.Errorf("at-risk: ci_id required")
	}

	records, err := e.tier1.Query(memory.Filter{CIID: ciID})
	if err != nil {
		return nil, fmt.Errorf("at-risk scan: %w", err)
	}
	if e.annotate != nil {
		e.annotate(records)
	}

	now := e.now()
	var out []RiskEntry
	for _, r := range records {
		d := policy.Evaluate(r, maxAgeDays, now)
		if !d.Candidate {
			continue
		}
		preview := r.Content
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "..."
		}
		out = append(out, RiskEntry{
			RecordID:       r.ID,
			Reason:         d.Reason,
			ContentPreview: preview,
		})
	}
	return out, nil
}

// Stats summarizes storage usage across both tiers.
type Stats struct {
	Tier1Records int
	Tier1Bytes   int64
	Tier2Digests int
	Tier2Bytes   int64
}

// Stats reports record and digest counts plus bytes used.
func (e *Engine) Stats() (Stats, error) {
	var s Stats
	var err error
	if s.Tier1Records, s.Tier1Bytes, err = e.tier1.Stats(); err != nil {
		return s, fmt.Errorf("tier1 stats: %w", err)
	}
	if s.Tier2Digests, s.Tier2Bytes, err = e.tier2.Stats(); err != nil {
		return s, fmt.Errorf("tier2 stats: %w", err)
	}
	return s, nil
}
