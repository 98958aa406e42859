// Package policy decides, per record, whether an archival run may take it.
package policy

import (
	"time"

	"github.com/lazypower/engram/internal/memory"
)

// Retention thresholds. These match the values long-lived corpora were
// written under; changing them changes which records survive.
const (
	RecentAccessDays        = 7
	HighEmotionThreshold    = 0.7
	HighCentralityThreshold = 0.5
)

// Decision explains a retention outcome.
type Decision struct {
	Candidate bool
	Reason    string
}

// Evaluate runs the retention cascade for one record. The rules are an
// ordered contract: the first matching rule decides and later rules are
// never consulted. In particular an explicit marked_forgettable consent
// overrides recency, emotion, and centrality.
func Evaluate(r *memory.Record, maxAgeDays int, now time.Time) Decision {
	if r.Archived {
		return Decision{Candidate: false, Reason: "already archived"}
	}
	if r.MarkedImportant {
		return Decision{Candidate: false, Reason: "marked important (permanent keep)"}
	}
	if r.MarkedForgettable {
		return Decision{Candidate: true, Reason: "marked forgettable (explicit consent)"}
	}
	if r.LastAccessed > 0 {
		daysSince := now.Unix() - r.LastAccessed
		if daysSince < RecentAccessDays*24*3600 {
			return Decision{Candidate: false, Reason: "recently accessed"}
		}
	}
	if r.EmotionIntensity >= HighEmotionThreshold {
		return Decision{Candidate: false, Reason: "high emotional salience"}
	}
	if r.GraphCentrality >= HighCentralityThreshold {
		return Decision{Candidate: false, Reason: "high graph centrality"}
	}
	if now.Unix()-r.Timestamp < int64(maxAgeDays)*24*3600 {
		return Decision{Candidate: false, Reason: "within retention window"}
	}
	return Decision{Candidate: true, Reason: "old with no preservation factors"}
}

// Candidates filters records through Evaluate, preserving input order.
func Candidates(records []*memory.Record, maxAgeDays int, now time.Time) []*memory.Record {
	var out []*memory.Record
	for _, r := range records {
		if Evaluate(r, maxAgeDays, now).Candidate {
			out = append(out, r)
		}
	}
	return out
}
