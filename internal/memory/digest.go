package memory

import "fmt"

// PeriodType is the digest aggregation window.
type PeriodType int

const (
	PeriodWeekly  PeriodType = 0
	PeriodMonthly PeriodType = 1
)

// Dir returns the Tier 2 subdirectory name for the period type.
func (p PeriodType) Dir() string {
	if p == PeriodMonthly {
		return "monthly"
	}
	return "weekly"
}

// DigestType classifies a digest's dominant content.
type DigestType int

const (
	DigestInteraction DigestType = 0
	DigestLearning    DigestType = 1
	DigestProject     DigestType = 2
	DigestMixed       DigestType = 3
)

// Entities are the named things a digest's sources mention.
type Entities struct {
	Files    []string
	Concepts []string
	People   []string
}

// Digest is one compacted summary of an archival batch. A digest aggregates
// many records one-way: records carry no back-reference, lineage is
// reconstructed via (ci_id, period_id, timestamp range).
type Digest struct {
	ID         string
	Timestamp  int64
	PeriodType PeriodType
	PeriodID   string // "2025-W05" or "2025-01"
	SourceTier Tier
	CIID       string
	Type       DigestType

	SourceRecordCount int
	Summary           string
	Themes            []string
	Keywords          []string
	Entities          Entities
	KeyInsights       []string
	DecisionsMade     []string
	QuestionsAsked    int

	// Archived marks promotion to Tier 3, which happens outside this engine.
	Archived bool
}

// NewDigest creates an empty digest for the given identity and period.
// The id is derived from the period so that re-running archival for the same
// period overwrites rather than duplicates the index row.
func NewDigest(ciID string, periodType PeriodType, periodID string, digestType DigestType, now int64) *Digest {
	return &Digest{
		ID:         fmt.Sprintf("%s-%s-digest", periodID, periodType.Dir()),
		Timestamp:  now,
		PeriodType: periodType,
		PeriodID:   periodID,
		SourceTier: Tier1,
		CIID:       ciID,
		Type:       digestType,
	}
}

// DigestFilter selects digests from the Tier 2 index.
type DigestFilter struct {
	CIID       string
	StartTime  int64
	EndTime    int64
	PeriodType PeriodType // -1 = any
	Type       DigestType // -1 = any
	Limit      int
}
