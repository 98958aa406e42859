// Package memory defines the core record and digest types shared by every
// tier of the engine.
package memory

// Tier identifies which store logically holds a record.
type Tier int

const (
	Tier1 Tier = 1 // raw recordings (days to weeks)
	Tier2 Tier = 2 // digests (weeks to months)
	Tier3 Tier = 3 // pattern summaries (months to years)
)

// RecordType categorizes a record by how the identity formed it.
type RecordType int

const (
	TypeExperience RecordType = 1 // what happened
	TypeKnowledge  RecordType = 2 // what was learned
	TypeReflection RecordType = 3 // what it means
	TypePattern    RecordType = 4 // recurring theme
	TypeGoal       RecordType = 5 // intention
	TypeDecision   RecordType = 6 // choice with reasoning
)

// Record is one experiential event. It is the fundamental unit of Tier 1.
// Records are mutated only to set LastAccessed, the archived flag, and
// pattern metadata during write-back; they are never physically deleted.
type Record struct {
	ID        string
	Timestamp int64 // unix seconds

	Type       RecordType
	Importance float64 // 0.0-1.0

	Content  string // required
	Response string
	Context  string

	CIID      string
	SessionID string
	Component string

	Tier     Tier
	Archived bool

	// Consolidation metadata. GraphCentrality is supplied by an external
	// annotator, never computed here.
	LastAccessed     int64
	EmotionIntensity float64
	GraphCentrality  float64

	// Pattern detection results.
	PatternID          string
	PatternFrequency   int
	SemanticSimilarity float64
	PatternOutlier     bool
	PatternSummary     string

	// Lifecycle consent flags. MarkedImportant and Archived are mutually
	// exclusive for the lifetime of the record.
	MarkedImportant   bool
	MarkedForgettable bool
}

// Filter selects records during a Tier 1 query. Zero values mean "no
// constraint"; Limit 0 means unbounded.
type Filter struct {
	CIID          string
	StartTime     int64 // inclusive
	EndTime       int64 // inclusive
	Type          RecordType
	MinImportance float64
	Limit         int
}

// Matches reports whether r passes every constraint in f.
func (f Filter) Matches(r *Record) bool {
	if f.CIID != "" && r.CIID != f.CIID {
		return false
	}
	if f.StartTime > 0 && r.Timestamp < f.StartTime {
		return false
	}
	if f.EndTime > 0 && r.Timestamp > f.EndTime {
		return false
	}
	if f.Type != 0 && r.Type != f.Type {
		return false
	}
	if f.MinImportance > 0 && r.Importance < f.MinImportance {
		return false
	}
	return true
}
