package tier1

import (
	"errors"
	"strings"
	"testing"

	"github.com/lazypower/engram/internal/memory"
)

func TestEncodeRecordFieldOrder(t *testing.T) {
	r := &memory.Record{
		ID:         "rec-001",
		Timestamp:  1736899200,
		Type:       memory.TypeExperience,
		Importance: 0.75,
		Content:    "fixed the parser",
		Response:   "acknowledged",
		Context:    "debug session",
		CIID:       "ci-alpha",
		SessionID:  "sess-9",
		Component:  "parser",
		Tier:       memory.Tier1,
	}

	want := `{"record_id":"rec-001","timestamp":1736899200,"type":1,"importance":0.75,` +
		`"content":"fixed the parser","response":"acknowledged","context":"debug session",` +
		`"ci_id":"ci-alpha","session_id":"sess-9","component":"parser","tier":1,"archived":false}`
	if got := EncodeRecord(r); got != want {
		t.Errorf("EncodeRecord =\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeRecordOmitsOptionalFields(t *testing.T) {
	r := &memory.Record{
		ID:         "rec-002",
		Timestamp:  100,
		Type:       memory.TypeKnowledge,
		Importance: 0.5,
		Content:    "minimal",
		CIID:       "ci-alpha",
		Tier:       memory.Tier1,
	}

	line := EncodeRecord(r)
	for _, key := range []string{
		"response", "context", "session_id", "component",
		"last_accessed", "emotion_intensity", "graph_centrality",
		"marked_important", "marked_forgettable",
		"pattern_id", "semantic_similarity", "is_pattern_outlier",
	} {
		if strings.Contains(line, key) {
			t.Errorf("minimal record line contains optional key %q: %s", key, line)
		}
	}
}

func TestEncodeRecordConsolidationMetadata(t *testing.T) {
	r := &memory.Record{
		ID: "rec-003", Timestamp: 100, Type: memory.TypeExperience,
		Importance: 0.5, Content: "c", CIID: "ci",
		Tier:               memory.Tier1,
		LastAccessed:       99,
		EmotionIntensity:   0.8,
		GraphCentrality:    0.6,
		PatternID:          "pattern_0_100",
		PatternFrequency:   4,
		SemanticSimilarity: 1.0,
		PatternOutlier:     true,
		PatternSummary:     "Pattern: 4 occurrences (1 archived, 3 preserved as outliers)",
	}

	line := EncodeRecord(r)
	for _, want := range []string{
		`"last_accessed":99`,
		`"emotion_intensity":0.80`,
		`"graph_centrality":0.60`,
		`"pattern_id":"pattern_0_100"`,
		`"pattern_frequency":4`,
		`"semantic_similarity":1.00`,
		`"is_pattern_outlier":true`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %s:\n%s", want, line)
		}
	}

	back, err := DecodeRecord(line)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if back.PatternID != r.PatternID || back.PatternFrequency != 4 || !back.PatternOutlier {
		t.Errorf("pattern metadata lost in round trip: %+v", back)
	}
	if back.PatternSummary != r.PatternSummary {
		t.Errorf("pattern_summary = %q, want %q", back.PatternSummary, r.PatternSummary)
	}
}

func TestRoundTripEscapes(t *testing.T) {
	r := &memory.Record{
		ID: "rec-esc", Timestamp: 1, Type: memory.TypeExperience,
		Importance: 0.5, CIID: "ci", Tier: memory.Tier1,
		Content: "line one\nline two\ttabbed \"quoted\" back\\slash\rdone",
	}

	line := EncodeRecord(r)
	if strings.ContainsAny(line, "\n\r\t") {
		t.Fatalf("encoded line contains raw control characters: %q", line)
	}

	back, err := DecodeRecord(line)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if back.Content != r.Content {
		t.Errorf("content round trip = %q, want %q", back.Content, r.Content)
	}
}

func TestDecodeRecordDefaults(t *testing.T) {
	back, err := DecodeRecord(`{"record_id":"r1","content":"bare"}`)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if back.Importance != 0.5 {
		t.Errorf("importance default = %v, want 0.5", back.Importance)
	}
	if back.Tier != memory.Tier1 {
		t.Errorf("tier default = %v, want 1", back.Tier)
	}
}

func TestDecodeRecordUnknownKeys(t *testing.T) {
	back, err := DecodeRecord(`{"record_id":"r1","future_field":"x","content":"ok","tier":1}`)
	if err != nil {
		t.Fatalf("DecodeRecord with unknown key: %v", err)
	}
	if back.Content != "ok" {
		t.Errorf("content = %q, want ok", back.Content)
	}
}

func TestDecodeRecordMalformed(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"no brace", `"record_id":"r1"`},
		{"missing content", `{"record_id":"r1","timestamp":5}`},
		{"unterminated string", `{"record_id":"r1","content":"oops`},
		{"garbage", "not a record at all"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeRecord(tc.line); !errors.Is(err, memory.ErrParse) {
				t.Errorf("DecodeRecord(%q) err = %v, want ErrParse", tc.line, err)
			}
		})
	}
}
