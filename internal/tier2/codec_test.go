package tier2

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lazypower/engram/internal/memory"
)

func testDigest() *memory.Digest {
	return &memory.Digest{
		ID:                "2025-W03-weekly-digest",
		Timestamp:         1737936000,
		PeriodType:        memory.PeriodWeekly,
		PeriodID:          "2025-W03",
		SourceTier:        memory.Tier1,
		SourceRecordCount: 12,
		CIID:              "ci-alpha",
		Type:              memory.DigestInteraction,
		Themes:            []string{"debugging", "refactoring"},
		Keywords:          []string{"parser", "tokenizer"},
		Entities: memory.Entities{
			Files:    []string{"parser.c", "lexer.c"},
			Concepts: []string{"recursive descent"},
			People:   []string{"casey"},
		},
		Summary:        "Weekly digest for 2025-W03: 12 interactions archived from Tier 1",
		KeyInsights:    []string{"tokenizer rewrite paid off"},
		QuestionsAsked: 4,
		DecisionsMade:  []string{"keep the hand-rolled lexer"},
	}
}

func TestEncodeDigestFieldOrder(t *testing.T) {
	want := `{"digest_id":"2025-W03-weekly-digest","timestamp":1737936000,"period_type":0,` +
		`"period_id":"2025-W03","source_tier":1,"source_record_count":12,"ci_id":"ci-alpha",` +
		`"digest_type":0,"themes":["debugging","refactoring"],"keywords":["parser","tokenizer"],` +
		`"entities":{"files":["parser.c","lexer.c"],"concepts":["recursive descent"],"people":["casey"]},` +
		`"summary":"Weekly digest for 2025-W03: 12 interactions archived from Tier 1",` +
		`"key_insights":["tokenizer rewrite paid off"],"questions_asked":4,` +
		`"decisions_made":["keep the hand-rolled lexer"],"archived":false}`
	if got := EncodeDigest(testDigest()); got != want {
		t.Errorf("EncodeDigest =\n%s\nwant\n%s", got, want)
	}
}

func TestDigestRoundTrip(t *testing.T) {
	orig := testDigest()
	back, err := DecodeDigest(EncodeDigest(orig))
	if err != nil {
		t.Fatalf("DecodeDigest: %v", err)
	}
	if !reflect.DeepEqual(orig, back) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, orig)
	}
}

func TestDigestRoundTripEmptyArrays(t *testing.T) {
	d := &memory.Digest{
		ID: "2025-01-monthly-digest", Timestamp: 5,
		PeriodType: memory.PeriodMonthly, PeriodID: "2025-01",
		SourceTier: memory.Tier1, CIID: "ci", Type: memory.DigestMixed,
		Summary: "empty month",
	}
	back, err := DecodeDigest(EncodeDigest(d))
	if err != nil {
		t.Fatalf("DecodeDigest: %v", err)
	}
	if back.PeriodType != memory.PeriodMonthly || back.Type != memory.DigestMixed {
		t.Errorf("enums lost: %+v", back)
	}
	if len(back.Themes) != 0 || len(back.Keywords) != 0 {
		t.Errorf("empty arrays decoded as non-empty: %+v", back)
	}
}

func TestDigestEscapedSummary(t *testing.T) {
	d := testDigest()
	d.Summary = "line one\nsaid \"done\"\tend"
	back, err := DecodeDigest(EncodeDigest(d))
	if err != nil {
		t.Fatalf("DecodeDigest: %v", err)
	}
	if back.Summary != d.Summary {
		t.Errorf("summary round trip = %q, want %q", back.Summary, d.Summary)
	}
}

func TestDecodeDigestMissingID(t *testing.T) {
	if _, err := DecodeDigest(`{"timestamp":5,"summary":"no id"}`); !errors.Is(err, memory.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestDecodeDigestMalformed(t *testing.T) {
	for _, line := range []string{"", "garbage", `{"digest_id":"x","themes":[broken]}`} {
		if _, err := DecodeDigest(line); !errors.Is(err, memory.ErrParse) {
			t.Errorf("DecodeDigest(%q) err = %v, want ErrParse", line, err)
		}
	}
}
