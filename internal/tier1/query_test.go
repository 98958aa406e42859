package tier1

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lazypower/engram/internal/memory"
)

// seedDays writes records into per-day buckets: one bucket per entry, each
// holding the given records in order.
func seedDays(t *testing.T, s *Store, days map[string][]*memory.Record) {
	t.Helper()
	for day, records := range days {
		s.now = func() time.Time {
			d, err := time.Parse(dayFileLayout, day)
			if err != nil {
				t.Fatalf("bad day %q: %v", day, err)
			}
			return d
		}
		for _, r := range records {
			if err := s.Append(r); err != nil {
				t.Fatalf("Append %s into %s: %v", r.ID, day, err)
			}
		}
	}
}

func TestQueryNewestDayFirst(t *testing.T) {
	s := New(t.TempDir(), 0)
	seedDays(t, s, map[string][]*memory.Record{
		"2025-01-10": {testRecord("old-1", "older entry")},
		"2025-01-20": {testRecord("new-1", "newer entry")},
	})

	got, err := s.Query(memory.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "new-1" || got[1].ID != "old-1" {
		t.Errorf("order = [%s, %s], want newest day first", got[0].ID, got[1].ID)
	}
}

func TestQueryLimitStopsMidFile(t *testing.T) {
	s := New(t.TempDir(), 0)
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return day }
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
		if err := s.Append(testRecord(id, "entry "+id)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Query(memory.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestQueryFilters(t *testing.T) {
	s := New(t.TempDir(), 0)
	s.now = func() time.Time { return time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC) }

	records := []*memory.Record{
		{ID: "a", Timestamp: 100, Type: memory.TypeExperience, Importance: 0.2,
			Content: "low importance experience", CIID: "ci-alpha", Tier: memory.Tier1},
		{ID: "b", Timestamp: 200, Type: memory.TypeKnowledge, Importance: 0.9,
			Content: "important knowledge", CIID: "ci-alpha", Tier: memory.Tier1},
		{ID: "c", Timestamp: 300, Type: memory.TypeExperience, Importance: 0.9,
			Content: "someone else's record", CIID: "ci-beta", Tier: memory.Tier1},
	}
	for _, r := range records {
		if err := s.Append(r); err != nil {
			t.Fatal(err)
		}
	}

	cases := []struct {
		name   string
		filter memory.Filter
		want   []string
	}{
		{"by identity", memory.Filter{CIID: "ci-alpha"}, []string{"a", "b"}},
		{"by type", memory.Filter{Type: memory.TypeKnowledge}, []string{"b"}},
		{"by importance", memory.Filter{MinImportance: 0.5}, []string{"b", "c"}},
		{"by time range", memory.Filter{StartTime: 150, EndTime: 250}, []string{"b"}},
		{"no match", memory.Filter{CIID: "ci-gamma"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Query(tc.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("result[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestQuerySkipsMalformedLines(t *testing.T) {
	s := New(t.TempDir(), 0)
	s.now = func() time.Time { return time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC) }
	if err := s.Append(testRecord("good-1", "before corruption")); err != nil {
		t.Fatal(err)
	}

	// Simulate a torn write in the middle of the bucket.
	path := filepath.Join(s.Dir(), "2025-01-15.jsonl")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(`{"record_id":"torn","cont` + "\n")
	f.Close()

	if err := s.Append(testRecord("good-2", "after corruption")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Query(memory.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (malformed line skipped)", len(got))
	}
	if got[0].ID != "good-1" || got[1].ID != "good-2" {
		t.Errorf("ids = [%s, %s], want [good-1, good-2]", got[0].ID, got[1].ID)
	}
}
