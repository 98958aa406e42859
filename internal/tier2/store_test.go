package tier2

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lazypower/engram/internal/memory"
)

func TestAppendPeriodFile(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	d := testDigest()

	path, offset, err := s.Append(d)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if want := filepath.Join(s.Dir(), "weekly", "2025-W03.jsonl"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if offset != 0 {
		t.Errorf("first offset = %d, want 0", offset)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != EncodeDigest(d)+"\n" {
		t.Errorf("file contents = %q", data)
	}
}

func TestAppendOffsetsAdvance(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	d1 := testDigest()
	d2 := testDigest()
	d2.ID = "2025-W03-weekly-digest-2"

	_, off1, err := s.Append(d1)
	if err != nil {
		t.Fatal(err)
	}
	_, off2, err := s.Append(d2)
	if err != nil {
		t.Fatal(err)
	}

	want := int64(len(EncodeDigest(d1)) + 1)
	if off1 != 0 || off2 != want {
		t.Errorf("offsets = %d, %d, want 0, %d", off1, off2, want)
	}
}

func TestAppendMonthlyDirectory(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	d := testDigest()
	d.PeriodType = memory.PeriodMonthly
	d.PeriodID = "2025-01"
	d.ID = "2025-01-monthly-digest"

	path, _, err := s.Append(d)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if want := filepath.Join(s.Dir(), "monthly", "2025-01.jsonl"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestAppendNilDigest(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	if _, _, err := s.Append(nil); !errors.Is(err, memory.ErrNilRecord) {
		t.Errorf("err = %v, want ErrNilRecord", err)
	}
}

func TestAppendStorageCeiling(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	s.maxFileBytes = 1

	if _, _, err := s.Append(testDigest()); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if _, _, err := s.Append(testDigest()); !errors.Is(err, memory.ErrStorageFull) {
		t.Errorf("err = %v, want ErrStorageFull", err)
	}
}

func TestStoreStats(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	weekly := testDigest()
	monthly := testDigest()
	monthly.PeriodType = memory.PeriodMonthly
	monthly.PeriodID = "2025-01"
	monthly.ID = "2025-01-monthly-digest"

	for _, d := range []*memory.Digest{weekly, monthly} {
		if _, _, err := s.Append(d); err != nil {
			t.Fatal(err)
		}
	}

	digests, bytes, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if digests != 2 {
		t.Errorf("digests = %d, want 2", digests)
	}
	if bytes == 0 {
		t.Error("bytes = 0, want nonzero")
	}
}
