package tier2

import (
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/engram/internal/memory"
)

// WeekID formats a timestamp as its ISO 8601 week identifier, e.g.
// "2025-W05".
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthID formats a timestamp as its month identifier, e.g. "2025-01".
func MonthID(t time.Time) string {
	return t.Format("2006-01")
}

// BuildDigests compacts one archival batch into weekly digests, one per ISO
// week represented in the batch, in first-seen week order. The summary names
// the period and record count; questions_asked counts records whose content
// contains a question mark. Themes, keywords, entities, insights, and
// decisions are populated by the caller's enrichment pipeline, not derived
// here.
func BuildDigests(ciID string, records []*memory.Record, now time.Time) []*memory.Digest {
	if len(records) == 0 {
		return nil
	}

	byWeek := make(map[string][]*memory.Record)
	var order []string
	for _, r := range records {
		week := WeekID(time.Unix(r.Timestamp, 0))
		if _, seen := byWeek[week]; !seen {
			order = append(order, week)
		}
		byWeek[week] = append(byWeek[week], r)
	}

	digests := make([]*memory.Digest, 0, len(order))
	for _, week := range order {
		batch := byWeek[week]
		d := memory.NewDigest(ciID, memory.PeriodWeekly, week, memory.DigestInteraction, now.Unix())
		d.SourceRecordCount = len(batch)
		d.Summary = fmt.Sprintf("Weekly digest for %s: %d interactions archived from Tier 1",
			week, len(batch))
		for _, r := range batch {
			if strings.ContainsRune(r.Content, '?') {
				d.QuestionsAsked++
			}
		}
		digests = append(digests, d)
	}
	return digests
}
