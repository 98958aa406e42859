// Package pattern clusters near-duplicate archival candidates by keyword
// overlap and exempts representative outliers from archival.
package pattern

import (
	"fmt"
	"strings"

	"github.com/lazypower/engram/internal/memory"
)

const (
	// SimilarityThreshold is the keyword overlap ratio above which two
	// records belong to the same cluster.
	SimilarityThreshold = 0.4
	// MinPatternSize is the smallest group that forms a pattern.
	MinPatternSize = 3
	// MaxClusterSize caps one cluster's membership.
	MaxClusterSize = 256

	minKeywordLength = 4
)

var stopWords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"with": {}, "from": {}, "have": {}, "has": {}, "been": {},
	"will": {}, "would": {}, "could": {}, "should": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"your": {}, "their": {}, "there": {}, "here": {},
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '.', ',', ';', ':', '!', '?',
		'(', ')', '[', ']', '{', '}', '"', '\'':
		return true
	}
	return false
}

// Keywords tokenizes text into its deduplicated keyword set: lowercase
// tokens of at least four characters that are not stop words.
func Keywords(text string) map[string]struct{} {
	kws := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(text, isSeparator) {
		if len(tok) < minKeywordLength {
			continue
		}
		tok = strings.ToLower(tok)
		if _, stop := stopWords[tok]; stop {
			continue
		}
		kws[tok] = struct{}{}
	}
	return kws
}

// Similarity scores keyword overlap between two texts as
// |shared| / max(|a|, |b|), 0 when either keyword set is empty.
func Similarity(a, b string) float64 {
	ka := Keywords(a)
	kb := Keywords(b)
	if len(ka) == 0 || len(kb) == 0 {
		return 0
	}

	shared := 0
	for kw := range ka {
		if _, ok := kb[kw]; ok {
			shared++
		}
	}

	max := len(ka)
	if len(kb) > max {
		max = len(kb)
	}
	return float64(shared) / float64(max)
}

// Detect clusters candidates in a single forward pass. Each unassigned
// record claims every later unassigned record whose content similarity
// clears the threshold, up to the cluster cap. Groups of MinPatternSize or
// more materialize as a pattern: all members share a pattern id and
// frequency, and three representatives (first, last, highest importance with
// first-seen tie-break) are marked outliers so a sample survives archival.
func Detect(records []*memory.Record) {
	for i := range records {
		if records[i].PatternID != "" {
			continue
		}

		members := []int{i}
		for j := i + 1; j < len(records) && len(members) < MaxClusterSize; j++ {
			if records[j].PatternID != "" {
				continue
			}
			if Similarity(records[i].Content, records[j].Content) >= SimilarityThreshold {
				members = append(members, j)
			}
		}

		if len(members) < MinPatternSize {
			continue
		}

		patternID := fmt.Sprintf("pattern_%d_%d", i, records[i].Timestamp)
		for _, idx := range members {
			records[idx].PatternID = patternID
			records[idx].PatternFrequency = len(members)
			records[idx].SemanticSimilarity = 1.0
		}

		records[members[0]].PatternOutlier = true
		records[members[len(members)-1]].PatternOutlier = true

		best := members[0]
		for _, idx := range members[1:] {
			if records[idx].Importance > records[best].Importance {
				best = idx
			}
		}
		records[best].PatternOutlier = true

		summary := fmt.Sprintf("Pattern: %d occurrences (%d archived, 3 preserved as outliers)",
			len(members), len(members)-3)
		for _, idx := range members {
			if records[idx].PatternOutlier {
				records[idx].PatternSummary = summary
			}
		}
	}
}

// Partition splits candidates after Detect: records to archive versus
// pattern outliers exempted to preserve a representative sample. Unclustered
// candidates archive normally.
func Partition(records []*memory.Record) (archive, exempt []*memory.Record) {
	for _, r := range records {
		if r.PatternOutlier {
			exempt = append(exempt, r)
		} else {
			archive = append(archive, r)
		}
	}
	return archive, exempt
}
