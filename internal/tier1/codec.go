// Package tier1 implements the raw record store: append-only day-bucketed
// JSONL files, a tolerant query scanner, and the archival write-back pass.
package tier1

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lazypower/engram/internal/memory"
)

// The line format is a narrow, schema-specific single-line encoding, not
// general JSON. External tooling reads these files as text, so the field
// order and the escape set (quote, backslash, \n, \r, \t) are a contract
// and must not change. Optional fields are omitted entirely, never null.

// escape writes s into b with the record-line escape rules applied.
func escape(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
}

// unescape reverses escape. Unknown escape sequences keep the escaped
// character, matching the original reader.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func writeStringField(b *strings.Builder, key, val string) {
	b.WriteByte('"')
	b.WriteString(key)
	b.WriteString(`":"`)
	escape(b, val)
	b.WriteString(`",`)
}

func writeFloat(b *strings.Builder, key string, val float64) {
	b.WriteByte('"')
	b.WriteString(key)
	b.WriteString(`":`)
	b.WriteString(strconv.FormatFloat(val, 'f', 2, 64))
	b.WriteByte(',')
}

func writeInt(b *strings.Builder, key string, val int64) {
	b.WriteByte('"')
	b.WriteString(key)
	b.WriteString(`":`)
	b.WriteString(strconv.FormatInt(val, 10))
	b.WriteByte(',')
}

// EncodeRecord renders one record as a single line, excluding the trailing
// newline. Consolidation metadata is written only when non-default so that
// plain records stay byte-identical to lines produced by earlier writers.
func EncodeRecord(r *memory.Record) string {
	var b strings.Builder
	b.WriteByte('{')
	writeStringField(&b, "record_id", r.ID)
	writeInt(&b, "timestamp", r.Timestamp)
	writeInt(&b, "type", int64(r.Type))
	writeFloat(&b, "importance", r.Importance)
	writeStringField(&b, "content", r.Content)
	if r.Response != "" {
		writeStringField(&b, "response", r.Response)
	}
	if r.Context != "" {
		writeStringField(&b, "context", r.Context)
	}
	writeStringField(&b, "ci_id", r.CIID)
	if r.SessionID != "" {
		writeStringField(&b, "session_id", r.SessionID)
	}
	if r.Component != "" {
		writeStringField(&b, "component", r.Component)
	}
	if r.LastAccessed > 0 {
		writeInt(&b, "last_accessed", r.LastAccessed)
	}
	if r.EmotionIntensity > 0 {
		writeFloat(&b, "emotion_intensity", r.EmotionIntensity)
	}
	if r.GraphCentrality > 0 {
		writeFloat(&b, "graph_centrality", r.GraphCentrality)
	}
	if r.MarkedImportant {
		b.WriteString(`"marked_important":true,`)
	}
	if r.MarkedForgettable {
		b.WriteString(`"marked_forgettable":true,`)
	}
	if r.PatternID != "" {
		writeStringField(&b, "pattern_id", r.PatternID)
		writeInt(&b, "pattern_frequency", int64(r.PatternFrequency))
	}
	if r.SemanticSimilarity > 0 {
		writeFloat(&b, "semantic_similarity", r.SemanticSimilarity)
	}
	if r.PatternOutlier {
		b.WriteString(`"is_pattern_outlier":true,`)
	}
	if r.PatternSummary != "" {
		writeStringField(&b, "pattern_summary", r.PatternSummary)
	}
	writeInt(&b, "tier", int64(r.Tier))
	b.WriteString(`"archived":`)
	b.WriteString(strconv.FormatBool(r.Archived))
	b.WriteByte('}')
	return b.String()
}

// lineScanner walks one encoded line as key/value pairs. It accepts keys in
// any order and skips unknown keys, so older and newer lines both decode.
type lineScanner struct {
	s   string
	pos int
}

func (sc *lineScanner) expect(c byte) bool {
	if sc.pos >= len(sc.s) || sc.s[sc.pos] != c {
		return false
	}
	sc.pos++
	return true
}

// quoted reads a quoted string starting at the current position, honoring
// backslash escapes, and returns it unescaped.
func (sc *lineScanner) quoted() (string, bool) {
	if !sc.expect('"') {
		return "", false
	}
	start := sc.pos
	for sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case '\\':
			sc.pos += 2
		case '"':
			raw := sc.s[start:sc.pos]
			sc.pos++
			return unescape(raw), true
		default:
			sc.pos++
		}
	}
	return "", false
}

// bare reads an unquoted value (number or bool) up to the next ',' or '}'.
func (sc *lineScanner) bare() (string, bool) {
	start := sc.pos
	for sc.pos < len(sc.s) {
		c := sc.s[sc.pos]
		if c == ',' || c == '}' {
			break
		}
		sc.pos++
	}
	if sc.pos == start {
		return "", false
	}
	return sc.s[start:sc.pos], true
}

// DecodeRecord parses one record line. Content is the only required field;
// importance defaults to 0.5 and tier to 1 when absent, matching the
// original reader's defaults.
func DecodeRecord(line string) (*memory.Record, error) {
	sc := &lineScanner{s: strings.TrimRight(line, "\r\n")}
	if !sc.expect('{') {
		return nil, fmt.Errorf("%w: no opening brace", memory.ErrParse)
	}

	r := &memory.Record{Importance: 0.5, Tier: memory.Tier1}
	hasContent := false

	for {
		if sc.expect('}') {
			break
		}
		key, ok := sc.quoted()
		if !ok || !sc.expect(':') {
			return nil, fmt.Errorf("%w: bad key at offset %d", memory.ErrParse, sc.pos)
		}

		var sval string
		if sc.pos < len(sc.s) && sc.s[sc.pos] == '"' {
			sval, ok = sc.quoted()
		} else {
			sval, ok = sc.bare()
		}
		if !ok {
			return nil, fmt.Errorf("%w: bad value for %q", memory.ErrParse, key)
		}

		switch key {
		case "record_id":
			r.ID = sval
		case "timestamp":
			r.Timestamp, _ = strconv.ParseInt(sval, 10, 64)
		case "type":
			v, _ := strconv.Atoi(sval)
			r.Type = memory.RecordType(v)
		case "importance":
			if v, err := strconv.ParseFloat(sval, 64); err == nil {
				r.Importance = v
			}
		case "content":
			r.Content = sval
			hasContent = true
		case "response":
			r.Response = sval
		case "context":
			r.Context = sval
		case "ci_id":
			r.CIID = sval
		case "session_id":
			r.SessionID = sval
		case "component":
			r.Component = sval
		case "last_accessed":
			r.LastAccessed, _ = strconv.ParseInt(sval, 10, 64)
		case "emotion_intensity":
			r.EmotionIntensity, _ = strconv.ParseFloat(sval, 64)
		case "graph_centrality":
			r.GraphCentrality, _ = strconv.ParseFloat(sval, 64)
		case "marked_important":
			r.MarkedImportant = sval == "true"
		case "marked_forgettable":
			r.MarkedForgettable = sval == "true"
		case "pattern_id":
			r.PatternID = sval
		case "pattern_frequency":
			r.PatternFrequency, _ = strconv.Atoi(sval)
		case "semantic_similarity":
			r.SemanticSimilarity, _ = strconv.ParseFloat(sval, 64)
		case "is_pattern_outlier":
			r.PatternOutlier = sval == "true"
		case "pattern_summary":
			r.PatternSummary = sval
		case "tier":
			v, _ := strconv.Atoi(sval)
			r.Tier = memory.Tier(v)
		case "archived":
			r.Archived = sval == "true"
		}

		if sc.expect('}') {
			break
		}
		if !sc.expect(',') {
			return nil, fmt.Errorf("%w: expected separator after %q", memory.ErrParse, key)
		}
	}

	if !hasContent {
		return nil, fmt.Errorf("%w: missing content", memory.ErrParse)
	}
	return r, nil
}
