// Package tier2 implements the digest store: period-bucketed JSONL files,
// the digest builder, and a rebuildable SQLite search index.
package tier2

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lazypower/engram/internal/memory"
)

// Digest lines share the record store's narrow escape contract: quote,
// backslash, \n, \r, \t, fixed field order, no general JSON.

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

func writeString(b *strings.Builder, key, val string) {
	b.WriteByte('"')
	b.WriteString(key)
	b.WriteString(`":"`)
	escape(b, val)
	b.WriteByte('"')
}

func writeArray(b *strings.Builder, key string, items []string) {
	b.WriteByte('"')
	b.WriteString(key)
	b.WriteString(`":[`)
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		escape(b, item)
		b.WriteByte('"')
	}
	b.WriteByte(']')
}

// EncodeDigest renders one digest as a single line without the trailing
// newline.
func EncodeDigest(d *memory.Digest) string {
	var b strings.Builder
	b.WriteByte('{')
	writeString(&b, "digest_id", d.ID)
	fmt.Fprintf(&b, `,"timestamp":%d`, d.Timestamp)
	fmt.Fprintf(&b, `,"period_type":%d`, d.PeriodType)
	b.WriteByte(',')
	writeString(&b, "period_id", d.PeriodID)
	fmt.Fprintf(&b, `,"source_tier":%d`, d.SourceTier)
	fmt.Fprintf(&b, `,"source_record_count":%d`, d.SourceRecordCount)
	b.WriteByte(',')
	writeString(&b, "ci_id", d.CIID)
	fmt.Fprintf(&b, `,"digest_type":%d,`, d.Type)
	writeArray(&b, "themes", d.Themes)
	b.WriteByte(',')
	writeArray(&b, "keywords", d.Keywords)
	b.WriteString(`,"entities":{`)
	writeArray(&b, "files", d.Entities.Files)
	b.WriteByte(',')
	writeArray(&b, "concepts", d.Entities.Concepts)
	b.WriteByte(',')
	writeArray(&b, "people", d.Entities.People)
	b.WriteString(`},`)
	writeString(&b, "summary", d.Summary)
	b.WriteByte(',')
	writeArray(&b, "key_insights", d.KeyInsights)
	fmt.Fprintf(&b, `,"questions_asked":%d,`, d.QuestionsAsked)
	writeArray(&b, "decisions_made", d.DecisionsMade)
	b.WriteString(`,"archived":`)
	b.WriteString(strconv.FormatBool(d.Archived))
	b.WriteByte('}')
	return b.String()
}

// digestScanner walks one digest line. Same shape as the tier1 scanner with
// array and nested-object values added.
type digestScanner struct {
	s   string
	pos int
}

func (sc *digestScanner) expect(c byte) bool {
	if sc.pos >= len(sc.s) || sc.s[sc.pos] != c {
		return false
	}
	sc.pos++
	return true
}

func (sc *digestScanner) peek() byte {
	if sc.pos >= len(sc.s) {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *digestScanner) quoted() (string, bool) {
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

func (sc *digestScanner) bare() (string, bool) {
	start := sc.pos
	for sc.pos < len(sc.s) {
		c := sc.s[sc.pos]
		if c == ',' || c == '}' || c == ']' {
			break
		}
		sc.pos++
	}
	if sc.pos == start {
		return "", false
	}
	return sc.s[start:sc.pos], true
}

func (sc *digestScanner) array() ([]string, bool) {
	if !sc.expect('[') {
		return nil, false
	}
	var items []string
	for {
		if sc.expect(']') {
			return items, true
		}
		item, ok := sc.quoted()
		if !ok {
			return nil, false
		}
		items = append(items, item)
		if sc.expect(']') {
			return items, true
		}
		if !sc.expect(',') {
			return nil, false
		}
	}
}

func (sc *digestScanner) entities() (memory.Entities, bool) {
	var ents memory.Entities
	if !sc.expect('{') {
		return ents, false
	}
	for {
		if sc.expect('}') {
			return ents, true
		}
		key, ok := sc.quoted()
		if !ok || !sc.expect(':') {
			return ents, false
		}
		items, ok := sc.array()
		if !ok {
			return ents, false
		}
		switch key {
		case "files":
			ents.Files = items
		case "concepts":
			ents.Concepts = items
		case "people":
			ents.People = items
		}
		if sc.expect('}') {
			return ents, true
		}
		if !sc.expect(',') {
			return ents, false
		}
	}
}

// DecodeDigest parses one digest line.
func DecodeDigest(line string) (*memory.Digest, error) {
	sc := &digestScanner{s: strings.TrimRight(line, "\r\n")}
	if !sc.expect('{') {
		return nil, fmt.Errorf("%w: no opening brace", memory.ErrParse)
	}

	d := &memory.Digest{SourceTier: memory.Tier1}
	for {
		if sc.expect('}') {
			break
		}
		key, ok := sc.quoted()
		if !ok || !sc.expect(':') {
			return nil, fmt.Errorf("%w: bad key at offset %d", memory.ErrParse, sc.pos)
		}

		switch sc.peek() {
		case '"':
			sval, ok := sc.quoted()
			if !ok {
				return nil, fmt.Errorf("%w: bad string for %q", memory.ErrParse, key)
			}
			switch key {
			case "digest_id":
				d.ID = sval
			case "period_id":
				d.PeriodID = sval
			case "ci_id":
				d.CIID = sval
			case "summary":
				d.Summary = sval
			}
		case '[':
			items, ok := sc.array()
			if !ok {
				return nil, fmt.Errorf("%w: bad array for %q", memory.ErrParse, key)
			}
			switch key {
			case "themes":
				d.Themes = items
			case "keywords":
				d.Keywords = items
			case "key_insights":
				d.KeyInsights = items
			case "decisions_made":
				d.DecisionsMade = items
			}
		case '{':
			ents, ok := sc.entities()
			if !ok {
				return nil, fmt.Errorf("%w: bad entities", memory.ErrParse)
			}
			d.Entities = ents
		default:
			sval, ok := sc.bare()
			if !ok {
				return nil, fmt.Errorf("%w: bad value for %q", memory.ErrParse, key)
			}
			switch key {
			case "timestamp":
				d.Timestamp, _ = strconv.ParseInt(sval, 10, 64)
			case "period_type":
				v, _ := strconv.Atoi(sval)
				d.PeriodType = memory.PeriodType(v)
			case "source_tier":
				v, _ := strconv.Atoi(sval)
				d.SourceTier = memory.Tier(v)
			case "source_record_count":
				d.SourceRecordCount, _ = strconv.Atoi(sval)
			case "digest_type":
				v, _ := strconv.Atoi(sval)
				d.Type = memory.DigestType(v)
			case "questions_asked":
				d.QuestionsAsked, _ = strconv.Atoi(sval)
			case "archived":
				d.Archived = sval == "true"
			}
		}

		if sc.expect('}') {
			break
		}
		if !sc.expect(',') {
			return nil, fmt.Errorf("%w: expected separator after %q", memory.ErrParse, key)
		}
	}

	if d.ID == "" {
		return nil, fmt.Errorf("%w: missing digest_id", memory.ErrParse)
	}
	return d, nil
}
