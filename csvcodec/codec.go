// Package csvcodec reads and writes the channel table CSV text. Unlike
// encoding/csv it keeps blank lines as absent records so channel slots keep
// their position across a round trip, and it never rejects a malformed line.
package csvcodec

import (
	"strings"

	"chanplan/strutil"
)

// Record is one data line. Present is false for a blank line (an empty slot).
type Record struct {
	Fields  []string
	Present bool
}

// Document is a parsed CSV: lower-cased headers plus one record per line.
type Document struct {
	Headers []string
	Records []Record
}

// Purpose: Parse raw CSV text into headers and positional records.
// Key aspects: Normalizes CRLF/CR, lower-cases headers, maps whitespace-only
// lines to absent records.
// Upstream: groups import/load, CLI validate.
// Downstream: ParseLine.
func Parse(text string) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	doc := Document{}
	if len(lines) == 0 {
		return doc
	}
	header := ParseLine(lines[0])
	if len(header) == 1 && strings.TrimSpace(header[0]) == "" {
		header = nil
	}
	doc.Headers = make([]string, 0, len(header))
	for _, h := range header {
		doc.Headers = append(doc.Headers, strutil.NormalizeLower(h))
	}
	doc.Records = make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			doc.Records = append(doc.Records, Record{})
			continue
		}
		doc.Records = append(doc.Records, Record{Fields: ParseLine(line), Present: true})
	}
	return doc
}

// ParseLine splits one line into fields with a single quote-aware pass.
// Inside quotes "" is a literal quote and commas are data; the last field is
// always flushed.
func ParseLine(line string) []string {
	fields := make([]string, 0, 16)
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inQuotes {
			switch {
			case ch == '"' && i+1 < len(line) && line[i+1] == '"':
				cur.WriteByte('"')
				i++
			case ch == '"':
				inQuotes = false
			default:
				cur.WriteByte(ch)
			}
			continue
		}
		switch ch {
		case '"':
			inQuotes = true
		case ',':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	return append(fields, cur.String())
}

// EscapeField quotes a field when it contains a comma, quote, or newline.
func EscapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Purpose: Serialize a document back to CSV text.
// Key aspects: Absent records become empty lines; no trailing newline.
// Upstream: groups save/export.
// Downstream: EscapeField.
func Serialize(doc Document) string {
	var b strings.Builder
	b.WriteString(strings.Join(doc.Headers, ","))
	for _, rec := range doc.Records {
		b.WriteByte('\n')
		if !rec.Present {
			continue
		}
		for i, field := range rec.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeField(field))
		}
	}
	return b.String()
}
