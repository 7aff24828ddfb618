package channel

import "strings"

// Headers is the ordered, lower-cased column list of a table.
type Headers []string

// Index returns the position of name, or -1.
func (h Headers) Index(name string) int {
	for i, v := range h {
		if v == name {
			return i
		}
	}
	return -1
}

// Has reports whether name is one of the headers.
func (h Headers) Has(name string) bool {
	return h.Index(name) >= 0
}

// GetField returns the trimmed cell for the named column. Missing columns and
// short rows read as "".
func GetField(headers Headers, row []string, name string) string {
	idx := headers.Index(name)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// SetField writes value into the named column, padding row with "" as
// needed. Unknown names are ignored; widen the headers first.
func SetField(headers Headers, row []string, name, value string) []string {
	idx := headers.Index(name)
	if idx < 0 {
		return row
	}
	for len(row) <= idx {
		row = append(row, "")
	}
	row[idx] = value
	return row
}
