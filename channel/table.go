package channel

import (
	"chanplan/csvcodec"
)

// Row is one channel slot. An absent row is an empty slot; its Cells are unused.
type Row struct {
	Cells   []string
	Present bool
}

// Table is the canonical in-memory channel set: headers plus positional slots.
// Slot i (0-based) is display channel i+1. Slots past MaxChannels are not
// shown but are kept and moved like any other slot.
type Table struct {
	headers Headers
	rows    []Row
}

// NewTable returns an empty table with no headers; the first commit widens it.
func NewTable() *Table {
	return &Table{}
}

// NewEmpty returns a table with the canonical headers and no rows.
func NewEmpty() *Table {
	return &Table{headers: CanonicalHeaders()}
}

// FromDocument adopts a parsed CSV document.
func FromDocument(doc csvcodec.Document) *Table {
	t := &Table{
		headers: append(Headers(nil), doc.Headers...),
		rows:    make([]Row, len(doc.Records)),
	}
	for i, rec := range doc.Records {
		if !rec.Present {
			continue
		}
		t.rows[i] = Row{Cells: append([]string(nil), rec.Fields...), Present: true}
	}
	return t
}

// ToDocument converts the table back to a CSV document, sharing no memory.
func (t *Table) ToDocument() csvcodec.Document {
	doc := csvcodec.Document{
		Headers: append([]string(nil), t.headers...),
		Records: make([]csvcodec.Record, len(t.rows)),
	}
	for i, row := range t.rows {
		if !row.Present {
			continue
		}
		doc.Records[i] = csvcodec.Record{Fields: append([]string(nil), row.Cells...), Present: true}
	}
	return doc
}

// Headers returns a copy of the header set.
func (t *Table) Headers() Headers {
	return append(Headers(nil), t.headers...)
}

// Len is the length of the backing slot sequence, including absent slots.
func (t *Table) Len() int {
	return len(t.rows)
}

// IsEmpty reports whether the table has neither headers nor rows.
func (t *Table) IsEmpty() bool {
	return len(t.headers) == 0 && len(t.rows) == 0
}

// Get returns the slot's row and whether it is present.
func (t *Table) Get(slot int) (Row, bool) {
	if slot < 0 || slot >= len(t.rows) || !t.rows[slot].Present {
		return Row{}, false
	}
	row := t.rows[slot]
	return Row{Cells: append([]string(nil), row.Cells...), Present: true}, true
}

// Field reads a named column from a slot; absent slots read as "".
func (t *Table) Field(slot int, name string) string {
	if slot < 0 || slot >= len(t.rows) || !t.rows[slot].Present {
		return ""
	}
	return GetField(t.headers, t.rows[slot].Cells, name)
}

// SetRow stores cells at slot, growing the slot sequence with absent rows.
func (t *Table) SetRow(slot int, cells []string) {
	if slot < 0 {
		return
	}
	t.grow(slot + 1)
	t.rows[slot] = Row{Cells: append([]string(nil), cells...), Present: true}
}

// Clear marks slot empty. Later slots keep their positions.
func (t *Table) Clear(slot int) {
	if slot < 0 || slot >= len(t.rows) {
		return
	}
	t.rows[slot] = Row{}
}

// Populated counts present rows among the displayed slots.
func (t *Table) Populated() int {
	n := 0
	for i, row := range t.rows {
		if i >= MaxChannels {
			break
		}
		if row.Present {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{headers: t.Headers(), rows: make([]Row, len(t.rows))}
	for i, row := range t.rows {
		if row.Present {
			out.rows[i] = Row{Cells: append([]string(nil), row.Cells...), Present: true}
		}
	}
	return out
}

// Purpose: Add any missing canonical columns to the header set.
// Key aspects: New columns are appended in canonical order; every present row
// is first padded to the old width with "" and then gets DefaultCell for each
// added column. Returns the number of columns added.
// Upstream: Commit, groups load/import.
// Downstream: none.
func (t *Table) WidenHeaders() int {
	oldWidth := len(t.headers)
	for _, col := range CanonicalColumns {
		if !t.headers.Has(col.Header) {
			t.headers = append(t.headers, col.Header)
		}
	}
	added := len(t.headers) - oldWidth
	if added == 0 {
		return 0
	}
	for i := range t.rows {
		if !t.rows[i].Present {
			continue
		}
		cells := t.rows[i].Cells
		for len(cells) < oldWidth {
			cells = append(cells, "")
		}
		for len(cells) < len(t.headers) {
			cells = append(cells, DefaultCell)
		}
		t.rows[i].Cells = cells
	}
	return added
}

// Purpose: Move a populated channel onto another slot (drag-and-drop).
// Key aspects: An empty target takes the row and the source is cleared with
// no other slot moving. An occupied target gets a splice: the row is removed
// (later rows shift up) and reinserted at the target index (rows from there
// shift down). Returns false when nothing changed.
// Upstream: ui grid drag, commands MOVE.
// Downstream: none.
func (t *Table) Reorder(source, target int) bool {
	if source == target || source < 0 || target < 0 {
		return false
	}
	if source >= len(t.rows) || !t.rows[source].Present {
		return false
	}
	if target >= len(t.rows) || !t.rows[target].Present {
		t.grow(target + 1)
		t.rows[target] = t.rows[source]
		t.rows[source] = Row{}
		return true
	}
	moved := t.rows[source]
	rows := append(t.rows[:source:source], t.rows[source+1:]...)
	rows = append(rows, Row{})
	copy(rows[target+1:], rows[target:])
	rows[target] = moved
	t.rows = rows
	return true
}

func (t *Table) grow(n int) {
	for len(t.rows) < n {
		t.rows = append(t.rows, Row{})
	}
}
