package channel

import (
	"errors"
	"fmt"

	"chanplan/strutil"
)

// ErrNotEditable is returned for slots that cannot hold a channel row.
var ErrNotEditable = errors.New("channel: slot is not editable")

// editableKeys are the fields an edit form may supply; modulation is derived.
var editableKeys = []string{
	KeyTitle, KeyTxFreq, KeyRxFreq, KeyTxSub, KeyRxSub, KeyTxPower, KeyBandwidth,
	KeyScan, KeyTalkAround, KeyPreDeEmphBypass, KeySign, KeyTxDisable, KeyBusyLockout, KeyMute,
}

// EditableKeys returns the logical keys accepted by Commit, in form order.
func EditableKeys() []string {
	return append([]string(nil), editableKeys...)
}

// defaultCandidate seeds the form for an empty slot.
func defaultCandidate() Candidate {
	c := Candidate{
		KeyTitle:     "",
		KeyTxFreq:    "0",
		KeyRxFreq:    "0",
		KeyTxSub:     "0",
		KeyRxSub:     "0",
		KeyTxPower:   "H",
		KeyBandwidth: "25000",
	}
	for _, key := range FlagKeys {
		c[key] = "0"
	}
	return c
}

// Candidate returns the editable values of a slot. Empty slots, and columns
// the table does not have yet, come back with form defaults.
func (t *Table) Candidate(slot int) Candidate {
	c := defaultCandidate()
	row, ok := t.Get(slot)
	if !ok {
		return c
	}
	for _, key := range editableKeys {
		header := HeaderFor(key)
		if !t.headers.Has(header) {
			continue
		}
		c[key] = GetField(t.headers, row.Cells, header)
	}
	return c
}

// Purpose: Validate and store an edited record at slot.
// Key aspects: Nothing changes when validation fails. On success the header
// set is widened to the canonical columns, candidate fields are written, and
// rx/tx modulation are recomputed from the stored frequencies.
// Upstream: ui edit form save, commands SET.
// Downstream: ValidateStrict, WidenHeaders, SetField, Modulation.
func (t *Table) Commit(slot int, c Candidate) (Result, error) {
	if slot < 0 || slot >= MaxChannels {
		return Result{}, fmt.Errorf("%w: channel %d", ErrNotEditable, slot+1)
	}
	res := ValidateStrict(c)
	if !res.Valid {
		return res, nil
	}
	t.WidenHeaders()

	var cells []string
	if row, ok := t.Get(slot); ok {
		cells = row.Cells
	} else {
		cells = make([]string, len(t.headers))
		base := defaultCandidate()
		for i, header := range t.headers {
			cells[i] = DefaultCell
			for key, value := range base {
				if HeaderFor(key) == header {
					cells[i] = value
				}
			}
		}
	}
	for _, key := range editableKeys {
		value, ok := c[key]
		if !ok {
			continue
		}
		cells = SetField(t.headers, cells, HeaderFor(key), value)
	}
	rx := strutil.AtoiOrZero(GetField(t.headers, cells, HeaderFor(KeyRxFreq)))
	tx := strutil.AtoiOrZero(GetField(t.headers, cells, HeaderFor(KeyTxFreq)))
	cells = SetField(t.headers, cells, HeaderFor(KeyRxModulation), Modulation(rx))
	cells = SetField(t.headers, cells, HeaderFor(KeyTxModulation), Modulation(tx))

	t.SetRow(slot, cells)
	return res, nil
}
