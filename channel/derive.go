package channel

import (
	"strconv"

	"chanplan/strutil"
	"chanplan/subtone"
)

// ScanGlyph marks a channel that is in the scan list.
const ScanGlyph = "⥨"

// Display is the read-only projection of one grid cell.
type Display struct {
	Channel   int
	Title     string
	Bandwidth string
	Scan      string
	Offset    string
	Subtone   string
	VFO       bool
	Empty     bool
}

// DeriveBandwidth returns "N" for 12.5 kHz, "W" for 25 kHz, else "".
func DeriveBandwidth(headers Headers, row []string) string {
	switch GetField(headers, row, HeaderFor(KeyBandwidth)) {
	case "12500":
		return "N"
	case "25000":
		return "W"
	}
	return ""
}

// DeriveScan returns ScanGlyph when the scan flag is "1".
func DeriveScan(headers Headers, row []string) string {
	if GetField(headers, row, HeaderFor(KeyScan)) == "1" {
		return ScanGlyph
	}
	return ""
}

// DeriveOffset returns the duplex sign: "" when tx is 0 or unparsable,
// "-" when tx < rx and "+" otherwise.
func DeriveOffset(headers Headers, row []string) string {
	tx := strutil.AtoiOrZero(GetField(headers, row, HeaderFor(KeyTxFreq)))
	rx := strutil.AtoiOrZero(GetField(headers, row, HeaderFor(KeyRxFreq)))
	if tx == 0 {
		return ""
	}
	if tx < rx {
		return "-"
	}
	return "+"
}

// DeriveSubtone returns the subtone family token from the two subtone
// columns. The rx subtone wins when set; otherwise the tx subtone is used.
func DeriveSubtone(headers Headers, row []string) string {
	v := strutil.AtoiOrZero(GetField(headers, row, HeaderFor(KeyRxSub)))
	if v == 0 {
		v = strutil.AtoiOrZero(GetField(headers, row, HeaderFor(KeyTxSub)))
	}
	return subtone.Family(v)
}

// DeriveSubtoneLegacy is the single-column rule from before tx and rx
// subtones were tracked separately: only the rx subtone counts.
func DeriveSubtoneLegacy(headers Headers, row []string) string {
	return subtone.Family(strutil.AtoiOrZero(GetField(headers, row, HeaderFor(KeyRxSub))))
}

// Derive projects a row into its grid cell tokens.
func Derive(headers Headers, row []string) Display {
	return Display{
		Title:     GetField(headers, row, HeaderFor(KeyTitle)),
		Bandwidth: DeriveBandwidth(headers, row),
		Scan:      DeriveScan(headers, row),
		Offset:    DeriveOffset(headers, row),
		Subtone:   DeriveSubtone(headers, row),
	}
}

// Cells returns the display projection of all TotalChannels grid cells.
// VFO cells carry their fixed labels and are never backed by a row.
func (t *Table) Cells() []Display {
	out := make([]Display, TotalChannels)
	for i := range out {
		ch := i + 1
		switch {
		case ch == VFO1 || ch == VFO2:
			out[i] = Display{Channel: ch, Title: "VFO" + strconv.Itoa(ch-MaxChannels), VFO: true}
		case i < len(t.rows) && t.rows[i].Present:
			d := Derive(t.headers, t.rows[i].Cells)
			d.Channel = ch
			out[i] = d
		default:
			out[i] = Display{Channel: ch, Empty: true}
		}
	}
	return out
}
