// Package channel holds the in-memory channel table: header-driven field
// access, display derivation, validation of edited records, and the reorder
// used by drag-and-drop.
package channel

// Slot layout of the radio's channel memory.
const (
	MaxChannels   = 30 // slots backed by CSV rows
	TotalChannels = 32 // MaxChannels plus the two VFO slots
	VFO1          = 31
	VFO2          = 32
)

// DefaultCell fills columns added to existing rows by WidenHeaders.
const DefaultCell = "0"

// Column pairs a logical field key with its CSV header name.
type Column struct {
	Key    string
	Header string
	Label  string
}

// Logical field keys.
const (
	KeyTitle           = "title"
	KeyTxFreq          = "tx_freq"
	KeyRxFreq          = "rx_freq"
	KeyTxSub           = "tx_sub_audio"
	KeyRxSub           = "rx_sub_audio"
	KeyTxPower         = "tx_power"
	KeyBandwidth       = "bandwidth"
	KeyScan            = "scan"
	KeyTalkAround      = "talk_around"
	KeyPreDeEmphBypass = "pre_de_emph_bypass"
	KeySign            = "sign"
	KeyTxDisable       = "tx_dis"
	KeyBusyLockout     = "bclo"
	KeyMute            = "mute"
	KeyRxModulation    = "rx_modulation"
	KeyTxModulation    = "tx_modulation"
)

// CanonicalColumns is the column order of a freshly created table.
var CanonicalColumns = []Column{
	{KeyTitle, "title", "Title"},
	{KeyTxFreq, "tx_freq", "TX Freq"},
	{KeyRxFreq, "rx_freq", "RX Freq"},
	{KeyTxSub, "tx_sub_audio(ctcss=freq/dcs=number)", "TX Subtone"},
	{KeyRxSub, "rx_sub_audio(ctcss=freq/dcs=number)", "RX Subtone"},
	{KeyTxPower, "tx_power(h/m/l)", "TX Power"},
	{KeyBandwidth, "bandwidth(12500/25000)", "Bandwidth"},
	{KeyScan, "scan(0=off/1=on)", "Scan"},
	{KeyTalkAround, "talk around(0=off/1=on)", "Talk Around"},
	{KeyPreDeEmphBypass, "pre_de_emph_bypass(0=off/1=on)", "Pre/De-Emphasis Bypass"},
	{KeySign, "sign(0=off/1=on)", "Sign"},
	{KeyTxDisable, "tx_dis(0=off/1=on)", "TX Disable"},
	{KeyBusyLockout, "bclo(0=off/1=on)", "BCLO"},
	{KeyMute, "mute(0=off/1=on)", "Mute"},
	{KeyRxModulation, "rx_modulation(0=fm/1=am)", "RX Modulation"},
	{KeyTxModulation, "tx_modulation(0=fm/1=am)", "TX Modulation"},
}

// FlagKeys are the seven binary on/off fields, in form order.
var FlagKeys = []string{
	KeyScan, KeyTalkAround, KeyPreDeEmphBypass, KeySign, KeyTxDisable, KeyBusyLockout, KeyMute,
}

var (
	headerByKey = make(map[string]string, len(CanonicalColumns))
	columnByKey = make(map[string]Column, len(CanonicalColumns))
)

func init() {
	for _, col := range CanonicalColumns {
		headerByKey[col.Key] = col.Header
		columnByKey[col.Key] = col
	}
}

// HeaderFor returns the CSV header for a logical key, or "" when unknown.
func HeaderFor(key string) string {
	return headerByKey[key]
}

// ColumnFor looks up a canonical column by logical key.
func ColumnFor(key string) (Column, bool) {
	col, ok := columnByKey[key]
	return col, ok
}

// CanonicalHeaders returns a fresh copy of the canonical header names.
func CanonicalHeaders() Headers {
	out := make(Headers, len(CanonicalColumns))
	for i, col := range CanonicalColumns {
		out[i] = col.Header
	}
	return out
}

// IsVFO reports whether a 1-based channel number is one of the fixed VFO slots.
func IsVFO(channel int) bool {
	return channel == VFO1 || channel == VFO2
}
