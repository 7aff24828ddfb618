package channel

import (
	"unicode/utf8"

	"chanplan/strutil"
	"chanplan/subtone"
)

// MaxTitleLen is the radio's display width for channel names.
const MaxTitleLen = 8

// band is an inclusive frequency range in Hz.
type band struct {
	lo, hi int
}

func (b band) contains(hz int) bool {
	return hz >= b.lo && hz <= b.hi
}

var (
	bandAirVHF = band{88_000_000, 137_000_000}
	band2m     = band{144_000_000, 148_000_000}
	band70cm   = band{420_000_000, 450_000_000}
	bandAM     = band{118_000_000, 137_000_000}

	txBands = []band{band2m, band70cm}
	rxBands = []band{bandAirVHF, band2m, band70cm}
)

// Candidate is an edited record keyed by logical field key. Only keys that
// are present are validated or written.
type Candidate map[string]string

// Result is the outcome of a validation pass. Errors keep rule order.
type Result struct {
	Valid  bool
	Errors []string
}

type flagRule struct {
	key   string
	label string
}

var flagRules = []flagRule{
	{KeyScan, "Scan"},
	{KeyTalkAround, "Talk Around"},
	{KeyPreDeEmphBypass, "Pre/De-Emphasis Bypass"},
	{KeySign, "Sign"},
	{KeyTxDisable, "TX Disable"},
	{KeyBusyLockout, "BCLO"},
	{KeyMute, "Mute"},
}

// Purpose: Check an edited record before it is committed.
// Key aspects: Collects every violated rule instead of stopping at the first;
// unknown subtone values are rejected here even though subtone.Classify
// tolerates them.
// Upstream: Table.Commit, ui edit form, commands SET.
// Downstream: subtone.IsValid.
func Validate(c Candidate) Result {
	var errs []string

	if title, ok := c[KeyTitle]; ok {
		if !strutil.IsPrintableASCII(title) {
			errs = append(errs, "Title must contain only ASCII characters.")
		}
		if utf8.RuneCountInString(title) > MaxTitleLen {
			errs = append(errs, "Title must be 8 characters or fewer.")
		}
	}
	if v, ok := c[KeyTxFreq]; ok && !frequencyAllowed(v, txBands) {
		errs = append(errs, "TX Freq must be 0 or in 144.000-148.000 or 420.000-450.000 MHz.")
	}
	if v, ok := c[KeyRxFreq]; ok && !frequencyAllowed(v, rxBands) {
		errs = append(errs, "RX Freq must be 0 or in 88.000-137.000, 144.000-148.000, or 420.000-450.000 MHz.")
	}
	if v, ok := c[KeyTxSub]; ok && !subtoneAllowed(v) {
		errs = append(errs, "TX Subtone must be 0 (Off), a valid CTCSS tone, or a valid DCS code.")
	}
	if v, ok := c[KeyRxSub]; ok && !subtoneAllowed(v) {
		errs = append(errs, "RX Subtone must be 0 (Off), a valid CTCSS tone, or a valid DCS code.")
	}
	if v, ok := c[KeyTxPower]; ok && v != "H" && v != "M" && v != "L" {
		errs = append(errs, "TX Power must be H, M, or L.")
	}
	if v, ok := c[KeyBandwidth]; ok && v != "12500" && v != "25000" {
		errs = append(errs, "Bandwidth must be 12500 or 25000.")
	}
	for _, rule := range flagRules {
		if v, ok := c[rule.key]; ok && v != "0" && v != "1" {
			errs = append(errs, rule.label+" must be 0 or 1.")
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateStrict is the commit-gating policy; see Validate.
func ValidateStrict(c Candidate) Result {
	return Validate(c)
}

func frequencyAllowed(value string, bands []band) bool {
	hz, ok := strutil.ParseIntPrefix(value)
	if !ok {
		return false
	}
	if hz == 0 {
		return true
	}
	for _, b := range bands {
		if b.contains(hz) {
			return true
		}
	}
	return false
}

func subtoneAllowed(value string) bool {
	v, ok := strutil.ParseIntPrefix(value)
	return ok && subtone.IsValid(v)
}

// Modulation returns "1" (AM) for frequencies inside the 118-137 MHz airband
// and "0" (FM) for everything else.
func Modulation(hz int) string {
	if bandAM.contains(hz) {
		return "1"
	}
	return "0"
}
