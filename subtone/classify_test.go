package subtone

import (
	"errors"
	"testing"
)

func TestTableSizes(t *testing.T) {
	if len(CTCSSTones) != 54 {
		t.Fatalf("expected 54 CTCSS tones, got %d", len(CTCSSTones))
	}
	if len(DCSCodes) != 104 {
		t.Fatalf("expected 104 DCS codes, got %d", len(DCSCodes))
	}
}

func TestTablesAreDisjoint(t *testing.T) {
	for _, v := range CTCSSStored {
		if v < CTCSSThreshold {
			t.Fatalf("scaled CTCSS value %d below threshold", v)
		}
		if indexOf(DCSCodes, v) >= 0 {
			t.Fatalf("value %d appears in both tables", v)
		}
	}
	for _, code := range DCSCodes {
		if code >= CTCSSThreshold {
			t.Fatalf("DCS code %d reaches CTCSS range", code)
		}
	}
}

func TestScalingRoundsFloatNoise(t *testing.T) {
	// 69.3*100 is 6929.999... in binary floating point.
	if CTCSSStored[1] != 6930 {
		t.Fatalf("expected 6930, got %d", CTCSSStored[1])
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   int
		kind Kind
	}{
		{0, Off},
		{6700, CTCSS},
		{8850, CTCSS},
		{25410, CTCSS},
		{23, DCS},
		{754, DCS},
		{24, Off},
		{8851, Off},
		{-5, Off},
	}
	for _, tc := range cases {
		got := Classify(tc.in)
		if got.Kind != tc.kind {
			t.Fatalf("Classify(%d) kind=%v, want %v", tc.in, got.Kind, tc.kind)
		}
		if tc.kind == Off && got.Value != 0 {
			t.Fatalf("Classify(%d) off value=%d, want 0", tc.in, got.Value)
		}
	}
}

func TestClassifyStringNonNumericIsOff(t *testing.T) {
	if got := ClassifyString("abc"); got.Kind != Off {
		t.Fatalf("expected off, got %v", got.Kind)
	}
	if got := ClassifyString(" 8850 "); got.Kind != CTCSS {
		t.Fatalf("expected ctcss, got %v", got.Kind)
	}
}

func TestIsValidIsStrict(t *testing.T) {
	if !IsValid(0) || !IsValid(8850) || !IsValid(23) {
		t.Fatalf("expected table entries to be valid")
	}
	if IsValid(24) || IsValid(9999) {
		t.Fatalf("expected out-of-table values to be invalid")
	}
}

func TestFamilyThreshold(t *testing.T) {
	if got := Family(6700); got != "CTC" {
		t.Fatalf("Family(6700)=%q, want CTC", got)
	}
	if got := Family(6699); got != "DTS" {
		t.Fatalf("Family(6699)=%q, want DTS", got)
	}
	if got := Family(0); got != "" {
		t.Fatalf("Family(0)=%q, want empty", got)
	}
}

func TestToneStringAndParseDisplay(t *testing.T) {
	cases := []struct {
		tone Tone
		text string
	}{
		{Tone{Kind: Off}, "Off"},
		{Tone{Kind: CTCSS, Value: 8850}, "88.5"},
		{Tone{Kind: CTCSS, Value: 10000}, "100.0"},
		{Tone{Kind: DCS, Value: 23}, "D023"},
	}
	for _, tc := range cases {
		if got := tc.tone.String(); got != tc.text {
			t.Fatalf("String()=%q, want %q", got, tc.text)
		}
		stored, err := ParseDisplay(tc.text)
		if err != nil {
			t.Fatalf("ParseDisplay(%q): %v", tc.text, err)
		}
		if stored != tc.tone.Value {
			t.Fatalf("ParseDisplay(%q)=%d, want %d", tc.text, stored, tc.tone.Value)
		}
	}
}

func TestParseDisplayRejectsUnknown(t *testing.T) {
	for _, in := range []string{"88.6", "D024", "24", "tone"} {
		if _, err := ParseDisplay(in); !errors.Is(err, errBadTone) {
			t.Fatalf("ParseDisplay(%q) expected errBadTone, got %v", in, err)
		}
	}
}

func TestOptionsCoverBothTables(t *testing.T) {
	opts := Options()
	if len(opts) != 1+54+104 {
		t.Fatalf("unexpected option count %d", len(opts))
	}
	if opts[0].Kind != Off || opts[1].Value != 6700 || opts[len(opts)-1].Value != 754 {
		t.Fatalf("unexpected option ordering")
	}
}
