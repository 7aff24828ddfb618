package subtone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chanplan/strutil"
)

// Kind identifies the subtone family of a stored value.
type Kind int

const (
	Off Kind = iota
	CTCSS
	DCS
)

func (k Kind) String() string {
	switch k {
	case CTCSS:
		return "ctcss"
	case DCS:
		return "dcs"
	default:
		return "off"
	}
}

// Tone is a classified stored subtone value.
type Tone struct {
	Kind  Kind
	Value int
}

var errBadTone = errors.New("subtone: not a CTCSS tone or DCS code")

// Classify maps a stored value to off, a CTCSS tone, or a DCS code.
// Values in neither table resolve to Off; IsValid is the strict check.
func Classify(stored int) Tone {
	if stored == 0 {
		return Tone{Kind: Off}
	}
	if indexOf(CTCSSStored, stored) >= 0 {
		return Tone{Kind: CTCSS, Value: stored}
	}
	if indexOf(DCSCodes, stored) >= 0 {
		return Tone{Kind: DCS, Value: stored}
	}
	return Tone{Kind: Off}
}

// ClassifyString parses a stored cell and classifies it. Non-numeric text is Off.
func ClassifyString(cell string) Tone {
	return Classify(strutil.AtoiOrZero(cell))
}

// IsValid reports whether stored is 0 or an exact table entry.
func IsValid(stored int) bool {
	return stored == 0 || indexOf(CTCSSStored, stored) >= 0 || indexOf(DCSCodes, stored) >= 0
}

// Family returns the short grid token for a stored value: "" for 0,
// "DTS" below CTCSSThreshold and "CTC" at or above it. Only magnitude is
// used, so out-of-table values still get a family.
func Family(stored int) string {
	if stored == 0 {
		return ""
	}
	if stored < CTCSSThreshold {
		return "DTS"
	}
	return "CTC"
}

// String renders the tone for forms: "Off", "88.5" or "D023".
func (t Tone) String() string {
	switch t.Kind {
	case CTCSS:
		return strconv.FormatFloat(float64(t.Value)/100, 'f', 1, 64)
	case DCS:
		return fmt.Sprintf("D%03d", t.Value)
	default:
		return "Off"
	}
}

// ParseDisplay converts a form value back to its stored integer. It accepts
// "Off", a Hz value ("88.5"), a D-prefixed DCS code ("D023"), or an already
// stored integer ("8850", "23"). The result is checked with IsValid.
func ParseDisplay(text string) (int, error) {
	s := strutil.NormalizeUpper(text)
	switch {
	case s == "" || s == "OFF" || s == "0":
		return 0, nil
	case strings.HasPrefix(s, "D"):
		code, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSuffix(s[1:], "N"), "I"))
		if err != nil || indexOf(DCSCodes, code) < 0 {
			return 0, fmt.Errorf("%w: %q", errBadTone, text)
		}
		return code, nil
	case strings.Contains(s, "."):
		hz, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errBadTone, text)
		}
		stored := scaleTones([]float64{hz})[0]
		if indexOf(CTCSSStored, stored) < 0 {
			return 0, fmt.Errorf("%w: %q", errBadTone, text)
		}
		return stored, nil
	}
	stored, err := strconv.Atoi(s)
	if err != nil || !IsValid(stored) {
		return 0, fmt.Errorf("%w: %q", errBadTone, text)
	}
	return stored, nil
}

// Options lists every selectable stored value in form order: Off, the CTCSS
// tones, then the DCS codes.
func Options() []Tone {
	out := make([]Tone, 0, 1+len(CTCSSStored)+len(DCSCodes))
	out = append(out, Tone{Kind: Off})
	for _, v := range CTCSSStored {
		out = append(out, Tone{Kind: CTCSS, Value: v})
	}
	for _, v := range DCSCodes {
		out = append(out, Tone{Kind: DCS, Value: v})
	}
	return out
}
