package strutil

import (
	"strconv"
	"strings"
)

// NormalizeUpper trims surrounding whitespace and converts to upper case.
// Use for power levels, command verbs, and other tokens where case is not significant.
func NormalizeUpper(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// NormalizeLower trims surrounding whitespace and converts to lower case.
// CSV header names are compared in this form.
func NormalizeLower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// IsPrintableASCII reports whether every byte of value is in 0x20-0x7E.
// An empty string is printable.
func IsPrintableASCII(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// ParseIntPrefix parses a base-10 integer prefix the way lenient CSV readers
// do: surrounding whitespace and a sign are accepted and parsing stops at the
// first non-digit. ok is false when no digit was consumed or the prefix does
// not fit in an int.
func ParseIntPrefix(value string) (n int, ok bool) {
	s := strings.TrimSpace(value)
	start := 0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		start = 1
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// AtoiOrZero is ParseIntPrefix with non-numeric input mapped to 0.
func AtoiOrZero(value string) int {
	n, _ := ParseIntPrefix(value)
	return n
}
