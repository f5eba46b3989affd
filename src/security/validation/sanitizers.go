// src/validation/sanitizers.go
package validation

import (
	"strings"
	"unicode"
)

const MaxNameLength = 100

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}

// SanitizeName cleans a user supplied display name: unprintable runes and
// surrounding whitespace removed, length capped at MaxNameLength runes.
func SanitizeName(s string) string {
	s = strings.TrimSpace(StripUnprintable(s))
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > MaxNameLength {
		s = strings.TrimSpace(string(r[:MaxNameLength]))
	}
	return s
}
