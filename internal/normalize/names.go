package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var cellBreaks = regexp.MustCompile(`[;\r\n]+`)

// TrimNote trims surrounding whitespace from a free-text note.
func TrimNote(s string) string {
	return strings.TrimSpace(s)
}

// SanitizeCell replaces the CSV delimiter and line breaks with a single
// space and trims the result.
func SanitizeCell(s string) string {
	return strings.TrimSpace(cellBreaks.ReplaceAllString(s, " "))
}

// CapitalizeFirst upper-cases the first rune of s.
func CapitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
