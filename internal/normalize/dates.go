package normalize

import (
	"strings"
	"time"
)

const (
	isoLayout = "2006-01-02"
	dmyLayout = "02-01-2006"
)

// Date formats accepted from user input.
var dateFormats = []string{
	isoLayout,
	dmyLayout,
	"02/01/2006",
	"2/1/2006",
	"2006/01/02",
}

// ParseDate parses a user-entered date in any accepted format and returns
// it in ISO form. Returns ok=false if the input is empty or unparseable.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoLayout), true
		}
	}
	return "", false
}

// IsISODate reports whether s is a valid yyyy-mm-dd date.
func IsISODate(s string) bool {
	_, err := time.Parse(isoLayout, s)
	return err == nil && len(s) == len(isoLayout)
}

// DayMonthYear renders an ISO date as dd-mm-yyyy. Anything that is not an
// ISO date is returned unchanged.
func DayMonthYear(iso string) string {
	if !IsISODate(iso) {
		return iso
	}
	t, _ := time.Parse(isoLayout, iso)
	return t.Format(dmyLayout)
}

// ISODate formats t as yyyy-mm-dd in t's location.
func ISODate(t time.Time) string {
	return t.Format(isoLayout)
}
