// Package selection narrows the entry list to one clinic and date.
package selection

import "github.com/gyeh/sonobill/internal/model"

// Filter returns the entries recorded for clinicID on date, in their
// original order. An empty date matches every date of the clinic.
// The input slice is never modified.
func Filter(entries []model.Entry, clinicID, date string) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, en := range entries {
		if Matches(en, clinicID, date) {
			out = append(out, en)
		}
	}
	return out
}

// Matches reports whether a single entry falls inside the selection.
func Matches(en model.Entry, clinicID, date string) bool {
	if en.ClinicID != clinicID {
		return false
	}
	return date == "" || en.Date == date
}

// Apply filters entries by a model.Selection.
func Apply(entries []model.Entry, sel model.Selection) []model.Entry {
	return Filter(entries, sel.ClinicID, sel.Date)
}

// Dates lists the distinct dates recorded for clinicID, in first-seen
// order. Used to offer report dates that actually have entries.
func Dates(entries []model.Entry, clinicID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, en := range entries {
		if en.ClinicID != clinicID || en.Date == "" || seen[en.Date] {
			continue
		}
		seen[en.Date] = true
		out = append(out, en.Date)
	}
	return out
}
