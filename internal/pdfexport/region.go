// Package pdfexport captures the print region as an image and lays it out
// on A4 pages.
package pdfexport

import "github.com/gyeh/sonobill/internal/report"

// Section is one block of the print region.
type Section struct {
	Name         string
	Lines        []string
	ExportHidden bool // hidden while an export captures the region
	Hidden       bool
}

// Region is the ordered set of sections a capture draws.
type Region struct {
	Sections []*Section
}

// Visible returns the sections that are currently shown.
func (r *Region) Visible() []*Section {
	var out []*Section
	for _, s := range r.Sections {
		if !s.Hidden {
			out = append(out, s)
		}
	}
	return out
}

// HideFlagged hides every export-hidden section and returns a func that
// puts each section back to its previous state.
func (r *Region) HideFlagged() (restore func()) {
	prev := make([]bool, len(r.Sections))
	for i, s := range r.Sections {
		prev[i] = s.Hidden
		if s.ExportHidden {
			s.Hidden = true
		}
	}
	return func() {
		for i, s := range r.Sections {
			s.Hidden = prev[i]
		}
	}
}

// FromReport builds the print region for a report. hints become an
// export-hidden section at the top, the way editing controls sit above the
// printed sheet.
func FromReport(r *report.Report, hints []string) *Region {
	reg := &Region{}
	if len(hints) > 0 {
		reg.Sections = append(reg.Sections, &Section{Name: "hints", Lines: hints, ExportHidden: true})
	}
	reg.Sections = append(reg.Sections, &Section{Name: "report", Lines: r.TextLines()})
	return reg
}
