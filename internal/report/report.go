// Package report turns one Valuation into the printable report and its
// file forms. Every renderer reads the same Report value; none of them
// recompute totals.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
)

const (
	DefaultTitle  = "Relatório de procedimentos (ultrassonografias)"
	NoClinicLabel = "Unidade não informada"
	NoDateLabel   = "—"
)

// Input is everything Build needs.
type Input struct {
	Title       string
	Clinic      model.Clinic
	Date        string // ISO, or empty when no date is selected
	GeneratedAt time.Time
	Valuation   *model.Valuation
	Catalog     *catalog.Catalog
}

// Report is the assembled report model.
type Report struct {
	Title        string
	Clinic       model.Clinic
	ClinicLine   string
	Date         string
	DateLabel    string
	GeneratedAt  time.Time
	Valuation    *model.Valuation
	Observations []string
	Footnote     string
}

// Build assembles a Report. The valuation is used as is.
func Build(in Input) *Report {
	r := &Report{
		Title:       in.Title,
		Clinic:      in.Clinic,
		ClinicLine:  ClinicLine(in.Clinic),
		Date:        in.Date,
		DateLabel:   NoDateLabel,
		GeneratedAt: in.GeneratedAt,
		Valuation:   in.Valuation,
	}
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if in.Date != "" {
		r.DateLabel = normalize.DayMonthYear(in.Date)
	}
	if r.Valuation == nil {
		r.Valuation = &model.Valuation{}
	}
	for _, row := range r.Valuation.Observations() {
		r.Observations = append(r.Observations, ObservationLine(row))
	}
	if in.Catalog != nil {
		r.Footnote = "* Equivalências fixas: " + in.Catalog.EquivalenceFootnote() + "."
	}
	return r
}

// ClinicLine joins the non-empty clinic name, site and city with " • ".
func ClinicLine(c model.Clinic) string {
	var parts []string
	for _, p := range []string{c.Name, c.Place, c.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return NoClinicLabel
	}
	return strings.Join(parts, " • ")
}

// ObservationLine formats a noted row as "label: note", adding "(N×)"
// after the label when the quantity is above one.
func ObservationLine(row model.DerivedRow) string {
	if row.Entry.Qty > 1 {
		return fmt.Sprintf("%s (%d×): %s", row.Label, row.Entry.Qty, row.Note)
	}
	return row.Label + ": " + row.Note
}

// GeneratedLabel is the generation date in day/month/year form.
func (r *Report) GeneratedLabel() string {
	return r.GeneratedAt.Format("02/01/2006")
}

// ExamCount is the sum of entry quantities.
func (r *Report) ExamCount() int64 { return r.Valuation.ExamCount }

// GrandTotal is the consolidated grand total in cents.
func (r *Report) GrandTotal() int64 { return r.Valuation.GrandTotal }

// EquivalenceTotal sums the equivalence table.
func (r *Report) EquivalenceTotal() int64 {
	var sum int64
	for _, t := range r.Valuation.Equivalence {
		sum += t.Cents
	}
	return sum
}

// Filename returns the download name for ext, e.g.
// "relatorio_exames_10-03-2025.csv".
func Filename(date, ext string) string {
	return "relatorio_exames_" + normalize.DayMonthYear(date) + "." + ext
}
