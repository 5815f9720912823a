package normalize

import (
	"github.com/gyeh/sonobill/internal/model"
)

// ToExportRow flattens a DerivedRow and its clinic into the archival row
// shape. Empty optional text becomes nil.
func ToExportRow(row *model.DerivedRow, clinic model.Clinic) *model.ExportRow {
	clinicName := clinic.Name
	if clinicName == "" {
		clinicName = row.Entry.ClinicID
	}
	return &model.ExportRow{
		EntryID:     row.Entry.ID,
		ClinicID:    row.Entry.ClinicID,
		ClinicName:  clinicName,
		ClinicPlace: optStr(clinic.Place),
		ClinicCity:  optStr(clinic.City),

		Date:        row.Entry.Date,
		ExamRef:     row.Entry.Exam.String(),
		ExamKind:    row.Entry.Exam.Kind.String(),
		ExamLabel:   row.Label,
		Composition: row.Composition,

		Qty:        row.Entry.Qty,
		ValueCents: row.ValueCents,
		Note:       optStr(row.Note),
	}
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
