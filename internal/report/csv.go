package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
)

// CSVVariant selects the CSV column set.
type CSVVariant int

const (
	// CSVDetailed carries the per-row value column.
	CSVDetailed CSVVariant = iota
	// CSVCompact omits the value column.
	CSVCompact
)

const (
	csvDelimiter  = ';'
	byteOrderMark = "\uFEFF"
)

// CSVHeader returns the header row for v.
func CSVHeader(v CSVVariant) []string {
	h := []string{"Unidade", "Local", "Município", "Data do atendimento", "Tipo de exame", "Observações", "Quantidade", "Equivalência"}
	if v == CSVDetailed {
		h = append(h, "Valor parcial (R$)")
	}
	return h
}

// CSVRecord returns the CSV cells for one row.
func CSVRecord(row model.DerivedRow, clinic model.Clinic, v CSVVariant) []string {
	name := clinic.Name
	if name == "" {
		name = row.Entry.ClinicID
	}
	rec := []string{
		normalize.SanitizeCell(name),
		normalize.SanitizeCell(clinic.Place),
		normalize.SanitizeCell(clinic.City),
		normalize.DayMonthYear(row.Entry.Date),
		normalize.SanitizeCell(row.Label),
		normalize.SanitizeCell(row.Note),
		strconv.FormatInt(row.Entry.Qty, 10),
		row.Composition,
	}
	if v == CSVDetailed {
		rec = append(rec, normalize.DecimalString(row.ValueCents, ","))
	}
	return rec
}

// WriteCSV writes the report rows as semicolon-separated UTF-8 with a
// leading byte-order mark, one line per row in report order.
func (r *Report) WriteCSV(w io.Writer, v CSVVariant) error {
	if _, err := io.WriteString(w, byteOrderMark); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = csvDelimiter
	if err := cw.Write(CSVHeader(v)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range r.Valuation.Rows {
		if err := cw.Write(CSVRecord(row, r.Clinic, v)); err != nil {
			return fmt.Errorf("write row %s: %w", row.Entry.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
