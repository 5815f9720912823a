package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/sonobill/internal/normalize"
)

// Sheet names of the workbook export.
const (
	SheetDetail       = "Exames do dia"
	SheetEquivalence  = "Equivalências"
	SheetConsolidated = "Consolidado"
)

const moneyFormat = `"R$" #,##0.00`

// WriteXLSX writes the three report tables as one workbook. Money cells
// hold numbers with a currency format, so spreadsheets can sum them.
func (r *Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(moneyFormat)})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	v := r.Valuation
	sheets := []struct {
		name     string
		header   []any
		rows     [][]any
		moneyCol string
	}{
		{
			name:     SheetDetail,
			header:   []any{"Unidade", "Data do atendimento", "Tipo de exame", "Observações", "Quantidade", "Equivalência", "Valor parcial"},
			moneyCol: "G",
		},
		{
			name:     SheetEquivalence,
			header:   []any{"Base", "Quantidade", "Valor total"},
			moneyCol: "C",
		},
		{
			name:     SheetConsolidated,
			header:   []any{"Tipo", "Quantidade", "Subtotal"},
			moneyCol: "C",
		},
	}
	for _, row := range v.Rows {
		export := normalize.ToExportRow(&row, r.Clinic)
		sheets[0].rows = append(sheets[0].rows, []any{
			export.ClinicName, normalize.DayMonthYear(export.Date), export.ExamLabel,
			row.Note, export.Qty, export.Composition, cents(export.ValueCents),
		})
	}
	for _, t := range v.Equivalence {
		sheets[1].rows = append(sheets[1].rows, []any{t.Unit.Name, t.Qty, cents(t.Cents)})
	}
	if len(v.Equivalence) > 0 {
		sheets[1].rows = append(sheets[1].rows, []any{"Total geral", nil, cents(r.EquivalenceTotal())})
	}
	for _, b := range v.Consolidated {
		sheets[2].rows = append(sheets[2].rows, []any{b.Label, b.Qty, cents(b.Cents)})
	}
	sheets[2].rows = append(sheets[2].rows, []any{"Total geral", v.TotalQty, cents(v.GrandTotal)})

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
			return fmt.Errorf("write %s header: %w", s.name, err)
		}
		last, _ := excelize.ColumnNumberToName(len(s.header))
		if err := f.SetCellStyle(s.name, "A1", last+"1", bold); err != nil {
			return fmt.Errorf("style %s header: %w", s.name, err)
		}
		for j, row := range s.rows {
			cell := fmt.Sprintf("A%d", j+2)
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", s.name, j+1, err)
			}
		}
		if len(s.rows) > 0 {
			end := fmt.Sprintf("%s%d", s.moneyCol, len(s.rows)+1)
			if err := f.SetCellStyle(s.name, s.moneyCol+"2", end, money); err != nil {
				return fmt.Errorf("style %s money: %w", s.name, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cents converts to a float for the spreadsheet cell only.
func cents(c int64) float64 {
	return float64(c) / 100
}

func strPtr(s string) *string { return &s }
