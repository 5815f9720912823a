package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gyeh/sonobill/internal/normalize"
)

// TextLines renders the print form of the report as plain lines. The PDF
// capture and the terminal output both start from here.
func (r *Report) TextLines() []string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	v := r.Valuation

	add("%s", r.Title)
	add("%s", r.ClinicLine)
	add("Data do atendimento: %s", r.DateLabel)
	add("Relatório emitido em: %s", r.GeneratedLabel())
	add("Total de exames: %d", v.ExamCount)
	add("Valor convertido: %s", normalize.BRL(v.GrandTotal))
	add("")

	add("Observações")
	if len(r.Observations) == 0 {
		add("  Sem observações registradas para esta data.")
	}
	for _, o := range r.Observations {
		add("  %s", o)
	}
	add("")

	add("Exames do dia")
	if len(v.Rows) == 0 {
		add("  Nenhum lançamento encontrado para a data selecionada.")
	} else {
		lines = append(lines, table(
			[]string{"Tipo de exame", "Observações", "Qtde", "Equivalência", "Parcial"},
			func(emit func(...string)) {
				for _, row := range v.Rows {
					note := row.Note
					if note == "" {
						note = "—"
					}
					emit(row.Label, note, fmt.Sprint(row.Entry.Qty), row.Composition, normalize.BRL(row.ValueCents))
				}
			})...)
	}
	add("")

	add("Equivalências")
	if len(v.Equivalence) == 0 {
		add("  Ainda não há consolidação para esta unidade/data.")
	} else {
		lines = append(lines, table(
			[]string{"Base", "Quantidade", "Valor total"},
			func(emit func(...string)) {
				for _, t := range v.Equivalence {
					emit(t.Unit.Name, fmt.Sprint(t.Qty), normalize.BRL(t.Cents))
				}
				emit("Total geral", "", normalize.BRL(r.EquivalenceTotal()))
			})...)
	}
	add("")

	add("Relatório consolidado (por tipo de exame)")
	if len(v.Consolidated) == 0 {
		add("  Sem dados para consolidar.")
	} else {
		lines = append(lines, table(
			[]string{"Tipo", "Quantidade", "Subtotal"},
			func(emit func(...string)) {
				for _, b := range v.Consolidated {
					emit(b.Label, fmt.Sprint(b.Qty), normalize.BRL(b.Cents))
				}
				emit("Total geral", fmt.Sprint(v.TotalQty), normalize.BRL(v.GrandTotal))
			})...)
	}

	if r.Footnote != "" {
		add("")
		add("%s", r.Footnote)
	}
	return lines
}

// table lays out rows in aligned columns, indented by two spaces.
func table(header []string, rows func(emit func(...string))) []string {
	var buf lineBuffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	write := func(cells ...string) {
		fmt.Fprint(tw, "  ")
		for i, c := range cells {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	write(header...)
	rows(write)
	tw.Flush()
	return buf.lines()
}

// WriteText writes the print form to w.
func (r *Report) WriteText(w io.Writer) error {
	for _, l := range r.TextLines() {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
