package parquetio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/sonobill/internal/model"
)

func strp(s string) *string { return &s }

func sampleRows() []model.ExportRow {
	return []model.ExportRow{
		{EntryID: "1", ClinicID: "cispara", ClinicName: "CISPARÁ", ClinicCity: strp("Perdigão/MG"), Date: "2025-03-10",
			ExamRef: "eq:obst_rot", ExamKind: "equivalence", ExamLabel: "Obstétrico de rotina (pré-natal)",
			Composition: "1× Abdominal total", Qty: 1, ValueCents: 13438},
		{EntryID: "2", ClinicID: "cispara", ClinicName: "CISPARÁ", Date: "2025-03-10",
			ExamRef: "direct:ultrassonografia-tireoide", ExamKind: "direct", ExamLabel: "Ultrassonografia - tireoide",
			Composition: model.NoComposition, Qty: 2, ValueCents: 25980, Note: strp("nódulo")},
	}
}

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(f, sampleRows()); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.NumRows() != 2 {
		t.Errorf("NumRows = %d", r.NumRows())
	}
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("read %d rows", len(rows))
	}
	if rows[1].Note == nil || *rows[1].Note != "nódulo" {
		t.Errorf("note = %v", rows[1].Note)
	}
	if rows[0].Note != nil {
		t.Errorf("empty note should stay null, got %q", *rows[0].Note)
	}
	if rows[0].ClinicPlace != nil || rows[0].ClinicCity == nil {
		t.Errorf("optional clinic fields = %v %v", rows[0].ClinicPlace, rows[0].ClinicCity)
	}
	qty, cents := Totals(rows)
	if qty != 3 || cents != 39418 {
		t.Errorf("Totals = %d, %d", qty, cents)
	}
}

type partialRow struct {
	EntryID string `parquet:"entry_id"`
	Date    string `parquet:"date"`
}

func TestValidateSchema_MissingColumns(t *testing.T) {
	err := ValidateSchema(parquet.SchemaOf(partialRow{}))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, col := range []string{"clinic_id", "value_cents", "qty"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q does not name %s", err, col)
		}
	}
	if strings.Contains(err.Error(), "entry_id") {
		t.Errorf("error names a present column: %v", err)
	}
}

func TestValidateSchema_ExportRow(t *testing.T) {
	if err := ValidateSchema(parquet.SchemaOf(model.ExportRow{})); err != nil {
		t.Error(err)
	}
}

func TestOpen_RejectsForeignFile(t *testing.T) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[partialRow](&buf)
	if _, err := w.Write([]partialRow{{EntryID: "x", Date: "2025-01-01"}}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "foreign.parquet")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected schema error")
	}
}
