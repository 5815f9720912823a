package model

// ExportRow is the flat archival shape of a DerivedRow, used by the Parquet
// and spreadsheet exports. Money is int64 cents.
type ExportRow struct {
	EntryID     string  `parquet:"entry_id"`
	ClinicID    string  `parquet:"clinic_id"`
	ClinicName  string  `parquet:"clinic_name"`
	ClinicPlace *string `parquet:"clinic_place,optional"`
	ClinicCity  *string `parquet:"clinic_city,optional"`
	Date        string  `parquet:"date"`
	ExamRef     string  `parquet:"exam_ref"`
	ExamKind    string  `parquet:"exam_kind"`
	ExamLabel   string  `parquet:"exam_label"`
	Composition string  `parquet:"composition"`
	Qty         int64   `parquet:"qty"`
	ValueCents  int64   `parquet:"value_cents"`
	Note        *string `parquet:"note,optional"`
}

// ExportColumns returns the required column names of the archival schema.
func ExportColumns() []string {
	return []string{
		"entry_id",
		"clinic_id",
		"date",
		"exam_ref",
		"exam_label",
		"qty",
		"value_cents",
	}
}
