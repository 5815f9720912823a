// Package parquetio writes and reads the Parquet archive of report rows.
package parquetio

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/sonobill/internal/model"
)

// Write encodes rows as one Parquet file on w.
func Write(w io.Writer, rows []model.ExportRow) error {
	pw := parquet.NewGenericWriter[model.ExportRow](w,
		parquet.Compression(&parquet.Zstd),
		parquet.KeyValueMetadata("generator", "sonobill"),
	)
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// Totals sums quantities and values over rows.
func Totals(rows []model.ExportRow) (qty, cents int64) {
	for _, r := range rows {
		qty += r.Qty
		cents += r.ValueCents
	}
	return qty, cents
}
