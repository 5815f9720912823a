// Package export runs the report exports: precondition gate, cross-check,
// render, write.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/parquetio"
	"github.com/gyeh/sonobill/internal/pdfexport"
	"github.com/gyeh/sonobill/internal/report"
)

var (
	ErrNoDate    = errors.New("no report date selected")
	ErrNoEntries = errors.New("no entries for the selected clinic and date")
)

// Phases of an export run.
const (
	PhaseGate   = "gate"
	PhaseVerify = "verify"
	PhaseRender = "render"
	PhaseWrite  = "write"
)

// PhaseError wraps an error with the phase where it occurred.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Gate checks the export preconditions: a selected date and at least one
// entry in the selection.
func Gate(sel model.Selection, v *model.Valuation) error {
	if sel.Date == "" {
		return ErrNoDate
	}
	if v == nil || len(v.Rows) == 0 {
		return ErrNoEntries
	}
	return nil
}

// Request describes one export.
type Request struct {
	Format    Format
	Selection model.Selection
	Report    *report.Report
	Hints     []string // export-hidden lines drawn above the PDF region
}

// Summary describes a finished export.
type Summary struct {
	Format     Format
	Filename   string
	Rows       int
	GrandTotal int64
	Pages      int
	Bytes      int
	SHA256     string
	Duration   time.Duration
}

// Pipeline runs exports. PDF exports go through one shared Exporter so
// only one runs at a time.
type Pipeline struct {
	pdf *pdfexport.Exporter
	log zerolog.Logger
}

func NewPipeline(pdf *pdfexport.Exporter, log zerolog.Logger) *Pipeline {
	return &Pipeline{pdf: pdf, log: log}
}

// PDFBusy reports whether a PDF export is running.
func (p *Pipeline) PDFBusy() bool { return p.pdf.Busy() }

// Run executes gate → verify → render → write. Nothing reaches w unless
// rendering succeeded.
func (p *Pipeline) Run(ctx context.Context, req Request, w io.Writer) (*Summary, error) {
	start := time.Now()
	v := req.Report.Valuation

	if err := Gate(req.Selection, v); err != nil {
		return nil, &PhaseError{Phase: PhaseGate, Err: err}
	}
	if err := v.Verify(); err != nil {
		return nil, &PhaseError{Phase: PhaseVerify, Err: err}
	}

	sum := &Summary{
		Format:     req.Format,
		Filename:   report.Filename(req.Selection.Date, req.Format.Ext()),
		Rows:       len(v.Rows),
		GrandTotal: v.GrandTotal,
	}

	var buf bytes.Buffer
	pages, err := p.render(ctx, req, &buf)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseRender, Err: err}
	}
	sum.Pages = pages

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return nil, &PhaseError{Phase: PhaseWrite, Err: err}
	}
	sum.Bytes = n
	sum.SHA256 = normalize.ContentHash(buf.Bytes())
	sum.Duration = time.Since(start)

	p.log.Info().
		Str("format", string(req.Format)).
		Str("file", sum.Filename).
		Int("rows", sum.Rows).
		Str("total", normalize.BRL(sum.GrandTotal)).
		Int("bytes", sum.Bytes).
		Str("sha256", sum.SHA256).
		Str("duration", sum.Duration.String()).
		Msg("export complete")
	return sum, nil
}

func (p *Pipeline) render(ctx context.Context, req Request, w io.Writer) (pages int, err error) {
	r := req.Report
	switch req.Format {
	case FormatCSV:
		return 0, r.WriteCSV(w, report.CSVDetailed)
	case FormatCSVCompact:
		return 0, r.WriteCSV(w, report.CSVCompact)
	case FormatText:
		return 0, r.WriteText(w)
	case FormatXLSX:
		return 0, r.WriteXLSX(w)
	case FormatParquet:
		return 0, parquetio.Write(w, Rows(r))
	case FormatPDF:
		return p.pdf.Export(ctx, pdfexport.FromReport(r, req.Hints), w)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
}

// Rows flattens the report rows into the archival shape.
func Rows(r *report.Report) []model.ExportRow {
	out := make([]model.ExportRow, 0, len(r.Valuation.Rows))
	for i := range r.Valuation.Rows {
		out = append(out, *normalize.ToExportRow(&r.Valuation.Rows[i], r.Clinic))
	}
	return out
}
