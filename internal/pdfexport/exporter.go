package pdfexport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrExportInProgress is returned when Export is called while another
// export is still running.
var ErrExportInProgress = errors.New("a PDF export is already running")

// RenderError is a capture or assembly failure.
type RenderError struct {
	Stage string // "capture" or "assemble"
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("pdf %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Exporter runs at most one PDF export at a time.
type Exporter struct {
	capturer Capturer
	log      zerolog.Logger
	busy     atomic.Bool
}

func NewExporter(c Capturer, log zerolog.Logger) *Exporter {
	return &Exporter{capturer: c, log: log}
}

// Busy reports whether an export is running. Export controls are disabled
// while it is true.
func (e *Exporter) Busy() bool { return e.busy.Load() }

// Export captures region with its export-hidden sections hidden and writes
// the paginated PDF to w. The sections are restored on every return path.
func (e *Exporter) Export(ctx context.Context, region *Region, w io.Writer) (pages int, err error) {
	if !e.busy.CompareAndSwap(false, true) {
		return 0, ErrExportInProgress
	}
	defer e.busy.Store(false)

	restore := region.HideFlagged()
	defer restore()

	stage := "capture"
	defer func() {
		if p := recover(); p != nil {
			err = &RenderError{Stage: stage, Err: fmt.Errorf("panic: %v", p)}
		}
		if err != nil {
			e.log.Error().Err(err).Msg("pdf export failed")
		}
	}()

	img, err := e.capturer.Capture(ctx, region)
	if err != nil {
		return 0, &RenderError{Stage: stage, Err: err}
	}

	stage = "assemble"
	pages, err = WritePDF(w, img)
	if err != nil {
		return 0, &RenderError{Stage: stage, Err: err}
	}
	e.log.Info().Int("pages", pages).Msg("pdf exported")
	return pages, nil
}
