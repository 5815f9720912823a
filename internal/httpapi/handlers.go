package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gyeh/sonobill/internal/export"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/pdfexport"
	"github.com/gyeh/sonobill/internal/report"
	"github.com/gyeh/sonobill/internal/session"
)

// exportHints are drawn above the PDF region and hidden while it is captured.
var exportHints = []string{
	"Exportar: /export/csv  /export/pdf  /export/xlsx",
}

// sessionError maps a session error to an HTTP error.
func sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrEntryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrPricesLocked):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, session.ErrDuplicateClinic):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrUnknownExam),
		errors.Is(err, session.ErrInvalidQty),
		errors.Is(err, session.ErrUnknownClinic),
		errors.Is(err, session.ErrUnknownUnit),
		errors.Is(err, session.ErrInvalidPrice),
		errors.Is(err, session.ErrInvalidDate),
		errors.Is(err, session.ErrInvalidClinic):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return err
}

// Page renders the report page with its export links.
func (h *Handler) Page(c echo.Context) error {
	h.mu.Lock()
	r := h.sess.Report(h.now())
	sel := h.sess.Selection()
	h.mu.Unlock()

	gateErr := export.Gate(sel, r.Valuation)
	var buf bytes.Buffer
	err := report.WriteHTML(&buf, report.Page{
		Report:     r,
		ShowHints:  true,
		CanExport:  gateErr == nil,
		ExportHint: export.UserMessage(gateErr),
	})
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *Handler) GetState(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sel := h.sess.Selection()
	v := h.sess.Valuate()
	gateErr := export.Gate(sel, v)
	return c.JSON(http.StatusOK, stateView{
		Selection:      sel,
		Clinics:        h.sess.Clinics(),
		PricesEditable: h.sess.PricesEditable(),
		Catalog:        newCatalogView(h.sess.Catalog(), h.sess.Prices()),
		Valuation:      newValuationView(v),
		CanExport:      gateErr == nil,
		ExportMessage:  export.UserMessage(gateErr),
		PDFBusy:        h.pipe.PDFBusy(),
	})
}

func (h *Handler) GetValuation(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return c.JSON(http.StatusOK, newValuationView(h.sess.Valuate()))
}

func (h *Handler) CreateEntry(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	en, err := h.sess.AddEntry(c.Request().Context())
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusCreated, en)
}

type updateEntryRequest struct {
	ExamID *string `json:"examId"`
	Qty    *int64  `json:"qty"`
	Note   *string `json:"obs"`
	Date   *string `json:"date"`
}

func (h *Handler) UpdateEntry(c echo.Context) error {
	var req updateEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patch := session.EntryPatch{Qty: req.Qty, Note: req.Note, Date: req.Date}
	if req.ExamID != nil {
		ref, err := model.ParseExamRef(*req.ExamID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		patch.Exam = &ref
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	en, err := h.sess.UpdateEntry(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, en)
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.sess.RemoveEntry(c.Request().Context(), c.Param("id")); err != nil {
		return sessionError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DuplicateEntry(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	en, err := h.sess.DuplicateEntry(c.Request().Context(), c.Param("id"))
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusCreated, en)
}

// ClearEntries removes every entry of the current clinic.
func (h *Handler) ClearEntries(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.sess.ClearClinic(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]int{"removed": n})
}

// setPriceRequest takes either a decimal amount ("134,38") or cents.
type setPriceRequest struct {
	Price *string `json:"price"`
	Cents *int64  `json:"cents"`
}

func (h *Handler) SetPrice(c echo.Context) error {
	var req setPriceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var cents int64
	switch {
	case req.Cents != nil:
		cents = *req.Cents
	case req.Price != nil:
		v, err := normalize.CentsFromMajor(*req.Price)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		cents = v
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "price or cents is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.sess.SetPrice(c.Request().Context(), c.Param("unit"), cents); err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, h.sess.Prices())
}

func (h *Handler) ResetPrices(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.sess.ResetPrices(c.Request().Context()); err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, h.sess.Prices())
}

func (h *Handler) ListClinics(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return c.JSON(http.StatusOK, h.sess.Clinics())
}

func (h *Handler) CreateClinic(c echo.Context) error {
	var req model.Clinic
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	clinic, err := h.sess.AddClinic(c.Request().Context(), req)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusCreated, clinic)
}

// selectionRequest changes the clinic and/or the date. An empty date
// selects every date.
type selectionRequest struct {
	ClinicID *string `json:"clinicId"`
	Date     *string `json:"date"`
}

func (h *Handler) SetSelection(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if req.ClinicID != nil {
		if err := h.sess.SelectClinic(ctx, *req.ClinicID); err != nil {
			return sessionError(err)
		}
	}
	if req.Date != nil {
		if *req.Date == "" {
			h.sess.ClearDate(ctx)
		} else if err := h.sess.SetDate(ctx, *req.Date); err != nil {
			return sessionError(err)
		}
	}
	return c.JSON(http.StatusOK, h.sess.Selection())
}

// Export streams one report file. The report is built under the lock and
// rendered outside it, so a slow PDF does not block editing.
func (h *Handler) Export(c echo.Context) error {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, export.UserMessage(err))
	}

	h.mu.Lock()
	req := export.Request{
		Format:    format,
		Selection: h.sess.Selection(),
		Report:    h.sess.Report(h.now()),
		Hints:     exportHints,
	}
	h.mu.Unlock()

	var buf bytes.Buffer
	sum, err := h.pipe.Run(c.Request().Context(), req, &buf)
	if err != nil {
		return exportError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", sum.Filename))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func exportError(err error) error {
	msg := export.UserMessage(err)
	switch {
	case export.IsGate(err):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg)
	case errors.Is(err, pdfexport.ErrExportInProgress):
		return echo.NewHTTPError(http.StatusConflict, msg)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, msg).SetInternal(err)
}
