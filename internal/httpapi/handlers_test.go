package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/export"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/pdfexport"
	"github.com/gyeh/sonobill/internal/session"
	"github.com/gyeh/sonobill/internal/store"
)

var fixedNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, editable bool) *Handler {
	t.Helper()
	n := 0
	docs := store.NewDocuments(store.NewMemory(), zerolog.Nop())
	sess := session.Open(context.Background(), docs, catalog.Default(), zerolog.Nop(), session.Options{
		PricesEditable: editable,
		Now:            func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	pipe := export.NewPipeline(pdfexport.NewExporter(pdfexport.TextRasterizer{}, zerolog.Nop()), zerolog.Nop())
	h := NewHandler(sess, pipe, zerolog.Nop())
	h.now = func() time.Time { return fixedNow }
	return h
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestGetState(t *testing.T) {
	h := newTestHandler(t, true)
	c, rec := jsonContext(echo.New(), http.MethodGet, "/api/state", "")

	if err := h.GetState(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var st stateView
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if !st.CanExport || st.ExportMessage != "" {
		t.Errorf("export state = %v %q", st.CanExport, st.ExportMessage)
	}
	if st.Selection.ClinicID != "cispara" || st.Selection.Date != "2025-03-10" {
		t.Errorf("selection = %+v", st.Selection)
	}
	if st.Valuation.GrandCents != 13438 || st.Valuation.GrandTotal != "R$ 134,38" {
		t.Errorf("grand total = %d %q", st.Valuation.GrandCents, st.Valuation.GrandTotal)
	}
	if len(st.Catalog.Units) != 3 || st.Catalog.Equivalence[0].Ref != "eq:obst_rot" {
		t.Errorf("catalog = %+v", st.Catalog)
	}
}

func TestCreateAndUpdateEntry(t *testing.T) {
	h := newTestHandler(t, true)
	e := echo.New()

	c, rec := jsonContext(e, http.MethodPost, "/api/entries", "")
	if err := h.CreateEntry(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created model.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	c, rec = jsonContext(e, http.MethodPatch, "/api/entries/"+created.ID, `{"examId":"eq:morf_1tri","qty":2,"obs":"gemelar"}`)
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	if err := h.UpdateEntry(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	c, rec = jsonContext(e, http.MethodGet, "/api/valuation", "")
	if err := h.GetValuation(c); err != nil {
		t.Fatal(err)
	}
	var v valuationView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	// 13438 for the default entry plus 2 × (13438 + 11961).
	if v.GrandCents != 64236 || v.ExamCount != 3 {
		t.Errorf("valuation = %d cents, %d exams", v.GrandCents, v.ExamCount)
	}
	if len(v.Rows) != 2 || v.Rows[1].Note != "gemelar" {
		t.Errorf("rows = %+v", v.Rows)
	}
}

func TestUpdateEntry_Errors(t *testing.T) {
	h := newTestHandler(t, true)
	e := echo.New()

	tests := []struct {
		name string
		id   string
		body string
		code int
	}{
		{"unknown entry", "missing", `{"qty":2}`, http.StatusNotFound},
		{"zero quantity", "id-1", `{"qty":0}`, http.StatusUnprocessableEntity},
		{"unknown exam", "id-1", `{"examId":"eq:nope"}`, http.StatusUnprocessableEntity},
		{"bad reference", "id-1", `{"examId":"foo:bar"}`, http.StatusBadRequest},
		{"bad date", "id-1", `{"date":"March 10"}`, http.StatusUnprocessableEntity},
		{"malformed body", "id-1", `{"qty":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := jsonContext(e, http.MethodPatch, "/api/entries/"+tt.id, tt.body)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)
			if code := httpCode(t, h.UpdateEntry(c)); code != tt.code {
				t.Errorf("status = %d, want %d", code, tt.code)
			}
		})
	}
}

func TestDuplicateAndDeleteEntry(t *testing.T) {
	h := newTestHandler(t, true)
	e := echo.New()

	c, rec := jsonContext(e, http.MethodPost, "/api/entries/id-1/duplicate", "")
	c.SetParamNames("id")
	c.SetParamValues("id-1")
	if err := h.DuplicateEntry(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("duplicate status = %d", rec.Code)
	}

	c, rec = jsonContext(e, http.MethodDelete, "/api/entries/id-1", "")
	c.SetParamNames("id")
	c.SetParamValues("id-1")
	if err := h.DeleteEntry(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if got := len(h.sess.Entries()); got != 1 {
		t.Errorf("entries after delete = %d", got)
	}

	c, rec = jsonContext(e, http.MethodDelete, "/api/entries", "")
	if err := h.ClearEntries(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Body.String(), `"removed":1`) {
		t.Errorf("clear body = %s", rec.Body.String())
	}
}

func TestSetPrice(t *testing.T) {
	e := echo.New()

	t.Run("locked", func(t *testing.T) {
		h := newTestHandler(t, false)
		c, _ := jsonContext(e, http.MethodPut, "/api/prices/abdominal_total", `{"price":"150,00"}`)
		c.SetParamNames("unit")
		c.SetParamValues("abdominal_total")
		if code := httpCode(t, h.SetPrice(c)); code != http.StatusForbidden {
			t.Errorf("status = %d", code)
		}
	})

	t.Run("decimal amount", func(t *testing.T) {
		h := newTestHandler(t, true)
		c, rec := jsonContext(e, http.MethodPut, "/api/prices/abdominal_total", `{"price":"150,00"}`)
		c.SetParamNames("unit")
		c.SetParamValues("abdominal_total")
		if err := h.SetPrice(c); err != nil {
			t.Fatal(err)
		}
		var prices model.PriceTable
		if err := json.Unmarshal(rec.Body.Bytes(), &prices); err != nil {
			t.Fatal(err)
		}
		if prices["abdominal_total"] != 15000 {
			t.Errorf("prices = %v", prices)
		}
		if got := h.sess.Valuate().GrandTotal; got != 15000 {
			t.Errorf("grand total after price change = %d", got)
		}
	})

	t.Run("unknown unit", func(t *testing.T) {
		h := newTestHandler(t, true)
		c, _ := jsonContext(e, http.MethodPut, "/api/prices/doppler", `{"cents":100}`)
		c.SetParamNames("unit")
		c.SetParamValues("doppler")
		if code := httpCode(t, h.SetPrice(c)); code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", code)
		}
	})

	t.Run("missing amount", func(t *testing.T) {
		h := newTestHandler(t, true)
		c, _ := jsonContext(e, http.MethodPut, "/api/prices/abdominal_total", `{}`)
		c.SetParamNames("unit")
		c.SetParamValues("abdominal_total")
		if code := httpCode(t, h.SetPrice(c)); code != http.StatusBadRequest {
			t.Errorf("status = %d", code)
		}
	})
}

func TestCreateClinic(t *testing.T) {
	h := newTestHandler(t, true)
	e := echo.New()

	c, rec := jsonContext(e, http.MethodPost, "/api/clinics", `{"name":"Posto Central","city":"Perdigão/MG"}`)
	if err := h.CreateClinic(c); err != nil {
		t.Fatal(err)
	}
	var got model.Clinic
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "posto-central" {
		t.Errorf("clinic = %+v", got)
	}

	c, _ = jsonContext(e, http.MethodPost, "/api/clinics", `{"name":"Posto Central"}`)
	if code := httpCode(t, h.CreateClinic(c)); code != http.StatusConflict {
		t.Errorf("duplicate status = %d", code)
	}
}

func TestSetSelection_GatesExport(t *testing.T) {
	h := newTestHandler(t, true)
	e := echo.New()

	c, rec := jsonContext(e, http.MethodPut, "/api/selection", `{"date":""}`)
	if err := h.SetSelection(c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Body.String(), `"date":""`) {
		t.Errorf("selection = %s", rec.Body.String())
	}

	c, _ = jsonContext(e, http.MethodGet, "/export/csv", "")
	c.SetParamNames("format")
	c.SetParamValues("csv")
	err := h.Export(c)
	if code := httpCode(t, err); code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", code)
	}
	var he *echo.HTTPError
	errors.As(err, &he)
	if he.Message != export.MsgNoDate {
		t.Errorf("message = %v", he.Message)
	}

	c, _ = jsonContext(e, http.MethodPut, "/api/selection", `{"date":"11/03/2025"}`)
	if err := h.SetSelection(c); err != nil {
		t.Fatal(err)
	}
	c, _ = jsonContext(e, http.MethodGet, "/export/csv", "")
	c.SetParamNames("format")
	c.SetParamValues("csv")
	err = h.Export(c)
	errors.As(err, &he)
	if he == nil || he.Message != export.MsgNoEntries {
		t.Errorf("export on empty date = %v", err)
	}
}

func TestSetSelection_UnknownClinic(t *testing.T) {
	h := newTestHandler(t, true)
	c, _ := jsonContext(echo.New(), http.MethodPut, "/api/selection", `{"clinicId":"nowhere"}`)
	if code := httpCode(t, h.SetSelection(c)); code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", code)
	}
}

func TestExport_CSV(t *testing.T) {
	h := newTestHandler(t, true)
	c, rec := jsonContext(echo.New(), http.MethodGet, "/export/csv", "")
	c.SetParamNames("format")
	c.SetParamValues("csv")

	if err := h.Export(c); err != nil {
		t.Fatal(err)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "relatorio_exames_10-03-2025.csv") {
		t.Errorf("content disposition = %q", cd)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\xEF\xBB\xBF")) {
		t.Error("csv has no byte order mark")
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	h := newTestHandler(t, true)
	c, _ := jsonContext(echo.New(), http.MethodGet, "/export/docx", "")
	c.SetParamNames("format")
	c.SetParamValues("docx")
	if code := httpCode(t, h.Export(c)); code != http.StatusNotFound {
		t.Errorf("status = %d", code)
	}
}

func TestExportError_Busy(t *testing.T) {
	err := &export.PhaseError{Phase: export.PhaseRender, Err: pdfexport.ErrExportInProgress}
	if code := httpCode(t, exportError(err)); code != http.StatusConflict {
		t.Errorf("status = %d", code)
	}
	render := &export.PhaseError{Phase: export.PhaseRender, Err: &pdfexport.RenderError{Stage: "capture", Err: errors.New("boom")}}
	var he *echo.HTTPError
	errors.As(exportError(render), &he)
	if he.Code != http.StatusInternalServerError || he.Message != export.MsgPDFFailed {
		t.Errorf("render failure = %d %v", he.Code, he.Message)
	}
}

func TestServer_PageAndPDF(t *testing.T) {
	h := newTestHandler(t, true)
	e := NewServer(h, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("page status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "R$ 134,38") {
		t.Error("page does not show the grand total")
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("missing request id")
	}

	req = httptest.NewRequest(http.MethodGet, "/export/pdf", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf status = %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("response is not a PDF")
	}
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	e.Use(Recovery(zerolog.Nop()))
	e.GET("/boom", func(c echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
