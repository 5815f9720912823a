package httpapi

import (
	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
)

type unitView struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Price      string `json:"price"`
}

type examView struct {
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	Composition string `json:"composition,omitempty"`
	PriceCents  *int64 `json:"priceCents,omitempty"`
}

type catalogView struct {
	Units       []unitView `json:"units"`
	Equivalence []examView `json:"equivalence"`
	Direct      []examView `json:"direct"`
	Footnote    string     `json:"footnote"`
}

type rowView struct {
	model.Entry
	Label       string `json:"label"`
	Composition string `json:"composition"`
	ValueCents  int64  `json:"valueCents"`
	Value       string `json:"value"`
	Equivalence bool   `json:"equivalence"`
	Resolved    bool   `json:"resolved"`
}

type totalView struct {
	Label string `json:"label"`
	Qty   int64  `json:"qty"`
	Cents int64  `json:"cents"`
	Value string `json:"value"`
}

type valuationView struct {
	Rows         []rowView   `json:"rows"`
	Equivalence  []totalView `json:"equivalence"`
	Consolidated []totalView `json:"consolidated"`
	ExamCount    int64       `json:"examCount"`
	TotalQty     int64       `json:"totalQty"`
	GrandCents   int64       `json:"grandTotalCents"`
	GrandTotal   string      `json:"grandTotal"`
}

type stateView struct {
	Selection      model.Selection `json:"selection"`
	Clinics        []model.Clinic  `json:"clinics"`
	PricesEditable bool            `json:"pricesEditable"`
	Catalog        catalogView     `json:"catalog"`
	Valuation      valuationView   `json:"valuation"`
	CanExport      bool            `json:"canExport"`
	ExportMessage  string          `json:"exportMessage,omitempty"`
	PDFBusy        bool            `json:"pdfBusy"`
}

func newCatalogView(cat *catalog.Catalog, prices model.PriceTable) catalogView {
	cv := catalogView{Footnote: cat.EquivalenceFootnote()}
	for _, u := range cat.BaseUnits() {
		p := prices.Price(u.Key)
		cv.Units = append(cv.Units, unitView{Key: u.Key, Name: u.Name, PriceCents: p, Price: normalize.BRL(p)})
	}
	for _, eq := range cat.Equivalences() {
		cv.Equivalence = append(cv.Equivalence, examView{
			Ref:         model.EquivalenceRef(eq.ID).String(),
			Label:       eq.Label,
			Composition: cat.DescribeComposition(eq),
		})
	}
	for _, d := range cat.Directs() {
		price := d.PriceCents
		cv.Direct = append(cv.Direct, examView{
			Ref:        model.DirectRef(d.ID).String(),
			Label:      d.Label,
			PriceCents: &price,
		})
	}
	return cv
}

func newValuationView(v *model.Valuation) valuationView {
	vv := valuationView{
		Rows:         make([]rowView, 0, len(v.Rows)),
		Equivalence:  make([]totalView, 0, len(v.Equivalence)),
		Consolidated: make([]totalView, 0, len(v.Consolidated)),
		ExamCount:    v.ExamCount,
		TotalQty:     v.TotalQty,
		GrandCents:   v.GrandTotal,
		GrandTotal:   normalize.BRL(v.GrandTotal),
	}
	for _, r := range v.Rows {
		vv.Rows = append(vv.Rows, rowView{
			Entry:       r.Entry,
			Label:       r.Label,
			Composition: r.Composition,
			ValueCents:  r.ValueCents,
			Value:       normalize.BRL(r.ValueCents),
			Equivalence: r.Equivalence,
			Resolved:    r.Resolved,
		})
	}
	for _, u := range v.Equivalence {
		vv.Equivalence = append(vv.Equivalence, totalView{Label: u.Unit.Name, Qty: u.Qty, Cents: u.Cents, Value: normalize.BRL(u.Cents)})
	}
	for _, b := range v.Consolidated {
		vv.Consolidated = append(vv.Consolidated, totalView{Label: b.Label, Qty: b.Qty, Cents: b.Cents, Value: normalize.BRL(b.Cents)})
	}
	return vv
}
