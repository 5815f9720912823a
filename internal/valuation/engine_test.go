package valuation

import (
	"math/rand"
	"testing"

	"golang.org/x/text/language"

	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/model"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Definition{
		DirectPrefix: "Ultrasound",
		BaseUnits: []catalog.UnitSpec{
			{Unit: model.BaseUnit{Key: "abd", Name: "Abdominal total"}},
			{Unit: model.BaseUnit{Key: "kid", Name: "Kidneys/urinary-tract", Aliases: []string{"kidneys"}}},
			{Unit: model.BaseUnit{Key: "tv", Name: "Transvaginal"}},
		},
		Equivalence: []model.EquivalenceExamDef{
			{ID: "obst_rot", Label: "Obstetric routine", Units: map[string]int64{"abd": 1}},
			{ID: "morf_1tri", Label: "Morphological 1st trimester", Units: map[string]int64{"abd": 1, "kid": 1}},
			{ID: "morf_2tri", Label: "Morphological 2nd trimester", Units: map[string]int64{"abd": 1, "kid": 1, "tv": 1}},
			{ID: "breasts", Label: "Breasts / axillae", Units: map[string]int64{"kid": 2}},
		},
		Direct: []catalog.DirectSpec{
			{Label: "Ultrasound - thyroid", PriceCents: 12990},
			{Label: "Ultrasound - kidneys and urinary tract", PriceCents: 11961},
			{Label: "Ultrasound - élbow", PriceCents: 10000},
			{Label: "Ultrasound - transvaginal with doppler", PriceCents: 16319},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

var scenarioPrices = model.PriceTable{"abd": 13438, "kid": 11961, "tv": 10933}

func entry(id string, ref model.ExamRef, qty int64) model.Entry {
	return model.Entry{ID: id, ClinicID: "c1", Date: "2025-03-10", Exam: ref, Qty: qty}
}

func TestCompute_EquivalenceScenario(t *testing.T) {
	e := New(testCatalog(t), language.English)
	entries := []model.Entry{
		entry("1", model.EquivalenceRef("obst_rot"), 1),
		entry("2", model.EquivalenceRef("morf_2tri"), 1),
	}
	v := e.Compute(entries, scenarioPrices)

	if v.Rows[0].ValueCents != 13438 {
		t.Errorf("obstetric routine value = %d, want 13438", v.Rows[0].ValueCents)
	}
	if v.Rows[1].ValueCents != 36332 {
		t.Errorf("morphological value = %d, want 36332", v.Rows[1].ValueCents)
	}
	if v.Rows[1].Composition != "1× Abdominal total + 1× Kidneys/urinary-tract + 1× Transvaginal" {
		t.Errorf("composition = %q", v.Rows[1].Composition)
	}

	want := []model.UnitTotal{
		{Qty: 2, Cents: 26876},
		{Qty: 1, Cents: 11961},
		{Qty: 1, Cents: 10933},
	}
	if len(v.Equivalence) != len(want) {
		t.Fatalf("equivalence rows = %d, want %d", len(v.Equivalence), len(want))
	}
	for i, w := range want {
		got := v.Equivalence[i]
		if got.Qty != w.Qty || got.Cents != w.Cents {
			t.Errorf("equivalence[%d] %s = {%d %d}, want {%d %d}", i, got.Unit.Name, got.Qty, got.Cents, w.Qty, w.Cents)
		}
	}
	if v.GrandTotal != 49770 {
		t.Errorf("grand total = %d, want 49770", v.GrandTotal)
	}
	if v.GrandTotal != 13438+36332 {
		t.Error("grand total differs from row sum")
	}
	if err := v.Verify(); err != nil {
		t.Error(err)
	}
	if v.ExamCount != 2 || v.TotalQty != 4 {
		t.Errorf("exam count = %d, total qty = %d", v.ExamCount, v.TotalQty)
	}
}

func TestCompute_DirectExamGetsOwnBucket(t *testing.T) {
	e := New(testCatalog(t), language.English)
	entries := []model.Entry{
		entry("1", model.EquivalenceRef("obst_rot"), 1),
		entry("2", model.DirectRef("ultrasound-thyroid"), 2),
	}
	v := e.Compute(entries, scenarioPrices)

	var thyroid *model.BucketTotal
	for i := range v.Consolidated {
		if v.Consolidated[i].Label == "Thyroid" {
			thyroid = &v.Consolidated[i]
		}
	}
	if thyroid == nil {
		t.Fatalf("no Thyroid bucket in %+v", v.Consolidated)
	}
	if thyroid.Qty != 2 || thyroid.Cents != 25980 {
		t.Errorf("Thyroid bucket = %+v, want {2 25980}", *thyroid)
	}
	if len(v.Consolidated) != 2 {
		t.Errorf("expected 2 buckets, got %+v", v.Consolidated)
	}
	if v.Rows[1].Composition != model.NoComposition {
		t.Errorf("direct composition = %q", v.Rows[1].Composition)
	}
	if err := v.Verify(); err != nil {
		t.Error(err)
	}
}

func TestCompute_DirectMergesIntoBaseUnitBucket(t *testing.T) {
	e := New(testCatalog(t), language.English)
	entries := []model.Entry{
		entry("1", model.EquivalenceRef("breasts"), 1),
		entry("2", model.DirectRef("ultrasound-kidneys-and-urinary-tract"), 1),
		entry("3", model.DirectRef("ultrasound-transvaginal-with-doppler"), 1),
	}
	v := e.Compute(entries, scenarioPrices)

	byLabel := map[string]model.BucketTotal{}
	for _, b := range v.Consolidated {
		byLabel[b.Label] = b
	}
	kid := byLabel["Kidneys/urinary-tract"]
	if kid.Qty != 3 || kid.Cents != 3*11961 {
		t.Errorf("kidneys bucket = %+v", kid)
	}
	tv := byLabel["Transvaginal"]
	if tv.Qty != 1 || tv.Cents != 16319 {
		t.Errorf("transvaginal bucket = %+v", tv)
	}
	if len(v.Equivalence) != 1 {
		t.Errorf("direct exams leaked into equivalence totals: %+v", v.Equivalence)
	}
	if err := v.Verify(); err != nil {
		t.Error(err)
	}
}

func TestConsolidatedTotals_LocaleOrder(t *testing.T) {
	e := New(testCatalog(t), language.English)
	entries := []model.Entry{
		entry("1", model.DirectRef("ultrasound-thyroid"), 1),
		entry("2", model.EquivalenceRef("morf_2tri"), 1),
		entry("3", model.DirectRef("ultrasound-elbow"), 1),
	}
	got := e.ConsolidatedTotals(entries, scenarioPrices)
	want := []string{"Abdominal total", "Élbow", "Kidneys/urinary-tract", "Thyroid", "Transvaginal"}
	if len(got) != len(want) {
		t.Fatalf("got %d buckets, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Label != want[i] {
			t.Errorf("bucket[%d] = %q, want %q", i, got[i].Label, want[i])
		}
	}

	again := e.ConsolidatedTotals(entries, scenarioPrices)
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("ordering not reproducible at %d: %+v vs %+v", i, got[i], again[i])
		}
	}
}

func TestExpandEquivalenceCounts_IgnoresDirect(t *testing.T) {
	e := New(testCatalog(t), language.English)
	entries := []model.Entry{
		entry("1", model.DirectRef("ultrasound-thyroid"), 3),
		entry("2", model.DirectRef("ultrasound-kidneys-and-urinary-tract"), 1),
	}
	counts := e.ExpandEquivalenceCounts(entries)
	if len(counts) != 3 {
		t.Fatalf("expected all 3 units present, got %v", counts)
	}
	for k, n := range counts {
		if n != 0 {
			t.Errorf("count[%s] = %d, want 0", k, n)
		}
	}
}

func TestValueOfEntry_Dangling(t *testing.T) {
	e := New(testCatalog(t), language.English)
	for _, ref := range []model.ExamRef{
		model.EquivalenceRef("removed"),
		model.DirectRef("ultrasound-removed"),
		{Kind: model.KindDirect, Position: 2},
	} {
		en := entry("x", ref, 4)
		if got := e.ValueOfEntry(en, scenarioPrices); got != 0 {
			t.Errorf("ValueOfEntry(%v) = %d, want 0", ref, got)
		}
		row := e.Derive(en, scenarioPrices)
		if row.Resolved || row.Label != "Exame" {
			t.Errorf("Derive(%v) = resolved %v label %q", ref, row.Resolved, row.Label)
		}
	}
}

func TestDerive_DirectRowKeepsCatalogLabel(t *testing.T) {
	e := New(testCatalog(t), language.English)
	en := entry("1", model.DirectRef("ultrasound-kidneys-and-urinary-tract"), 1)

	row := e.Derive(en, scenarioPrices)
	if row.Label != "Ultrasound - kidneys and urinary tract" {
		t.Errorf("detail label = %q, want the full catalog label", row.Label)
	}
	buckets := e.ConsolidatedTotals([]model.Entry{en}, scenarioPrices)
	found := false
	for _, b := range buckets {
		if b.Label == "Kidneys/urinary-tract" && b.Qty == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("consolidated buckets = %+v, want the row under Kidneys/urinary-tract", buckets)
	}
}

func TestValueOfEntry_MissingPriceIsZero(t *testing.T) {
	e := New(testCatalog(t), language.English)
	en := entry("1", model.EquivalenceRef("morf_2tri"), 2)
	got := e.ValueOfEntry(en, model.PriceTable{"abd": 100})
	if got != 200 {
		t.Errorf("ValueOfEntry = %d, want 200", got)
	}
}

// Random entry sets must always satisfy the per-entry formula and the
// grand-total cross-check.
func TestCompute_CrossCheckHoldsForRandomInputs(t *testing.T) {
	cat := testCatalog(t)
	e := New(cat, language.English)
	rng := rand.New(rand.NewSource(42))

	var refs []model.ExamRef
	for _, d := range cat.Equivalences() {
		refs = append(refs, model.EquivalenceRef(d.ID))
	}
	for _, d := range cat.Directs() {
		refs = append(refs, model.DirectRef(d.ID))
	}
	refs = append(refs, model.EquivalenceRef("gone"), model.DirectRef("gone"))

	for round := 0; round < 200; round++ {
		prices := model.PriceTable{
			"abd": rng.Int63n(50000),
			"kid": rng.Int63n(50000),
			"tv":  rng.Int63n(50000),
		}
		if rng.Intn(4) == 0 {
			delete(prices, "tv")
		}
		n := 1 + rng.Intn(15)
		entries := make([]model.Entry, n)
		for i := range entries {
			entries[i] = entry("e", refs[rng.Intn(len(refs))], 1+rng.Int63n(9))
		}

		v := e.Compute(entries, prices)
		if err := v.Verify(); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		for i, en := range entries {
			if !en.Exam.IsEquivalence() {
				continue
			}
			def, ok := cat.ResolveEquivalence(en.Exam.ID)
			if !ok {
				continue
			}
			var want int64
			for k, m := range def.Units {
				want += prices.Price(k) * m * en.Qty
			}
			if v.Rows[i].ValueCents != want {
				t.Fatalf("round %d row %d: value %d, want %d", round, i, v.Rows[i].ValueCents, want)
			}
		}
	}
}
