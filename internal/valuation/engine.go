// Package valuation turns logged entries into billing values and summary
// tables. Everything here is a pure function of (entries, prices, catalog).
package valuation

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
)

// Engine computes valuations against one catalog. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	cat  *catalog.Catalog
	lang language.Tag
}

// New returns an Engine for cat. lang drives the consolidated label order.
func New(cat *catalog.Catalog, lang language.Tag) *Engine {
	return &Engine{cat: cat, lang: lang}
}

// Catalog returns the catalog the engine resolves against.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// ValueOfEntry returns the entry's value in cents. Direct exams use their
// fixed catalog price; equivalence exams sum price × multiplier over base
// units. Unresolved references value at zero.
func (e *Engine) ValueOfEntry(en model.Entry, prices model.PriceTable) int64 {
	switch {
	case en.Exam.IsEquivalence():
		def, ok := e.cat.ResolveEquivalence(en.Exam.ID)
		if !ok {
			return 0
		}
		var unit int64
		for key, m := range def.Units {
			unit += prices.Price(key) * m
		}
		return unit * en.Qty
	case en.Exam.IsDirect() && !en.Exam.IsPositional():
		def, ok := e.cat.ResolveDirect(en.Exam.ID)
		if !ok {
			return 0
		}
		return def.PriceCents * en.Qty
	}
	return 0
}

// ExpandEquivalenceCounts accumulates multiplier × quantity per base unit
// over equivalence entries. Direct and unresolved entries contribute
// nothing. Every catalog unit is present in the result, zero or not.
func (e *Engine) ExpandEquivalenceCounts(entries []model.Entry) map[string]int64 {
	counts := make(map[string]int64)
	for _, u := range e.cat.BaseUnits() {
		counts[u.Key] = 0
	}
	for _, en := range entries {
		if !en.Exam.IsEquivalence() {
			continue
		}
		def, ok := e.cat.ResolveEquivalence(en.Exam.ID)
		if !ok {
			continue
		}
		for key, m := range def.Units {
			counts[key] += m * en.Qty
		}
	}
	return counts
}

// EquivalenceTotals pairs each non-zero count with its value, in base unit
// order.
func (e *Engine) EquivalenceTotals(counts map[string]int64, prices model.PriceTable) []model.UnitTotal {
	var out []model.UnitTotal
	for _, u := range e.cat.BaseUnits() {
		n := counts[u.Key]
		if n == 0 {
			continue
		}
		out = append(out, model.UnitTotal{Unit: u, Qty: n, Cents: n * prices.Price(u.Key)})
	}
	return out
}

// ConsolidatedTotals merges the equivalence totals (keyed by unit name)
// with direct exam totals (keyed by normalized label), sorted by label.
func (e *Engine) ConsolidatedTotals(entries []model.Entry, prices model.PriceTable) []model.BucketTotal {
	eq := e.EquivalenceTotals(e.ExpandEquivalenceCounts(entries), prices)
	return e.consolidate(eq, entries, prices)
}

func (e *Engine) consolidate(eq []model.UnitTotal, entries []model.Entry, prices model.PriceTable) []model.BucketTotal {
	index := make(map[string]int, len(eq))
	buckets := make([]model.BucketTotal, 0, len(eq))
	for _, t := range eq {
		index[t.Unit.Name] = len(buckets)
		buckets = append(buckets, model.BucketTotal{Label: t.Unit.Name, Qty: t.Qty, Cents: t.Cents})
	}

	for _, en := range entries {
		if !en.Exam.IsDirect() || en.Exam.IsPositional() {
			continue
		}
		def, ok := e.cat.ResolveDirect(en.Exam.ID)
		if !ok {
			continue
		}
		label := e.cat.NormalizeDirectLabel(def.Label)
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, model.BucketTotal{Label: label})
		}
		buckets[i].Qty += en.Qty
		buckets[i].Cents += e.ValueOfEntry(en, prices)
	}

	col := collate.New(e.lang)
	sort.SliceStable(buckets, func(i, j int) bool {
		if c := col.CompareString(buckets[i].Label, buckets[j].Label); c != 0 {
			return c < 0
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

// Derive computes the per-row view of one entry.
func (e *Engine) Derive(en model.Entry, prices model.PriceTable) model.DerivedRow {
	row := model.DerivedRow{
		Entry:       en,
		Label:       e.cat.Label(en.Exam),
		Composition: model.NoComposition,
		ValueCents:  e.ValueOfEntry(en, prices),
		Note:        normalize.TrimNote(en.Note),
		Equivalence: en.Exam.IsEquivalence(),
		Resolved:    e.cat.Known(en.Exam),
	}
	if def, ok := e.cat.ResolveEquivalence(en.Exam.ID); ok && en.Exam.IsEquivalence() {
		row.Composition = e.cat.DescribeComposition(def)
	}
	return row
}

// Compute runs a full valuation pass over entries, in their given order.
func (e *Engine) Compute(entries []model.Entry, prices model.PriceTable) *model.Valuation {
	v := &model.Valuation{
		Rows:   make([]model.DerivedRow, 0, len(entries)),
		Counts: e.ExpandEquivalenceCounts(entries),
	}
	for _, en := range entries {
		v.Rows = append(v.Rows, e.Derive(en, prices))
		v.ExamCount += en.Qty
	}
	v.Equivalence = e.EquivalenceTotals(v.Counts, prices)
	v.Consolidated = e.consolidate(v.Equivalence, entries, prices)
	for _, b := range v.Consolidated {
		v.TotalQty += b.Qty
		v.GrandTotal += b.Cents
	}
	return v
}
