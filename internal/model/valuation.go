package model

import "fmt"

// DerivedRow is the computed view of one Entry. Never persisted.
type DerivedRow struct {
	Entry       Entry
	Label       string
	Composition string
	ValueCents  int64
	Note        string // trimmed
	Equivalence bool   // references a composite exam
	Resolved    bool   // the exam reference resolved in the catalog
}

// UnitTotal is one row of the per-base-unit equivalence summary.
type UnitTotal struct {
	Unit  BaseUnit
	Qty   int64
	Cents int64
}

// BucketTotal is one row of the consolidated per-label summary.
type BucketTotal struct {
	Label string
	Qty   int64
	Cents int64
}

// Valuation is everything computed from one (entries, prices, catalog) pass.
// Every report, screen and export form reads from one Valuation.
type Valuation struct {
	Rows         []DerivedRow
	Counts       map[string]int64 // accumulated base-unit counts, zeros included
	Equivalence  []UnitTotal
	Consolidated []BucketTotal
	ExamCount    int64 // sum of entry quantities
	TotalQty     int64 // sum of consolidated quantities
	GrandTotal   int64 // sum of consolidated cents
}

// RowsTotal sums the per-row values directly.
func (v *Valuation) RowsTotal() int64 {
	var sum int64
	for _, r := range v.Rows {
		sum += r.ValueCents
	}
	return sum
}

// CrossCheckError reports a grand total that disagrees with the row sum.
type CrossCheckError struct {
	Grand int64
	Rows  int64
}

func (e *CrossCheckError) Error() string {
	return fmt.Sprintf("grand total %d cents does not match row total %d cents", e.Grand, e.Rows)
}

// Verify checks that the consolidated grand total equals the sum of row values.
func (v *Valuation) Verify() error {
	if rows := v.RowsTotal(); rows != v.GrandTotal {
		return &CrossCheckError{Grand: v.GrandTotal, Rows: rows}
	}
	return nil
}

// Observations returns the rows that carry a non-empty note, in row order.
func (v *Valuation) Observations() []DerivedRow {
	var out []DerivedRow
	for _, r := range v.Rows {
		if r.Note != "" {
			out = append(out, r)
		}
	}
	return out
}
