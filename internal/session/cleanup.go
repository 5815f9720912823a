package session

import (
	"context"

	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/store"
)

// CleanupResult summarises one catalog-consistency pass.
type CleanupResult struct {
	Migrated int           // positional refs rewritten to slug refs
	Fixed    int           // entries given a clinic or a valid quantity
	Dropped  []model.Entry // entries whose exam no longer resolves
}

// Changed reports whether the pass modified the entry list.
func (r CleanupResult) Changed() bool {
	return r.Migrated > 0 || r.Fixed > 0 || len(r.Dropped) > 0
}

// Cleanup returns entries made consistent with cat: legacy refs migrated,
// a missing clinic filled with clinicID, quantities below 1 raised to 1,
// and entries with unresolvable exams removed. The input is not modified.
func Cleanup(entries []model.Entry, cat *catalog.Catalog, clinicID string) ([]model.Entry, CleanupResult) {
	var res CleanupResult
	out := make([]model.Entry, 0, len(entries))
	for _, en := range entries {
		if en.Exam.IsPositional() {
			ref, ok := cat.MigrateRef(en.Exam)
			if ok {
				en.Exam = ref
				res.Migrated++
			}
		}
		if !cat.Known(en.Exam) {
			res.Dropped = append(res.Dropped, en)
			continue
		}
		fixed := false
		if en.ClinicID == "" && clinicID != "" {
			en.ClinicID = clinicID
			fixed = true
		}
		if en.Qty < 1 {
			en.Qty = 1
			fixed = true
		}
		if fixed {
			res.Fixed++
		}
		out = append(out, en)
	}
	return out, res
}

func (s *Session) cleanup() CleanupResult {
	cleaned, res := Cleanup(s.entries, s.cat, s.current)
	for _, en := range res.Dropped {
		s.log.Warn().
			Str("entry", en.ID).
			Str("exam", en.Exam.String()).
			Msg("dropping entry with unknown exam")
	}
	s.entries = cleaned
	return res
}

// ReplaceCatalog switches to cat, re-runs the cleanup pass and adds
// default prices for any base unit the price table does not cover yet.
func (s *Session) ReplaceCatalog(ctx context.Context, cat *catalog.Catalog) CleanupResult {
	s.cat = cat
	s.engine = newEngine(cat, s.opts)

	added := false
	for key, cents := range cat.DefaultPrices() {
		if _, ok := s.prices[key]; !ok {
			s.prices[key] = cents
			added = true
		}
	}
	if added {
		s.persist(ctx, store.KeyPrices)
	}

	res := s.cleanup()
	if res.Changed() {
		s.persist(ctx, store.KeyEntries)
	}
	return res
}
