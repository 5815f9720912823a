// Package session owns the mutable state of one user: prices, clinics,
// entries and the active selection. State is read once from the document
// store at Open and written back after every mutation.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/report"
	"github.com/gyeh/sonobill/internal/selection"
	"github.com/gyeh/sonobill/internal/store"
	"github.com/gyeh/sonobill/internal/valuation"
)

var (
	ErrPricesLocked    = errors.New("prices are not editable")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrUnknownExam     = errors.New("exam is not in the catalog")
	ErrInvalidQty      = errors.New("quantity must be at least 1")
	ErrUnknownClinic   = errors.New("unknown clinic")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidClinic   = errors.New("clinic needs an id and a name")
	ErrDuplicateClinic = errors.New("clinic id already exists")
)

// DefaultClinics is the clinic list used when none is persisted.
func DefaultClinics() []model.Clinic {
	return []model.Clinic{{ID: "cispara", Name: "CISPARÁ", Place: "Unidade básica", City: "Perdigão/MG"}}
}

// Options tunes a Session. The zero value is usable.
type Options struct {
	PricesEditable bool
	ReportTitle    string
	Locale         language.Tag
	Now            func() time.Time
	NewID          func() string
}

func (o *Options) defaults() {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString() }
	}
	if o.Locale == language.Und {
		o.Locale = language.BrazilianPortuguese
	}
}

// Session is not safe for concurrent use.
type Session struct {
	docs   *store.Documents
	cat    *catalog.Catalog
	engine *valuation.Engine
	log    zerolog.Logger
	opts   Options

	prices  model.PriceTable
	clinics []model.Clinic
	entries []model.Entry
	current string
	date    string
}

// Open loads every document, falling back to defaults, then runs the
// catalog-consistency cleanup and persists its result when it changed
// anything.
func Open(ctx context.Context, docs *store.Documents, cat *catalog.Catalog, log zerolog.Logger, opts Options) *Session {
	opts.defaults()
	s := &Session{
		docs:   docs,
		cat:    cat,
		engine: newEngine(cat, opts),
		log:    log,
		opts:   opts,
	}

	today := normalize.ISODate(opts.Now())
	clinics := DefaultClinics()

	s.prices = store.Load(ctx, docs, store.KeyPrices, cat.DefaultPrices())
	s.clinics = store.Load(ctx, docs, store.KeyClinics, clinics)
	if len(s.clinics) == 0 {
		s.clinics = clinics
	}
	s.current = store.Load(ctx, docs, store.KeyCurrentClinic, s.clinics[0].ID)
	s.date = store.Load(ctx, docs, store.KeyFilterDate, today)
	entries, skipped := s.loadEntries(ctx, []model.Entry{s.newEntry(s.clinics[0].ID, today)})
	s.entries = entries

	if s.prices == nil {
		s.prices = cat.DefaultPrices()
	}
	if s.fixPrices() {
		s.persist(ctx, store.KeyPrices)
	}
	if _, ok := s.Clinic(s.current); !ok {
		s.log.Warn().Str("clinic", s.current).Msg("persisted clinic unknown, selecting first")
		s.current = s.clinics[0].ID
	}
	if s.date != "" && !normalize.IsISODate(s.date) {
		s.log.Warn().Str("date", s.date).Msg("persisted filter date malformed, clearing")
		s.date = ""
	}

	if res := s.cleanup(); res.Changed() || skipped > 0 {
		s.log.Info().
			Int("migrated", res.Migrated).
			Int("dropped", len(res.Dropped)).
			Int("fixed", res.Fixed).
			Msg("entries cleaned up")
		s.persist(ctx, store.KeyEntries)
	}
	return s
}

// loadEntries decodes the entries document one element at a time. A
// malformed element is logged and skipped; the rest survive.
func (s *Session) loadEntries(ctx context.Context, def []model.Entry) (entries []model.Entry, skipped int) {
	raw, found, err := store.Read[[]json.RawMessage](ctx, s.docs, store.KeyEntries)
	if err != nil {
		s.log.Warn().Err(err).Str("key", store.KeyEntries).Msg("using default document")
		return def, 0
	}
	if !found {
		return def, 0
	}
	entries, errs := DecodeEntries(raw)
	for _, err := range errs {
		s.log.Warn().Err(err).Msg("skipping malformed entry")
	}
	return entries, len(errs)
}

// DecodeEntries decodes each element on its own and returns the entries
// that decoded along with one error per element that did not.
func DecodeEntries(raw []json.RawMessage) ([]model.Entry, []error) {
	entries := make([]model.Entry, 0, len(raw))
	var errs []error
	for i, r := range raw {
		var en model.Entry
		if err := json.Unmarshal(r, &en); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		entries = append(entries, en)
	}
	return entries, errs
}

// fixPrices replaces negative persisted prices with the catalog default and
// reports whether anything changed.
func (s *Session) fixPrices() bool {
	defaults := s.cat.DefaultPrices()
	changed := false
	for key, cents := range s.prices {
		if cents >= 0 {
			continue
		}
		s.log.Warn().Str("unit", key).Int64("cents", cents).Msg("persisted price negative, using default")
		s.prices[key] = defaults.Price(key)
		changed = true
	}
	return changed
}

func newEngine(cat *catalog.Catalog, opts Options) *valuation.Engine {
	return valuation.New(cat, opts.Locale)
}

func (s *Session) newEntry(clinicID, date string) model.Entry {
	return model.Entry{
		ID:       s.opts.NewID(),
		ClinicID: clinicID,
		Date:     date,
		Exam:     s.cat.DefaultRef(),
		Qty:      1,
	}
}

// persist writes one document. Failures are logged and otherwise ignored:
// the in-memory state stays authoritative.
func (s *Session) persist(ctx context.Context, key string) {
	var err error
	switch key {
	case store.KeyPrices:
		err = store.Save(ctx, s.docs, key, s.prices)
	case store.KeyClinics:
		err = store.Save(ctx, s.docs, key, s.clinics)
	case store.KeyEntries:
		err = store.Save(ctx, s.docs, key, s.entries)
	case store.KeyCurrentClinic:
		err = store.Save(ctx, s.docs, key, s.current)
	case store.KeyFilterDate:
		err = store.Save(ctx, s.docs, key, s.date)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("document write failed")
	}
}

// Catalog returns the catalog entries are resolved against.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Engine returns the valuation engine bound to the current catalog.
func (s *Session) Engine() *valuation.Engine { return s.engine }

// PricesEditable reports whether SetPrice is allowed.
func (s *Session) PricesEditable() bool { return s.opts.PricesEditable }

// Prices returns a copy of the price table.
func (s *Session) Prices() model.PriceTable { return s.prices.Clone() }

// Clinics returns a copy of the clinic list.
func (s *Session) Clinics() []model.Clinic {
	return append([]model.Clinic(nil), s.clinics...)
}

// Clinic looks up a clinic by id.
func (s *Session) Clinic(id string) (model.Clinic, bool) {
	for _, c := range s.clinics {
		if c.ID == id {
			return c, true
		}
	}
	return model.Clinic{}, false
}

// CurrentClinic returns the selected clinic. ok is false only when the
// clinic list no longer contains the selection.
func (s *Session) CurrentClinic() (model.Clinic, bool) { return s.Clinic(s.current) }

// Selection returns the active (clinic, date) selection.
func (s *Session) Selection() model.Selection {
	return model.Selection{ClinicID: s.current, Date: s.date}
}

// Entries returns a copy of every entry, in insertion order.
func (s *Session) Entries() []model.Entry {
	return append([]model.Entry(nil), s.entries...)
}

// Selected returns the entries inside the active selection.
func (s *Session) Selected() []model.Entry {
	return selection.Apply(s.entries, s.Selection())
}

// Entry looks up one entry by id.
func (s *Session) Entry(id string) (model.Entry, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], true
	}
	return model.Entry{}, false
}

func (s *Session) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Valuate computes the valuation of the active selection.
func (s *Session) Valuate() *model.Valuation {
	return s.engine.Compute(s.Selected(), s.prices)
}

// Today is the current date in ISO form.
func (s *Session) Today() string { return normalize.ISODate(s.opts.Now()) }

// Report builds the report model for the active selection from a single
// valuation pass.
func (s *Session) Report(now time.Time) *report.Report {
	clinic, _ := s.CurrentClinic()
	return report.Build(report.Input{
		Title:       s.opts.ReportTitle,
		Clinic:      clinic,
		Date:        s.date,
		GeneratedAt: now,
		Valuation:   s.Valuate(),
		Catalog:     s.cat,
	})
}
