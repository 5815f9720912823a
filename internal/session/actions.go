package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/store"
)

var ErrUnknownUnit = errors.New("unknown base unit")

// AddEntry appends a new entry for the current clinic with the default
// exam and quantity 1. It uses the selected date, or today when no date is
// selected; in that case today also becomes the selected date.
func (s *Session) AddEntry(ctx context.Context) (model.Entry, error) {
	if _, ok := s.CurrentClinic(); !ok {
		return model.Entry{}, fmt.Errorf("%w: %q", ErrUnknownClinic, s.current)
	}
	if s.date == "" {
		s.date = s.Today()
		s.persist(ctx, store.KeyFilterDate)
	}
	en := s.newEntry(s.current, s.date)
	s.entries = append(s.entries, en)
	s.persist(ctx, store.KeyEntries)
	return en, nil
}

// EntryPatch holds the fields to change on an entry. Nil fields are left
// untouched.
type EntryPatch struct {
	Exam *model.ExamRef
	Qty  *int64
	Note *string
	Date *string
}

// UpdateEntry applies p to the entry with the given id. The patch is
// validated as a whole before anything changes.
func (s *Session) UpdateEntry(ctx context.Context, id string, p EntryPatch) (model.Entry, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	en := s.entries[i]

	if p.Exam != nil {
		ref, _ := s.cat.MigrateRef(*p.Exam)
		if !s.cat.Known(ref) {
			return model.Entry{}, fmt.Errorf("%w: %s", ErrUnknownExam, p.Exam)
		}
		en.Exam = ref
	}
	if p.Qty != nil {
		if *p.Qty < 1 {
			return model.Entry{}, fmt.Errorf("%w: got %d", ErrInvalidQty, *p.Qty)
		}
		en.Qty = *p.Qty
	}
	if p.Note != nil {
		en.Note = *p.Note
	}
	if p.Date != nil {
		iso, ok := normalize.ParseDate(*p.Date)
		if !ok {
			return model.Entry{}, fmt.Errorf("%w: %q", ErrInvalidDate, *p.Date)
		}
		en.Date = iso
	}

	s.entries[i] = en
	s.persist(ctx, store.KeyEntries)
	return en, nil
}

// RemoveEntry deletes the entry with the given id.
func (s *Session) RemoveEntry(ctx context.Context, id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	s.persist(ctx, store.KeyEntries)
	return nil
}

// DuplicateEntry appends a copy of the entry under a new id.
func (s *Session) DuplicateEntry(ctx context.Context, id string) (model.Entry, error) {
	src, ok := s.Entry(id)
	if !ok {
		return model.Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	dup := src
	dup.ID = s.opts.NewID()
	s.entries = append(s.entries, dup)
	s.persist(ctx, store.KeyEntries)
	return dup, nil
}

// ClearClinic removes every entry of the current clinic, across all
// dates, and returns how many were removed.
func (s *Session) ClearClinic(ctx context.Context) int {
	kept := s.entries[:0:0]
	for _, en := range s.entries {
		if en.ClinicID != s.current {
			kept = append(kept, en)
		}
	}
	n := len(s.entries) - len(kept)
	if n > 0 {
		s.entries = kept
		s.persist(ctx, store.KeyEntries)
	}
	return n
}

// SetPrice sets the price of one base unit, in cents.
func (s *Session) SetPrice(ctx context.Context, unit string, cents int64) error {
	if !s.opts.PricesEditable {
		return ErrPricesLocked
	}
	if _, ok := s.cat.Unit(unit); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	if cents < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPrice, cents)
	}
	s.prices[unit] = cents
	s.persist(ctx, store.KeyPrices)
	return nil
}

// ResetPrices restores the catalog default for every base unit.
func (s *Session) ResetPrices(ctx context.Context) error {
	if !s.opts.PricesEditable {
		return ErrPricesLocked
	}
	s.prices = s.cat.DefaultPrices()
	s.persist(ctx, store.KeyPrices)
	return nil
}

// AddClinic registers a clinic. An empty id is derived from the name.
func (s *Session) AddClinic(ctx context.Context, c model.Clinic) (model.Clinic, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		c.ID = normalize.Slug(c.Name)
	}
	if c.ID == "" || c.Name == "" {
		return model.Clinic{}, ErrInvalidClinic
	}
	if _, dup := s.Clinic(c.ID); dup {
		return model.Clinic{}, fmt.Errorf("%w: %s", ErrDuplicateClinic, c.ID)
	}
	s.clinics = append(s.clinics, c)
	s.persist(ctx, store.KeyClinics)
	return c, nil
}

// SelectClinic makes id the current clinic.
func (s *Session) SelectClinic(ctx context.Context, id string) error {
	if _, ok := s.Clinic(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownClinic, id)
	}
	s.current = id
	s.persist(ctx, store.KeyCurrentClinic)
	return nil
}

// SetDate selects a reporting date. Day-month-year input is accepted.
func (s *Session) SetDate(ctx context.Context, date string) error {
	iso, ok := normalize.ParseDate(date)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	s.date = iso
	s.persist(ctx, store.KeyFilterDate)
	return nil
}

// ClearDate drops the date restriction: every date of the clinic is
// selected.
func (s *Session) ClearDate(ctx context.Context) {
	s.date = ""
	s.persist(ctx, store.KeyFilterDate)
}
