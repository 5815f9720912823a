// Package catalog holds the fixed exam definitions: base billing units,
// composite equivalence exams and directly priced exams.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
)

// UnitSpec declares a base unit and its default price.
type UnitSpec struct {
	Unit              model.BaseUnit
	DefaultPriceCents int64
}

// DirectSpec declares a directly priced exam. Its id is derived from Label.
type DirectSpec struct {
	Label      string
	PriceCents int64
}

// Definition is the raw input to New.
type Definition struct {
	DirectPrefix  string // stripped from direct labels before bucketing, e.g. "Ultrassonografia"
	FallbackLabel string // label for unresolved or empty exams
	DefaultExam   string // equivalence id used for new entries
	BaseUnits     []UnitSpec
	Equivalence   []model.EquivalenceExamDef
	Direct        []DirectSpec
}

// Catalog is a read-only lookup surface over a validated Definition.
// It is safe for concurrent use.
type Catalog struct {
	prefix        *regexp.Regexp
	fallbackLabel string
	units         []model.BaseUnit
	defaultPrices model.PriceTable
	equivalence   []model.EquivalenceExamDef
	eqByID        map[string]int
	direct        []model.DirectExamDef
	directByID    map[string]int
	defaultRef    model.ExamRef
}

// ValidationError lists every problem found in a Definition.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid catalog: " + strings.Join(e.Problems, "; ")
}

// New validates def and builds a Catalog. Direct exams whose labels slug to
// the same id collapse into the first definition.
func New(def Definition) (*Catalog, error) {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	c := &Catalog{
		fallbackLabel: def.FallbackLabel,
		defaultPrices: make(model.PriceTable, len(def.BaseUnits)),
		eqByID:        make(map[string]int, len(def.Equivalence)),
		directByID:    make(map[string]int, len(def.Direct)),
	}
	if c.fallbackLabel == "" {
		c.fallbackLabel = "Exame"
	}
	if p := strings.TrimSpace(def.DirectPrefix); p != "" {
		c.prefix = regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(p) + `\s*-\s*`)
	}

	if len(def.BaseUnits) == 0 {
		addf("no base units")
	}
	for _, spec := range def.BaseUnits {
		u := spec.Unit
		switch {
		case u.Key == "":
			addf("base unit %q has no key", u.Name)
			continue
		case u.Name == "":
			addf("base unit %q has no name", u.Key)
			continue
		case spec.DefaultPriceCents < 0:
			addf("base unit %q has negative default price", u.Key)
		}
		if _, dup := c.defaultPrices[u.Key]; dup {
			addf("duplicate base unit %q", u.Key)
			continue
		}
		c.units = append(c.units, u)
		c.defaultPrices[u.Key] = spec.DefaultPriceCents
	}

	for _, eq := range def.Equivalence {
		if eq.ID == "" {
			addf("equivalence exam %q has no id", eq.Label)
			continue
		}
		if _, dup := c.eqByID[eq.ID]; dup {
			addf("duplicate equivalence exam %q", eq.ID)
			continue
		}
		if len(eq.Units) == 0 {
			addf("equivalence exam %q has no multipliers", eq.ID)
			continue
		}
		ok := true
		units := make(map[string]int64, len(eq.Units))
		for key, m := range eq.Units {
			if _, known := model.BaseUnitByKey(c.units, key); !known {
				addf("equivalence exam %q references unknown base unit %q", eq.ID, key)
				ok = false
			}
			if m <= 0 {
				addf("equivalence exam %q has non-positive multiplier for %q", eq.ID, key)
				ok = false
			}
			units[key] = m
		}
		if !ok {
			continue
		}
		if eq.Label == "" {
			eq.Label = eq.ID
		}
		eq.Units = units
		c.eqByID[eq.ID] = len(c.equivalence)
		c.equivalence = append(c.equivalence, eq)
	}

	for _, d := range def.Direct {
		label := strings.TrimSpace(d.Label)
		id := normalize.Slug(label)
		if id == "" {
			addf("direct exam %q has an empty id", d.Label)
			continue
		}
		if d.PriceCents < 0 {
			addf("direct exam %q has negative price", label)
			continue
		}
		if _, dup := c.directByID[id]; dup {
			continue
		}
		c.directByID[id] = len(c.direct)
		c.direct = append(c.direct, model.DirectExamDef{ID: id, Label: label, PriceCents: d.PriceCents})
	}

	switch {
	case def.DefaultExam != "":
		if _, ok := c.eqByID[def.DefaultExam]; ok {
			c.defaultRef = model.EquivalenceRef(def.DefaultExam)
		} else if _, ok := c.directByID[def.DefaultExam]; ok {
			c.defaultRef = model.DirectRef(def.DefaultExam)
		} else {
			addf("default exam %q is not in the catalog", def.DefaultExam)
		}
	case len(c.equivalence) > 0:
		c.defaultRef = model.EquivalenceRef(c.equivalence[0].ID)
	case len(c.direct) > 0:
		c.defaultRef = model.DirectRef(c.direct[0].ID)
	default:
		addf("catalog has no exams")
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return c, nil
}

// BaseUnits returns the base units in catalog order.
func (c *Catalog) BaseUnits() []model.BaseUnit {
	return append([]model.BaseUnit(nil), c.units...)
}

// Unit returns the base unit with the given key.
func (c *Catalog) Unit(key string) (model.BaseUnit, bool) {
	return model.BaseUnitByKey(c.units, key)
}

// DefaultPrices returns a fresh PriceTable holding every unit's default price.
func (c *Catalog) DefaultPrices() model.PriceTable {
	return c.defaultPrices.Clone()
}

// Equivalences returns the composite exams in catalog order.
func (c *Catalog) Equivalences() []model.EquivalenceExamDef {
	return append([]model.EquivalenceExamDef(nil), c.equivalence...)
}

// Directs returns the directly priced exams in catalog order.
func (c *Catalog) Directs() []model.DirectExamDef {
	return append([]model.DirectExamDef(nil), c.direct...)
}

// ResolveEquivalence looks up a composite exam by exact id.
func (c *Catalog) ResolveEquivalence(id string) (model.EquivalenceExamDef, bool) {
	i, ok := c.eqByID[id]
	if !ok {
		return model.EquivalenceExamDef{}, false
	}
	return c.equivalence[i], true
}

// ResolveDirect looks up a directly priced exam by slug id.
func (c *Catalog) ResolveDirect(id string) (model.DirectExamDef, bool) {
	i, ok := c.directByID[id]
	if !ok {
		return model.DirectExamDef{}, false
	}
	return c.direct[i], true
}

// DirectAt returns the direct exam at a 1-based position.
func (c *Catalog) DirectAt(pos int) (model.DirectExamDef, bool) {
	if pos < 1 || pos > len(c.direct) {
		return model.DirectExamDef{}, false
	}
	return c.direct[pos-1], true
}

// Known reports whether ref resolves. Positional refs never resolve until
// migrated.
func (c *Catalog) Known(ref model.ExamRef) bool {
	switch {
	case ref.IsPositional():
		return false
	case ref.IsEquivalence():
		_, ok := c.eqByID[ref.ID]
		return ok
	case ref.IsDirect():
		_, ok := c.directByID[ref.ID]
		return ok
	}
	return false
}

// MigrateRef rewrites a legacy positional ref into a slug ref. It reports
// false when the position is out of range. Non-positional refs pass
// through unchanged.
func (c *Catalog) MigrateRef(ref model.ExamRef) (model.ExamRef, bool) {
	if !ref.IsPositional() {
		return ref, true
	}
	d, ok := c.DirectAt(ref.Position)
	if !ok {
		return ref, false
	}
	return model.DirectRef(d.ID), true
}

// Label returns the display label for ref, or the fallback label.
func (c *Catalog) Label(ref model.ExamRef) string {
	switch {
	case ref.IsPositional():
	case ref.IsEquivalence():
		if d, ok := c.ResolveEquivalence(ref.ID); ok {
			return d.Label
		}
	case ref.IsDirect():
		if d, ok := c.ResolveDirect(ref.ID); ok {
			return d.Label
		}
	}
	return c.fallbackLabel
}

// FallbackLabel is the label used for unresolved exams.
func (c *Catalog) FallbackLabel() string { return c.fallbackLabel }

// DefaultRef is the exam reference given to new entries.
func (c *Catalog) DefaultRef() model.ExamRef { return c.defaultRef }
