package catalog

import (
	"fmt"
	"strings"

	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
)

// DescribeComposition renders "{N}× {unit}" terms joined by " + " in base
// unit order, skipping zero or absent multipliers. Returns
// model.NoComposition when nothing is left.
func (c *Catalog) DescribeComposition(def model.EquivalenceExamDef) string {
	var terms []string
	for _, u := range c.units {
		if m := def.Units[u.Key]; m > 0 {
			terms = append(terms, fmt.Sprintf("%d× %s", m, u.Name))
		}
	}
	if len(terms) == 0 {
		return model.NoComposition
	}
	return strings.Join(terms, " + ")
}

// NormalizeDirectLabel strips the direct-exam prefix and collapses labels
// that mention a base unit (by name or alias, case-insensitively) into that
// unit's name, so direct exams share the unit's summary bucket. Other
// labels come back with the first letter capitalized.
func (c *Catalog) NormalizeDirectLabel(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if c.prefix != nil {
		cleaned = strings.TrimSpace(c.prefix.ReplaceAllString(cleaned, ""))
	}
	if cleaned == "" {
		return c.fallbackLabel
	}

	lower := strings.ToLower(cleaned)
	for _, u := range c.units {
		if strings.Contains(lower, strings.ToLower(u.Name)) {
			return u.Name
		}
		for _, alias := range u.Aliases {
			if alias != "" && strings.Contains(lower, strings.ToLower(alias)) {
				return u.Name
			}
		}
	}
	return normalize.CapitalizeFirst(cleaned)
}

// EquivalenceFootnote lists every composite exam with its composition,
// e.g. "Obstétrico de rotina (pré-natal) → 1× Abdominal total; ...".
func (c *Catalog) EquivalenceFootnote() string {
	parts := make([]string, 0, len(c.equivalence))
	for _, eq := range c.equivalence {
		parts = append(parts, eq.Label+" → "+c.DescribeComposition(eq))
	}
	return strings.Join(parts, "; ")
}
