package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
)

//go:embed default_catalog.yaml
var defaultYAML []byte

// yamlCatalog is the on-disk YAML structure. Prices are major-unit strings.
type yamlCatalog struct {
	DirectPrefix  string `yaml:"direct_prefix"`
	FallbackLabel string `yaml:"fallback_label"`
	DefaultExam   string `yaml:"default_exam"`
	BaseUnits     []struct {
		Key          string   `yaml:"key"`
		Name         string   `yaml:"name"`
		Aliases      []string `yaml:"aliases"`
		DefaultPrice string   `yaml:"default_price"`
	} `yaml:"base_units"`
	EquivalenceExams []struct {
		ID    string           `yaml:"id"`
		Label string           `yaml:"label"`
		Units map[string]int64 `yaml:"units"`
	} `yaml:"equivalence_exams"`
	DirectExams []struct {
		Label string `yaml:"label"`
		Price string `yaml:"price"`
	} `yaml:"direct_exams"`
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var yc yamlCatalog
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	def := Definition{
		DirectPrefix:  yc.DirectPrefix,
		FallbackLabel: yc.FallbackLabel,
		DefaultExam:   yc.DefaultExam,
	}
	for _, u := range yc.BaseUnits {
		var cents int64
		if u.DefaultPrice != "" {
			c, err := normalize.CentsFromMajor(u.DefaultPrice)
			if err != nil {
				return nil, fmt.Errorf("base unit %q: %w", u.Key, err)
			}
			cents = c
		}
		def.BaseUnits = append(def.BaseUnits, UnitSpec{
			Unit:              model.BaseUnit{Key: u.Key, Name: u.Name, Aliases: u.Aliases},
			DefaultPriceCents: cents,
		})
	}
	for _, eq := range yc.EquivalenceExams {
		def.Equivalence = append(def.Equivalence, model.EquivalenceExamDef{ID: eq.ID, Label: eq.Label, Units: eq.Units})
	}
	for _, d := range yc.DirectExams {
		cents, err := normalize.CentsFromMajor(d.Price)
		if err != nil {
			return nil, fmt.Errorf("direct exam %q: %w", d.Label, err)
		}
		def.Direct = append(def.Direct, DirectSpec{Label: d.Label, PriceCents: cents})
	}
	return New(def)
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("built-in catalog: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}
