package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gyeh/sonobill/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if got := len(c.BaseUnits()); got != 3 {
		t.Fatalf("expected 3 base units, got %d", got)
	}
	if got := len(c.Equivalences()); got != 4 {
		t.Errorf("expected 4 equivalence exams, got %d", got)
	}
	if got := len(c.Directs()); got != 20 {
		t.Errorf("expected 20 direct exams, got %d", got)
	}
	prices := c.DefaultPrices()
	if prices.Price("abdominal_total") != 13438 || prices.Price("rins_vias") != 11961 || prices.Price("transvaginal") != 10933 {
		t.Errorf("unexpected default prices: %v", prices)
	}
	if c.DefaultRef() != model.EquivalenceRef("obst_rot") {
		t.Errorf("unexpected default ref %v", c.DefaultRef())
	}
	d, ok := c.ResolveDirect("ultrassonografia-tireoide")
	if !ok || d.PriceCents != 12990 {
		t.Errorf("ResolveDirect tireoide = %+v, %v", d, ok)
	}
	if _, ok := c.ResolveEquivalence("nope"); ok {
		t.Error("unknown equivalence id resolved")
	}
}

func TestDescribeComposition(t *testing.T) {
	c := Default()
	morf, _ := c.ResolveEquivalence("morf_2tri")
	if got := c.DescribeComposition(morf); got != "1× Abdominal total + 1× Rins e Vias + 1× Transvaginal" {
		t.Errorf("DescribeComposition = %q", got)
	}
	mamas, _ := c.ResolveEquivalence("mamas_axilas")
	if got := c.DescribeComposition(mamas); got != "2× Rins e Vias" {
		t.Errorf("DescribeComposition = %q", got)
	}
	empty := model.EquivalenceExamDef{ID: "x", Units: map[string]int64{"abdominal_total": 0}}
	if got := c.DescribeComposition(empty); got != model.NoComposition {
		t.Errorf("DescribeComposition(empty) = %q", got)
	}
}

func TestNormalizeDirectLabel(t *testing.T) {
	c := Default()
	tests := map[string]string{
		"Ultrassonografia - rins e vias urinárias": "Rins e Vias",
		"Ultrassonografia - abdominal total":       "Abdominal total",
		"Ultrassonografia - ABDÔMEN TOTAL":         "Abdominal total",
		"Ultrassonografia - transvaginal":          "Transvaginal",
		"Ultrassonografia - tireoide":              "Tireoide",
		"Ultrassonografia - abdômen superior":      "Abdômen superior",
		"ultrassonografia-mamas":                   "Mamas",
		"Ultrassonografia cervical com doppler":    "Ultrassonografia cervical com doppler",
		"Ultrassonografia - ":                      "Exame",
	}
	for in, want := range tests {
		if got := c.NormalizeDirectLabel(in); got != want {
			t.Errorf("NormalizeDirectLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_DuplicateLabelsCollapse(t *testing.T) {
	c, err := New(Definition{
		BaseUnits: []UnitSpec{{Unit: model.BaseUnit{Key: "a", Name: "A"}}},
		Direct: []DirectSpec{
			{Label: "Ultrasound - Thyroid", PriceCents: 100},
			{Label: "ultrasound – thyroid", PriceCents: 200},
			{Label: "Ultrasound - Thyróid Doppler", PriceCents: 300},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	directs := c.Directs()
	if len(directs) != 2 {
		t.Fatalf("expected 2 direct exams after collapse, got %d: %+v", len(directs), directs)
	}
	if directs[0].ID != "ultrasound-thyroid" || directs[0].PriceCents != 100 {
		t.Errorf("first definition should win: %+v", directs[0])
	}
}

func TestNew_Validation(t *testing.T) {
	units := []UnitSpec{{Unit: model.BaseUnit{Key: "a", Name: "A"}}}
	tests := []struct {
		name string
		def  Definition
	}{
		{"no units", Definition{Direct: []DirectSpec{{Label: "x"}}}},
		{"zero multiplier", Definition{BaseUnits: units, Equivalence: []model.EquivalenceExamDef{{ID: "e", Units: map[string]int64{"a": 0}}}}},
		{"no multipliers", Definition{BaseUnits: units, Equivalence: []model.EquivalenceExamDef{{ID: "e"}}}},
		{"unknown unit", Definition{BaseUnits: units, Equivalence: []model.EquivalenceExamDef{{ID: "e", Units: map[string]int64{"b": 1}}}}},
		{"duplicate id", Definition{BaseUnits: units, Equivalence: []model.EquivalenceExamDef{
			{ID: "e", Units: map[string]int64{"a": 1}}, {ID: "e", Units: map[string]int64{"a": 2}}}}},
		{"negative price", Definition{BaseUnits: units, Direct: []DirectSpec{{Label: "x", PriceCents: -1}}}},
		{"unknown default", Definition{BaseUnits: units, DefaultExam: "zzz", Direct: []DirectSpec{{Label: "x"}}}},
		{"no exams", Definition{BaseUnits: units}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestMigrateRef(t *testing.T) {
	c := Default()
	ref, ok := c.MigrateRef(model.ExamRef{Kind: model.KindDirect, Position: 11})
	if !ok || ref != model.DirectRef("ultrassonografia-tireoide") {
		t.Errorf("MigrateRef(custom:11) = %v, %v", ref, ok)
	}
	if _, ok := c.MigrateRef(model.ExamRef{Kind: model.KindDirect, Position: 99}); ok {
		t.Error("out-of-range position should not migrate")
	}
	eq := model.EquivalenceRef("obst_rot")
	if got, ok := c.MigrateRef(eq); !ok || got != eq {
		t.Errorf("non-positional ref changed: %v", got)
	}
	if c.Known(model.ExamRef{Kind: model.KindDirect, Position: 1}) {
		t.Error("positional refs must not be Known before migration")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `direct_prefix: Ultrasound
base_units:
  - {key: abd, name: Abdominal total, default_price: "134.38"}
equivalence_exams:
  - {id: obst, label: Obstetric routine, units: {abd: 1}}
direct_exams:
  - {label: "Ultrasound - thyroid", price: "129.90"}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.FallbackLabel() != "Exame" {
		t.Errorf("fallback label = %q", c.FallbackLabel())
	}
	if got := c.NormalizeDirectLabel("Ultrasound - thyroid"); got != "Thyroid" {
		t.Errorf("NormalizeDirectLabel = %q", got)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
