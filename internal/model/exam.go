package model

import (
	"fmt"
	"strconv"
	"strings"
)

// NoComposition is shown where an exam has no base-unit composition.
const NoComposition = "—"

// ExamKind tags which catalog list an ExamRef points into.
type ExamKind uint8

const (
	KindUnknown ExamKind = iota
	KindEquivalence
	KindDirect
)

func (k ExamKind) String() string {
	switch k {
	case KindEquivalence:
		return "equivalence"
	case KindDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ExamRef references exactly one catalog exam. It is a lookup key only and
// is resolved against the catalog at valuation time.
type ExamRef struct {
	Kind ExamKind
	ID   string
	// Position is a 1-based index into the direct exam list. It is only set
	// when decoding a legacy "custom:<n>" reference and is cleared once the
	// catalog migrates the ref to a slug id.
	Position int
}

// EquivalenceRef returns a reference to a composite exam.
func EquivalenceRef(id string) ExamRef {
	return ExamRef{Kind: KindEquivalence, ID: id}
}

// DirectRef returns a reference to a directly priced exam by slug id.
func DirectRef(id string) ExamRef {
	return ExamRef{Kind: KindDirect, ID: id}
}

// IsEquivalence reports whether r points at a composite exam.
func (r ExamRef) IsEquivalence() bool { return r.Kind == KindEquivalence }

// IsDirect reports whether r points at a directly priced exam.
func (r ExamRef) IsDirect() bool { return r.Kind == KindDirect }

// IsPositional reports whether r is an unmigrated legacy positional ref.
func (r ExamRef) IsPositional() bool { return r.Kind == KindDirect && r.Position > 0 }

func (r ExamRef) String() string {
	switch {
	case r.IsPositional():
		return "custom:" + strconv.Itoa(r.Position)
	case r.Kind == KindEquivalence:
		return "eq:" + r.ID
	case r.Kind == KindDirect:
		return "direct:" + r.ID
	default:
		return r.ID
	}
}

// ParseExamRef decodes the persisted string form. Accepted forms:
//
//	eq:<id>        equivalence exam
//	<id>           equivalence exam (legacy, untagged)
//	direct:<slug>  direct exam
//	custom:<slug>  direct exam (legacy)
//	custom:<n>     direct exam by 1-based position (legacy)
func ParseExamRef(s string) (ExamRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ExamRef{}, fmt.Errorf("empty exam reference")
	}
	tag, rest, tagged := strings.Cut(s, ":")
	if !tagged {
		return EquivalenceRef(s), nil
	}
	if rest == "" {
		return ExamRef{}, fmt.Errorf("exam reference %q has no id", s)
	}
	switch tag {
	case "eq":
		return EquivalenceRef(rest), nil
	case "direct":
		return DirectRef(rest), nil
	case "custom":
		if n, err := strconv.Atoi(rest); err == nil {
			if n <= 0 {
				return ExamRef{}, fmt.Errorf("exam reference %q has invalid position", s)
			}
			return ExamRef{Kind: KindDirect, Position: n}, nil
		}
		return DirectRef(rest), nil
	default:
		return ExamRef{}, fmt.Errorf("exam reference %q has unknown tag %q", s, tag)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r ExamRef) MarshalText() ([]byte, error) {
	if r.Kind == KindUnknown {
		return nil, fmt.Errorf("cannot encode untagged exam reference")
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Text that does not
// parse decodes to a KindUnknown ref carrying the raw text in ID, so one bad
// entry never fails a whole document; such refs never resolve.
func (r *ExamRef) UnmarshalText(b []byte) error {
	ref, err := ParseExamRef(string(b))
	if err != nil {
		*r = ExamRef{ID: string(b)}
		return nil
	}
	*r = ref
	return nil
}

// EquivalenceExamDef is a composite procedure billed as multiples of base units.
type EquivalenceExamDef struct {
	ID    string
	Label string
	// Units maps BaseUnit key to a positive multiplier.
	Units map[string]int64
}

// DirectExamDef is a procedure with its own fixed price.
type DirectExamDef struct {
	ID         string // slug of Label
	Label      string
	PriceCents int64
}
