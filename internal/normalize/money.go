package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CentsFromMajor parses a major-unit amount into cents, rounding half away
// from zero. Accepted spellings:
//
//	134,38  1.234,56  1.234.567   comma decimal, dot grouping
//	134.38  129.9                 dot decimal, at most two places
//
// Amounts that read differently depending on convention are rejected:
// "1,234.56", and a single dot followed by more than two digits ("1.234").
func CentsFromMajor(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	plain, err := plainAmount(s)
	if err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(plain)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// plainAmount rewrites s as [-]digits[.digits].
func plainAmount(s string) (string, error) {
	sign, body := "", s
	if rest, ok := strings.CutPrefix(body, "-"); ok {
		sign, body = "-", strings.TrimSpace(rest)
	}

	intPart, frac, hasFrac := body, "", false
	dots, commas := strings.Count(body, "."), strings.Count(body, ",")
	switch {
	case commas > 1:
		return "", fmt.Errorf("amount %q has more than one decimal comma", s)
	case commas == 1:
		intPart, frac, _ = strings.Cut(body, ",")
		hasFrac = true
		if dots > 0 {
			grouped, ok := ungroup(intPart)
			if !ok {
				return "", fmt.Errorf("amount %q has misplaced separators", s)
			}
			intPart = grouped
		}
	case dots == 1:
		intPart, frac, _ = strings.Cut(body, ".")
		hasFrac = true
		if len(frac) > 2 {
			return "", fmt.Errorf("amount %q is ambiguous: use 1.234,00 or 1234.00", s)
		}
	case dots > 1:
		grouped, ok := ungroup(body)
		if !ok {
			return "", fmt.Errorf("amount %q has misplaced separators", s)
		}
		intPart = grouped
	}

	if !allDigits(intPart) || (hasFrac && !allDigits(frac)) {
		return "", fmt.Errorf("amount %q is not a number", s)
	}
	if !hasFrac {
		return sign + intPart, nil
	}
	return sign + intPart + "." + frac, nil
}

// ungroup strips dot thousands separators: one to three leading digits,
// then groups of exactly three.
func ungroup(s string) (string, bool) {
	groups := strings.Split(s, ".")
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DecimalString formats cents as a fixed two-place decimal using sep as the
// decimal separator, e.g. 13438 -> "134,38" for sep ",".
func DecimalString(cents int64, sep string) string {
	s := decimal.New(cents, -2).StringFixed(2)
	if sep != "." {
		s = strings.Replace(s, ".", sep, 1)
	}
	return s
}

// BRL formats cents as Brazilian currency, e.g. 123456 -> "R$ 1.234,56".
func BRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	fixed := decimal.New(cents, -2).StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + "R$ " + groupThousands(intPart, ".") + "," + frac
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
