package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount into a positive decimal with two
// fractional digits, rounding half away from zero on the third digit.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. When both
// appear, the last one is the decimal separator and the other is treated as a
// thousands separator ("1.234,56" and "1,234.56" are the same amount). Dots
// alone that only ever precede groups of exactly three digits are thousands
// separators as written in pt-BR, so "1.234" is 1234 and "1.234.567" is
// 1234567, while "12.34" and "0.500" keep the dot as the decimal point.
//
// Amounts above MaxAmount are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && dotsGroupThousands(s):
		s = strings.ReplaceAll(s, ".", "")
	}

	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() || d.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// dotsGroupThousands reports whether every dot in s is followed by exactly
// three digits and the leading group is a plain 1-3 digit number.
func dotsGroupThousands(s string) bool {
	groups := strings.Split(s, ".")
	head := groups[0]
	if len(head) == 0 || len(head) > 3 || head[0] == '0' {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// MaxAmount is the largest purchase total accepted. It keeps cent values and
// their sums well inside int64.
var MaxAmount = decimal.New(1_000_000_000, 0)

// FromCents converts an integer amount of cents into a decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents converts a decimal amount into integer cents, rounding to two
// decimal places first.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}
