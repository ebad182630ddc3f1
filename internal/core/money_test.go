package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1,005", "1.01", true}, // half-up rounding
		{"1,004", "1", true},
		{"1.234", "1234", true},
		{"1.234.567", "1234567", true},
		{"12.345", "12345", true},
		{"1234.567", "1234.57", true},
		{"0.500", "0.5", true},
		{"12.3456", "12.35", true},
		{"1000000000", "1000000000", true},
		{"1.000.000.000,01", "", false},
		{"184467440737095517.16", "", false},
		{"1.23.456", "", false},
		{" 2.50 ", "2.5", true},
		{"R$ 10,00", "10", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.004", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestCentsConversion(t *testing.T) {
	if got := FromCents(12345); !got.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("expected 123.45, got %s", got)
	}
	if got := ToCents(decimal.RequireFromString("33.335")); got != 3334 {
		t.Fatalf("expected 3334, got %d", got)
	}
	if got := ToCents(FromCents(-42)); got != -42 {
		t.Fatalf("expected -42, got %d", got)
	}
}
