package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGenerateInstallmentsAmounts(t *testing.T) {
	cycle := BillingCycle{TurnoverDay: 2, DueDay: 12}
	cases := []struct {
		total string
		count int
		want  []string
	}{
		{"100.00", 3, []string{"33.33", "33.33", "33.34"}},
		{"100.00", 1, []string{"100.00"}},
		{"10.00", 4, []string{"2.50", "2.50", "2.50", "2.50"}},
		{"0.05", 3, []string{"0.02", "0.02", "0.01"}},
		{"200.00", 3, []string{"66.67", "66.67", "66.66"}},
		{"0.01", 2, []string{"0.01", "0.00"}},
	}
	for _, tc := range cases {
		total := decimal.RequireFromString(tc.total)
		plans := GenerateInstallments(cycle, NewDate(2025, 1, 1), total, tc.count)
		if len(plans) != len(tc.want) {
			t.Fatalf("%s/%d: expected %d plans, got %d", tc.total, tc.count, len(tc.want), len(plans))
		}
		sum := decimal.Zero
		for i, p := range plans {
			if p.Number != i+1 {
				t.Fatalf("%s/%d: expected number %d, got %d", tc.total, tc.count, i+1, p.Number)
			}
			if !p.Amount.Equal(decimal.RequireFromString(tc.want[i])) {
				t.Fatalf("%s/%d: installment %d expected %s, got %s", tc.total, tc.count, i+1, tc.want[i], p.Amount)
			}
			sum = sum.Add(p.Amount)
		}
		if !sum.Equal(total) {
			t.Fatalf("%s/%d: installments add up to %s", tc.total, tc.count, sum)
		}
	}
}

func TestGenerateInstallmentsSumIsExact(t *testing.T) {
	cycle := BillingCycle{TurnoverDay: 2, DueDay: 12}
	for cents := int64(1); cents <= 2500; cents += 7 {
		total := FromCents(cents)
		for count := 1; count <= 48; count++ {
			plans := GenerateInstallments(cycle, NewDate(2025, 6, 10), total, count)
			sum := decimal.Zero
			for _, p := range plans {
				sum = sum.Add(p.Amount)
				if !p.Amount.Equal(p.Amount.Round(2)) {
					t.Fatalf("amount %s has more than two decimals", p.Amount)
				}
			}
			if !sum.Equal(total) {
				t.Fatalf("%s in %d installments adds up to %s", total, count, sum)
			}
		}
	}
}

func TestGenerateInstallmentsPeriods(t *testing.T) {
	cycle := BillingCycle{TurnoverDay: 2, DueDay: 12}
	plans := GenerateInstallments(cycle, NewDate(2024, 10, 15), decimal.RequireFromString("1300"), 13)
	if plans[0].Period != (Period{Month: 11, Year: 2024}) {
		t.Fatalf("first installment expected 2024-11, got %s", plans[0].Period)
	}
	if plans[12].Period != (Period{Month: 11, Year: 2025}) {
		t.Fatalf("13th installment expected 2025-11, got %s", plans[12].Period)
	}
	for i := 1; i < len(plans); i++ {
		if plans[i].Period != plans[i-1].Period.AddMonths(1) {
			t.Fatalf("installment %d is not one month after the previous one", plans[i].Number)
		}
	}
}

func TestGenerateInstallmentsRejectsZeroCount(t *testing.T) {
	cycle := BillingCycle{TurnoverDay: 2, DueDay: 12}
	if plans := GenerateInstallments(cycle, NewDate(2025, 1, 1), decimal.NewFromInt(10), 0); plans != nil {
		t.Fatalf("expected nil plans, got %v", plans)
	}
}
