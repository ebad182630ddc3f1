package core

import (
	"testing"
	"time"
)

func TestInvoicePeriodFor(t *testing.T) {
	cycle := BillingCycle{TurnoverDay: 2, DueDay: 12}
	cases := []struct {
		date Date
		want Period
	}{
		{NewDate(2024, 3, 1), Period{Month: 3, Year: 2024}},   // before turnover
		{NewDate(2024, 3, 2), Period{Month: 4, Year: 2024}},   // on turnover
		{NewDate(2024, 3, 31), Period{Month: 4, Year: 2024}},  // after turnover
		{NewDate(2024, 12, 1), Period{Month: 12, Year: 2024}}, // december, before
		{NewDate(2024, 12, 5), Period{Month: 1, Year: 2025}},  // december rollover
		{NewDate(2025, 1, 1), Period{Month: 1, Year: 2025}},
	}
	for _, tc := range cases {
		if got := cycle.InvoicePeriodFor(tc.date); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.date, tc.want, got)
		}
	}
}

func TestInstallmentPeriodRollsOverYears(t *testing.T) {
	cycle := BillingCycle{TurnoverDay: 2, DueDay: 12}
	purchase := NewDate(2024, 10, 15) // first invoice Nov 2024

	cases := []struct {
		n    int
		want Period
	}{
		{1, Period{Month: 11, Year: 2024}},
		{2, Period{Month: 12, Year: 2024}},
		{3, Period{Month: 1, Year: 2025}},
		{13, Period{Month: 11, Year: 2025}},
		{26, Period{Month: 12, Year: 2026}},
		{48, Period{Month: 10, Year: 2028}},
	}
	for _, tc := range cases {
		if got := cycle.InstallmentPeriod(purchase, tc.n); got != tc.want {
			t.Fatalf("installment %d: expected %s, got %s", tc.n, tc.want, got)
		}
	}
}

func TestPeriodAddMonths(t *testing.T) {
	p := Period{Month: 1, Year: 2025}
	if got := p.AddMonths(-1); got != (Period{Month: 12, Year: 2024}) {
		t.Fatalf("expected 2024-12, got %s", got)
	}
	if got := p.AddMonths(24); got != (Period{Month: 1, Year: 2027}) {
		t.Fatalf("expected 2027-01, got %s", got)
	}
	if !p.Before(p.AddMonths(1)) || p.AddMonths(1).Before(p) {
		t.Fatalf("Before ordering is wrong")
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-11")
	if err != nil || p != (Period{Month: 11, Year: 2025}) {
		t.Fatalf("expected 2025-11, got %v (err=%v)", p, err)
	}
	if p.String() != "2025-11" {
		t.Fatalf("unexpected String(): %s", p)
	}
	if _, err := ParsePeriod("2025-13"); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestCurrentUsesClock(t *testing.T) {
	cycle := BillingCycle{TurnoverDay: 2, DueDay: 12}
	loc := time.FixedZone("BRT", -3*3600)

	// 2025-01-02 01:00 UTC is still January 1st in BRT, before turnover.
	clock := FixedClock{T: time.Date(2025, 1, 2, 1, 0, 0, 0, time.UTC).In(loc)}
	if got := cycle.Current(clock); got != (Period{Month: 1, Year: 2025}) {
		t.Fatalf("expected 2025-01, got %s", got)
	}

	clock = FixedClock{T: time.Date(2025, 1, 2, 15, 0, 0, 0, loc)}
	if got := cycle.Current(clock); got != (Period{Month: 2, Year: 2025}) {
		t.Fatalf("expected 2025-02, got %s", got)
	}
}

func TestDueDateClampsToMonthEnd(t *testing.T) {
	cycle := BillingCycle{TurnoverDay: 25, DueDay: 31}
	if got := cycle.DueDate(Period{Month: 2, Year: 2024}); got.String() != "2024-02-29" {
		t.Fatalf("expected 2024-02-29, got %s", got)
	}
	if got := cycle.DueDate(Period{Month: 3, Year: 2024}); got.String() != "2024-03-31" {
		t.Fatalf("expected 2024-03-31, got %s", got)
	}
	cycle.DueDay = 12
	if got := cycle.DueDate(Period{Month: 4, Year: 2025}); got.String() != "2025-04-12" {
		t.Fatalf("expected 2025-04-12, got %s", got)
	}
}

func TestNewBillingCycle(t *testing.T) {
	if _, err := NewBillingCycle(2, 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, days := range [][2]int{{0, 12}, {32, 12}, {2, 0}, {2, 40}} {
		if _, err := NewBillingCycle(days[0], days[1]); err == nil {
			t.Fatalf("expected error for %v", days)
		}
	}
}
