package core

import (
	"fmt"
	"time"
)

// Period identifies one monthly invoice of the card.
type Period struct {
	Month int // 1-12
	Year  int
}

func NewPeriod(month, year int) Period {
	return Period{Month: month, Year: year}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("%w: invalid year", ErrValidation)
	}
	return nil
}

// AddMonths moves the period n months forward (or backward when n is
// negative), rolling over years as needed.
func (p Period) AddMonths(n int) Period {
	idx := p.Year*12 + (p.Month - 1) + n
	return Period{Month: idx%12 + 1, Year: idx / 12}
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParsePeriod parses a period in YYYY-MM format.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid period %q", ErrValidation, s)
	}
	return Period{Month: int(t.Month()), Year: t.Year()}, nil
}

// BillingCycle holds the card's turnover and due days.
//
// A purchase made before the turnover day lands on the invoice of its own
// month; from the turnover day on it lands on the next month's invoice.
type BillingCycle struct {
	TurnoverDay int
	DueDay      int
}

func NewBillingCycle(turnoverDay, dueDay int) (BillingCycle, error) {
	if turnoverDay < 1 || turnoverDay > 31 {
		return BillingCycle{}, fmt.Errorf("%w: turnover day must be between 1 and 31", ErrInvalidDay)
	}
	if dueDay < 1 || dueDay > 31 {
		return BillingCycle{}, fmt.Errorf("%w: due day must be between 1 and 31", ErrInvalidDay)
	}
	return BillingCycle{TurnoverDay: turnoverDay, DueDay: dueDay}, nil
}

// InvoicePeriodFor returns the invoice period a purchase made on d belongs to.
func (c BillingCycle) InvoicePeriodFor(d Date) Period {
	p := Period{Month: d.Month(), Year: d.Year()}
	if d.Day() >= c.TurnoverDay {
		return p.AddMonths(1)
	}
	return p
}

// InstallmentPeriod returns the invoice period of the n-th (1-based)
// installment of a purchase made on d.
func (c BillingCycle) InstallmentPeriod(d Date, n int) Period {
	return c.InvoicePeriodFor(d).AddMonths(n - 1)
}

// Current returns the invoice period a purchase made today would land on.
func (c BillingCycle) Current(clock Clock) Period {
	return c.InvoicePeriodFor(Today(clock))
}

// DueDate returns the payment due date of the invoice for p. The due day is
// clamped to the last day of short months.
func (c BillingCycle) DueDate(p Period) Date {
	last := time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := c.DueDay
	if day > last {
		day = last
	}
	return NewDate(p.Year, p.Month, day)
}
