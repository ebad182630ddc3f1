package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SpendingRow is the minimal view of an installment the summarizer needs.
type SpendingRow struct {
	PersonID   string
	PersonName string
	Amount     decimal.Decimal
	Status     Status
}

// PersonSpending aggregates the installments of one person.
type PersonSpending struct {
	PersonID              string
	PersonName            string
	TotalAmount           decimal.Decimal
	PaidAmount            decimal.Decimal
	PendingAmount         decimal.Decimal
	InstallmentsCount     int
	PaidInstallmentsCount int
}

// MonthlySpending is the per-person breakdown of one invoice period.
type MonthlySpending struct {
	Period        Period
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	PendingAmount decimal.Decimal
	ByPerson      []PersonSpending
}

// SummarizeByPerson groups rows by person. Sums are accumulated exactly and
// rounded to cents once at the end; PendingAmount is always
// TotalAmount - PaidAmount. People with no rows do not appear. The result is
// ordered by name, then by id for equal names.
func SummarizeByPerson(rows []SpendingRow) []PersonSpending {
	groups := make(map[string]*PersonSpending)
	for _, r := range rows {
		g, ok := groups[r.PersonID]
		if !ok {
			g = &PersonSpending{
				PersonID:   r.PersonID,
				PersonName: r.PersonName,
			}
			groups[r.PersonID] = g
		}
		g.TotalAmount = g.TotalAmount.Add(r.Amount)
		g.InstallmentsCount++
		if r.Status == StatusPaid {
			g.PaidAmount = g.PaidAmount.Add(r.Amount)
			g.PaidInstallmentsCount++
		}
	}

	out := make([]PersonSpending, 0, len(groups))
	for _, g := range groups {
		g.TotalAmount = g.TotalAmount.Round(2)
		g.PaidAmount = g.PaidAmount.Round(2)
		g.PendingAmount = g.TotalAmount.Sub(g.PaidAmount)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PersonName != out[j].PersonName {
			return out[i].PersonName < out[j].PersonName
		}
		return out[i].PersonID < out[j].PersonID
	})
	return out
}

// SummarizePeriod builds the monthly spending report for p from the rows of
// installments billed in p.
func SummarizePeriod(p Period, rows []SpendingRow) MonthlySpending {
	byPerson := SummarizeByPerson(rows)
	ms := MonthlySpending{Period: p, ByPerson: byPerson}
	for _, ps := range byPerson {
		ms.TotalAmount = ms.TotalAmount.Add(ps.TotalAmount)
		ms.PaidAmount = ms.PaidAmount.Add(ps.PaidAmount)
	}
	ms.PendingAmount = ms.TotalAmount.Sub(ms.PaidAmount)
	return ms
}
