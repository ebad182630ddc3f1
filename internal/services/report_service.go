package services

import (
	"context"
	"fmt"

	"cartao/internal/core"
	"cartao/internal/storage"

	"golang.org/x/sync/errgroup"
)

type ReportService struct {
	repo  *storage.SQLiteRepository
	cycle core.BillingCycle
	clock core.Clock
}

func NewReportService(repo *storage.SQLiteRepository, cycle core.BillingCycle, clock core.Clock) *ReportService {
	return &ReportService{repo: repo, cycle: cycle, clock: clock}
}

// CurrentPeriod is the invoice period today's purchases fall into. It is
// recomputed on every call.
func (s *ReportService) CurrentPeriod() core.Period {
	return s.cycle.Current(s.clock)
}

func (s *ReportService) DueDate(p core.Period) core.Date {
	return s.cycle.DueDate(p)
}

// SpendingByPerson summarizes every installment ever recorded.
func (s *ReportService) SpendingByPerson(ctx context.Context) ([]core.PersonSpending, error) {
	rows, err := s.repo.SpendingRows(ctx)
	if err != nil {
		return nil, err
	}
	return core.SummarizeByPerson(rows), nil
}

// Monthly summarizes the installments billed in p.
func (s *ReportService) Monthly(ctx context.Context, p core.Period) (core.MonthlySpending, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlySpending{}, err
	}
	rows, err := s.repo.SpendingRowsByPeriod(ctx, p)
	if err != nil {
		return core.MonthlySpending{}, err
	}
	return core.SummarizePeriod(p, rows), nil
}

// Periods lists the invoice periods that have installments, newest first,
// always including the current one.
func (s *ReportService) Periods(ctx context.Context) ([]core.Period, error) {
	periods, err := s.repo.InvoicePeriods(ctx)
	if err != nil {
		return nil, err
	}
	current := s.CurrentPeriod()
	for i, p := range periods {
		if p == current {
			return periods, nil
		}
		if p.Before(current) {
			out := make([]core.Period, 0, len(periods)+1)
			out = append(out, periods[:i]...)
			out = append(out, current)
			return append(out, periods[i:]...), nil
		}
	}
	return append(periods, current), nil
}

// Dashboard is everything the landing page shows.
type Dashboard struct {
	Period          core.Period
	DueDate         core.Date
	Counts          storage.DashboardCounts
	Monthly         core.MonthlySpending
	RecentPurchases []core.Purchase
}

const recentPurchases = 5

// Dashboard loads the landing page data concurrently.
func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	d := Dashboard{Period: s.CurrentPeriod()}
	d.DueDate = s.cycle.DueDate(d.Period)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.DashboardCounts(gctx)
		if err != nil {
			return fmt.Errorf("dashboard counts: %w", err)
		}
		d.Counts = counts
		return nil
	})
	g.Go(func() error {
		monthly, err := s.Monthly(gctx, d.Period)
		if err != nil {
			return fmt.Errorf("dashboard monthly: %w", err)
		}
		d.Monthly = monthly
		return nil
	})
	g.Go(func() error {
		recent, err := s.repo.ListPurchases(gctx, "", recentPurchases)
		if err != nil {
			return fmt.Errorf("dashboard recent purchases: %w", err)
		}
		d.RecentPurchases = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
