package services

import (
	"context"
	"fmt"
	"log/slog"

	"cartao/internal/amqp"
	"cartao/internal/core"
	"cartao/internal/metrics"
	"cartao/internal/storage"
)

type PurchaseService struct {
	repo            *storage.SQLiteRepository
	cycle           core.BillingCycle
	maxInstallments int
	receipts        *Receipts
	metrics         *metrics.Metrics
}

func NewPurchaseService(repo *storage.SQLiteRepository, cycle core.BillingCycle, maxInstallments int, receipts *Receipts, m *metrics.Metrics) *PurchaseService {
	if maxInstallments <= 0 {
		maxInstallments = core.DefaultMaxInstallments
	}
	return &PurchaseService{
		repo:            repo,
		cycle:           cycle,
		maxInstallments: maxInstallments,
		receipts:        receipts,
		metrics:         m,
	}
}

func (s *PurchaseService) MaxInstallments() int {
	return s.maxInstallments
}

// Create validates the input, splits the total into installments on the
// card's billing cycle and stores everything in one transaction.
func (s *PurchaseService) Create(ctx context.Context, in core.PurchaseInput) (core.Purchase, error) {
	if err := in.Validate(s.maxInstallments); err != nil {
		return core.Purchase{}, err
	}

	plans := core.GenerateInstallments(s.cycle, in.PurchaseDate, in.TotalAmount, in.InstallmentsCount)
	p, err := s.repo.CreatePurchase(ctx, in, plans)
	if err != nil {
		return core.Purchase{}, fmt.Errorf("create purchase: %w", err)
	}
	s.metrics.PurchaseCreated()

	slog.InfoContext(ctx, "Purchase created",
		"purchase_id", p.ID,
		"person_id", p.PersonID,
		"first_period", plans[0].Period.String(),
		"installments", len(plans))
	return p, nil
}

func (s *PurchaseService) Get(ctx context.Context, id string) (core.Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

// List returns purchases newest first; personID and limit are optional.
func (s *PurchaseService) List(ctx context.Context, personID string, limit int) ([]core.Purchase, error) {
	return s.repo.ListPurchases(ctx, personID, limit)
}

// Delete removes the purchase and its installments, leaving the person's
// other purchases untouched.
func (s *PurchaseService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrMissingID
	}
	orphaned, err := s.repo.DeletePurchase(ctx, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	s.receipts.Release(ctx, orphaned, amqp.ReasonPurchaseDeleted)
	return nil
}
