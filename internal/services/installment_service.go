package services

import (
	"context"
	"fmt"
	"log/slog"

	"cartao/internal/amqp"
	"cartao/internal/blob"
	"cartao/internal/core"
	"cartao/internal/metrics"
	"cartao/internal/storage"
)

// InstallmentService drives the PENDING/PAID state machine of installments.
type InstallmentService struct {
	repo     *storage.SQLiteRepository
	receipts *Receipts
	clock    core.Clock
	metrics  *metrics.Metrics
}

func NewInstallmentService(repo *storage.SQLiteRepository, receipts *Receipts, clock core.Clock, m *metrics.Metrics) *InstallmentService {
	return &InstallmentService{repo: repo, receipts: receipts, clock: clock, metrics: m}
}

func (s *InstallmentService) Get(ctx context.Context, id string) (core.InstallmentDetail, error) {
	return s.repo.GetInstallment(ctx, id)
}

func (s *InstallmentService) ListByPeriod(ctx context.Context, p core.Period) ([]core.InstallmentDetail, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListInstallmentsByPeriod(ctx, p)
}

// ListPending returns every unpaid installment across all invoice periods.
func (s *InstallmentService) ListPending(ctx context.Context) ([]core.InstallmentDetail, error) {
	return s.repo.ListPendingInstallments(ctx)
}

func (s *InstallmentService) ListByPerson(ctx context.Context, personID string) ([]core.InstallmentDetail, error) {
	if personID == "" {
		return nil, core.ErrMissingID
	}
	return s.repo.ListInstallmentsByPerson(ctx, personID)
}

// Pay marks a pending installment as paid now, optionally attaching a
// receipt image. If the transition fails the uploaded receipt is removed.
func (s *InstallmentService) Pay(ctx context.Context, id string, receipt []byte) error {
	if id == "" {
		return core.ErrMissingID
	}
	inst, err := s.repo.GetInstallment(ctx, id)
	if err != nil {
		return err
	}
	if inst.IsPaid() {
		return fmt.Errorf("installment %s: %w", id, core.ErrAlreadyPaid)
	}

	ref, err := s.storeReceipt(ctx, receipt)
	if err != nil {
		return err
	}

	if err := s.repo.MarkPaid(ctx, id, s.clock.Now(), ref); err != nil {
		s.receipts.Discard(ctx, ref, amqp.ReasonPayRollback)
		return err
	}
	s.metrics.InstallmentPaid()

	slog.InfoContext(ctx, "Installment paid",
		"installment_id", id,
		"purchase_id", inst.PurchaseID,
		"receipt_ref", ref)
	return nil
}

// Unpay returns a paid installment to pending and clears its payment data.
// Deleting the receipt blob is best effort: a failure is logged and queued
// but the installment stays pending.
func (s *InstallmentService) Unpay(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrMissingID
	}
	ref, orphaned, err := s.repo.MarkPending(ctx, id)
	if err != nil {
		return err
	}
	s.metrics.InstallmentUnpaid()

	slog.InfoContext(ctx, "Installment unpaid", "installment_id", id, "receipt_ref", ref)
	if orphaned {
		s.receipts.Discard(ctx, ref, amqp.ReasonUnpay)
	}
	return nil
}

// Settle pays every pending installment of a person in period p at once,
// all with the same payment time and receipt. It returns how many
// installments changed; none is not an error.
func (s *InstallmentService) Settle(ctx context.Context, personID string, p core.Period, receipt []byte) (int, error) {
	if personID == "" {
		return 0, core.ErrMissingPerson
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}

	ref, err := s.storeReceipt(ctx, receipt)
	if err != nil {
		return 0, err
	}

	updated, err := s.repo.SettlePeriod(ctx, personID, p, s.clock.Now(), ref)
	if err != nil {
		s.receipts.Discard(ctx, ref, amqp.ReasonSettleRollback)
		return 0, err
	}
	if updated == 0 {
		// Nothing points at the upload.
		s.receipts.Discard(ctx, ref, amqp.ReasonSettleRollback)
	}
	s.metrics.InstallmentsSettled(updated)

	slog.InfoContext(ctx, "Invoice period settled",
		"person_id", personID,
		"period", p.String(),
		"updated", updated,
		"receipt_ref", ref)
	return updated, nil
}

// Receipt returns the receipt image attached to an installment.
func (s *InstallmentService) Receipt(ctx context.Context, id string) (blob.Object, error) {
	inst, err := s.repo.GetInstallment(ctx, id)
	if err != nil {
		return blob.Object{}, err
	}
	if inst.PaymentReceipt == "" {
		return blob.Object{}, fmt.Errorf("installment %s has no receipt: %w", id, core.ErrNotFound)
	}
	return s.receipts.Get(ctx, inst.PaymentReceipt)
}

func (s *InstallmentService) storeReceipt(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	return s.receipts.Store(ctx, data)
}
