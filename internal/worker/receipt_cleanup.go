// Package worker holds the background consumers run by cartao-worker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cartao/internal/amqp"
	"cartao/internal/blob"
	"cartao/internal/metrics"
)

// ReferenceCounter reports how many installments still point at a receipt.
type ReferenceCounter interface {
	CountReceiptReferences(ctx context.Context, ref string) (int, error)
}

// ReceiptCleanupWorker deletes receipt blobs queued by the web app.
type ReceiptCleanupWorker struct {
	store   blob.Store
	refs    ReferenceCounter
	metrics *metrics.Metrics
}

func NewReceiptCleanupWorker(store blob.Store, refs ReferenceCounter, m *metrics.Metrics) *ReceiptCleanupWorker {
	return &ReceiptCleanupWorker{store: store, refs: refs, metrics: m}
}

// HandleMessage deletes the blob named by msg. A blob that is already gone
// counts as deleted; a blob that is referenced again is left alone.
func (w *ReceiptCleanupWorker) HandleMessage(ctx context.Context, msg *amqp.ReceiptCleanupMessage) error {
	slog.InfoContext(ctx, "Processing receipt cleanup",
		"receipt_ref", msg.Ref,
		"reason", msg.Reason,
		"queued_at", msg.Timestamp)

	if w.refs != nil {
		n, err := w.refs.CountReceiptReferences(ctx, msg.Ref)
		if err != nil {
			return fmt.Errorf("count receipt references: %w", err)
		}
		if n > 0 {
			slog.WarnContext(ctx, "Receipt still referenced, skipping cleanup",
				"receipt_ref", msg.Ref,
				"references", n)
			return nil
		}
	}

	if err := w.store.Delete(ctx, msg.Ref); err != nil && !errors.Is(err, blob.ErrNotFound) {
		w.metrics.ReceiptCleanup(metrics.CleanupFailed)
		return fmt.Errorf("delete receipt %s: %w", msg.Ref, err)
	}

	w.metrics.ReceiptCleanup(metrics.CleanupDeleted)
	slog.InfoContext(ctx, "Receipt deleted", "receipt_ref", msg.Ref)
	return nil
}

// Consumer is the subset of the AMQP client the worker loop needs.
type Consumer interface {
	ConsumeReceiptCleanup(ctx context.Context, handler func(context.Context, *amqp.ReceiptCleanupMessage) error) error
}

// Run consumes cleanup messages until ctx is cancelled.
func (w *ReceiptCleanupWorker) Run(ctx context.Context, c Consumer) error {
	err := c.ConsumeReceiptCleanup(ctx, w.HandleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
