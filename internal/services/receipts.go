package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cartao/internal/blob"
	"cartao/internal/core"
	"cartao/internal/metrics"
)

// CleanupPublisher queues a receipt blob for asynchronous deletion.
type CleanupPublisher interface {
	PublishReceiptCleanup(ctx context.Context, ref, reason string) error
}

// Receipts stores uploaded receipts and disposes of the ones no installment
// references anymore. Disposal never fails the caller.
type Receipts struct {
	store     blob.Store
	publisher CleanupPublisher
	metrics   *metrics.Metrics
}

// NewReceipts wires the receipt store. publisher may be nil, in which case
// releases are deleted inline.
func NewReceipts(store blob.Store, publisher CleanupPublisher, m *metrics.Metrics) *Receipts {
	return &Receipts{store: store, publisher: publisher, metrics: m}
}

// Store validates data and saves it, returning the new reference. Invalid
// uploads are reported as validation errors.
func (r *Receipts) Store(ctx context.Context, data []byte) (string, error) {
	ct, err := blob.ValidateReceipt(data)
	if err != nil {
		return "", fmt.Errorf("%w: receipt: %w", core.ErrValidation, err)
	}
	ref, err := r.store.Put(ctx, data, ct)
	if err != nil {
		return "", fmt.Errorf("store receipt: %w", err)
	}
	slog.InfoContext(ctx, "Receipt stored", "receipt_ref", ref, "content_type", ct, "size", len(data))
	return ref, nil
}

func (r *Receipts) Get(ctx context.Context, ref string) (blob.Object, error) {
	obj, err := r.store.Get(ctx, ref)
	if errors.Is(err, blob.ErrNotFound) {
		return blob.Object{}, fmt.Errorf("receipt %s: %w", ref, core.ErrNotFound)
	}
	return obj, err
}

// Discard deletes ref now. When that fails the reference is queued for the
// cleanup worker if one is configured, otherwise only logged.
func (r *Receipts) Discard(ctx context.Context, ref, reason string) {
	if ref == "" {
		return
	}
	err := r.store.Delete(ctx, ref)
	if err == nil || errors.Is(err, blob.ErrNotFound) {
		r.metrics.ReceiptCleanup(metrics.CleanupDeleted)
		return
	}

	slog.WarnContext(ctx, "Failed to delete receipt",
		"receipt_ref", ref,
		"reason", reason,
		"error", err)
	r.metrics.ReceiptCleanup(metrics.CleanupFailed)
	r.enqueue(ctx, ref, reason)
}

// Release hands refs released by a cascade delete to the cleanup worker, or
// deletes them inline when no queue is configured.
func (r *Receipts) Release(ctx context.Context, refs []string, reason string) {
	for _, ref := range refs {
		if r.publisher != nil && r.enqueue(ctx, ref, reason) {
			continue
		}
		r.Discard(ctx, ref, reason)
	}
}

func (r *Receipts) enqueue(ctx context.Context, ref, reason string) bool {
	if r.publisher == nil {
		return false
	}
	if err := r.publisher.PublishReceiptCleanup(ctx, ref, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to queue receipt cleanup",
			"receipt_ref", ref,
			"reason", reason,
			"error", err)
		return false
	}
	r.metrics.ReceiptCleanup(metrics.CleanupQueued)
	return true
}
