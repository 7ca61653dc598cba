// Package worker consumes element mutation events and persists them to the
// audit log.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/storage"
)

// AuditWorker writes one audit_log row per consumed event.
type AuditWorker struct {
	storage *storage.Repository
}

func NewAuditWorker(storage *storage.Repository) *AuditWorker {
	return &AuditWorker{storage: storage}
}

// HandleEvent processes a single element mutation event. A storage failure
// is returned so the delivery is requeued.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.ElementEventMessage) error {
	slog.InfoContext(ctx, "Processing element event",
		"kind", msg.Kind,
		"operation", msg.Operation,
		"element_id", msg.ElementID,
		"actor_id", msg.ActorID)

	entry := storage.AuditEntry{
		ElementKind: msg.Kind,
		Operation:   msg.Operation,
		ElementID:   msg.ElementID,
		ActorID:     msg.ActorID,
		OccurredAt:  msg.Timestamp,
	}

	if err := w.storage.InsertAuditEntry(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	slog.InfoContext(ctx, "Audit entry recorded",
		"kind", msg.Kind,
		"operation", msg.Operation,
		"element_id", msg.ElementID)

	return nil
}
