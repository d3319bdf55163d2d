package jobs

import (
	"context"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
)

// SyncPendingPayments polls the processor for payments still waiting on a final status,
// covering webhooks that never arrived.
func (jr *JobRunner) SyncPendingPayments() {
	jr.runWithRecovery("SyncPendingPayments", func() {
		changed, err := jr.syncPendingPayments(context.Background())
		if err != nil {
			logger.Error("Failed to sync pending payments", "error", err)
			return
		}
		logger.Info("Synced pending payments", "changed", changed)
	})
}

func (jr *JobRunner) syncPendingPayments(ctx context.Context) (int, error) {
	open, err := jr.payments.ListByStatus(ctx,
		[]domain.PaymentStatus{domain.PaymentStatusPending, domain.PaymentStatusProcessing}, batchSize)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, p := range open {
		updated, err := jr.services.Payments.SyncPaymentStatus(ctx, p.BookingID)
		if err != nil {
			logger.Warn("Payment sync failed", "bookingID", p.BookingID, "orderID", p.ProviderOrderID, "error", err)
			continue
		}
		if updated.Status != p.Status {
			changed++
		}
	}
	return changed, nil
}
