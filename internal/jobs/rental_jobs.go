package jobs

import (
	"context"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

const staleRequestReason = "Request expired before the owner responded"

// ExpireStaleRequests cancels pending booking requests whose start date has passed.
func (jr *JobRunner) ExpireStaleRequests() {
	jr.runWithRecovery("ExpireStaleRequests", func() {
		count, err := jr.expireStaleRequests(context.Background())
		if err != nil {
			logger.Error("Failed to expire stale requests", "error", err)
			return
		}
		logger.Info("Expired stale booking requests", "count", count)
	})
}

func (jr *JobRunner) expireStaleRequests(ctx context.Context) (int, error) {
	now := jr.now()
	stale, _, err := jr.bookings.List(ctx, repository.BookingQuery{
		Statuses:    []domain.BookingStatus{domain.BookingStatusPending},
		StartBefore: &now,
		Limit:       batchSize,
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range stale {
		b := &stale[i]
		from := b.Status
		if err := b.Transition(domain.BookingStatusCancelled); err != nil {
			logger.Warn("Skipping stale request", "bookingID", b.ID, "error", err)
			continue
		}
		b.CancellationReason = staleRequestReason
		if err := jr.bookings.Update(ctx, b); err != nil {
			logger.Error("Failed to cancel stale request", "bookingID", b.ID, "error", err)
			continue
		}
		logger.StateTransition(b.ID, string(from), string(b.Status), "reason", "expired")
		count++

		jr.notify(ctx, b.RenterID, "Booking Request Expired",
			"The owner did not respond before the start date, so your request was cancelled.",
			map[string]string{"type": "BOOKING_EXPIRED", "booking_id": b.ID.String()})
	}
	return count, nil
}
