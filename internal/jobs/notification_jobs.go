package jobs

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/utils"

	"github.com/google/uuid"
)

const (
	// readyLookback is how far back the first NotifyReadyPayouts run of a process looks.
	readyLookback = time.Hour
	// reminderInterval is the minimum gap between two overdue reminders for one booking.
	reminderInterval = 24 * time.Hour
)

// RemindOverdueReturns reminds renters whose rental end date has passed without a return.
func (jr *JobRunner) RemindOverdueReturns() {
	jr.runWithRecovery("RemindOverdueReturns", func() {
		count, err := jr.remindOverdueReturns(context.Background())
		if err != nil {
			logger.Error("Failed to send overdue reminders", "error", err)
			return
		}
		logger.Info("Sent overdue return reminders", "count", count)
	})
}

func (jr *JobRunner) remindOverdueReturns(ctx context.Context) (int, error) {
	now := jr.now()
	cutoff := now.Add(-reminderInterval)
	overdue, _, err := jr.bookings.List(ctx, repository.BookingQuery{
		Statuses:         []domain.BookingStatus{domain.BookingStatusInProgress},
		EndBefore:        &now,
		NotRemindedSince: &cutoff,
		Limit:            batchSize,
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, b := range overdue {
		title := "Reminder: Overdue Return"
		item := "your rental"
		if b.Listing != nil && b.Listing.Title != "" {
			item = fmt.Sprintf("%q", b.Listing.Title)
		}
		msg := fmt.Sprintf("The rental period for %s ended on %s. Please return the item and mark it as returned.",
			item, b.EndDate.Format("Jan 2, 2006"))
		if !jr.notify(ctx, b.RenterID, title, msg, map[string]string{"type": "RETURN_OVERDUE", "booking_id": b.ID.String()}) {
			continue
		}
		count++
		if err := jr.bookings.MarkReminded(ctx, b.ID, now); err != nil {
			logger.Warn("Failed to record overdue reminder", "bookingID", b.ID, "error", err)
		}
	}
	return count, nil
}

// NotifyReadyPayouts tells admins about payouts whose hold ended since the previous run.
func (jr *JobRunner) NotifyReadyPayouts() {
	jr.runWithRecovery("NotifyReadyPayouts", func() {
		count, err := jr.notifyReadyPayouts(context.Background())
		if err != nil {
			logger.Error("Failed to notify ready payouts", "error", err)
			return
		}
		logger.Info("Newly releasable payouts", "count", count)
	})
}

func (jr *JobRunner) notifyReadyPayouts(ctx context.Context) (int, error) {
	jr.mu.Lock()
	defer jr.mu.Unlock()

	now := jr.now()
	since := jr.lastReadyCheck
	if since.IsZero() {
		since = now.Add(-readyLookback)
	}

	ready, err := jr.services.Payouts.ReadyForRelease(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	var total int64
	for _, v := range ready {
		if v.EligibleAt == nil || !v.EligibleAt.After(since) || v.EligibleAt.After(now) {
			continue
		}
		count++
		total += v.Booking.OwnerPayout
	}
	jr.lastReadyCheck = now
	if count == 0 {
		return 0, nil
	}

	admins, err := jr.profiles.ListAdmins(ctx)
	if err != nil {
		return count, err
	}
	msg := fmt.Sprintf("%d payout(s) totalling %s are ready for release.", count, utils.FormatCents(total))
	attrs := map[string]string{"type": "PAYOUTS_READY", "count": fmt.Sprint(count)}
	for _, admin := range admins {
		jr.notify(ctx, admin.ID, "Payouts Ready for Release", msg, attrs)
	}
	return count, nil
}

func (jr *JobRunner) notify(ctx context.Context, userID uuid.UUID, title, message string, attrs map[string]string) bool {
	if jr.services == nil || jr.services.Notifications == nil {
		return false
	}
	if err := jr.services.Notifications.Notify(ctx, userID, title, message, attrs); err != nil {
		logger.Warn("Failed to store notification", "userID", userID, "type", attrs["type"], "error", err)
		return false
	}
	return true
}
