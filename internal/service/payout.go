package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/utils"

	"github.com/google/uuid"
)

// maxCompletedScan bounds how many completed bookings are read when the ready/pending
// split has to be computed in memory.
const maxCompletedScan = 1000

type payoutService struct {
	bookingRepo repository.BookingRepository
	profileRepo repository.ProfileRepository
	paymentRepo repository.PaymentRepository
	tx          repository.Transactor
	notifier    NotificationService
	holdDays    int
	now         Clock
}

func NewPayoutService(
	bookingRepo repository.BookingRepository,
	profileRepo repository.ProfileRepository,
	paymentRepo repository.PaymentRepository,
	tx repository.Transactor,
	notifier NotificationService,
	holdDays int,
	now Clock,
) PayoutService {
	return &payoutService{
		bookingRepo: bookingRepo,
		profileRepo: profileRepo,
		paymentRepo: paymentRepo,
		tx:          tx,
		notifier:    notifier,
		holdDays:    holdDays,
		now:         now,
	}
}

// BuildPayoutView computes the badge and countdown shown for a booking at the given instant.
func BuildPayoutView(b domain.Booking, now time.Time, holdDays int) domain.PayoutView {
	v := domain.PayoutView{Booking: b, Badge: domain.PayoutBadgePending}
	switch b.Status {
	case domain.BookingStatusReleased:
		v.Badge = domain.PayoutBadgeReleased
		return v
	case domain.BookingStatusDisputed:
		v.Badge = domain.PayoutBadgeDisputed
		return v
	}
	if b.CompletedAt == nil {
		return v
	}
	eligibleAt, err := utils.PayoutEligibleAt(*b.CompletedAt, holdDays)
	if err != nil {
		return v
	}
	v.EligibleAt = &eligibleAt
	v.Eligible = !now.Before(eligibleAt)
	v.DaysUntilEligible, _ = utils.ComputeDaysUntilEligibleWithHold(*b.CompletedAt, now, holdDays)
	if v.Eligible && b.Status == domain.BookingStatusCompleted {
		v.Badge = domain.PayoutBadgeReady
	}
	return v
}

func (s *payoutService) ListPayouts(ctx context.Context, filter domain.PayoutFilter, page, pageSize int32) ([]domain.PayoutView, int32, error) {
	limit, offset := pageOffset(page, pageSize)
	now := s.now()

	var statuses []domain.BookingStatus
	switch filter {
	case domain.PayoutFilterAll, "":
		statuses = []domain.BookingStatus{domain.BookingStatusCompleted, domain.BookingStatusReleased, domain.BookingStatusDisputed}
	case domain.PayoutFilterReleased:
		statuses = []domain.BookingStatus{domain.BookingStatusReleased}
	case domain.PayoutFilterDisputed:
		statuses = []domain.BookingStatus{domain.BookingStatusDisputed}
	case domain.PayoutFilterReady, domain.PayoutFilterPending:
		return s.listByEligibility(ctx, filter == domain.PayoutFilterReady, limit, offset)
	default:
		return nil, 0, fmt.Errorf("%w: unknown payout filter %q", domain.ErrValidation, filter)
	}

	bookings, total, err := s.bookingRepo.List(ctx, repository.BookingQuery{Statuses: statuses, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, err
	}
	views := make([]domain.PayoutView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, BuildPayoutView(b, now, s.holdDays))
	}
	return views, total, nil
}

// listByEligibility splits completed bookings on the time-based rule, which the database
// cannot evaluate, and pages the result in memory.
func (s *payoutService) listByEligibility(ctx context.Context, ready bool, limit, offset int32) ([]domain.PayoutView, int32, error) {
	bookings, _, err := s.bookingRepo.List(ctx, repository.BookingQuery{
		Statuses: []domain.BookingStatus{domain.BookingStatusCompleted},
		Limit:    maxCompletedScan,
	})
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	var matched []domain.PayoutView
	for _, b := range bookings {
		v := BuildPayoutView(b, now, s.holdDays)
		if v.Eligible == ready {
			matched = append(matched, v)
		}
	}
	total := int32(len(matched))
	if offset >= total {
		return []domain.PayoutView{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *payoutService) ReadyForRelease(ctx context.Context) ([]domain.PayoutView, error) {
	views, _, err := s.listByEligibility(ctx, true, maxCompletedScan, 0)
	return views, err
}

func (s *payoutService) requireAdmin(ctx context.Context, adminID uuid.UUID) error {
	profile, err := s.profileRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown user", domain.ErrForbidden)
		}
		return err
	}
	if !profile.IsAdmin() {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}

func (s *payoutService) ReleasePayout(ctx context.Context, adminID, bookingID uuid.UUID) (*domain.Booking, error) {
	logger.EnterMethod("payoutService.ReleasePayout", "adminID", adminID, "bookingID", bookingID)

	if err := s.requireAdmin(ctx, adminID); err != nil {
		logger.ExitMethodWithError("payoutService.ReleasePayout", err, "adminID", adminID)
		return nil, err
	}
	b, err := s.release(ctx, adminID, bookingID)
	if err != nil {
		logger.ExitMethodWithError("payoutService.ReleasePayout", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("payoutService.ReleasePayout", "bookingID", b.ID, "amount", b.OwnerPayout)
	return b, nil
}

func (s *payoutService) release(ctx context.Context, adminID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.CanTransition(domain.BookingStatusReleased) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, b.Status, domain.BookingStatusReleased)
	}
	if b.CompletedAt == nil {
		return nil, fmt.Errorf("%w: return has not been confirmed", domain.ErrNotEligible)
	}
	if err := b.CheckAmounts(); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByBookingID(ctx, b.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if payment == nil || payment.Status != domain.PaymentStatusSucceeded {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrPaymentIncomplete, b.ID)
	}

	now := s.now()
	eligible, err := utils.ComputeEligibilityWithHold(*b.CompletedAt, now, s.holdDays)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotEligible, err)
	}
	if !eligible {
		days, _ := utils.ComputeDaysUntilEligibleWithHold(*b.CompletedAt, now, s.holdDays)
		return nil, fmt.Errorf("%w: %d day(s) remaining", domain.ErrNotEligible, days)
	}

	title := "Payout Released"
	message := fmt.Sprintf("Your payout of %s has been released.", utils.FormatCents(b.OwnerPayout))
	attrs := map[string]string{
		"type":       "PAYOUT_RELEASED",
		"booking_id": b.ID.String(),
		"amount":     utils.FormatCents(b.OwnerPayout),
	}

	released := *b
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := released.Transition(domain.BookingStatusReleased); err != nil {
			return err
		}
		released.AdminReleasedAt = &now
		released.ReleasedBy = &adminID
		if err := repos.Bookings.Update(ctx, &released); err != nil {
			return err
		}
		if err := repos.Payouts.Create(ctx, &domain.PayoutRelease{
			BookingID:  released.ID,
			OwnerID:    released.OwnerID,
			Amount:     released.OwnerPayout,
			ReleasedBy: adminID,
			ReleasedAt: now,
		}); err != nil {
			return err
		}
		return repos.Notifications.Create(ctx, &domain.Notification{
			UserID:     released.OwnerID,
			Title:      title,
			Message:    message,
			Attributes: attrs,
		})
	})
	if err != nil {
		return nil, err
	}
	logger.StateTransition(released.ID, string(b.Status), string(released.Status), "adminID", adminID, "amount", released.OwnerPayout)

	if s.notifier != nil {
		s.notifier.Deliver(ctx, released.OwnerID, title, message, attrs)
	}
	return &released, nil
}

func (s *payoutService) BulkRelease(ctx context.Context, adminID uuid.UUID, bookingIDs []uuid.UUID) ([]domain.ReleaseResult, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	results := make([]domain.ReleaseResult, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		res := domain.ReleaseResult{BookingID: id}
		if _, err := s.release(ctx, adminID, id); err != nil {
			res.Error = err.Error()
		} else {
			res.Released = true
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *payoutService) MarkDisputed(ctx context.Context, adminID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: a dispute reason is required", domain.ErrValidation)
	}
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from := b.Status
	if err := b.Transition(domain.BookingStatusDisputed); err != nil {
		return nil, err
	}
	b.DisputeReason = reason
	if err := s.bookingRepo.Update(ctx, b); err != nil {
		return nil, err
	}
	logger.StateTransition(b.ID, string(from), string(b.Status), "adminID", adminID)

	s.notifyParties(ctx, b, "Payout On Hold", "An administrator placed this booking in dispute: "+reason, "BOOKING_DISPUTED")
	return b, nil
}

// ResolveDispute returns a disputed booking to completed. A booking disputed before the
// owner confirmed the return gets its return confirmation stamped now, which starts the hold.
func (s *payoutService) ResolveDispute(ctx context.Context, adminID, bookingID uuid.UUID) (*domain.Booking, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from := b.Status
	if err := b.Transition(domain.BookingStatusCompleted); err != nil {
		return nil, err
	}
	if b.CompletedAt == nil {
		now := s.now()
		b.CompletedAt = &now
	}
	if err := s.bookingRepo.Update(ctx, b); err != nil {
		return nil, err
	}
	logger.StateTransition(b.ID, string(from), string(b.Status), "adminID", adminID)

	s.notifyParties(ctx, b, "Dispute Resolved", "The dispute on your booking was resolved.", "DISPUTE_RESOLVED")
	return b, nil
}

func (s *payoutService) notifyParties(ctx context.Context, b *domain.Booking, title, message, kind string) {
	if s.notifier == nil {
		return
	}
	attrs := map[string]string{"type": kind, "booking_id": b.ID.String()}
	for _, userID := range []uuid.UUID{b.RenterID, b.OwnerID} {
		if err := s.notifier.Notify(ctx, userID, title, message, attrs); err != nil {
			logger.Warn("Failed to store notification", "userID", userID, "type", kind, "error", err)
		}
	}
}
