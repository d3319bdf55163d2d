package service

import (
	"context"
	"errors"
	"fmt"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/utils"

	"github.com/google/uuid"
)

type bookingService struct {
	bookingRepo repository.BookingRepository
	listingRepo repository.ListingRepository
	profileRepo repository.ProfileRepository
	paymentRepo repository.PaymentRepository
	tx          repository.Transactor
	notifier    NotificationService
	rates       utils.FeeRates
	now         Clock
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	listingRepo repository.ListingRepository,
	profileRepo repository.ProfileRepository,
	paymentRepo repository.PaymentRepository,
	tx repository.Transactor,
	notifier NotificationService,
	rates utils.FeeRates,
	now Clock,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		listingRepo: listingRepo,
		profileRepo: profileRepo,
		paymentRepo: paymentRepo,
		tx:          tx,
		notifier:    notifier,
		rates:       rates,
		now:         now,
	}
}

// OrderIDForBooking is the processor order ID used for a booking's charge.
func OrderIDForBooking(bookingID uuid.UUID) string {
	return "booking-" + bookingID.String()
}

func (s *bookingService) quote(ctx context.Context, req CreateBookingRequest) (*domain.Listing, *Quote, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, nil, fmt.Errorf("%w: end date is before start date", domain.ErrValidation)
	}
	listing, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, nil, err
	}
	if !listing.IsBookable() {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrListingUnavailable, listing.ID)
	}

	pricing, err := utils.CalculateRentalSubtotal(req.StartDate, req.EndDate, listing)
	if err != nil {
		if errors.Is(err, utils.ErrNoPricing) {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrListingUnavailable, err)
		}
		return nil, nil, err
	}
	fees, err := utils.ComputeFees(pricing.TotalCost, s.rates, utils.FeeOptions{Insurance: req.Insurance, DeliveryFee: req.DeliveryFee})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return listing, &Quote{
		ListingID:     listing.ID,
		Pricing:       pricing,
		Fees:          fees,
		DepositAmount: listing.DepositAmount,
	}, nil
}

func (s *bookingService) QuoteBooking(ctx context.Context, req CreateBookingRequest) (*Quote, error) {
	_, q, err := s.quote(ctx, req)
	return q, err
}

func (s *bookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "renterID", renterID, "listingID", req.ListingID)

	listing, q, err := s.quote(ctx, req)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "listingID", req.ListingID)
		return nil, err
	}
	if listing.OwnerID == renterID {
		return nil, fmt.Errorf("%w: cannot book your own listing", domain.ErrValidation)
	}

	b := &domain.Booking{
		ListingID:          listing.ID,
		RenterID:           renterID,
		OwnerID:            listing.OwnerID,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Subtotal:           q.Fees.Subtotal,
		ServiceFee:         q.Fees.ServiceFee,
		PlatformCommission: q.Fees.PlatformCommission,
		InsuranceFee:       q.Fees.InsuranceFee,
		DeliveryFee:        q.Fees.DeliveryFee,
		DepositAmount:      q.DepositAmount,
		TotalAmount:        q.Fees.TotalCharged,
		OwnerPayout:        q.Fees.OwnerPayout,
		Status:             domain.BookingStatusPending,
	}
	if err := b.CheckAmounts(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Create(ctx, b); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}

	s.notify(ctx, b.OwnerID, "New Booking Request",
		fmt.Sprintf("%s was requested for %s to %s (%s payout)", listing.Title,
			b.StartDate.Format("Jan 2"), b.EndDate.Format("Jan 2"), utils.FormatCents(b.OwnerPayout)),
		"BOOKING_REQUESTED", b.ID)

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", b.ID, "total", b.TotalAmount)
	return b, nil
}

func (s *bookingService) ApproveBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.loadAsOwner(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	from := b.Status
	if err := b.Transition(domain.BookingStatusConfirmed); err != nil {
		return nil, err
	}

	payment := &domain.PaymentRecord{
		BookingID:       b.ID,
		ProviderOrderID: OrderIDForBooking(b.ID),
		Status:          domain.PaymentStatusPending,
		Amount:          b.TotalAmount,
		PlatformFee:     b.ServiceFee + b.PlatformCommission,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return err
		}
		return repos.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	logger.StateTransition(b.ID, string(from), string(b.Status), "ownerID", ownerID)

	s.notify(ctx, b.RenterID, "Booking Approved",
		fmt.Sprintf("Your booking was approved. Please pay %s to confirm.", utils.FormatCents(b.TotalAmount)),
		"BOOKING_APPROVED", b.ID)
	return b, nil
}

func (s *bookingService) RejectBooking(ctx context.Context, ownerID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	b, err := s.loadAsOwner(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, b, domain.BookingStatusRejected, func(b *domain.Booking) {
		b.RejectionReason = reason
	}); err != nil {
		return nil, err
	}

	msg := "Your booking request was declined."
	if reason != "" {
		msg += " Reason: " + reason
	}
	s.notify(ctx, b.RenterID, "Booking Rejected", msg, "BOOKING_REJECTED", b.ID)
	return b, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, renterID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, fmt.Errorf("%w: only the renter can cancel", domain.ErrForbidden)
	}
	from := b.Status
	if err := b.Transition(domain.BookingStatusCancelled); err != nil {
		return nil, err
	}
	b.CancellationReason = reason

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Bookings.Update(ctx, b); err != nil {
			return err
		}
		payment, err := repos.Payments.GetByBookingID(ctx, b.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		switch payment.Status {
		case domain.PaymentStatusSucceeded:
			payment.Status = domain.PaymentStatusRefunded
		case domain.PaymentStatusPending, domain.PaymentStatusProcessing:
			payment.Status = domain.PaymentStatusFailed
		default:
			return nil
		}
		return repos.Payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	logger.StateTransition(b.ID, string(from), string(b.Status), "renterID", renterID)

	s.notify(ctx, b.OwnerID, "Booking Cancelled", "The renter cancelled the booking. "+reason, "BOOKING_CANCELLED", b.ID)
	return b, nil
}

func (s *bookingService) ConfirmPickup(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.loadAsOwner(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.CanTransition(domain.BookingStatusInProgress) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, b.Status, domain.BookingStatusInProgress)
	}
	payment, err := s.paymentRepo.GetByBookingID(ctx, b.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if payment == nil || payment.Status != domain.PaymentStatusSucceeded {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrPaymentIncomplete, b.ID)
	}

	now := s.now()
	if err := s.transition(ctx, b, domain.BookingStatusInProgress, func(b *domain.Booking) {
		b.PickedUpAt = &now
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, b.RenterID, "Rental Started", "Pickup confirmed. Enjoy your rental.", "BOOKING_IN_PROGRESS", b.ID)
	return b, nil
}

func (s *bookingService) MarkReturned(ctx context.Context, renterID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, fmt.Errorf("%w: only the renter can mark a return", domain.ErrForbidden)
	}
	now := s.now()
	if err := s.transition(ctx, b, domain.BookingStatusReturnPending, func(b *domain.Booking) {
		b.ReturnedAt = &now
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, b.OwnerID, "Item Returned", "The renter marked the item as returned. Please confirm receipt.", "BOOKING_RETURNED", b.ID)
	return b, nil
}

// ConfirmReturn records the owner's receipt of the item. Its timestamp starts the payout hold.
func (s *bookingService) ConfirmReturn(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.loadAsOwner(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.transition(ctx, b, domain.BookingStatusCompleted, func(b *domain.Booking) {
		b.CompletedAt = &now
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, b.RenterID, "Rental Completed", "The owner confirmed the return. Thanks for renting!", "BOOKING_COMPLETED", b.ID)
	return b, nil
}

func (s *bookingService) OpenDispute(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of booking %s", domain.ErrForbidden, b.ID)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: a dispute reason is required", domain.ErrValidation)
	}
	if err := s.transition(ctx, b, domain.BookingStatusDisputed, func(b *domain.Booking) {
		b.DisputeReason = reason
	}); err != nil {
		return nil, err
	}

	other := b.OwnerID
	if userID == b.OwnerID {
		other = b.RenterID
	}
	s.notify(ctx, other, "Dispute Opened", "A dispute was opened on your booking: "+reason, "BOOKING_DISPUTED", b.ID)
	return b, nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.IsParticipant(userID) {
		return b, nil
	}
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsAdmin() {
		return nil, fmt.Errorf("%w: not a participant of booking %s", domain.ErrForbidden, b.ID)
	}
	return b, nil
}

func (s *bookingService) ListBookings(ctx context.Context, userID uuid.UUID, role BookingRole, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	limit, offset := pageOffset(page, pageSize)
	q := repository.BookingQuery{Limit: limit, Offset: offset}
	switch role {
	case BookingRoleRenter, "":
		q.RenterID = &userID
	case BookingRoleOwner:
		q.OwnerID = &userID
	default:
		return nil, 0, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	if status != "" {
		st, err := domain.ParseBookingStatus(status)
		if err != nil {
			return nil, 0, err
		}
		q.Statuses = []domain.BookingStatus{st}
	}
	return s.bookingRepo.List(ctx, q)
}

func (s *bookingService) loadAsOwner(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the owner can do this", domain.ErrForbidden)
	}
	return b, nil
}

// transition moves b to the given status, applies mutate and persists it.
func (s *bookingService) transition(ctx context.Context, b *domain.Booking, to domain.BookingStatus, mutate func(*domain.Booking)) error {
	from := b.Status
	if err := b.Transition(to); err != nil {
		return err
	}
	if mutate != nil {
		mutate(b)
	}
	if err := s.bookingRepo.Update(ctx, b); err != nil {
		return err
	}
	logger.StateTransition(b.ID, string(from), string(to))
	return nil
}

func (s *bookingService) notify(ctx context.Context, userID uuid.UUID, title, message, kind string, bookingID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, userID, title, message, map[string]string{
		"type":       kind,
		"booking_id": bookingID.String(),
	})
	if err != nil {
		logger.Warn("Failed to store notification", "userID", userID, "type", kind, "error", err)
	}
}
