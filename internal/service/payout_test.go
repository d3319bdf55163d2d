package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 2024-01-05 is a Friday.
var returnConfirmedAt = time.Date(2024, time.January, 5, 17, 0, 0, 0, time.UTC)

type payoutFixture struct {
	bookings *MockBookingRepo
	profiles *MockProfileRepo
	payments *MockPaymentRepo
	payouts  *MockPayoutRepo
	notes    *MockNotificationRepo
	notifier *MockNotificationService
	tx       *MockTransactor
	svc      service.PayoutService
	adminID  uuid.UUID
}

func newPayoutFixture(now time.Time) *payoutFixture {
	f := &payoutFixture{
		bookings: new(MockBookingRepo),
		profiles: new(MockProfileRepo),
		payments: new(MockPaymentRepo),
		payouts:  new(MockPayoutRepo),
		notes:    new(MockNotificationRepo),
		notifier: new(MockNotificationService),
		adminID:  uuid.New(),
	}
	f.tx = &MockTransactor{Repos: repository.Repositories{
		Bookings:      f.bookings,
		Payments:      f.payments,
		Payouts:       f.payouts,
		Notifications: f.notes,
	}}
	f.svc = service.NewPayoutService(f.bookings, f.profiles, f.payments, f.tx, f.notifier, 2, func() time.Time { return now })
	f.profiles.On("GetByID", mock.Anything, f.adminID).Return(&domain.Profile{ID: f.adminID, Role: domain.ProfileRoleAdmin}, nil)
	return f
}

func completedBooking(completedAt *time.Time) *domain.Booking {
	return &domain.Booking{
		ID:                 uuid.New(),
		ListingID:          uuid.New(),
		RenterID:           uuid.New(),
		OwnerID:            uuid.New(),
		Subtotal:           25000,
		ServiceFee:         3750,
		PlatformCommission: 5000,
		InsuranceFee:       2500,
		TotalAmount:        31250,
		OwnerPayout:        20000,
		Status:             domain.BookingStatusCompleted,
		CompletedAt:        completedAt,
	}
}

func succeededPayment(bookingID uuid.UUID) *domain.PaymentRecord {
	return &domain.PaymentRecord{BookingID: bookingID, Status: domain.PaymentStatusSucceeded, Amount: 31250}
}

func TestPayoutService_ReleasePayout(t *testing.T) {
	ctx := context.Background()
	eligibleAt := time.Date(2024, time.January, 9, 17, 0, 0, 0, time.UTC) // Tuesday

	t.Run("Success at the eligible instant", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt)
		b := completedBooking(&returnConfirmedAt)

		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)
		f.payments.On("GetByBookingID", ctx, b.ID).Return(succeededPayment(b.ID), nil)
		f.bookings.On("Update", ctx, mock.MatchedBy(func(u *domain.Booking) bool {
			return u.Status == domain.BookingStatusReleased &&
				u.AdminReleasedAt != nil && u.AdminReleasedAt.Equal(eligibleAt) &&
				u.ReleasedBy != nil && *u.ReleasedBy == f.adminID
		})).Return(nil)
		f.payouts.On("Create", ctx, mock.MatchedBy(func(p *domain.PayoutRelease) bool {
			return p.BookingID == b.ID && p.OwnerID == b.OwnerID && p.Amount == 20000 && p.ReleasedBy == f.adminID
		})).Return(nil)
		f.notes.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == b.OwnerID && n.Attributes["type"] == "PAYOUT_RELEASED"
		})).Return(nil)
		f.notifier.On("Deliver", ctx, b.OwnerID, "Payout Released", "Your payout of $200.00 has been released.", mock.Anything).Return()

		released, err := f.svc.ReleasePayout(ctx, f.adminID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusReleased, released.Status)
		assert.Equal(t, 1, f.tx.Committed)
		f.bookings.AssertExpectations(t)
		f.payouts.AssertExpectations(t)
		f.notes.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("One second before the hold ends", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt.Add(-time.Second))
		b := completedBooking(&returnConfirmedAt)
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)
		f.payments.On("GetByBookingID", ctx, b.ID).Return(succeededPayment(b.ID), nil)

		_, err := f.svc.ReleasePayout(ctx, f.adminID, b.ID)
		assert.ErrorIs(t, err, domain.ErrNotEligible)
		assert.Equal(t, 0, f.tx.Committed)
		f.bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Non-admin is refused", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt)
		userID := uuid.New()
		f.profiles.On("GetByID", mock.Anything, userID).Return(&domain.Profile{ID: userID, Role: domain.ProfileRoleUser}, nil)

		_, err := f.svc.ReleasePayout(ctx, userID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrForbidden)
		f.bookings.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Payment not settled", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt)
		b := completedBooking(&returnConfirmedAt)
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)
		f.payments.On("GetByBookingID", ctx, b.ID).Return(&domain.PaymentRecord{BookingID: b.ID, Status: domain.PaymentStatusProcessing}, nil)

		_, err := f.svc.ReleasePayout(ctx, f.adminID, b.ID)
		assert.ErrorIs(t, err, domain.ErrPaymentIncomplete)
	})

	t.Run("Missing payment record", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt)
		b := completedBooking(&returnConfirmedAt)
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)
		f.payments.On("GetByBookingID", ctx, b.ID).Return(nil, domain.ErrNotFound)

		_, err := f.svc.ReleasePayout(ctx, f.adminID, b.ID)
		assert.ErrorIs(t, err, domain.ErrPaymentIncomplete)
	})

	t.Run("No return confirmation", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt)
		b := completedBooking(nil)
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)

		_, err := f.svc.ReleasePayout(ctx, f.adminID, b.ID)
		assert.ErrorIs(t, err, domain.ErrNotEligible)
	})

	t.Run("Disputed booking cannot be released", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt)
		b := completedBooking(&returnConfirmedAt)
		b.Status = domain.BookingStatusDisputed
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)

		_, err := f.svc.ReleasePayout(ctx, f.adminID, b.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Already released", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt)
		b := completedBooking(&returnConfirmedAt)
		b.Status = domain.BookingStatusReleased
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)

		_, err := f.svc.ReleasePayout(ctx, f.adminID, b.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Failed audit insert rolls back and skips delivery", func(t *testing.T) {
		f := newPayoutFixture(eligibleAt)
		b := completedBooking(&returnConfirmedAt)
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)
		f.payments.On("GetByBookingID", ctx, b.ID).Return(succeededPayment(b.ID), nil)
		f.bookings.On("Update", ctx, mock.Anything).Return(nil)
		f.payouts.On("Create", ctx, mock.Anything).Return(errors.New("duplicate key value violates unique constraint"))

		_, err := f.svc.ReleasePayout(ctx, f.adminID, b.ID)
		assert.Error(t, err)
		assert.Equal(t, 1, f.tx.RolledBack)
		assert.Equal(t, 0, f.tx.Committed)
		f.notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPayoutService_BulkRelease(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(time.Date(2024, time.January, 9, 17, 0, 0, 0, time.UTC))

	ready := completedBooking(&returnConfirmedAt)
	laterReturn := time.Date(2024, time.January, 8, 12, 0, 0, 0, time.UTC)
	notYet := completedBooking(&laterReturn)

	for _, b := range []*domain.Booking{ready, notYet} {
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)
		f.payments.On("GetByBookingID", ctx, b.ID).Return(succeededPayment(b.ID), nil)
	}
	f.bookings.On("Update", ctx, mock.Anything).Return(nil)
	f.payouts.On("Create", ctx, mock.Anything).Return(nil)
	f.notes.On("Create", ctx, mock.Anything).Return(nil)
	f.notifier.On("Deliver", ctx, ready.OwnerID, mock.Anything, mock.Anything, mock.Anything).Return()

	results, err := f.svc.BulkRelease(ctx, f.adminID, []uuid.UUID{ready.ID, notYet.ID})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Released)
	assert.Empty(t, results[0].Error)
	assert.False(t, results[1].Released)
	assert.Contains(t, results[1].Error, domain.ErrNotEligible.Error())
	assert.Equal(t, 1, f.tx.Committed)
}

func TestPayoutService_ListPayouts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 9, 17, 0, 0, 0, time.UTC)

	laterReturn := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	ready := *completedBooking(&returnConfirmedAt)
	pending := *completedBooking(&laterReturn)
	completedQuery := repository.BookingQuery{Statuses: []domain.BookingStatus{domain.BookingStatusCompleted}, Limit: 1000}

	t.Run("Ready filter", func(t *testing.T) {
		f := newPayoutFixture(now)
		f.bookings.On("List", ctx, completedQuery).Return([]domain.Booking{ready, pending}, int32(2), nil)

		views, total, err := f.svc.ListPayouts(ctx, domain.PayoutFilterReady, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		require.Len(t, views, 1)
		assert.Equal(t, ready.ID, views[0].Booking.ID)
		assert.Equal(t, domain.PayoutBadgeReady, views[0].Badge)
		assert.Equal(t, 0, views[0].DaysUntilEligible)
	})

	t.Run("Pending filter", func(t *testing.T) {
		f := newPayoutFixture(now)
		f.bookings.On("List", ctx, completedQuery).Return([]domain.Booking{ready, pending}, int32(2), nil)

		views, total, err := f.svc.ListPayouts(ctx, domain.PayoutFilterPending, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		require.Len(t, views, 1)
		assert.Equal(t, domain.PayoutBadgePending, views[0].Badge)
		assert.False(t, views[0].Eligible)
		assert.Equal(t, 1, views[0].DaysUntilEligible) // Wednesday 09:00
		require.NotNil(t, views[0].EligibleAt)
		assert.Equal(t, time.Wednesday, views[0].EligibleAt.Weekday())
	})

	t.Run("Page past the end", func(t *testing.T) {
		f := newPayoutFixture(now)
		f.bookings.On("List", ctx, completedQuery).Return([]domain.Booking{ready, pending}, int32(2), nil)

		views, total, err := f.svc.ListPayouts(ctx, domain.PayoutFilterPending, 5, 20)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		assert.Empty(t, views)
	})

	t.Run("All filter badges", func(t *testing.T) {
		f := newPayoutFixture(now)
		released := *completedBooking(&returnConfirmedAt)
		released.Status = domain.BookingStatusReleased
		disputed := *completedBooking(nil)
		disputed.Status = domain.BookingStatusDisputed

		f.bookings.On("List", ctx, repository.BookingQuery{
			Statuses: []domain.BookingStatus{domain.BookingStatusCompleted, domain.BookingStatusReleased, domain.BookingStatusDisputed},
			Limit:    20,
		}).Return([]domain.Booking{ready, pending, released, disputed}, int32(4), nil)

		views, total, err := f.svc.ListPayouts(ctx, domain.PayoutFilterAll, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int32(4), total)
		badges := []domain.PayoutBadge{views[0].Badge, views[1].Badge, views[2].Badge, views[3].Badge}
		assert.Equal(t, []domain.PayoutBadge{domain.PayoutBadgeReady, domain.PayoutBadgePending, domain.PayoutBadgeReleased, domain.PayoutBadgeDisputed}, badges)
	})

	t.Run("Unknown filter", func(t *testing.T) {
		f := newPayoutFixture(now)
		_, _, err := f.svc.ListPayouts(ctx, "soon", 1, 20)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestPayoutService_Disputes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC)

	t.Run("Mark disputed then resolve", func(t *testing.T) {
		f := newPayoutFixture(now)
		b := completedBooking(&returnConfirmedAt)
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)
		f.bookings.On("Update", ctx, mock.Anything).Return(nil)
		f.notifier.On("Notify", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		disputed, err := f.svc.MarkDisputed(ctx, f.adminID, b.ID, "item damaged")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusDisputed, disputed.Status)
		assert.Equal(t, "item damaged", disputed.DisputeReason)

		f.bookings.ExpectedCalls = nil
		f.bookings.On("GetByID", ctx, b.ID).Return(disputed, nil)
		f.bookings.On("Update", ctx, mock.Anything).Return(nil)

		resolved, err := f.svc.ResolveDispute(ctx, f.adminID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCompleted, resolved.Status)
		assert.Equal(t, returnConfirmedAt, *resolved.CompletedAt)
	})

	t.Run("Resolving a dispute opened before return stamps the return", func(t *testing.T) {
		f := newPayoutFixture(now)
		b := completedBooking(nil)
		b.Status = domain.BookingStatusDisputed
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)
		f.bookings.On("Update", ctx, mock.Anything).Return(nil)
		f.notifier.On("Notify", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		resolved, err := f.svc.ResolveDispute(ctx, f.adminID, b.ID)
		require.NoError(t, err)
		require.NotNil(t, resolved.CompletedAt)
		assert.Equal(t, now, *resolved.CompletedAt)
	})

	t.Run("Reason required", func(t *testing.T) {
		f := newPayoutFixture(now)
		_, err := f.svc.MarkDisputed(ctx, f.adminID, uuid.New(), "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Released booking cannot be disputed", func(t *testing.T) {
		f := newPayoutFixture(now)
		b := completedBooking(&returnConfirmedAt)
		b.Status = domain.BookingStatusReleased
		f.bookings.On("GetByID", ctx, b.ID).Return(b, nil)

		_, err := f.svc.MarkDisputed(ctx, f.adminID, b.ID, "late claim")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestBuildPayoutView(t *testing.T) {
	b := *completedBooking(&returnConfirmedAt)

	v := service.BuildPayoutView(b, returnConfirmedAt, 2)
	assert.Equal(t, domain.PayoutBadgePending, v.Badge)
	assert.Equal(t, 4, v.DaysUntilEligible)

	v = service.BuildPayoutView(b, returnConfirmedAt, 0)
	assert.Equal(t, domain.PayoutBadgeReady, v.Badge)
	assert.True(t, v.Eligible)

	b.CompletedAt = nil
	v = service.BuildPayoutView(b, returnConfirmedAt, 2)
	assert.Equal(t, domain.PayoutBadgePending, v.Badge)
	assert.Nil(t, v.EligibleAt)
}
