package repository

import (
	"context"
	"time"

	"rental-marketplace-backend/internal/domain"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	ListAdmins(ctx context.Context) ([]domain.Profile, error)
}

type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	UpdateModeration(ctx context.Context, listing *domain.Listing) error
}

// BookingQuery selects bookings for list screens. Zero values mean "any".
type BookingQuery struct {
	RenterID *uuid.UUID
	OwnerID  *uuid.UUID
	Statuses []domain.BookingStatus
	// Rows whose date column is strictly before this instant. Which column depends on the
	// statuses asked for: start_date for pending, end_date for in_progress.
	StartBefore *time.Time
	EndBefore   *time.Time
	// Rows never reminded, or last reminded strictly before this instant.
	NotRemindedSince *time.Time
	Limit            int32
	Offset      int32
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// Update persists status, lifecycle timestamps and reasons. Amounts are immutable.
	Update(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context, q BookingQuery) ([]domain.Booking, int32, error)
	// MarkReminded stamps last_reminded_at for the overdue-return reminder.
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.PaymentRecord) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.PaymentRecord, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error)
	Update(ctx context.Context, payment *domain.PaymentRecord) error
	ListByStatus(ctx context.Context, statuses []domain.PaymentStatus, limit int32) ([]domain.PaymentRecord, error)
}

type PayoutRepository interface {
	Create(ctx context.Context, release *domain.PayoutRelease) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.PayoutRelease, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
}

// Repositories groups the repositories that take part in a multi-row write.
type Repositories struct {
	Bookings      BookingRepository
	Payments      PaymentRepository
	Payouts       PayoutRepository
	Notifications NotificationRepository
}

// Transactor runs fn against repositories bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
