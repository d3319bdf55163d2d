package service

import (
	"context"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/utils"

	"github.com/google/uuid"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error)
}

type AuthTokens struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Profile      *domain.Profile `json:"profile"`
}

// BookingRole selects which side of a booking a list is for.
type BookingRole string

const (
	BookingRoleRenter BookingRole = "renter"
	BookingRoleOwner  BookingRole = "owner"
)

type CreateBookingRequest struct {
	ListingID   uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	Insurance   bool
	DeliveryFee int64
}

// Quote is the price a renter sees before requesting a booking.
type Quote struct {
	ListingID     uuid.UUID                 `json:"listing_id"`
	Pricing       utils.RentalCostBreakdown `json:"pricing"`
	Fees          utils.FeeBreakdown        `json:"fees"`
	DepositAmount int64                     `json:"deposit_amount"`
}

type BookingService interface {
	QuoteBooking(ctx context.Context, req CreateBookingRequest) (*Quote, error)
	CreateBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*domain.Booking, error)
	ApproveBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error)
	RejectBooking(ctx context.Context, ownerID, bookingID uuid.UUID, reason string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, renterID, bookingID uuid.UUID, reason string) (*domain.Booking, error)
	ConfirmPickup(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error)
	MarkReturned(ctx context.Context, renterID, bookingID uuid.UUID) (*domain.Booking, error)
	ConfirmReturn(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error)
	OpenDispute(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*domain.Booking, error)
	GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID uuid.UUID, role BookingRole, status string, page, pageSize int32) ([]domain.Booking, int32, error)
}

type PayoutService interface {
	ListPayouts(ctx context.Context, filter domain.PayoutFilter, page, pageSize int32) ([]domain.PayoutView, int32, error)
	ReleasePayout(ctx context.Context, adminID, bookingID uuid.UUID) (*domain.Booking, error)
	BulkRelease(ctx context.Context, adminID uuid.UUID, bookingIDs []uuid.UUID) ([]domain.ReleaseResult, error)
	MarkDisputed(ctx context.Context, adminID, bookingID uuid.UUID, reason string) (*domain.Booking, error)
	ResolveDispute(ctx context.Context, adminID, bookingID uuid.UUID) (*domain.Booking, error)
	// ReadyForRelease returns completed bookings whose hold has elapsed.
	ReadyForRelease(ctx context.Context) ([]domain.PayoutView, error)
}

// PaymentNotification is the subset of a processor webhook body we act on.
type PaymentNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

type PaymentService interface {
	SyncPaymentStatus(ctx context.Context, bookingID uuid.UUID) (*domain.PaymentRecord, error)
	HandleNotification(ctx context.Context, n PaymentNotification) (*domain.PaymentRecord, error)
}

type ListingService interface {
	ApproveListing(ctx context.Context, adminID, listingID uuid.UUID) (*domain.Listing, error)
	RejectListing(ctx context.Context, adminID, listingID uuid.UUID, reason string) (*domain.Listing, error)
	DeactivateListing(ctx context.Context, ownerID, listingID uuid.UUID) (*domain.Listing, error)
}

type NotificationService interface {
	// Notify stores an in-app notification and then delivers it by e-mail and push.
	// Delivery failures are logged and not returned.
	Notify(ctx context.Context, userID uuid.UUID, title, message string, attrs map[string]string) error
	// Deliver sends e-mail and push only, for notifications already stored.
	Deliver(ctx context.Context, userID uuid.UUID, title, message string, attrs map[string]string)
	GetNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type EmailSender interface {
	Send(ctx context.Context, toEmail, toName, subject, plainText, html string) error
}

type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func pageOffset(page, pageSize int32) (int32, int32) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
