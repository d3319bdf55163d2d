package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	gateway     PaymentGateway
	notifier    NotificationService
	serverKey   string
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	gateway PaymentGateway,
	notifier NotificationService,
	serverKey string,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		gateway:     gateway,
		notifier:    notifier,
		serverKey:   serverKey,
	}
}

// MapTransactionStatus converts a processor transaction status to ours. ok is false for
// statuses that should leave the record untouched, such as a capture still under fraud review.
func MapTransactionStatus(transactionStatus, fraudStatus string) (domain.PaymentStatus, bool) {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "challenge" {
			return domain.PaymentStatusProcessing, true
		}
		return domain.PaymentStatusSucceeded, true
	case "settlement":
		return domain.PaymentStatusSucceeded, true
	case "pending", "authorize":
		return domain.PaymentStatusProcessing, true
	case "deny", "cancel", "expire", "failure":
		return domain.PaymentStatusFailed, true
	case "refund", "partial_refund":
		return domain.PaymentStatusRefunded, true
	}
	return "", false
}

// NotificationSignature is SHA512(order_id + status_code + gross_amount + server_key), hex encoded.
func NotificationSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func (s *paymentService) SyncPaymentStatus(ctx context.Context, bookingID uuid.UUID) (*domain.PaymentRecord, error) {
	payment, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return payment, nil
	}
	status, err := s.gateway.CheckTransaction(ctx, payment.ProviderOrderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, payment, status.TransactionStatus, status.FraudStatus)
}

func (s *paymentService) HandleNotification(ctx context.Context, n PaymentNotification) (*domain.PaymentRecord, error) {
	want := NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, s.serverKey)
	if subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) != 1 {
		logger.Warn("Rejected payment notification with bad signature", "orderID", n.OrderID)
		return nil, fmt.Errorf("%w: bad notification signature", domain.ErrUnauthorized)
	}
	payment, err := s.paymentRepo.GetByOrderID(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, payment, n.TransactionStatus, n.FraudStatus)
}

func (s *paymentService) apply(ctx context.Context, payment *domain.PaymentRecord, transactionStatus, fraudStatus string) (*domain.PaymentRecord, error) {
	next, ok := MapTransactionStatus(transactionStatus, fraudStatus)
	if !ok || next == payment.Status || payment.Status == domain.PaymentStatusRefunded {
		return payment, nil
	}

	var booking *domain.Booking
	if next == domain.PaymentStatusSucceeded {
		b, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
		if err != nil {
			return nil, err
		}
		booking = b
		// Money captured for a booking that is no longer going ahead is owed back to the renter.
		if b.Status == domain.BookingStatusCancelled || b.Status == domain.BookingStatusRejected {
			logger.Warn("Payment captured for a closed booking; recording it as refunded",
				"bookingID", b.ID, "bookingStatus", b.Status, "paymentStatus", payment.Status)
			next = domain.PaymentStatusRefunded
			booking = nil
		}
	}
	if next == payment.Status {
		return payment, nil
	}
	if !payment.Status.CanMoveTo(next) {
		logger.Info("Ignoring out-of-order payment status", "bookingID", payment.BookingID,
			"current", payment.Status, "reported", next)
		return payment, nil
	}

	prev := payment.Status
	payment.Status = next
	if booking != nil {
		payment.PlatformFee = booking.ServiceFee + booking.PlatformCommission
		payment.NetAmount = booking.OwnerPayout
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}
	logger.Info("Payment status changed", "bookingID", payment.BookingID, "from", prev, "to", next)

	if s.notifier != nil && booking != nil {
		attrs := map[string]string{"type": "PAYMENT_SUCCEEDED", "booking_id": booking.ID.String()}
		if err := s.notifier.Notify(ctx, booking.OwnerID, "Payment Received", "The renter paid for the booking. You can hand over the item.", attrs); err != nil {
			logger.Warn("Failed to store notification", "userID", booking.OwnerID, "error", err)
		}
	}
	return payment, nil
}
