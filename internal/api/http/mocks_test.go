package http_test

import (
	"context"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) QuoteBooking(ctx context.Context, req service.CreateBookingRequest) (*service.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Quote), args.Error(1)
}
func (m *MockBookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, req service.CreateBookingRequest) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, renterID, req))
}
func (m *MockBookingService) ApproveBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, ownerID, bookingID))
}
func (m *MockBookingService) RejectBooking(ctx context.Context, ownerID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, ownerID, bookingID, reason))
}
func (m *MockBookingService) CancelBooking(ctx context.Context, renterID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, renterID, bookingID, reason))
}
func (m *MockBookingService) ConfirmPickup(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, ownerID, bookingID))
}
func (m *MockBookingService) MarkReturned(ctx context.Context, renterID, bookingID uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, renterID, bookingID))
}
func (m *MockBookingService) ConfirmReturn(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, ownerID, bookingID))
}
func (m *MockBookingService) OpenDispute(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, userID, bookingID, reason))
}
func (m *MockBookingService) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, userID, bookingID))
}
func (m *MockBookingService) ListBookings(ctx context.Context, userID uuid.UUID, role service.BookingRole, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, userID, role, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}

type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) ListPayouts(ctx context.Context, filter domain.PayoutFilter, page, pageSize int32) ([]domain.PayoutView, int32, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.PayoutView), args.Get(1).(int32), args.Error(2)
}
func (m *MockPayoutService) ReleasePayout(ctx context.Context, adminID, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, adminID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockPayoutService) BulkRelease(ctx context.Context, adminID uuid.UUID, bookingIDs []uuid.UUID) ([]domain.ReleaseResult, error) {
	args := m.Called(ctx, adminID, bookingIDs)
	return args.Get(0).([]domain.ReleaseResult), args.Error(1)
}
func (m *MockPayoutService) MarkDisputed(ctx context.Context, adminID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, adminID, bookingID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockPayoutService) ResolveDispute(ctx context.Context, adminID, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, adminID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockPayoutService) ReadyForRelease(ctx context.Context) ([]domain.PayoutView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PayoutView), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) SyncPaymentStatus(ctx context.Context, bookingID uuid.UUID) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}
func (m *MockPaymentService) HandleNotification(ctx context.Context, n service.PaymentNotification) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthTokens, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthTokens), args.Error(1)
}
func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*service.AuthTokens, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthTokens), args.Error(1)
}
