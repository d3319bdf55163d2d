package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	apigrpc "rental-marketplace-backend/internal/api/grpc"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/security"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

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
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockPayoutService) ResolveDispute(ctx context.Context, adminID, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, adminID, bookingID)
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockPayoutService) ReadyForRelease(ctx context.Context) ([]domain.PayoutView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PayoutView), args.Error(1)
}

type grpcFixture struct {
	conn    *grpc.ClientConn
	tokens  security.TokenManager
	payouts *MockPayoutService
}

func newGRPCFixture(t *testing.T) *grpcFixture {
	f := &grpcFixture{
		tokens:  security.NewTokenManager("grpc-test-secret", time.Hour, 24*time.Hour),
		payouts: new(MockPayoutService),
	}
	lis := bufconn.Listen(1024 * 1024)
	s, _ := apigrpc.NewServer(f.tokens, f.payouts)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	f.conn = conn
	return f
}

func (f *grpcFixture) ctxAs(t *testing.T, id uuid.UUID, role domain.ProfileRole) context.Context {
	tok, err := f.tokens.GenerateAccessToken(id, "admin@example.com", string(role))
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestHealthIsPublic(t *testing.T) {
	f := newGRPCFixture(t)
	resp, err := healthpb.NewHealthClient(f.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: apigrpc.PayoutServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestPayoutService_ListPayouts(t *testing.T) {
	req := map[string]any{"filter": "ready", "page": 1, "page_size": 10}

	t.Run("No token", func(t *testing.T) {
		f := newGRPCFixture(t)
		err := f.conn.Invoke(context.Background(), apigrpc.ListPayoutsFullMethod, mustStruct(t, req), new(structpb.Struct))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Non-admin token", func(t *testing.T) {
		f := newGRPCFixture(t)
		err := f.conn.Invoke(f.ctxAs(t, uuid.New(), domain.ProfileRoleUser), apigrpc.ListPayoutsFullMethod, mustStruct(t, req), new(structpb.Struct))
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("Admin", func(t *testing.T) {
		f := newGRPCFixture(t)
		completed := time.Date(2024, time.January, 5, 17, 0, 0, 0, time.UTC)
		f.payouts.On("ListPayouts", mock.Anything, domain.PayoutFilterReady, int32(1), int32(10)).Return([]domain.PayoutView{{
			Booking:  domain.Booking{ID: uuid.New(), Status: domain.BookingStatusCompleted, OwnerPayout: 20000, CompletedAt: &completed},
			Badge:    domain.PayoutBadgeReady,
			Eligible: true,
		}}, int32(1), nil)

		out := new(structpb.Struct)
		err := f.conn.Invoke(f.ctxAs(t, uuid.New(), domain.ProfileRoleAdmin), apigrpc.ListPayoutsFullMethod, mustStruct(t, req), out)
		require.NoError(t, err)

		assert.Equal(t, float64(1), out.Fields["total"].GetNumberValue())
		items := out.Fields["items"].GetListValue().GetValues()
		require.Len(t, items, 1)
		item := items[0].GetStructValue().GetFields()
		assert.Equal(t, "Ready for Release", item["badge"].GetStringValue())
		booking := item["booking"].GetStructValue().GetFields()
		assert.Equal(t, float64(20000), booking["owner_payout"].GetNumberValue())
		assert.Equal(t, "2024-01-05T17:00:00Z", booking["completed_at"].GetStringValue())
	})
}

func TestPayoutService_ReleasePayout(t *testing.T) {
	adminID := uuid.New()

	t.Run("Admin from the token releases", func(t *testing.T) {
		f := newGRPCFixture(t)
		bookingID := uuid.New()
		f.payouts.On("ReleasePayout", mock.Anything, adminID, bookingID).
			Return(&domain.Booking{ID: bookingID, Status: domain.BookingStatusReleased, ReleasedBy: &adminID}, nil)

		out := new(structpb.Struct)
		err := f.conn.Invoke(f.ctxAs(t, adminID, domain.ProfileRoleAdmin), apigrpc.ReleasePayoutFullMethod,
			mustStruct(t, map[string]any{"booking_id": bookingID.String()}), out)
		require.NoError(t, err)
		assert.Equal(t, "released", out.Fields["status"].GetStringValue())
		assert.Equal(t, adminID.String(), out.Fields["released_by"].GetStringValue())
	})

	t.Run("Not eligible", func(t *testing.T) {
		f := newGRPCFixture(t)
		bookingID := uuid.New()
		f.payouts.On("ReleasePayout", mock.Anything, adminID, bookingID).Return(nil, domain.ErrNotEligible)

		err := f.conn.Invoke(f.ctxAs(t, adminID, domain.ProfileRoleAdmin), apigrpc.ReleasePayoutFullMethod,
			mustStruct(t, map[string]any{"booking_id": bookingID.String()}), new(structpb.Struct))
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("Bad booking id", func(t *testing.T) {
		f := newGRPCFixture(t)
		err := f.conn.Invoke(f.ctxAs(t, adminID, domain.ProfileRoleAdmin), apigrpc.ReleasePayoutFullMethod,
			mustStruct(t, map[string]any{"booking_id": "nope"}), new(structpb.Struct))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Spoofed user-id header is overwritten", func(t *testing.T) {
		f := newGRPCFixture(t)
		bookingID := uuid.New()
		f.payouts.On("ReleasePayout", mock.Anything, adminID, bookingID).
			Return(&domain.Booking{ID: bookingID, Status: domain.BookingStatusReleased}, nil)

		ctx := metadata.AppendToOutgoingContext(f.ctxAs(t, adminID, domain.ProfileRoleAdmin), "user-id", uuid.NewString())
		err := f.conn.Invoke(ctx, apigrpc.ReleasePayoutFullMethod,
			mustStruct(t, map[string]any{"booking_id": bookingID.String()}), new(structpb.Struct))
		require.NoError(t, err)
		f.payouts.AssertExpectations(t)
	})
}
