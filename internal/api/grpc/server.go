package grpc

import (
	"rental-marketplace-backend/internal/api/grpc/interceptor"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewServer builds the admin gRPC server with the payout service, health checks and
// reflection registered. The health server is returned so shutdown can flip it to NOT_SERVING.
func NewServer(tokens security.TokenManager, payouts service.PayoutService) (*grpc.Server, *health.Server) {
	authInterceptor := interceptor.NewAuthInterceptor(tokens)
	s := grpc.NewServer(
		grpc.UnaryInterceptor(authInterceptor.Unary()),
	)

	RegisterPayoutServiceServer(s, NewPayoutHandler(payouts))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(PayoutServiceName, healthpb.HealthCheckResponse_SERVING)

	// Register reflection service for grpcurl
	reflection.Register(s)
	return s, hs
}
