package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apigrpc "rental-marketplace-backend/internal/api/grpc"
	httpapi "rental-marketplace-backend/internal/api/http"
	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository/postgres"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Marketplace Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.HTTPAddress(), "grpc", cfg.GRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Payout configuration", "hold_working_days", cfg.Payout.HoldWorkingDays,
		"service_fee_bps", cfg.Fees.ServiceFeeBps, "commission_bps", cfg.Fees.CommissionBps, "insurance_bps", cfg.Fees.InsuranceBps)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute,
	)

	// Initialize delivery channels; each is nil when unconfigured.
	ctx := context.Background()
	emailSender := service.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	pushSender := service.NewFCMSender(ctx, cfg.Push.CredentialsFile, cfg.Push.ProjectID)
	var gateway service.PaymentGateway
	if cfg.Payment.ServerKey != "" {
		gateway = service.NewMidtransGateway(cfg.Payment.ServerKey, cfg.Payment.Environment)
	} else {
		logger.Warn("Payment server key not set; payment sync is disabled")
	}

	// Initialize Services
	noteSvc := service.NewNotificationService(store.NotificationRepository, store.ProfileRepository, emailSender, pushSender)
	authSvc := service.NewAuthService(store.ProfileRepository, tokenManager)
	bookingSvc := service.NewBookingService(
		store.BookingRepository,
		store.ListingRepository,
		store.ProfileRepository,
		store.PaymentRepository,
		store,
		noteSvc,
		cfg.Fees,
		time.Now,
	)
	payoutSvc := service.NewPayoutService(
		store.BookingRepository,
		store.ProfileRepository,
		store.PaymentRepository,
		store,
		noteSvc,
		cfg.Payout.HoldWorkingDays,
		time.Now,
	)
	paymentSvc := service.NewPaymentService(store.PaymentRepository, store.BookingRepository, gateway, noteSvc, cfg.Payment.ServerKey)
	listingSvc := service.NewListingService(store.ListingRepository, store.ProfileRepository, noteSvc)

	// Set up HTTP server
	handler := httpapi.NewHandler(authSvc, bookingSvc, payoutSvc, paymentSvc, listingSvc, noteSvc, tokenManager)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Set up gRPC server
	grpcServer, healthServer := apigrpc.NewServer(tokenManager, payoutSvc)
	lis, err := net.Listen("tcp", cfg.GRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		logger.Info("gRPC server listening", "address", cfg.GRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down servers...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Servers stopped. Goodbye!")
}
