package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/jobs"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository/postgres"
	"rental-marketplace-backend/internal/scheduler"
	"rental-marketplace-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'notify-ready-payouts', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Marketplace Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Services
	ctx := context.Background()
	noteSvc := service.NewNotificationService(
		store.NotificationRepository,
		store.ProfileRepository,
		service.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName),
		service.NewFCMSender(ctx, cfg.Push.CredentialsFile, cfg.Push.ProjectID),
	)
	var gateway service.PaymentGateway
	if cfg.Payment.ServerKey != "" {
		gateway = service.NewMidtransGateway(cfg.Payment.ServerKey, cfg.Payment.Environment)
	}

	jobServices := &jobs.Services{
		Payouts: service.NewPayoutService(
			store.BookingRepository,
			store.ProfileRepository,
			store.PaymentRepository,
			store,
			noteSvc,
			cfg.Payout.HoldWorkingDays,
			time.Now,
		),
		Payments:      service.NewPaymentService(store.PaymentRepository, store.BookingRepository, gateway, noteSvc, cfg.Payment.ServerKey),
		Notifications: noteSvc,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store.BookingRepository, store.ProfileRepository, store.PaymentRepository, jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register jobs: %v", err)
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "notify-ready-payouts":
		jobRunner.NotifyReadyPayouts()
	case "expire-stale-requests":
		jobRunner.ExpireStaleRequests()
	case "remind-overdue-returns":
		jobRunner.RemindOverdueReturns()
	case "sync-pending-payments":
		jobRunner.SyncPendingPayments()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - notify-ready-payouts\n")
		fmt.Printf("  - expire-stale-requests\n")
		fmt.Printf("  - remind-overdue-returns\n")
		fmt.Printf("  - sync-pending-payments\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
