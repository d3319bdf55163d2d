package jobs

import (
	"sync"
	"time"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/service"
)

// batchSize bounds how many rows a single job run touches.
const batchSize = 500

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	bookings repository.BookingRepository
	profiles repository.ProfileRepository
	payments repository.PaymentRepository
	services *Services
	config   *config.Config
	now      func() time.Time

	mu             sync.Mutex
	lastReadyCheck time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Payouts       service.PayoutService
	Payments      service.PaymentService
	Notifications service.NotificationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(
	bookings repository.BookingRepository,
	profiles repository.ProfileRepository,
	payments repository.PaymentRepository,
	services *Services,
	cfg *config.Config,
) *JobRunner {
	return &JobRunner{
		bookings: bookings,
		profiles: profiles,
		payments: payments,
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the configuration the runner was built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	start := jr.now()
	log.Info("Starting job")
	jobFunc()
	log.Info("Job completed", "duration_ms", jr.now().Sub(start).Milliseconds())
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SyncPendingPayments()
	jr.ExpireStaleRequests()
	jr.RemindOverdueReturns()
	jr.NotifyReadyPayouts()
}
