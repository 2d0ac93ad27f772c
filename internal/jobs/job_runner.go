package jobs

import (
	"context"
	"time"

	"foundation-backend/internal/config"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	lock     JobLock
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Donations service.DonationService
	Ledger    service.LedgerService
	Issues    service.IssueService
}

// NewJobRunner creates a new job runner with all dependencies. lock may be
// nil when only one runner is deployed.
func NewJobRunner(services *Services, cfg *config.Config, lock JobLock) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		lock:     lock,
		now:      time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and, when a lock
// is configured, skips the run if another runner holds the job.
func (jr *JobRunner) runWithRecovery(jobName string, timeout time.Duration, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if jr.lock != nil {
		release, ok, err := jr.lock.Acquire(ctx, jobName, timeout)
		if err != nil {
			logger.Error("Failed to acquire job lock", "job", jobName, "error", err)
			return
		}
		if !ok {
			logger.Info("Job already running elsewhere, skipping", "job", jobName)
			return
		}
		defer release()
	}

	logger.Info("Starting job", "job", jobName)
	start := jr.now()
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName, "duration", jr.now().Sub(start).String())
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ExpireStaleDonations()
	jr.ReconcileIssueRaisedAmounts()
	jr.ReconcileLedgerTotals()
}
