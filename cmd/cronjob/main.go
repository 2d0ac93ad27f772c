package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"foundation-backend/internal/bootstrap"
	"foundation-backend/internal/config"
	"foundation-backend/internal/jobs"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-stale-donations', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Foundation Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize backends, no uploads needed here
	backends, err := bootstrap.Open(context.Background(), cfg, false)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		log.Fatalf("Failed to initialize backends: %v", err)
	}
	defer backends.Close()

	// Initialize Services
	services := bootstrap.NewServices(cfg, backends, nil)
	jobServices := &jobs.Services{
		Donations: services.Donations,
		Ledger:    services.Ledger,
		Issues:    services.Issues,
	}

	var lock jobs.JobLock
	if backends.Cache.Enabled() {
		lock = jobs.NewRedisJobLock(backends.Cache.Redis())
		logger.Info("Job locks enabled via redis")
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg, lock)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			backends.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to register jobs", "error", err)
		backends.Close()
		log.Fatalf("Failed to register jobs: %v", err)
	}

	// Start scheduler
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

// runJobOnce runs a specific job once. It reports false for an unknown name.
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "expire-stale-donations":
		jobRunner.ExpireStaleDonations()
	case "reconcile-ledger-totals":
		jobRunner.ReconcileLedgerTotals()
	case "reconcile-issue-raised-amounts":
		jobRunner.ReconcileIssueRaisedAmounts()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - expire-stale-donations\n")
		fmt.Printf("  - reconcile-ledger-totals\n")
		fmt.Printf("  - reconcile-issue-raised-amounts\n")
		fmt.Printf("  - all\n")
		return false
	}
	return true
}
