package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "foundation-backend/internal/api/http"
	"foundation-backend/internal/bootstrap"
	"foundation-backend/internal/config"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/security"
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
	logger.Info("Starting Foundation Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "public_url", cfg.Server.PublicURL)
	logger.Info("Email configuration", "provider", cfg.Email.Provider, "from", cfg.Email.From)
	if len(cfg.Admins) == 0 {
		logger.Warn("No admin accounts configured, the admin portal is unreachable")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize backends
	backends, err := bootstrap.Open(ctx, cfg, true)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		log.Fatalf("Failed to initialize backends: %v", err)
	}
	defer backends.Close()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize Services
	services := bootstrap.NewServices(cfg, backends, tokenManager)

	// Records written outside this server can leave the ledger summary stale.
	if totals, err := services.Ledger.RecomputeTotals(ctx); err != nil {
		logger.Error("Failed to reconcile ledger totals", "error", err)
	} else {
		logger.Info("Ledger totals reconciled", "records", totals.RecordCount, "available", totals.Available().StringFixed(2))
	}

	trustedProxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		backends.Close()
		log.Fatalf("Invalid trusted proxies: %v", err)
	}

	opts := httpapi.Options{
		Services:       services,
		Tokens:         tokenManager,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: trustedProxies,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}
	if backends.Files != nil {
		opts.Files = backends.Files
	}
	switch {
	case cfg.Redis.PublicRateLimit <= 0:
		logger.Info("Public rate limiting disabled")
	case backends.Cache.Enabled():
		opts.Limiter = httpapi.NewCounterLimiter(backends.Cache, cfg.Redis.PublicRateLimit)
		logger.Info("Public rate limiting via redis", "per_minute", cfg.Redis.PublicRateLimit)
	default:
		opts.Limiter = httpapi.NewLocalLimiter(cfg.Redis.PublicRateLimit)
		logger.Info("Public rate limiting in process", "per_minute", cfg.Redis.PublicRateLimit)
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", "error", err)
			backends.Close()
			log.Fatalf("Failed to serve: %v", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped. Goodbye!")
}
