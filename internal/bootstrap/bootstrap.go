// Package bootstrap opens the backends named in the configuration and
// builds the service graph shared by the server and the cron runner.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"

	httpapi "foundation-backend/internal/api/http"
	"foundation-backend/internal/cache"
	"foundation-backend/internal/config"
	"foundation-backend/internal/docstore"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/payment"
	"foundation-backend/internal/repository/document"
	"foundation-backend/internal/security"
	"foundation-backend/internal/service"
	"foundation-backend/internal/storage"
)

const uploadCacheControl = "public, max-age=31536000"

// Backends holds every external connection the process owns.
type Backends struct {
	Store *document.Store
	Cache *cache.Client
	// Uploader is nil in the cron runner.
	Uploader storage.Uploader
	// Files is set when uploads live on the local disk.
	Files *storage.LocalStorage

	app *firebase.App
}

// Open connects the document store and the cache. withUploads also opens
// the upload backend.
func Open(ctx context.Context, cfg *config.Config, withUploads bool) (*Backends, error) {
	b := &Backends{}

	if cfg.Database.Driver == "firestore" || (withUploads && cfg.Storage.Type == "firebase") {
		app, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.app = app
	}

	docs, err := openDocstore(ctx, cfg, b.app)
	if err != nil {
		return nil, err
	}
	b.Store = document.NewStore(docs)

	b.Cache = openCache(ctx, cfg)

	if withUploads {
		var openBucket storage.BucketOpener
		if b.app != nil {
			openBucket = b.bucket(ctx)
		}
		b.Uploader, b.Files, err = storage.New(storage.Config{
			Type:         cfg.Storage.Type,
			UploadDir:    cfg.Storage.UploadDir,
			BaseURL:      cfg.Storage.BaseURL,
			Bucket:       cfg.Storage.Bucket,
			CacheControl: uploadCacheControl,
		}, openBucket)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		logger.Info("Upload storage ready", "type", cfg.Storage.Type)
	}

	return b, nil
}

func (b *Backends) Close() {
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			logger.Warn("Failed to close document store", "error", err)
		}
	}
	if err := b.Cache.Close(); err != nil {
		logger.Warn("Failed to close redis", "error", err)
	}
}

func (b *Backends) bucket(ctx context.Context) storage.BucketOpener {
	return func(name string) (*gcs.BucketHandle, error) {
		client, err := b.app.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firebase storage client: %w", err)
		}
		if name == "" {
			return client.DefaultBucket()
		}
		return client.Bucket(name)
	}
}

func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.Database.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Database.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.Database.ProjectID,
		StorageBucket: cfg.Storage.Bucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}

func openDocstore(ctx context.Context, cfg *config.Config, app *firebase.App) (docstore.Store, error) {
	switch cfg.Database.Driver {
	case "firestore":
		logger.Info("Connecting to firestore...", "project", cfg.Database.ProjectID)
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to firestore: %w", err)
		}
		logger.Info("Firestore connection established")
		return docstore.NewFirestoreStore(client), nil

	case "postgres":
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store := docstore.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database connection established")
		return store, nil

	case "memory":
		logger.Warn("Using in-memory document store, data is lost on exit")
		return docstore.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
}

// openCache never fails: without Redis the stats cache and job locks are off.
func openCache(ctx context.Context, cfg *config.Config) *cache.Client {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis not configured, cache and job locks disabled")
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := cache.Connect(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache", "error", err)
		return nil
	}
	logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
	return client
}

// NewServices builds the service graph. Images is nil without an uploader.
func NewServices(cfg *config.Config, b *Backends, tokens security.TokenManager) httpapi.Services {
	store := b.Store

	gateway := payment.NewPaystackClient(payment.PaystackConfig{
		SecretKey: cfg.Payment.SecretKey,
		BaseURL:   cfg.Payment.BaseURL,
		Timeout:   time.Duration(cfg.Payment.TimeoutSeconds) * time.Second,
	})
	emailSvc := service.NewEmailService(
		cfg.Email.Provider,
		cfg.Email.APIKey,
		cfg.Email.From,
		cfg.Email.FromName,
		cfg.Email.AdminNotify,
	)

	stats := service.NewStatsService(
		store.DonationRepository,
		store.IssueRepository,
		store.VolunteerRepository,
		store.OrphanageRepository,
		store.InquiryRepository,
		store.FinancialRecordRepository,
		b.Cache,
		cfg.StatsCacheTTL(),
	)

	svcs := httpapi.Services{
		Donations:  service.NewDonationService(store.DonationRepository, store.IssueRepository, gateway, emailSvc, cfg.Payment.CallbackURL, stats),
		Ledger:     service.NewLedgerService(store.FinancialRecordRepository, cfg.Ledger.WarnRatio, cfg.Payment.DefaultCurrency),
		Issues:     service.NewIssueService(store.IssueRepository, store.OrphanageRepository, store.DonationRepository, cfg.Payment.DefaultCurrency),
		Orphanages: service.NewOrphanageService(store.OrphanageRepository),
		Volunteers: service.NewVolunteerService(store.VolunteerRepository, store.OrphanageRepository, emailSvc),
		Inquiries:  service.NewInquiryService(store.InquiryRepository, emailSvc),
		Blog:       service.NewBlogService(store.BlogPostRepository),
		Events:     service.NewEventService(store.EventRepository),
		Stats:      stats,
	}
	if tokens != nil {
		svcs.Auth = service.NewAuthService(cfg.Admins, tokens)
	}
	if b.Uploader != nil {
		svcs.Images = service.NewImageService(b.Uploader, cfg.MaxUploadBytes(), cfg.Storage.AllowedTypes)
	}
	return svcs
}
