package config

import (
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Payment   PaymentConfig   `yaml:"payment"`
	Storage   StorageConfig   `yaml:"storage"`
	Email     EmailConfig     `yaml:"email"`
	JWT       JWTConfig       `yaml:"jwt"`
	Admins    []AdminAccount  `yaml:"admins"`
	Redis     RedisConfig     `yaml:"redis"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Donations DonationsConfig `yaml:"donations"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PublicURL is the externally reachable base URL, used for file links.
	PublicURL      string   `yaml:"public_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// TrustedProxies holds the IPs or CIDRs of reverse proxies allowed to
	// set X-Forwarded-For. Empty means the peer address is always used.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DatabaseConfig selects the document store backend
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "firestore", "postgres" or "memory"

	// Firestore
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`

	// Postgres (JSONB document table)
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// PaymentConfig contains Paystack settings
type PaymentConfig struct {
	SecretKey       string `yaml:"secret_key"`
	BaseURL         string `yaml:"base_url"`
	CallbackURL     string `yaml:"callback_url"`
	DefaultCurrency string `yaml:"default_currency"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	Type         string   `yaml:"type"`       // "local" or "firebase"
	UploadDir    string   `yaml:"upload_dir"` // For local storage
	BaseURL      string   `yaml:"base_url"`   // Server base URL for local file links
	Bucket       string   `yaml:"bucket"`     // Firebase Storage bucket
	MaxFileSize  int64    `yaml:"max_file_size_mb"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// EmailConfig contains outbound email settings
type EmailConfig struct {
	Provider    string `yaml:"provider"` // "sendgrid" or "log"
	APIKey      string `yaml:"api_key"`
	From        string `yaml:"from"`
	FromName    string `yaml:"from_name"`
	AdminNotify string `yaml:"admin_notify"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// AdminAccount is an admin portal login. PasswordHash is a bcrypt hash.
type AdminAccount struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// RedisConfig enables the stats cache and job locks when Addr is set
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	StatsTTLSeconds int    `yaml:"stats_ttl_seconds"`
	// PublicRateLimit caps public form posts per client IP per minute. 0 disables.
	PublicRateLimit int `yaml:"public_rate_limit_per_minute"`
}

// LedgerConfig contains financial ledger settings
type LedgerConfig struct {
	// WarnRatio is the share of remaining funds above which an expense warns.
	WarnRatio float64 `yaml:"warn_ratio"`
}

// DonationsConfig contains donation lifecycle settings
type DonationsConfig struct {
	PendingExpiryMinutes int `yaml:"pending_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings (with seconds, UTC)
type SchedulerConfig struct {
	ExpireStaleDonations        string `yaml:"expire_stale_donations"`
	ReconcileLedgerTotals       string `yaml:"reconcile_ledger_totals"`
	ReconcileIssueRaisedAmounts string `yaml:"reconcile_issue_raised_amounts"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("FIRESTORE_PROJECT_ID"); val != "" {
		c.Database.ProjectID = val
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" {
		c.Database.CredentialsFile = val
	}

	// Payment
	if val := os.Getenv("PAYSTACK_SECRET_KEY"); val != "" {
		c.Payment.SecretKey = val
	}
	if val := os.Getenv("PAYSTACK_CALLBACK_URL"); val != "" {
		c.Payment.CallbackURL = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.APIKey = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.From = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Admin bootstrap account
	if email, hash := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD_HASH"); email != "" && hash != "" {
		c.Admins = append(c.Admins, AdminAccount{Email: email, Name: "Administrator", PasswordHash: hash})
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("TRUSTED_PROXIES"); val != "" {
		c.Server.TrustedProxies = strings.Split(val, ",")
	}

	// Storage
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}
	if val := os.Getenv("STORAGE_BUCKET"); val != "" {
		c.Storage.Bucket = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return err
	}

	// Database validation
	switch c.Database.Driver {
	case "":
		c.Database.Driver = "firestore"
		fallthrough
	case "firestore":
		if c.Database.ProjectID == "" {
			return fmt.Errorf("firestore project id is required")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	// Payment validation
	if c.Payment.SecretKey == "" {
		return fmt.Errorf("paystack secret key is required")
	}
	if c.Payment.DefaultCurrency == "" {
		c.Payment.DefaultCurrency = "NGN"
	}
	c.Payment.DefaultCurrency = strings.ToUpper(c.Payment.DefaultCurrency)
	if c.Payment.TimeoutSeconds == 0 {
		c.Payment.TimeoutSeconds = 30
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	for i, a := range c.Admins {
		if a.Email == "" || a.PasswordHash == "" {
			return fmt.Errorf("admin %d: email and password_hash are required", i)
		}
		c.Admins[i].Email = strings.ToLower(strings.TrimSpace(a.Email))
	}

	// Storage validation
	switch c.Storage.Type {
	case "":
		c.Storage.Type = "local"
		fallthrough
	case "local":
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("upload directory is required")
		}
		if c.Storage.BaseURL == "" {
			c.Storage.BaseURL = c.Server.PublicURL
		}
	case "firebase":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for firebase storage")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 5
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}

	// Email defaults
	if c.Email.Provider == "" {
		c.Email.Provider = "log"
	}
	if c.Email.Provider == "sendgrid" && c.Email.APIKey == "" {
		return fmt.Errorf("sendgrid api key is required")
	}
	if c.Email.From == "" {
		c.Email.From = "no-reply@localhost"
	}

	// Redis defaults
	if c.Redis.StatsTTLSeconds == 0 {
		c.Redis.StatsTTLSeconds = 60
	}

	// Ledger defaults
	if c.Ledger.WarnRatio == 0 {
		c.Ledger.WarnRatio = 0.5
	}
	if c.Ledger.WarnRatio < 0 || c.Ledger.WarnRatio > 1 {
		return fmt.Errorf("ledger warn ratio must be between 0 and 1: %v", c.Ledger.WarnRatio)
	}

	// Donation defaults
	if c.Donations.PendingExpiryMinutes == 0 {
		c.Donations.PendingExpiryMinutes = 24 * 60
	}

	// Scheduler defaults
	if c.Scheduler.ExpireStaleDonations == "" {
		c.Scheduler.ExpireStaleDonations = "0 */15 * * * *" // Every 15 minutes
	}
	if c.Scheduler.ReconcileLedgerTotals == "" {
		c.Scheduler.ReconcileLedgerTotals = "0 0 2 * * *" // 2 AM UTC
	}
	if c.Scheduler.ReconcileIssueRaisedAmounts == "" {
		c.Scheduler.ReconcileIssueRaisedAmounts = "0 30 2 * * *" // 2:30 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare IP becomes a single
// address prefix.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

func (c *Config) PendingDonationExpiry() time.Duration {
	return time.Duration(c.Donations.PendingExpiryMinutes) * time.Minute
}

func (c *Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.Redis.StatsTTLSeconds) * time.Second
}

func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxFileSize * 1024 * 1024
}
