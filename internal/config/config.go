package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Steam    SteamConfig
	Market   MarketConfig
	Twilio   TwilioConfig
	Snapshot SnapshotConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	CORSOrigins     []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string   `envconfig:"APP_NAME" default:"skinsignal-api"`
	Environment string   `envconfig:"APP_ENV" default:"development"`
	Debug       bool     `envconfig:"APP_DEBUG" default:"false"`
	Version     string   `envconfig:"APP_VERSION" default:"1.0.0"`
	APIKeys     []string `envconfig:"API_KEYS"` // admin endpoints
}

// CacheConfig holds listing cache settings.
type CacheConfig struct {
	Type       string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	ListingTTL time.Duration `envconfig:"LISTING_CACHE_TTL" default:"90s"`
	// CleanupInterval is how often the in-memory cache sweeps expired entries.
	CleanupInterval time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"1m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"skinsignal:listings"`
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"sqlite"` // sqlite, postgres, or mysql (aliases sqlite3, postgresql)
	Path     string `envconfig:"DB_PATH" default:"./data/skinsignal.db"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"skinsignal"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASS" default:""`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"require"`
}

// SteamConfig holds inventory source settings.
type SteamConfig struct {
	BaseURL      string        `envconfig:"STEAM_BASE_URL" default:"https://steamcommunity.com"`
	Timeout      time.Duration `envconfig:"STEAM_TIMEOUT" default:"20s"`
	RetryBackoff time.Duration `envconfig:"STEAM_RETRY_BACKOFF" default:"800ms"`
}

// MarketConfig holds listings source settings.
type MarketConfig struct {
	BaseURL      string        `envconfig:"CSFLOAT_BASE_URL" default:"https://csfloat.com"`
	APIKey       string        `envconfig:"CSFLOAT_API_KEY" default:""`
	Timeout      time.Duration `envconfig:"CSFLOAT_TIMEOUT" default:"10s"`
	RetryBackoff time.Duration `envconfig:"CSFLOAT_RETRY_BACKOFF" default:"500ms"`
}

// TwilioConfig holds SMS channel credentials. All three must be set to send real messages.
type TwilioConfig struct {
	AccountSID string `envconfig:"TWILIO_ACCOUNT_SID" default:""`
	AuthToken  string `envconfig:"TWILIO_AUTH_TOKEN" default:""`
	FromNumber string `envconfig:"TWILIO_FROM_NUMBER" default:""`
	BaseURL    string `envconfig:"TWILIO_BASE_URL" default:"https://api.twilio.com"`
}

// SnapshotConfig holds pipeline tuning.
type SnapshotConfig struct {
	RateLimit     time.Duration `envconfig:"SNAPSHOT_RATE_LIMIT" default:"60s"`
	FanOut        int           `envconfig:"SNAPSHOT_FANOUT" default:"4"`
	AlertCooldown time.Duration `envconfig:"ALERT_COOLDOWN" default:"2h"`
	AlertTimeout  time.Duration `envconfig:"ALERT_TASK_TIMEOUT" default:"60s"`
	DailyEnabled  bool          `envconfig:"DAILY_SNAPSHOT_ENABLED" default:"false"`
	DailyInterval time.Duration `envconfig:"DAILY_SNAPSHOT_INTERVAL" default:"24h"`
	DailyTimeout  time.Duration `envconfig:"DAILY_SNAPSHOT_TIMEOUT" default:"30m"`
}

// Enabled reports whether real SMS delivery is configured.
func (t *TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// PostgresDSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (d *DatabaseConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Validate checks settings that have no usable default.
// A missing market key is only fatal in production; elsewhere valuations degrade to empty listings.
func (c *Config) Validate() error {
	if c.App.IsProduction() && c.Market.APIKey == "" {
		return errors.New("CSFLOAT_API_KEY is required in production")
	}
	switch strings.ToLower(strings.TrimSpace(c.Database.Type)) {
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}
	if c.Snapshot.FanOut < 1 {
		return fmt.Errorf("SNAPSHOT_FANOUT must be >= 1, got %d", c.Snapshot.FanOut)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
