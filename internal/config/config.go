package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Sportmonks API
	SportmonksAPIKey        string        `envconfig:"SPORTMONKS_API_KEY" required:"true"`
	SportmonksBaseURL       string        `envconfig:"SPORTMONKS_BASE_URL" default:"https://api.sportmonks.com/v3"`
	SportmonksTimeout       time.Duration `envconfig:"SPORTMONKS_TIMEOUT" default:"30s"`
	SportmonksPerPage       int           `envconfig:"SPORTMONKS_PER_PAGE" default:"50"`
	SportmonksMaxRetries    int           `envconfig:"SPORTMONKS_MAX_RETRIES" default:"3"`
	SportmonksRetryBase     time.Duration `envconfig:"SPORTMONKS_RETRY_BASE" default:"500ms"`
	SportmonksRateThreshold int           `envconfig:"SPORTMONKS_RATE_THRESHOLD" default:"50"`
	SportmonksRateWait      time.Duration `envconfig:"SPORTMONKS_RATE_WAIT" default:"1s"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"footysync"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"footysync_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis (single-flight locks)
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	LockLease     time.Duration `envconfig:"LOCK_LEASE" default:"15m"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Ingestion Service
	IngestionPort   int `envconfig:"INGESTION_PORT" default:"8080"`
	UpsertChunkSize int `envconfig:"UPSERT_CHUNK_SIZE" default:"500"`

	// Delta sync
	DeltaLimit       int `envconfig:"FIXTURE_DELTA_LIMIT" default:"5000"`
	DeltaBatchSize   int `envconfig:"FIXTURE_DELTA_BATCH_SIZE" default:"50"`
	DeltaDaysBack    int `envconfig:"FIXTURE_DELTA_DAYS_BACK" default:"1"`
	DeltaDaysForward int `envconfig:"FIXTURE_DELTA_DAYS_FORWARD" default:"0"`

	// Enrichment
	EnrichmentLimit       int `envconfig:"FIXTURE_ENRICHMENT_LIMIT" default:"100"`
	EnrichmentBatchSize   int `envconfig:"FIXTURE_ENRICHMENT_BATCH_SIZE" default:"20"`
	EnrichmentDaysBack    int `envconfig:"FIXTURE_ENRICHMENT_DAYS_BACK" default:"3"`
	EnrichmentDaysForward int `envconfig:"FIXTURE_ENRICHMENT_DAYS_FORWARD" default:"1"`

	// Scheduler
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	DeltaSyncCron   string `envconfig:"DELTA_SYNC_CRON" default:"*/10 * * * *"`
	EnrichmentCron  string `envconfig:"ENRICHMENT_CRON" default:"*/30 * * * *"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SportmonksAPIKey == "" {
		return fmt.Errorf("SPORTMONKS_API_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.UpsertChunkSize <= 0 {
		return fmt.Errorf("UPSERT_CHUNK_SIZE must be positive")
	}

	if c.SportmonksMaxRetries < 1 {
		return fmt.Errorf("SPORTMONKS_MAX_RETRIES must be at least 1")
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
