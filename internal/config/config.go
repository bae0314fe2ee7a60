// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Job store backends.
const (
	JobStoreSQLite = "sqlite"
	JobStoreMemory = "memory"
)

// DefaultPollInterval matches the WORKER_POLL_INTERVAL default.
const DefaultPollInterval = 5 * time.Second

// Static errors for configuration validation.
var (
	// ErrInvalidJobStore is returned when JOB_STORE is neither sqlite nor memory.
	ErrInvalidJobStore = errors.New("config: JOB_STORE must be sqlite or memory")
	// ErrS3RegionRequired is returned when S3_BUCKET is set without S3_REGION.
	ErrS3RegionRequired = errors.New("config: S3_REGION is required when S3_BUCKET is set")
	// ErrInvalidPort is returned when PORT is outside 1-65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrInvalidParallelism is returned when MAX_PARALLEL_DOWNLOADS is not positive.
	ErrInvalidParallelism = errors.New("config: MAX_PARALLEL_DOWNLOADS must be positive")
	// ErrInvalidPollInterval is returned when WORKER_POLL_INTERVAL is not positive.
	ErrInvalidPollInterval = errors.New("config: WORKER_POLL_INTERVAL must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port               int           `env:"PORT, default=8080" json:"port"`
	APIKey             string        `env:"API_KEY" json:"-"` // Masked in JSON
	AllowedOrigins     []string      `env:"CORS_ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE, default=60" json:"rate_limit_per_minute"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT, default=30s" json:"shutdown_timeout"`

	// Storage settings
	TempDir      string `env:"TEMP_DIR, default=/tmp/mediacompose" json:"temp_dir"`
	DatabasePath string `env:"DATABASE_PATH, default=data/jobs.db" json:"database_path"`
	JobStore     string `env:"JOB_STORE, default=sqlite" json:"job_store"`

	// Processing settings
	WorkerPollInterval   time.Duration `env:"WORKER_POLL_INTERVAL, default=5s" json:"worker_poll_interval"`
	DownloadTimeout      time.Duration `env:"DOWNLOAD_TIMEOUT, default=300s" json:"download_timeout"`
	MaxParallelDownloads int           `env:"MAX_PARALLEL_DOWNLOADS, default=4" json:"max_parallel_downloads"`
	FFmpegPath           string        `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath          string        `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Optional S3 settings
	S3Bucket           string        `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string        `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string        `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3PublicBaseURL    string        `env:"S3_PUBLIC_BASE_URL" json:"s3_public_base_url,omitempty"`
	S3PresignTTL       time.Duration `env:"S3_PRESIGN_TTL, default=168h" json:"s3_presign_ttl"`
	AWSAccessKeyID     string        `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string        `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if an S3 bucket is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(context.Background(), envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges the struct tags cannot express.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	switch strings.ToLower(c.JobStore) {
	case JobStoreSQLite, JobStoreMemory:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidJobStore, c.JobStore)
	}
	if c.MaxParallelDownloads < 1 {
		return ErrInvalidParallelism
	}
	if c.WorkerPollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.S3Bucket != "" && c.S3Region == "" {
		return ErrS3RegionRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, APIKeySet: %t, TempDir: %s, JobStore: %s, DatabasePath: %s, WorkerPollInterval: %s, MaxParallelDownloads: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.APIKey != "",
		c.TempDir,
		c.JobStore,
		c.DatabasePath,
		c.WorkerPollInterval,
		c.MaxParallelDownloads,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
