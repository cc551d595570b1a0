package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 설정값은 여기서만 정의
type Config struct {
	// Server
	Port string `koanf:"port"`
	Env  string `koanf:"env"` // development, staging, production

	// Upstream disease.sh API
	Upstream UpstreamConfig `koanf:"upstream"`

	// Response cache
	Cache CacheConfig `koanf:"cache"`

	// Snapshot backups
	Storage  StorageConfig  `koanf:"storage"`
	Database DatabaseConfig `koanf:"database"`

	// Redis
	Redis RedisConfig `koanf:"redis"`

	// Scheduled jobs
	Scheduler SchedulerConfig `koanf:"scheduler"`

	// Dashboard (client side of the /api endpoints)
	Dashboard DashboardConfig `koanf:"dashboard"`

	// Logging
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Monitoring
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// UpstreamConfig holds the disease.sh API configuration
type UpstreamConfig struct {
	BaseURL    string        `koanf:"base_url"`
	Timeout    time.Duration `koanf:"timeout"`
	RateLimit  int           `koanf:"rate_limit"` // requests per second
	MaxRetries int           `koanf:"max_retries"`
}

// CacheConfig holds cache expiration settings
type CacheConfig struct {
	TTL            time.Duration `koanf:"ttl"`             // backend response cache (CACHE_EXPIRATION)
	VaccineTTL     time.Duration `koanf:"vaccine_ttl"`     // dashboard vaccination cache
	HistoricalDays int           `koanf:"historical_days"` // default ?days= for historical lookups
}

// StorageConfig holds local snapshot storage settings
type StorageConfig struct {
	DataDir   string        `koanf:"data_dir"`
	Retention time.Duration `koanf:"retention"` // snapshots older than this are pruned
}

// DatabaseConfig holds PostgreSQL configuration
// URL가 비어 있으면 bbolt 파일 저장소를 사용
type DatabaseConfig struct {
	URL string `koanf:"url"`

	// Connection Pool
	MaxConns        int           `koanf:"max_conns"`
	MinConns        int           `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Enabled  bool   `koanf:"enabled"`
}

// SchedulerConfig holds cron expressions (with seconds field) and the retry policy
type SchedulerConfig struct {
	RefreshSchedule string        `koanf:"refresh_schedule"`
	CleanupSchedule string        `koanf:"cleanup_schedule"`
	MaxRetries      int           `koanf:"max_retries"` // retries after a failed run
	RetryDelay      time.Duration `koanf:"retry_delay"`
}

// DashboardConfig holds settings for the dashboard commands
type DashboardConfig struct {
	BaseURL        string        `koanf:"base_url"`
	LoadTimeout    time.Duration `koanf:"load_timeout"` // 0 = no timeout
	SearchDebounce time.Duration `koanf:"search_debounce"`
}

// Default returns a Config populated with default values
func Default() *Config {
	return &Config{
		Port: "5000",
		Env:  "development",

		Upstream: UpstreamConfig{
			BaseURL:    "https://disease.sh/v3/covid-19",
			Timeout:    30 * time.Second,
			RateLimit:  10,
			MaxRetries: 3,
		},

		Cache: CacheConfig{
			TTL:            time.Hour,
			VaccineTTL:     time.Hour,
			HistoricalDays: 30,
		},

		Storage: StorageConfig{
			DataDir:   "data",
			Retention: 7 * 24 * time.Hour,
		},

		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},

		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},

		Scheduler: SchedulerConfig{
			RefreshSchedule: "0 0 * * * *",   // every hour
			CleanupSchedule: "0 */5 * * * *", // every 5 minutes
			MaxRetries:      2,
			RetryDelay:      time.Minute,
		},

		Dashboard: DashboardConfig{
			BaseURL:        "http://localhost:5000",
			SearchDebounce: 300 * time.Millisecond,
		},

		LogLevel:  "info",
		LogFormat: "json",

		MetricsEnabled: true,
	}
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("env must be one of: development, staging, production")
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	if c.Cache.HistoricalDays <= 0 {
		return fmt.Errorf("cache.historical_days must be positive")
	}

	if c.Scheduler.MaxRetries < 0 || c.Scheduler.RetryDelay < 0 {
		return fmt.Errorf("scheduler retry settings must not be negative")
	}

	if c.Dashboard.BaseURL == "" {
		return fmt.Errorf("dashboard.base_url is required")
	}

	return nil
}

// UsePostgres reports whether snapshots go to PostgreSQL instead of bbolt
func (c *Config) UsePostgres() bool {
	return c.Database.URL != ""
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
