package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Emergency   EmergencyConfig `mapstructure:"emergency"`
	Diagnosis   DiagnosisConfig `mapstructure:"diagnosis"`
	Notifier    NotifierConfig  `mapstructure:"notifier"`
	AlertLog    AlertLogConfig  `mapstructure:"alert_log"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CacheConfig represents catalog cache configuration. An empty RedisURL
// disables the distributed disease snapshot cache.
type CacheConfig struct {
	RedisURL        string        `mapstructure:"redis_url"`
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	MaxRetries      int           `mapstructure:"max_retries"`
	PoolSize        int           `mapstructure:"pool_size"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	SymptomCacheMax int           `mapstructure:"symptom_cache_max"`
	SymptomCacheTTL time.Duration `mapstructure:"symptom_cache_ttl"`
}

// CatalogConfig selects and tunes the disease/symptom catalog backend.
type CatalogConfig struct {
	Backend  string        `mapstructure:"backend"` // "memory", "postgres"
	SeedFile string        `mapstructure:"seed_file"`
	Breaker  BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the catalog circuit breaker.
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// EmergencyConfig holds the public emergency numbers.
type EmergencyConfig struct {
	Contacts EmergencyContacts `mapstructure:"contacts"`
}

// DiagnosisConfig tunes patient-factor adjustment.
type DiagnosisConfig struct {
	AffinityMarkers AffinityMarkersConfig `mapstructure:"affinity_markers"`
}

// AffinityMarkersConfig overrides the default marker vocabulary. Empty
// lists keep the defaults.
type AffinityMarkersConfig struct {
	Pediatric []string `mapstructure:"pediatric"`
	Geriatric []string `mapstructure:"geriatric"`
	Male      []string `mapstructure:"male"`
	Female    []string `mapstructure:"female"`
}

// NotifierConfig configures emergency alert delivery.
type NotifierConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
}

// WebhookConfig represents the HTTP webhook notifier configuration
type WebhookConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	RateLimit  int           `mapstructure:"rate_limit"` // alerts per second
}

// MQTTConfig represents the MQTT notifier configuration
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	QoS      byte   `mapstructure:"qos"`
}

// AlertLogConfig selects where dispatched emergency alerts are recorded.
type AlertLogConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite", "postgres", "" (disabled)
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
