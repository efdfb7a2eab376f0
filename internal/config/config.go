package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/symptom-diagnosis-mcp-server/internal/database"
	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g.
// SYMPTOM_DX_SERVER_PORT for server.port.
const EnvPrefix = "SYMPTOM_DX"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager that searches the
// standard locations for config.yaml.
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile creates a configuration manager reading path. An
// empty path searches the standard locations.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{configFile: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/symptom-diagnosis/")
	}

	// Set environment variable prefix and enable automatic env binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "symptom_diagnosis")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "migrations")

	// Cache defaults
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")
	v.SetDefault("cache.symptom_cache_max", 4096)
	v.SetDefault("cache.symptom_cache_ttl", "10m")

	// Catalog defaults
	v.SetDefault("catalog.backend", "memory")
	v.SetDefault("catalog.seed_file", "config/catalog.seed.yaml")
	v.SetDefault("catalog.breaker.enabled", true)
	v.SetDefault("catalog.breaker.max_requests", 3)
	v.SetDefault("catalog.breaker.interval", "30s")
	v.SetDefault("catalog.breaker.timeout", "30s")
	v.SetDefault("catalog.breaker.min_requests", 3)
	v.SetDefault("catalog.breaker.failure_ratio", 0.6)

	// Emergency numbers
	contacts := domain.DefaultEmergencyContacts()
	v.SetDefault("emergency.contacts.ambulance", contacts.Ambulance)
	v.SetDefault("emergency.contacts.police", contacts.Police)
	v.SetDefault("emergency.contacts.fire", contacts.Fire)

	// Notifier defaults
	v.SetDefault("notifier.webhook.url", "")
	v.SetDefault("notifier.webhook.timeout", "10s")
	v.SetDefault("notifier.webhook.retry_count", 2)
	v.SetDefault("notifier.webhook.rate_limit", 5)
	v.SetDefault("notifier.mqtt.broker", "")
	v.SetDefault("notifier.mqtt.client_id", "symptom-dx")
	v.SetDefault("notifier.mqtt.topic", "symptom-dx/alerts/emergency")
	v.SetDefault("notifier.mqtt.qos", 1)

	// Alert log defaults
	v.SetDefault("alert_log.driver", "sqlite")
	v.SetDefault("alert_log.path", "data/alerts.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetCatalogConfig returns catalog configuration
func (m *Manager) GetCatalogConfig() *domain.CatalogConfig {
	return &m.config.Catalog
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return Validate(m.config)
}

// Validate checks a configuration for values the server cannot start with.
func Validate(config *domain.Config) error {
	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Catalog.Backend {
	case "memory":
		if config.Catalog.SeedFile == "" {
			return fmt.Errorf("catalog seed file is required for the memory backend")
		}
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	default:
		return fmt.Errorf("invalid catalog backend: %q", config.Catalog.Backend)
	}

	if config.Cache.RedisURL != "" {
		if _, err := url.Parse(config.Cache.RedisURL); err != nil {
			return fmt.Errorf("invalid Redis URL: %w", err)
		}
	}

	if config.Emergency.Contacts.Ambulance == "" {
		return fmt.Errorf("emergency ambulance number is required")
	}

	if config.Notifier.MQTT.QoS > 2 {
		return fmt.Errorf("invalid MQTT QoS: %d", config.Notifier.MQTT.QoS)
	}

	switch config.AlertLog.Driver {
	case "":
	case "sqlite":
		if config.AlertLog.Path == "" {
			return fmt.Errorf("alert log path is required for the sqlite driver")
		}
	case "postgres":
	default:
		return fmt.Errorf("invalid alert log driver: %q", config.AlertLog.Driver)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetDatabaseConnectionString returns a formatted database connection string
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// GetDatabaseURL returns the database as a postgres:// URL
func (m *Manager) GetDatabaseURL() string {
	return database.ConfigFromDomain(m.config.Database).URL()
}

// GetRedisConnectionString returns the Redis connection string
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}

// AlertLogConfig resolves the alert log settings, defaulting the postgres
// driver to the main database.
func (m *Manager) AlertLogConfig() domain.AlertLogConfig {
	cfg := m.config.AlertLog
	if cfg.Driver == "postgres" && cfg.URL == "" {
		cfg.URL = m.GetDatabaseURL()
	}
	return cfg
}
