// Package config provides configuration management for the diagnosis
// servers. This file contains the lightweight configuration for standalone
// operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir  string // Base directory for the alert log and exports
	SeedFile string // Catalog seed file for the in-memory catalog

	// Cache settings
	CacheMaxItems int           // Maximum symptoms in the lookup cache
	CacheTTL      time.Duration // Symptom cache TTL

	// Emergency settings
	AmbulanceNumber string // Number referenced in advisories
	WebhookURL      string // Optional: alert webhook

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".symptom-dx")

	return &LiteConfig{
		DataDir:         dataDir,
		SeedFile:        "config/catalog.seed.yaml",
		CacheMaxItems:   1000,
		CacheTTL:        10 * time.Minute,
		AmbulanceNumber: domain.DefaultEmergencyContacts().Ambulance,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Data
	if v := os.Getenv("SYMPTOM_DX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SYMPTOM_DX_SEED_FILE"); v != "" {
		cfg.SeedFile = v
	}

	// Cache settings
	if v := os.Getenv("SYMPTOM_DX_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("SYMPTOM_DX_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	// Emergency
	if v := os.Getenv("SYMPTOM_DX_AMBULANCE"); v != "" {
		cfg.AmbulanceNumber = v
	}
	cfg.WebhookURL = os.Getenv("SYMPTOM_DX_WEBHOOK_URL")

	// Logging
	if v := os.Getenv("SYMPTOM_DX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SYMPTOM_DX_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// AlertDBPath returns the path to the alert log SQLite database.
func (c *LiteConfig) AlertDBPath() string {
	return filepath.Join(c.DataDir, "alerts.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}

// EmergencyContacts returns the default contacts with the configured
// ambulance number.
func (c *LiteConfig) EmergencyContacts() domain.EmergencyContacts {
	contacts := domain.DefaultEmergencyContacts()
	if c.AmbulanceNumber != "" {
		contacts.Ambulance = c.AmbulanceNumber
	}
	return contacts
}

// AlertLog returns the SQLite alert log settings.
func (c *LiteConfig) AlertLog() domain.AlertLogConfig {
	return domain.AlertLogConfig{Driver: "sqlite", Path: c.AlertDBPath()}
}

// Notifier returns notifier settings; only the webhook is available in
// lite mode.
func (c *LiteConfig) Notifier() domain.NotifierConfig {
	return domain.NotifierConfig{
		Webhook: domain.WebhookConfig{URL: c.WebhookURL, Timeout: 10 * time.Second, RetryCount: 2},
	}
}

// Logging returns the logging settings. MCP stdio servers must keep stdout
// for the protocol, so logs go to stderr.
func (c *LiteConfig) Logging() domain.LoggingConfig {
	return domain.LoggingConfig{Level: c.LogLevel, Format: c.LogFormat, Output: "stderr"}
}
