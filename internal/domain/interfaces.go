package domain

import (
	"context"
)

// DiseaseCatalog is the read-only disease lookup consumed by the ranker.
// FindAll returns diseases in stable catalog order; that order is the
// ranking tie-break.
type DiseaseCatalog interface {
	FindAll(ctx context.Context) ([]Disease, error)
	FindByIDs(ctx context.Context, ids []DiseaseID) ([]Disease, error)
}

// SymptomCatalog resolves symptom identifiers. Unknown identifiers are
// absent from the result rather than reported as errors.
type SymptomCatalog interface {
	FindByIDs(ctx context.Context, ids []SymptomID) ([]Symptom, error)
}

// Notifier is signalled when a diagnosis is classified as emergent and the
// request carries contact information.
type Notifier interface {
	NotifyEmergency(ctx context.Context, alert *EmergencyAlert) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetCatalogConfig() *CatalogConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
