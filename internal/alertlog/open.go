package alertlog

import (
	"fmt"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// Open returns the store selected by cfg.Driver, or nil when the alert log
// is disabled.
func Open(cfg domain.AlertLogConfig) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("alert_log.path is required for the sqlite driver")
		}
		store, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		if cfg.URL == "" {
			return nil, fmt.Errorf("alert_log.url is required for the postgres driver")
		}
		store, err := NewPostgresStoreFromURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported alert log driver %q", cfg.Driver)
	}
}
