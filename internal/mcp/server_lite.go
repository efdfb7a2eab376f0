// Package mcp provides the MCP server implementation.
// This file contains the lightweight server that requires no external databases.
package mcp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/alertlog"
	"github.com/symptom-diagnosis-mcp-server/internal/catalog"
	litecfg "github.com/symptom-diagnosis-mcp-server/internal/config"
	"github.com/symptom-diagnosis-mcp-server/internal/notify"
	"github.com/symptom-diagnosis-mcp-server/internal/service"
)

// LiteServer is a lightweight MCP server that requires no external databases.
// It serves the catalog from the seed file in memory and logs alerts to SQLite.
type LiteServer struct {
	*Server
	config        *litecfg.LiteConfig
	alertStore    alertlog.Store
	closeNotifier func()
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*liteOptions)

type liteOptions struct {
	alertStore alertlog.Store
	seed       *catalog.Seed
}

// WithAlertStore sets a custom alert store.
func WithAlertStore(store alertlog.Store) LiteServerOption {
	return func(o *liteOptions) {
		o.alertStore = store
	}
}

// WithSeed serves seed instead of reading the configured seed file.
func WithSeed(seed *catalog.Seed) LiteServerOption {
	return func(o *liteOptions) {
		o.seed = seed
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
func NewLiteServer(cfg *litecfg.LiteConfig, logger *logrus.Logger, opts ...LiteServerOption) (*LiteServer, error) {
	var options liteOptions
	for _, opt := range opts {
		opt(&options)
	}

	// Ensure data directory exists
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	seed := options.seed
	if seed == nil {
		var err error
		seed, err = catalog.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog seed: %w", err)
		}
	}

	set, err := catalog.NewMemorySet(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	symptoms := catalog.NewCachedSymptoms(set.Symptoms, cfg.CacheMaxItems, cfg.CacheTTL)

	store := options.alertStore
	if store == nil {
		store, err = alertlog.Open(cfg.AlertLog())
		if err != nil {
			return nil, fmt.Errorf("failed to open alert log: %w", err)
		}
	}

	notifier, closeNotifier, err := notify.New(cfg.Notifier(), store, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	diagnosis := service.NewDiagnosisService(
		logger,
		set.Diseases,
		symptoms,
		nil,
		service.NewEmergencyClassifier(cfg.EmergencyContacts()),
		notifier,
	)

	logger.WithFields(logrus.Fields{
		"diseases": len(seed.Diseases),
		"symptoms": len(seed.Symptoms),
		"data_dir": cfg.DataDir,
	}).Info("Lite server initialized successfully")

	return &LiteServer{
		Server:        NewServer(diagnosis, store, cfg.ExportDir(), logger),
		config:        cfg,
		alertStore:    store,
		closeNotifier: closeNotifier,
	}, nil
}

// Start runs the lite MCP server over stdio.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting symptom diagnosis MCP server (lite)")
	return s.Run(ctx)
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.closeNotifier != nil {
		s.closeNotifier()
	}
	if s.alertStore != nil {
		if err := s.alertStore.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close alert store")
			return err
		}
	}
	return nil
}

// GetAlertStore returns the alert store for external access.
func (s *LiteServer) GetAlertStore() alertlog.Store {
	return s.alertStore
}
