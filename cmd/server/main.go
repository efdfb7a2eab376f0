package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/alertlog"
	"github.com/symptom-diagnosis-mcp-server/internal/api"
	"github.com/symptom-diagnosis-mcp-server/internal/catalog"
	"github.com/symptom-diagnosis-mcp-server/internal/config"
	"github.com/symptom-diagnosis-mcp-server/internal/database"
	"github.com/symptom-diagnosis-mcp-server/internal/notify"
	"github.com/symptom-diagnosis-mcp-server/internal/service"
	"github.com/symptom-diagnosis-mcp-server/internal/setup"
)

func main() {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Check for setup subcommand
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		cli := setup.NewCLI("full", logger)
		cli.Manager = configManager
		if err := cli.Run(ctx, os.Args[2:]); err != nil {
			logger.WithError(err).Fatal("Setup failed")
		}
		return
	}

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()

	set, cleanup, err := buildCatalog(ctx, configManager, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := alertlog.Open(configManager.AlertLogConfig())
	if err != nil {
		return fmt.Errorf("opening alert log: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	notifier, closeNotifier, err := notify.New(cfg.Notifier, store, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	diagnosis := service.NewDiagnosisService(
		logger,
		set.Diseases,
		set.Symptoms,
		service.NewPatientFactorAdjuster(service.AffinityMarkersFromConfig(cfg.Diagnosis.AffinityMarkers)),
		service.NewEmergencyClassifier(cfg.Emergency.Contacts),
		notifier,
	)

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
		"catalog":     cfg.Catalog.Backend,
	}).Info("Starting symptom diagnosis server")

	server := api.NewServer(configManager, diagnosis, logger)
	return server.Start(ctx)
}

// buildCatalog assembles the catalog backend with its caching layers:
// breaker around the backend, Redis snapshot around disease listing and the
// in-process LRU around symptom lookups.
func buildCatalog(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) (catalog.Set, func(), error) {
	cfg := configManager.GetConfig()
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var set catalog.Set
	switch cfg.Catalog.Backend {
	case "postgres":
		db, err := database.NewConnection(ctx, database.ConfigFromDomain(cfg.Database), logger)
		if err != nil {
			return catalog.Set{}, cleanup, fmt.Errorf("connecting to catalog database: %w", err)
		}
		closers = append(closers, db.Close)
		set = catalog.NewPostgresSet(db.Pool, logger)
	default:
		seed, err := catalog.LoadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			return catalog.Set{}, cleanup, err
		}
		set, err = catalog.NewMemorySet(seed)
		if err != nil {
			return catalog.Set{}, cleanup, err
		}
	}

	if cfg.Catalog.Breaker.Enabled {
		set = catalog.WithBreakers(set, cfg.Catalog.Breaker, logger)
	}

	if cfg.Cache.RedisURL != "" {
		client, err := catalog.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			cleanup()
			return catalog.Set{}, func() {}, err
		}
		closers = append(closers, func() { client.Close() })
		set.Diseases = catalog.NewSnapshotDiseases(set.Diseases, client, cfg.Cache.DefaultTTL, logger)
	}

	set.Symptoms = catalog.NewCachedSymptoms(set.Symptoms, cfg.Cache.SymptomCacheMax, cfg.Cache.SymptomCacheTTL)

	return set, cleanup, nil
}
