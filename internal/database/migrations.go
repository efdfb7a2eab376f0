package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// ErrDirtySchema is returned when a previous migration failed halfway and
// the schema needs manual repair.
var ErrDirtySchema = errors.New("database schema is dirty")

// MigrationRunner applies the catalog and alert log schema migrations.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner creates a runner for the migrations directory at
// migrationsPath.
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}

	return &MigrationRunner{
		migrate: m,
		log:     logger,
	}, nil
}

// Up runs all pending migrations
func (mr *MigrationRunner) Up(ctx context.Context) error {
	mr.log.Info("Running database migrations up")
	return mr.apply(ctx, "up", mr.migrate.Up)
}

// Down rolls back one migration
func (mr *MigrationRunner) Down(ctx context.Context) error {
	mr.log.Info("Rolling back one migration")
	return mr.apply(ctx, "down", func() error { return mr.migrate.Steps(-1) })
}

// apply runs step, stopping it gracefully if ctx ends first.
func (mr *MigrationRunner) apply(ctx context.Context, direction string, step func() error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			mr.migrate.GracefulStop <- true
		case <-done:
		}
	}()

	if err := step(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.log.WithField("direction", direction).Info("Schema already up to date")
			return nil
		}
		return fmt.Errorf("running migrations %s: %w", direction, err)
	}

	version, dirty, err := mr.Version()
	if err != nil {
		mr.log.WithError(err).Warn("Could not read schema version")
		return nil
	}
	mr.log.WithFields(logrus.Fields{
		"direction": direction,
		"version":   version,
		"dirty":     dirty,
	}).Info("Migrations applied")
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}
	return nil
}

// Version returns the current schema version. An empty schema reports
// version 0.
func (mr *MigrationRunner) Version() (uint, bool, error) {
	version, dirty, err := mr.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close closes the migration runner
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
