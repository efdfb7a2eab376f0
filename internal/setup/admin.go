package setup

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/alertlog"
	"github.com/symptom-diagnosis-mcp-server/internal/catalog"
	"github.com/symptom-diagnosis-mcp-server/internal/database"
	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// SeedReport summarizes a validated seed file.
type SeedReport struct {
	Path     string
	Version  string
	Symptoms int
	Diseases int
	// Unresolved lists "disease: symptom" references to unknown symptoms.
	Unresolved []string
}

// CheckSeed loads and validates a catalog seed file.
func CheckSeed(path string) (*SeedReport, error) {
	seed, err := catalog.LoadSeedFile(path)
	if err != nil {
		return nil, err
	}

	report := &SeedReport{
		Path:     path,
		Version:  seed.Version,
		Symptoms: len(seed.Symptoms),
		Diseases: len(seed.Diseases),
	}
	for disease, symptoms := range seed.UnresolvedReferences() {
		for _, symptom := range symptoms {
			report.Unresolved = append(report.Unresolved, fmt.Sprintf("%s: %s", disease, symptom))
		}
	}
	sort.Strings(report.Unresolved)

	return report, nil
}

// Migrate applies ("up"), rolls back one ("down") or reports ("version")
// schema migrations and returns the resulting version.
func Migrate(ctx context.Context, databaseURL, migrationsPath, direction string, logger *logrus.Logger) (uint, error) {
	runner, err := database.NewMigrationRunner(databaseURL, migrationsPath, logger)
	if err != nil {
		return 0, err
	}
	defer runner.Close()

	switch direction {
	case "", "up":
		err = runner.Up(ctx)
	case "down":
		err = runner.Down(ctx)
	case "version":
	default:
		return 0, fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil {
		return 0, err
	}

	version, dirty, err := runner.Version()
	if err != nil {
		return 0, fmt.Errorf("reading migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w at version %d", database.ErrDirtySchema, version)
	}
	return version, nil
}

// ImportCatalog loads the seed at path into the Postgres catalog.
func ImportCatalog(ctx context.Context, dbConfig database.Config, path string, logger *logrus.Logger) (*catalog.ImportResult, error) {
	seed, err := catalog.LoadSeedFile(path)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(ctx, dbConfig, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return catalog.Import(ctx, db.Pool, seed, logger)
}

// ExportAlerts writes the alert log selected by cfg to w as JSON and
// returns the number of exported records.
func ExportAlerts(ctx context.Context, cfg domain.AlertLogConfig, w io.Writer) (int64, error) {
	store, err := alertlog.Open(cfg)
	if err != nil {
		return 0, err
	}
	if store == nil {
		return 0, fmt.Errorf("alert log is disabled")
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := store.ExportJSON(ctx, w); err != nil {
		return 0, err
	}
	return count, nil
}
