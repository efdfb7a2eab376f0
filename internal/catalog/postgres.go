package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// PostgresDiseases reads the disease catalog from PostgreSQL.
type PostgresDiseases struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// PostgresSymptoms reads the symptom catalog from PostgreSQL.
type PostgresSymptoms struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPostgresDiseases creates a new disease catalog on db
func NewPostgresDiseases(db *pgxpool.Pool, logger *logrus.Logger) *PostgresDiseases {
	return &PostgresDiseases{db: db, log: logger}
}

// NewPostgresSymptoms creates a new symptom catalog on db
func NewPostgresSymptoms(db *pgxpool.Pool, logger *logrus.Logger) *PostgresSymptoms {
	return &PostgresSymptoms{db: db, log: logger}
}

// NewPostgresSet builds both PostgreSQL catalogs.
func NewPostgresSet(db *pgxpool.Pool, logger *logrus.Logger) Set {
	return Set{
		Diseases: NewPostgresDiseases(db, logger),
		Symptoms: NewPostgresSymptoms(db, logger),
	}
}

const diseaseColumns = `
	id, name, description, body_part, contagious, severity, susceptible_groups,
	primary_symptoms, early_symptoms, late_symptoms, complications, prevention,
	treatment_approach, diagnosis_methods`

const symptomColumns = `
	id, name, description, body_part, severity_level, duration_info, possible_causes,
	when_to_seek_help, related_diseases, associated_symptoms`

func scanDisease(row pgx.Row) (domain.Disease, error) {
	var d domain.Disease
	var id, severity string
	var primary, early, late []string

	err := row.Scan(
		&id,
		&d.Name,
		&d.Description,
		&d.BodyPart,
		&d.Contagious,
		&severity,
		&d.SusceptibleGroups,
		&primary,
		&early,
		&late,
		&d.Complications,
		&d.Prevention,
		&d.TreatmentApproach,
		&d.DiagnosisMethods,
	)
	if err != nil {
		return d, err
	}

	d.ID = domain.DiseaseID(id)
	d.Severity = domain.DiseaseSeverity(severity)
	d.PrimarySymptoms = toSymptomIDs(primary)
	d.EarlySymptoms = toSymptomIDs(early)
	d.LateSymptoms = toSymptomIDs(late)
	return d, nil
}

func scanSymptom(row pgx.Row) (domain.Symptom, error) {
	var s domain.Symptom
	var id, severity string

	err := row.Scan(
		&id,
		&s.Name,
		&s.Description,
		&s.BodyPart,
		&severity,
		&s.DurationInfo,
		&s.PossibleCauses,
		&s.WhenToSeekHelp,
		&s.RelatedDiseases,
		&s.AssociatedSymptoms,
	)
	if err != nil {
		return s, err
	}

	s.ID = domain.SymptomID(id)
	s.SeverityLevel = domain.SymptomSeverity(severity)
	return s, nil
}

// FindAll returns every disease ordered by catalog_order.
func (r *PostgresDiseases) FindAll(ctx context.Context) ([]domain.Disease, error) {
	query := `SELECT ` + diseaseColumns + ` FROM diseases ORDER BY catalog_order`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithError(err).Error("Failed to query diseases")
		return nil, fmt.Errorf("querying diseases: %w", err)
	}
	defer rows.Close()

	var diseases []domain.Disease
	for rows.Next() {
		d, err := scanDisease(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning disease: %w", err)
		}
		diseases = append(diseases, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating diseases: %w", err)
	}

	r.log.WithField("count", len(diseases)).Debug("Loaded disease catalog")
	return diseases, nil
}

// FindByIDs returns the known diseases among ids in request order.
func (r *PostgresDiseases) FindByIDs(ctx context.Context, ids []domain.DiseaseID) ([]domain.Disease, error) {
	if len(ids) == 0 {
		return []domain.Disease{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	query := `SELECT ` + diseaseColumns + ` FROM diseases WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, keys)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"ids":   len(ids),
			"error": err,
		}).Error("Failed to query diseases by ID")
		return nil, fmt.Errorf("querying diseases by ID: %w", err)
	}
	defer rows.Close()

	byID := make(map[domain.DiseaseID]domain.Disease, len(ids))
	for rows.Next() {
		d, err := scanDisease(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning disease: %w", err)
		}
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating diseases: %w", err)
	}

	out := make([]domain.Disease, 0, len(byID))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
			delete(byID, id)
		}
	}
	return out, nil
}

// FindByIDs returns the known symptoms among ids in request order.
func (r *PostgresSymptoms) FindByIDs(ctx context.Context, ids []domain.SymptomID) ([]domain.Symptom, error) {
	if len(ids) == 0 {
		return []domain.Symptom{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	query := `SELECT ` + symptomColumns + ` FROM symptoms WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, keys)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"ids":   len(ids),
			"error": err,
		}).Error("Failed to query symptoms by ID")
		return nil, fmt.Errorf("querying symptoms by ID: %w", err)
	}
	defer rows.Close()

	byID := make(map[domain.SymptomID]domain.Symptom, len(ids))
	for rows.Next() {
		s, err := scanSymptom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning symptom: %w", err)
		}
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating symptoms: %w", err)
	}

	out := make([]domain.Symptom, 0, len(byID))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
			delete(byID, id)
		}
	}
	return out, nil
}

// ImportResult summarizes an Import run.
type ImportResult struct {
	Symptoms int
	Diseases int
}

// Import upserts every record of seed in a single transaction. Existing
// diseases keep their catalog position; new ones are appended in seed order.
func Import(ctx context.Context, db *pgxpool.Pool, seed *Seed, logger *logrus.Logger) (*ImportResult, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range seed.Symptoms {
		if err := upsertSymptom(ctx, tx, &seed.Symptoms[i]); err != nil {
			return nil, err
		}
	}
	for i := range seed.Diseases {
		if err := upsertDisease(ctx, tx, &seed.Diseases[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	result := &ImportResult{Symptoms: len(seed.Symptoms), Diseases: len(seed.Diseases)}
	logger.WithFields(logrus.Fields{
		"symptoms": result.Symptoms,
		"diseases": result.Diseases,
		"version":  seed.Version,
	}).Info("Catalog imported")
	return result, nil
}

func upsertSymptom(ctx context.Context, tx pgx.Tx, s *domain.Symptom) error {
	query := `
		INSERT INTO symptoms (` + symptomColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			body_part = EXCLUDED.body_part,
			severity_level = EXCLUDED.severity_level,
			duration_info = EXCLUDED.duration_info,
			possible_causes = EXCLUDED.possible_causes,
			when_to_seek_help = EXCLUDED.when_to_seek_help,
			related_diseases = EXCLUDED.related_diseases,
			associated_symptoms = EXCLUDED.associated_symptoms,
			updated_at = NOW()`

	severity := s.SeverityLevel
	if severity == "" {
		severity = domain.SymptomMild
	}

	_, err := tx.Exec(ctx, query,
		string(s.ID),
		s.Name,
		s.Description,
		s.BodyPart,
		string(severity),
		s.DurationInfo,
		nonNilStrings(s.PossibleCauses),
		s.WhenToSeekHelp,
		nonNilStrings(s.RelatedDiseases),
		nonNilStrings(s.AssociatedSymptoms),
	)
	if err != nil {
		return fmt.Errorf("upserting symptom %s: %w", s.ID, err)
	}
	return nil
}

func upsertDisease(ctx context.Context, tx pgx.Tx, d *domain.Disease) error {
	query := `
		INSERT INTO diseases (` + diseaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			body_part = EXCLUDED.body_part,
			contagious = EXCLUDED.contagious,
			severity = EXCLUDED.severity,
			susceptible_groups = EXCLUDED.susceptible_groups,
			primary_symptoms = EXCLUDED.primary_symptoms,
			early_symptoms = EXCLUDED.early_symptoms,
			late_symptoms = EXCLUDED.late_symptoms,
			complications = EXCLUDED.complications,
			prevention = EXCLUDED.prevention,
			treatment_approach = EXCLUDED.treatment_approach,
			diagnosis_methods = EXCLUDED.diagnosis_methods,
			updated_at = NOW()`

	severity := d.Severity
	if severity == "" {
		severity = domain.DiseaseMild
	}

	_, err := tx.Exec(ctx, query,
		string(d.ID),
		d.Name,
		d.Description,
		d.BodyPart,
		d.Contagious,
		string(severity),
		nonNilStrings(d.SusceptibleGroups),
		fromSymptomIDs(d.PrimarySymptoms),
		fromSymptomIDs(d.EarlySymptoms),
		fromSymptomIDs(d.LateSymptoms),
		d.Complications,
		d.Prevention,
		d.TreatmentApproach,
		nonNilStrings(d.DiagnosisMethods),
	)
	if err != nil {
		return fmt.Errorf("upserting disease %s: %w", d.ID, err)
	}
	return nil
}

func toSymptomIDs(values []string) []domain.SymptomID {
	out := make([]domain.SymptomID, len(values))
	for i, v := range values {
		out[i] = domain.SymptomID(v)
	}
	return out
}

func fromSymptomIDs(ids []domain.SymptomID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
