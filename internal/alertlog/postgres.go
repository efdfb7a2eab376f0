package alertlog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/lib/pq"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL alert log.
// It expects the emergency_alerts table to exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL alert log from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

const selectAlertColumns = `
	SELECT id, request_id, contact_name, contact_phone, contact_email,
		symptoms, category, emergency_contact, delivered, delivery_error, created_at
	FROM emergency_alerts`

// Save inserts rec, or updates the delivery status of an existing ID.
func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO emergency_alerts (
			id, request_id, contact_name, contact_phone, contact_email,
			symptoms, category, emergency_contact, delivered, delivery_error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			delivered = EXCLUDED.delivered,
			delivery_error = EXCLUDED.delivery_error
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		rec.ID,
		rec.RequestID,
		rec.ContactName,
		rec.ContactPhone,
		rec.ContactEmail,
		pq.Array(nonNil(rec.Symptoms)),
		string(rec.Category),
		rec.EmergencyContact,
		rec.Delivered,
		rec.DeliveryError,
		rec.CreatedAt,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

func scanPostgresRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var category string

	err := s.Scan(
		&rec.ID, &rec.RequestID, &rec.ContactName, &rec.ContactPhone, &rec.ContactEmail,
		pq.Array(&rec.Symptoms), &category, &rec.EmergencyContact, &rec.Delivered, &rec.DeliveryError,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Category = domain.EmergencyCategory(category)
	rec.Symptoms = nonNil(rec.Symptoms)
	return rec, nil
}

// Get retrieves an alert record by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectAlertColumns+` WHERE id = $1`, id)

	rec, err := scanPostgresRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return rec, nil
}

// List returns alert records newest first with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, selectAlertColumns+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}

	return result, rows.Err()
}

// Count returns the total number of alert records.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM emergency_alerts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

// ExportJSON exports all alert records to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}
	return encodeExport(writer, all)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
