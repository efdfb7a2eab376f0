package alertlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite alert log.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var category, symptoms string

	err := s.Scan(
		&rec.ID, &rec.RequestID, &rec.ContactName, &rec.ContactPhone, &rec.ContactEmail,
		&symptoms, &category, &rec.EmergencyContact, &rec.Delivered, &rec.DeliveryError,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Category = domain.EmergencyCategory(category)
	if err := json.Unmarshal([]byte(symptoms), &rec.Symptoms); err != nil {
		return nil, fmt.Errorf("decoding symptoms: %w", err)
	}
	return rec, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS emergency_alerts (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL DEFAULT '',
		contact_name TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		symptoms TEXT NOT NULL DEFAULT '[]',
		category TEXT NOT NULL,
		emergency_contact TEXT NOT NULL,
		delivered INTEGER NOT NULL DEFAULT 0,
		delivery_error TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON emergency_alerts(created_at);
	CREATE INDEX IF NOT EXISTS idx_alerts_category ON emergency_alerts(category);
	`

	_, err := db.Exec(schema)
	return err
}

// Save inserts rec, or updates the delivery status of an existing ID.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	symptoms, err := json.Marshal(nonNil(rec.Symptoms))
	if err != nil {
		return fmt.Errorf("failed to encode symptoms: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO emergency_alerts (
			id, request_id, contact_name, contact_phone, contact_email,
			symptoms, category, emergency_contact, delivered, delivery_error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			delivered = excluded.delivered,
			delivery_error = excluded.delivery_error
	`,
		rec.ID,
		rec.RequestID,
		rec.ContactName,
		rec.ContactPhone,
		rec.ContactEmail,
		string(symptoms),
		string(rec.Category),
		rec.EmergencyContact,
		rec.Delivered,
		rec.DeliveryError,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}
	return nil
}

// Get retrieves an alert record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, request_id, contact_name, contact_phone, contact_email,
			symptoms, category, emergency_contact, delivered, delivery_error, created_at
		FROM emergency_alerts
		WHERE id = ?
	`, id)

	rec, err := scanSQLiteRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

// List returns alert records newest first with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, contact_name, contact_phone, contact_email,
			symptoms, category, emergency_contact, delivered, delivery_error, created_at
		FROM emergency_alerts
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the total number of alert records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM emergency_alerts").Scan(&count)
	return count, err
}

// ExportJSON exports all alert records to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}
	return encodeExport(writer, all)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
