// Package alertlog records dispatched emergency alerts so operators can audit
// which patients were flagged and whether delivery succeeded.
package alertlog

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// Record is one emergency alert as stored in the log.
type Record struct {
	ID               string                   `json:"id"`
	RequestID        string                   `json:"request_id,omitempty"`
	ContactName      string                   `json:"contact_name,omitempty"`
	ContactPhone     string                   `json:"contact_phone,omitempty"`
	ContactEmail     string                   `json:"contact_email,omitempty"`
	Symptoms         []string                 `json:"symptoms"`
	Category         domain.EmergencyCategory `json:"category"`
	EmergencyContact string                   `json:"emergency_contact"`
	Delivered        bool                     `json:"delivered"`
	DeliveryError    string                   `json:"delivery_error,omitempty"` // Last notifier error
	CreatedAt        time.Time                `json:"created_at"`
}

// NewRecord builds a log record for alert. deliveryErr is the outcome of
// notifying the downstream channels, nil on success.
func NewRecord(alert *domain.EmergencyAlert, deliveryErr error) *Record {
	rec := &Record{
		ID:               alert.ID,
		RequestID:        alert.RequestID,
		ContactName:      alert.Contact.Name,
		ContactPhone:     alert.Contact.Phone,
		ContactEmail:     alert.Contact.Email,
		Symptoms:         append([]string(nil), alert.Symptoms...),
		Category:         alert.Category,
		EmergencyContact: alert.EmergencyContact,
		Delivered:        deliveryErr == nil,
		CreatedAt:        alert.CreatedAt,
	}
	if deliveryErr != nil {
		rec.DeliveryError = deliveryErr.Error()
	}
	if rec.Symptoms == nil {
		rec.Symptoms = []string{}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

// Store defines the interface for alert log storage operations.
type Store interface {
	// Save inserts a record. Saving an existing ID overwrites its delivery
	// status.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with id, or nil if there is none.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes every record to writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Alerts     []*Record `json:"alerts"`
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

const exportVersion = "1.0"

func encodeExport(writer io.Writer, records []*Record) error {
	if records == nil {
		records = []*Record{}
	}
	export := &Export{
		Version:    exportVersion,
		ExportedAt: time.Now(),
		Count:      len(records),
		Alerts:     records,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
