package domain

import (
	"errors"
	"fmt"
	"time"
)

// DiagnosisError represents a standardized error response
type DiagnosisError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	cause     error
}

// Error implements the error interface
func (e *DiagnosisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *DiagnosisError) Unwrap() error {
	return e.cause
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidSymptoms    = "INVALID_SYMPTOMS"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	ErrCodeDiagnosis          = "DIAGNOSIS_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewDiagnosisError creates a new DiagnosisError with timestamp
func NewDiagnosisError(code, message string, cause error, requestID string) *DiagnosisError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &DiagnosisError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
		cause:     cause,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsInvalidInput reports whether err was caused by caller input rather
// than by an internal or catalog fault.
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	var diagErr *DiagnosisError
	if errors.As(err, &diagErr) {
		return diagErr.Code == ErrCodeInvalidSymptoms || diagErr.Code == ErrCodeInvalidInput
	}
	var validationErr *ValidationError
	return errors.As(err, &validationErr) || errors.Is(err, ErrEmptySymptomSet)
}

// IsCatalogUnavailable reports whether err came from a catalog fault.
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}
