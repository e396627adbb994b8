// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrExpired         = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "ingest", "sync"
	Op      string // Operation that failed, e.g., "Fetch", "Upload"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound   = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrInvalidStudentID  = NewDomainError("student", "Validate", ErrInvalidID, "invalid student ID")
	ErrPartitionConflict = NewDomainError("student", "Apply", ErrForbidden, "field owned by another actor partition")
	ErrUnknownPartition  = NewDomainError("student", "Apply", ErrInvalidInput, "unknown actor partition")
)

// Ingestion domain errors
var (
	ErrEmptyBatch          = NewDomainError("ingest", "Run", ErrInvalidInput, "batch contains no files")
	ErrUnsupportedFileType = NewDomainError("ingest", "Validate", ErrInvalidFormat, "unsupported file type")
	ErrMissingIdentifier   = NewDomainError("ingest", "Validate", ErrValidation, "no identifying column (id or name)")
	ErrEmptyFile           = NewDomainError("ingest", "Validate", ErrEmptyValue, "file has no data rows")
)

// Destructive operation errors
var (
	ErrGuardBusy          = NewDomainError("destructive", "Request", ErrInvalidState, "another destructive operation is pending")
	ErrNoPendingOperation = NewDomainError("destructive", "Confirm", ErrStateTransition, "no operation awaiting confirmation")
)

// External service errors
var (
	ErrAPIUnavailable     = NewDomainError("trackerapi", "Request", ErrServiceUnavailable, "tracker API is unavailable")
	ErrAPITimeout         = NewDomainError("trackerapi", "Request", ErrTimeout, "tracker API request timeout")
	ErrAPIInvalidResponse = NewDomainError("trackerapi", "Parse", ErrInvalidFormat, "invalid response from tracker API")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsAuthorization checks if the error is an authorization failure.
// Authorization failures are recovered locally into an empty-but-valid state
// rather than surfaced as crashes.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
