package models

import "fmt"

// ValidationError represents a validation error in models
type ValidationError struct {
	message string
}

// NewValidationError creates a new validation error
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return e.message
}

// MalformedEventError is returned by the normalizer when a required field
// cannot be derived from a source payload. The event is dropped and
// counted; it is never retried.
type MalformedEventError struct {
	// Reason is a stable reason code for logging/metrics
	// (e.g. "missing_timestamp", "no_offset", "bad_payload")
	Reason  string
	message string
}

// NewMalformedEventError creates a malformed-event error with a reason code
func NewMalformedEventError(reason, format string, args ...interface{}) *MalformedEventError {
	return &MalformedEventError{
		Reason:  reason,
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event (%s): %s", e.Reason, e.message)
}

// EmbeddingUnavailableError marks an incident that could not be embedded.
// The incident is excluded from the current clustering run and surfaced
// through the unembeddable count, never silently dropped.
type EmbeddingUnavailableError struct {
	IncidentID string
}

// Error returns the error message
func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("no usable embedding text for incident %s", e.IncidentID)
}

// ClusteringTimeoutError is returned when a clustering run exceeds its
// deadline. The previously published run remains authoritative.
type ClusteringTimeoutError struct {
	Tenant string
}

// Error returns the error message
func (e *ClusteringTimeoutError) Error() string {
	return fmt.Sprintf("clustering run for tenant %q timed out; previous run remains valid, retry later", e.Tenant)
}

// NoMatchError is the advisor's internal miss signal. It never crosses the
// advisor boundary: lookups always resolve via the per-tier fallback.
type NoMatchError struct {
	ErrorType string
}

// Error returns the error message
func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no runbook entry for error type %q", e.ErrorType)
}
