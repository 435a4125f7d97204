package models

import (
	"encoding/json"
	"time"
)

// Source identifies the telemetry system an event originated from
type Source string

const (
	// SourceOrchestrator is a container orchestrator event (pod lifecycle, scheduling)
	SourceOrchestrator Source = "orchestrator"
	// SourceErrorTracker is an error-tracking event (exceptions, error groups)
	SourceErrorTracker Source = "error-tracker"
	// SourceCloudMetric is a cloud provider metric anomaly
	SourceCloudMetric Source = "cloud-metric"
	// SourceDashboardPanel is a dashboard panel alert / annotated time series
	SourceDashboardPanel Source = "dashboard-panel"
)

// KnownSource reports whether s is one of the supported source tags
func KnownSource(s Source) bool {
	switch s {
	case SourceOrchestrator, SourceErrorTracker, SourceCloudMetric, SourceDashboardPanel:
		return true
	}
	return false
}

// Event is one normalized observation from a telemetry source.
// Events are immutable once created by the normalizer.
type Event struct {
	// ID is a unique identifier assigned at normalization time
	ID string `json:"id"`

	// Tenant partitions events by project/account; opaque to the engine
	Tenant string `json:"tenant,omitempty"`

	// Source is the originating telemetry system
	Source Source `json:"source"`

	// Service is the affected service identifier; may be empty if unknown
	Service string `json:"service,omitempty"`

	// Signature is a source-independent key derived from the event's
	// reason/type with volatile tokens masked. Used for incident keying.
	Signature string `json:"signature"`

	// Timestamp is the observation instant, always UTC
	Timestamp time.Time `json:"timestamp"`

	// SeverityHint is the tier derived from the source-native severity.
	// Defaults to DefaultTier when the source provided nothing usable.
	SeverityHint Tier `json:"severityHint"`

	// Text is the free-form message used for embedding
	Text string `json:"text,omitempty"`

	// NumericValue carries the measurement for metric-type events
	NumericValue *float64 `json:"numericValue,omitempty"`

	// Raw is the original payload, passed through for evidence display
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Validate checks that the event satisfies the normalizer's output contract
func (e *Event) Validate() error {
	if e.ID == "" {
		return NewValidationError("event id must not be empty")
	}
	if !KnownSource(e.Source) {
		return NewValidationError("unknown source %q", e.Source)
	}
	if e.Timestamp.IsZero() {
		return NewValidationError("timestamp must be set")
	}
	if e.Timestamp.Location() != time.UTC {
		return NewValidationError("timestamp must be UTC")
	}
	if e.Service == "" && e.Text == "" {
		return NewValidationError("at least one of service or text must be set")
	}
	return nil
}
