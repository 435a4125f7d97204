// Package normalize converts heterogeneous telemetry payloads into the
// canonical event shape. Each source has a dedicated adapter; records that
// cannot yield a required field are rejected with a reason code and never
// retried.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"

	"github.com/moolen/cascade/internal/logging"
	"github.com/moolen/cascade/internal/models"
	"github.com/moolen/cascade/internal/severity"
)

var logger = logging.GetLogger("normalize")

// Record is a source-tagged raw telemetry record as received on ingest
type Record struct {
	// Source selects the adapter used to interpret Payload
	Source models.Source `json:"source"`

	// Tenant partitions the record; opaque to the engine
	Tenant string `json:"tenant,omitempty"`

	// Payload is the source-native document
	Payload json.RawMessage `json:"payload"`
}

// Normalizer converts raw records into canonical events
type Normalizer struct {
	classifier *severity.Classifier
}

// NewNormalizer creates a normalizer using the given severity classifier
func NewNormalizer(classifier *severity.Classifier) *Normalizer {
	return &Normalizer{classifier: classifier}
}

// Normalize converts one record into a canonical event.
// Returns a MalformedEventError when a required field cannot be derived.
func (n *Normalizer) Normalize(rec Record) (*models.Event, error) {
	if len(rec.Payload) == 0 {
		return nil, models.NewMalformedEventError("bad_payload", "empty payload")
	}

	var (
		event *models.Event
		err   error
	)
	switch rec.Source {
	case models.SourceOrchestrator:
		event, err = n.normalizeOrchestrator(rec.Payload)
	case models.SourceErrorTracker:
		event, err = n.normalizeErrorTracker(rec.Payload)
	case models.SourceCloudMetric:
		event, err = n.normalizeCloudMetric(rec.Payload)
	case models.SourceDashboardPanel:
		event, err = n.normalizeDashboardPanel(rec.Payload)
	default:
		return nil, models.NewMalformedEventError("unknown_source", "unsupported source %q", rec.Source)
	}
	if err != nil {
		return nil, err
	}

	event.ID = uuid.NewString()
	event.Tenant = rec.Tenant
	event.Raw = rec.Payload
	if err := event.Validate(); err != nil {
		return nil, models.NewMalformedEventError("invalid_event", "%v", err)
	}
	return event, nil
}

// normalizeOrchestrator interprets the payload as a container orchestrator
// event. The service identifier is recovered from the involved object name
// by stripping generated instance suffixes.
func (n *Normalizer) normalizeOrchestrator(payload json.RawMessage) (*models.Event, error) {
	var ev corev1.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, models.NewMalformedEventError("bad_payload", "orchestrator payload: %v", err)
	}
	if ev.Reason == "" {
		return nil, models.NewMalformedEventError("missing_reason", "orchestrator event has no reason")
	}

	ts := ev.LastTimestamp.Time
	if ts.IsZero() {
		ts = ev.EventTime.Time
	}
	if ts.IsZero() {
		ts = ev.FirstTimestamp.Time
	}
	if ts.IsZero() {
		return nil, models.NewMalformedEventError("missing_timestamp", "orchestrator event %s has no timestamp", ev.Reason)
	}

	service := ServiceFromWorkloadName(ev.InvolvedObject.Name)

	text := ev.Reason
	if ev.Message != "" {
		text += ": " + Mask(ev.Message)
	}

	return &models.Event{
		Source:       models.SourceOrchestrator,
		Service:      service,
		Signature:    signature(ev.Reason),
		Timestamp:    ts.UTC(),
		SeverityHint: n.classifier.Classify(models.SourceOrchestrator, ev.Reason),
		Text:         text,
	}, nil
}

type errorTrackerPayload struct {
	EventID   string            `json:"event_id"`
	Timestamp json.RawMessage   `json:"timestamp"`
	Type      string            `json:"type"`
	Value     string            `json:"value"`
	Message   string            `json:"message"`
	Level     string            `json:"level"`
	Tags      map[string]string `json:"tags"`
}

func (n *Normalizer) normalizeErrorTracker(payload json.RawMessage) (*models.Event, error) {
	var p errorTrackerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, models.NewMalformedEventError("bad_payload", "error tracker payload: %v", err)
	}
	if p.Type == "" {
		return nil, models.NewMalformedEventError("missing_reason", "error tracker event has no exception type")
	}

	ts, err := parseTimestamp(p.Timestamp)
	if err != nil {
		return nil, err
	}

	message := p.Value
	if message == "" {
		message = p.Message
	}
	text := p.Type
	if message != "" {
		text += ": " + Mask(message)
	}

	return &models.Event{
		Source:       models.SourceErrorTracker,
		Service:      p.Tags["service"],
		Signature:    signature(p.Type),
		Timestamp:    ts,
		SeverityHint: n.classifier.Classify(models.SourceErrorTracker, p.Type),
		Text:         text,
	}, nil
}

type cloudMetricPayload struct {
	MetricName string            `json:"metric_name"`
	Namespace  string            `json:"namespace"`
	Timestamp  json.RawMessage   `json:"timestamp"`
	Value      *float64          `json:"value"`
	Unit       string            `json:"unit"`
	Dimensions map[string]string `json:"dimensions"`
}

func (n *Normalizer) normalizeCloudMetric(payload json.RawMessage) (*models.Event, error) {
	var p cloudMetricPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, models.NewMalformedEventError("bad_payload", "cloud metric payload: %v", err)
	}
	if p.MetricName == "" {
		return nil, models.NewMalformedEventError("missing_reason", "cloud metric has no metric name")
	}

	ts, err := parseTimestamp(p.Timestamp)
	if err != nil {
		return nil, err
	}

	service := p.Dimensions["ServiceName"]
	if service == "" {
		service = p.Dimensions["service"]
	}

	text := p.MetricName + " anomaly"
	if p.Namespace != "" {
		text = p.Namespace + " " + text
	}

	return &models.Event{
		Source:       models.SourceCloudMetric,
		Service:      service,
		Signature:    signature(p.MetricName),
		Timestamp:    ts,
		SeverityHint: n.classifier.Classify(models.SourceCloudMetric, p.MetricName),
		Text:         text,
		NumericValue: p.Value,
	}, nil
}

type dashboardPanelPayload struct {
	Dashboard   string          `json:"dashboard"`
	Panel       string          `json:"panel"`
	AnomalyType string          `json:"anomaly_type"`
	Service     string          `json:"service"`
	Timestamp   json.RawMessage `json:"timestamp"`
	Message     string          `json:"message"`
}

func (n *Normalizer) normalizeDashboardPanel(payload json.RawMessage) (*models.Event, error) {
	var p dashboardPanelPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, models.NewMalformedEventError("bad_payload", "dashboard panel payload: %v", err)
	}
	if p.AnomalyType == "" {
		return nil, models.NewMalformedEventError("missing_reason", "dashboard panel event has no anomaly type")
	}

	ts, err := parseTimestamp(p.Timestamp)
	if err != nil {
		return nil, err
	}

	text := p.AnomalyType
	if p.Panel != "" {
		text += " on panel " + p.Panel
	}
	if p.Message != "" {
		text += ": " + Mask(p.Message)
	}

	return &models.Event{
		Source:       models.SourceDashboardPanel,
		Service:      p.Service,
		Signature:    signature(p.AnomalyType),
		Timestamp:    ts,
		SeverityHint: n.classifier.Classify(models.SourceDashboardPanel, p.AnomalyType),
		Text:         text,
	}, nil
}

// signature derives the source-independent incident key from a reason/type
func signature(reason string) string {
	return strings.ToLower(strings.TrimSpace(Mask(reason)))
}

// NormalizeBatch converts a slice of records, dropping malformed ones.
// Returns the normalized events and the number of dropped records.
func (n *Normalizer) NormalizeBatch(records []Record) ([]models.Event, int) {
	events := make([]models.Event, 0, len(records))
	dropped := 0
	for _, rec := range records {
		ev, err := n.Normalize(rec)
		if err != nil {
			dropped++
			logger.WarnWithFields("dropping malformed record",
				logging.Field("source", string(rec.Source)),
				logging.Field("error", err.Error()))
			continue
		}
		events = append(events, *ev)
	}
	return events, dropped
}
