package models

import (
	"sort"
	"time"
)

// IncidentState tracks the incident lifecycle. OPEN incidents accept new
// events; CLOSED is terminal and the incident becomes immutable.
type IncidentState string

const (
	// IncidentOpen means the correlation window is still accepting events
	IncidentOpen IncidentState = "OPEN"
	// IncidentClosed means the window expired; the incident is immutable
	IncidentClosed IncidentState = "CLOSED"
)

// Incident is a correlated group of events believed to describe one
// real-world problem.
type Incident struct {
	// ID is a stable identifier assigned at creation
	ID string `json:"incidentId"`

	// Tenant partitions incidents by project/account
	Tenant string `json:"tenant,omitempty"`

	// CorrelationID is shared by causally-linked incidents in a cascade.
	// Empty until the cascade linker tags the incident.
	CorrelationID string `json:"correlationId,omitempty"`

	// StartTime/EndTime span the member events
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	// AffectedServices is the sorted set of services seen in member events
	AffectedServices []string `json:"affectedServices"`

	// Severity is the most severe tier observed among member events.
	// It only escalates while the incident is open.
	Severity Tier `json:"severity"`

	// IncidentType is the dominant signature among member events
	IncidentType string `json:"incidentType,omitempty"`

	// State is OPEN or CLOSED
	State IncidentState `json:"state"`

	// Events holds the member events in append order
	Events []Event `json:"events,omitempty"`
}

// EventCount returns the number of member events
func (i *Incident) EventCount() int {
	return len(i.Events)
}

// HasService reports whether the incident already affects the service
func (i *Incident) HasService(service string) bool {
	for _, s := range i.AffectedServices {
		if s == service {
			return true
		}
	}
	return false
}

// AddService inserts the service into the sorted affected-services set
func (i *Incident) AddService(service string) {
	if service == "" || i.HasService(service) {
		return
	}
	i.AffectedServices = append(i.AffectedServices, service)
	sort.Strings(i.AffectedServices)
}

// Summary is the list/detail representation exposed at the API boundary,
// without the full evidence payloads.
type Summary struct {
	ID               string        `json:"incidentId"`
	CorrelationID    string        `json:"correlationId,omitempty"`
	StartTime        time.Time     `json:"startTime"`
	EndTime          time.Time     `json:"endTime"`
	AffectedServices []string      `json:"affectedServices"`
	EventCount       int           `json:"eventCount"`
	Severity         Tier          `json:"severity"`
	IncidentType     string        `json:"incidentType,omitempty"`
	State            IncidentState `json:"state"`
}

// Summarize strips evidence payloads for listing responses
func (i *Incident) Summarize() Summary {
	return Summary{
		ID:               i.ID,
		CorrelationID:    i.CorrelationID,
		StartTime:        i.StartTime,
		EndTime:          i.EndTime,
		AffectedServices: i.AffectedServices,
		EventCount:       i.EventCount(),
		Severity:         i.Severity,
		IncidentType:     i.IncidentType,
		State:            i.State,
	}
}
