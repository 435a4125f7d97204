package correlate

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the correlation stage.
type Metrics struct {
	EventsAppended  *prometheus.CounterVec // Events accepted into incidents, by source
	IncidentsOpened prometheus.Counter     // Incidents created
	IncidentsClosed prometheus.Counter     // Incidents closed and published
	IncidentsMerged prometheus.Counter     // Runner-up incidents folded into a tie-break winner
	CascadeLinks    prometheus.Counter     // Correlation ids shared across dependency-linked incidents
	OpenIncidents   prometheus.Gauge       // Current size of the open working set
}

// NewMetrics creates Prometheus metrics for a correlator instance.
// The registerer parameter allows flexible registration (e.g., global registry, test registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	eventsAppended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_correlator_events_total",
		Help: "Total number of events appended to incidents",
	}, []string{"source"})

	incidentsOpened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cascade_correlator_incidents_opened_total",
		Help: "Total number of incidents opened",
	})

	incidentsClosed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cascade_correlator_incidents_closed_total",
		Help: "Total number of incidents closed",
	})

	incidentsMerged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cascade_correlator_incidents_merged_total",
		Help: "Total number of incidents merged during tie-break resolution",
	})

	cascadeLinks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cascade_correlator_cascade_links_total",
		Help: "Total number of cascade links established between incidents",
	})

	openIncidents := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cascade_correlator_open_incidents",
		Help: "Current number of open incidents in the working set",
	})

	reg.MustRegister(eventsAppended)
	reg.MustRegister(incidentsOpened)
	reg.MustRegister(incidentsClosed)
	reg.MustRegister(incidentsMerged)
	reg.MustRegister(cascadeLinks)
	reg.MustRegister(openIncidents)

	return &Metrics{
		EventsAppended:  eventsAppended,
		IncidentsOpened: incidentsOpened,
		IncidentsClosed: incidentsClosed,
		IncidentsMerged: incidentsMerged,
		CascadeLinks:    cascadeLinks,
		OpenIncidents:   openIncidents,
	}
}
