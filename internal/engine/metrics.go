package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the clustering pipeline.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec // Completed clustering runs by outcome
	RunDuration       prometheus.Histogram   // Clustering run wall time
	UnembeddableTotal prometheus.Counter     // Incidents excluded for missing evidence text
	LastRunPoints     prometheus.Gauge       // Points in the last published run
	LastRunClusters   prometheus.Gauge       // Clusters in the last published run
	LastRunNoise      prometheus.Gauge       // Noise points in the last published run
}

// NewMetrics creates Prometheus metrics for the pipeline.
// The registerer parameter allows flexible registration (e.g., global registry, test registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_engine_runs_total",
		Help: "Total number of clustering runs by outcome",
	}, []string{"outcome"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cascade_engine_run_duration_seconds",
		Help:    "Wall time of clustering runs",
		Buckets: prometheus.DefBuckets,
	})

	unembeddableTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cascade_engine_unembeddable_incidents_total",
		Help: "Total number of incidents excluded from clustering for missing evidence text",
	})

	lastRunPoints := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cascade_engine_last_run_points",
		Help: "Number of points in the last published clustering run",
	})

	lastRunClusters := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cascade_engine_last_run_clusters",
		Help: "Number of clusters in the last published clustering run",
	})

	lastRunNoise := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cascade_engine_last_run_noise",
		Help: "Number of noise points in the last published clustering run",
	})

	reg.MustRegister(runsTotal)
	reg.MustRegister(runDuration)
	reg.MustRegister(unembeddableTotal)
	reg.MustRegister(lastRunPoints)
	reg.MustRegister(lastRunClusters)
	reg.MustRegister(lastRunNoise)

	return &Metrics{
		RunsTotal:         runsTotal,
		RunDuration:       runDuration,
		UnembeddableTotal: unembeddableTotal,
		LastRunPoints:     lastRunPoints,
		LastRunClusters:   lastRunClusters,
		LastRunNoise:      lastRunNoise,
	}
}
