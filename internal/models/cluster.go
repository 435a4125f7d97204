package models

import "time"

// NoiseClusterID is the sentinel id for incidents that did not meet the
// density threshold of any cluster.
const NoiseClusterID = -1

// Cluster is a group of incidents judged semantically similar.
// Cluster ids are meaningful only within a single clustering run.
type Cluster struct {
	ID                int      `json:"clusterId"`
	Size              int      `json:"size"`
	Severity          Tier     `json:"severity"`
	ErrorType         string   `json:"errorType"`
	MemberIncidentIDs []string `json:"memberIncidentIds"`
}

// NoisePoint is an incident surfaced individually because it was not
// dense enough to join any cluster. It keeps its own incident-level
// type and severity.
type NoisePoint struct {
	IncidentID   string `json:"incidentId"`
	IncidentType string `json:"incidentType,omitempty"`
	Severity     Tier   `json:"severity"`
}

// ClusteringRun is a completed invocation of the clustering pipeline over
// a fixed incident snapshot.
type ClusteringRun struct {
	Tenant string `json:"tenant,omitempty"`

	NumPoints   int `json:"numPoints"`
	NumClusters int `json:"numClusters"`
	NumNoise    int `json:"numNoise"`

	// NumUnembeddable counts incidents excluded because no usable text
	// existed for embedding. Not part of NumPoints.
	NumUnembeddable int `json:"numUnembeddable"`

	// SilhouetteScore is nil when fewer than two clusters exist; a zero
	// value would read as "borderline", which is misleading.
	SilhouetteScore *float64 `json:"silhouetteScore,omitempty"`

	Clusters []Cluster    `json:"clusters"`
	Noise    []NoisePoint `json:"noise"`

	// CompletedAt is the last-updated marker exposed to readers
	CompletedAt time.Time `json:"completedAt"`
}

// Validate checks the partition invariant:
// every point is in exactly one cluster or in the noise set.
func (r *ClusteringRun) Validate() error {
	total := r.NumNoise
	for _, c := range r.Clusters {
		if c.Size != len(c.MemberIncidentIDs) {
			return NewValidationError("cluster %d size %d does not match member count %d",
				c.ID, c.Size, len(c.MemberIncidentIDs))
		}
		total += c.Size
	}
	if total != r.NumPoints {
		return NewValidationError("partition mismatch: %d points vs %d assigned", r.NumPoints, total)
	}
	if r.NumClusters != len(r.Clusters) {
		return NewValidationError("numClusters %d does not match cluster list length %d",
			r.NumClusters, len(r.Clusters))
	}
	return nil
}
