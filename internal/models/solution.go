package models

// Solution is a remediation response for an error type at a severity tier.
// Generated on demand; never persisted by the engine.
type Solution struct {
	ErrorType string `json:"errorType"`
	Severity  Tier   `json:"severity"`

	// ClusterID is set when the lookup was made for a specific cluster,
	// for traceability only.
	ClusterID *int `json:"clusterId,omitempty"`

	// RecommendedActions is ordered and never empty
	RecommendedActions []string `json:"recommendedActions"`

	// Note carries caveat/confidence text
	Note string `json:"note,omitempty"`
}
