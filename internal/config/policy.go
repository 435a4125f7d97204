package config

import (
	"time"

	"github.com/hashicorp/go-version"
)

// SupportedPolicyMajor is the policy schema major version this build reads.
// Files with a different major version are rejected during load.
const SupportedPolicyMajor = 1

// DefaultPolicyVersion is the schema version written into generated files
const DefaultPolicyVersion = "1.0.0"

// PolicyFile is the engine policy: correlation window, clustering density
// parameters, embedding bounds, severity overrides and the service
// dependency topology. Product policy lives here, not in code.
type PolicyFile struct {
	// SchemaVersion is the semantic version of the policy schema
	SchemaVersion string `yaml:"schemaVersion"`

	// Correlation holds temporal correlator settings
	Correlation CorrelationPolicy `yaml:"correlation"`

	// Clustering holds density clusterer settings
	Clustering ClusteringPolicy `yaml:"clustering"`

	// Embedding holds embedding provider settings
	Embedding EmbeddingPolicy `yaml:"embedding"`

	// SeverityOverrides maps "source/reason" keys to tier labels,
	// layered over the builtin severity tables
	SeverityOverrides map[string]string `yaml:"severityOverrides"`

	// Dependencies is the service dependency adjacency list
	// (service -> services it calls into). Empty means the builtin
	// default topology.
	Dependencies map[string][]string `yaml:"dependencies"`
}

// CorrelationPolicy holds temporal correlator settings
type CorrelationPolicy struct {
	// Window is the correlation window as a duration string (e.g. "5m")
	Window string `yaml:"window"`
}

// ClusteringPolicy holds density clusterer settings
type ClusteringPolicy struct {
	// Eps is the DBSCAN neighborhood radius
	Eps float64 `yaml:"eps"`

	// MinPoints is the DBSCAN core point threshold
	MinPoints int `yaml:"minPoints"`

	// RunTimeout bounds one clustering run, as a duration string
	RunTimeout string `yaml:"runTimeout"`

	// IncludeOpenIncidents adds open incidents to run snapshots
	IncludeOpenIncidents bool `yaml:"includeOpenIncidents"`
}

// EmbeddingPolicy holds embedding provider settings
type EmbeddingPolicy struct {
	// Dims is the vector length of the hashing provider
	Dims int `yaml:"dims"`

	// CacheSize bounds the embedding LRU cache
	CacheSize int `yaml:"cacheSize"`

	// MaxMemberTexts bounds member texts per incident embedding input
	MaxMemberTexts int `yaml:"maxMemberTexts"`

	// MaxTextLen bounds the embedding input length in bytes
	MaxTextLen int `yaml:"maxTextLen"`
}

// DefaultPolicy returns the policy used when no file is configured
func DefaultPolicy() *PolicyFile {
	return &PolicyFile{
		SchemaVersion: DefaultPolicyVersion,
		Correlation:   CorrelationPolicy{Window: "5m"},
		Clustering: ClusteringPolicy{
			Eps:        0.75,
			MinPoints:  3,
			RunTimeout: "30s",
		},
		Embedding: EmbeddingPolicy{
			Dims:           256,
			CacheSize:      4096,
			MaxMemberTexts: 5,
			MaxTextLen:     2048,
		},
	}
}

// Validate checks schema version and field ranges
func (p *PolicyFile) Validate() error {
	if p.SchemaVersion == "" {
		return NewConfigError("schemaVersion must not be empty")
	}
	v, err := version.NewVersion(p.SchemaVersion)
	if err != nil {
		return NewConfigError("schemaVersion is not a valid semantic version: " + p.SchemaVersion)
	}
	if v.Segments()[0] != SupportedPolicyMajor {
		return NewConfigError("unsupported policy schema version " + p.SchemaVersion)
	}

	if p.Correlation.Window != "" {
		if d, err := time.ParseDuration(p.Correlation.Window); err != nil || d <= 0 {
			return NewConfigError("correlation.window must be a positive duration")
		}
	}
	if p.Clustering.RunTimeout != "" {
		if d, err := time.ParseDuration(p.Clustering.RunTimeout); err != nil || d <= 0 {
			return NewConfigError("clustering.runTimeout must be a positive duration")
		}
	}
	if p.Clustering.Eps < 0 {
		return NewConfigError("clustering.eps must not be negative")
	}
	if p.Clustering.MinPoints < 0 {
		return NewConfigError("clustering.minPoints must not be negative")
	}
	if p.Embedding.Dims < 0 {
		return NewConfigError("embedding.dims must not be negative")
	}

	for svc, deps := range p.Dependencies {
		if svc == "" {
			return NewConfigError("dependencies contains an empty service name")
		}
		for _, dep := range deps {
			if dep == "" {
				return NewConfigError("dependencies of " + svc + " contain an empty service name")
			}
		}
	}
	return nil
}

// WindowDuration returns the parsed correlation window, defaulting to 5m.
// Call after Validate.
func (p *PolicyFile) WindowDuration() time.Duration {
	if p.Correlation.Window == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(p.Correlation.Window)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// RunTimeoutDuration returns the parsed run timeout, defaulting to 30s.
// Call after Validate.
func (p *PolicyFile) RunTimeoutDuration() time.Duration {
	if p.Clustering.RunTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(p.Clustering.RunTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
