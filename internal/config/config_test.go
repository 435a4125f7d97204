package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.APIPort = 0 }, true},
		{"missing policy path", func(c *Config) { c.PolicyPath = "" }, true},
		{"tracing without endpoint", func(c *Config) { c.TracingEnabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig(8080, "info", "/tmp/policy.yaml", false, "", "", false)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultPolicyIsValid(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())
	assert.Equal(t, 5*time.Minute, p.WindowDuration())
	assert.Equal(t, 30*time.Second, p.RunTimeoutDuration())
}

func TestPolicyValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PolicyFile)
	}{
		{"empty schema version", func(p *PolicyFile) { p.SchemaVersion = "" }},
		{"garbage schema version", func(p *PolicyFile) { p.SchemaVersion = "not-semver" }},
		{"wrong major version", func(p *PolicyFile) { p.SchemaVersion = "2.0.0" }},
		{"negative eps", func(p *PolicyFile) { p.Clustering.Eps = -1 }},
		{"bad window", func(p *PolicyFile) { p.Correlation.Window = "five minutes" }},
		{"zero window", func(p *PolicyFile) { p.Correlation.Window = "0s" }},
		{"empty dependency name", func(p *PolicyFile) { p.Dependencies = map[string][]string{"a": {""}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadPolicyFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")

	content := `schemaVersion: "1.1.0"
correlation:
  window: 2m
clustering:
  eps: 0.5
  minPoints: 4
  runTimeout: 10s
  includeOpenIncidents: true
embedding:
  dims: 128
severityOverrides:
  orchestrator/Pulled: P1
dependencies:
  api-gateway: [user-service]
  user-service: [postgres]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadPolicyFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, p.WindowDuration())
	assert.Equal(t, 10*time.Second, p.RunTimeoutDuration())
	assert.Equal(t, 0.5, p.Clustering.Eps)
	assert.Equal(t, 4, p.Clustering.MinPoints)
	assert.True(t, p.Clustering.IncludeOpenIncidents)
	assert.Equal(t, 128, p.Embedding.Dims)
	assert.Equal(t, "P1", p.SeverityOverrides["orchestrator/Pulled"])
	assert.Equal(t, []string{"postgres"}, p.Dependencies["user-service"])
}

func TestLoadPolicyFileRejectsUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`schemaVersion: "3.0.0"`), 0o644))

	_, err := LoadPolicyFile(path)
	assert.Error(t, err)
}

func TestLoadOrInitPolicyFileWritesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")

	p, err := LoadOrInitPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicyVersion, p.SchemaVersion)

	// the file now exists and loads on its own
	_, err = os.Stat(path)
	require.NoError(t, err)
	again, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Clustering.Eps, again.Clustering.Eps)
}
