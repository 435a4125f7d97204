package config

// Config holds all configuration for the application
type Config struct {
	// APIPort is the port the API server listens on
	APIPort int

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string

	// PolicyPath is the path to the YAML file containing the engine policy
	PolicyPath string

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled
	TracingEnabled bool

	// TracingEndpoint is the OTLP gRPC endpoint for trace export
	TracingEndpoint string

	// TracingTLSCAPath is the path to the CA certificate for TLS verification
	TracingTLSCAPath string

	// MCPEnabled indicates whether the MCP endpoint is served at /v1/mcp
	MCPEnabled bool
}

// LoadConfig creates a Config with the provided values
func LoadConfig(apiPort int, logLevel, policyPath string, tracingEnabled bool, tracingEndpoint, tracingTLSCAPath string, mcpEnabled bool) *Config {
	return &Config{
		APIPort:          apiPort,
		LogLevel:         logLevel,
		PolicyPath:       policyPath,
		TracingEnabled:   tracingEnabled,
		TracingEndpoint:  tracingEndpoint,
		TracingTLSCAPath: tracingTLSCAPath,
		MCPEnabled:       mcpEnabled,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}

	if c.PolicyPath == "" {
		return NewConfigError("PolicyPath must not be empty")
	}

	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("TracingEndpoint must be set when tracing is enabled")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
