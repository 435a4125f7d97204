package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// LoadPolicyFile loads and validates an engine policy file using Koanf.
// Returns the parsed and validated PolicyFile or an error.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Schema validation failure (unsupported version, bad field values)
func LoadPolicyFile(filepath string) (*PolicyFile, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load policy from %q: %w", filepath, err)
	}

	var policy PolicyFile
	if err := k.UnmarshalWithConf("", &policy, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse policy from %q: %w", filepath, err)
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy validation failed for %q: %w", filepath, err)
	}

	return &policy, nil
}

// WriteDefaultPolicyFile writes the default policy to the given path.
// Used on first start when no policy file exists yet.
func WriteDefaultPolicyFile(filepath string) error {
	data, err := yamlv3.Marshal(DefaultPolicy())
	if err != nil {
		return fmt.Errorf("failed to marshal default policy: %w", err)
	}
	if err := os.WriteFile(filepath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write default policy to %q: %w", filepath, err)
	}
	return nil
}

// LoadOrInitPolicyFile loads the policy file, writing the default first if
// the file does not exist
func LoadOrInitPolicyFile(filepath string) (*PolicyFile, error) {
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		if err := WriteDefaultPolicyFile(filepath); err != nil {
			return nil, err
		}
	}
	return LoadPolicyFile(filepath)
}
