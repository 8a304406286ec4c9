package config

import (
	"os"

	"sigs.k8s.io/yaml"
)

// Load reads and validates a profile file.
func Load(path string) (*Profile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out Profile
	if err := yaml.UnmarshalStrict(contents, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
