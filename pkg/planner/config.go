package planner

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/perdasilva/planr/pkg/solver"
)

// Config carries the planner's boundary settings: the target library,
// the selection policy and optional overrides for the base package
// set and the binary mirror marker.
type Config struct {
	Library      string   `yaml:"library"`
	Policy       string   `yaml:"policy"`
	BasePackages []string `yaml:"base_packages"`
	BinaryMarker string   `yaml:"binary_marker"`
}

// LoadConfig reads a planner config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config %s", path)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not parse config %s", path)
	}
	return cfg, nil
}

// SolvePolicy maps the configured policy string to a solver policy,
// defaulting to lazy. Unknown values pass through so the solver can
// reject them.
func (c *Config) SolvePolicy() solver.Policy {
	if c.Policy == "" {
		return solver.PolicyLazy
	}
	return solver.Policy(c.Policy)
}
