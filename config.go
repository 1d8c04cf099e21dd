package godro

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPlan reads a plan declaration from a YAML file and builds the plan.
func LoadPlan(fp string) (*Plan, error) {
	b, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf(" godro.LoadPlan %s: %w", fp, err)
	}
	cfg, err := ParsePlanConfig(b)
	if err != nil {
		return nil, fmt.Errorf(" godro.LoadPlan %s: %w", fp, err)
	}
	return NewPlan(cfg)
}

// ParsePlanConfig decodes a YAML plan declaration.
func ParsePlanConfig(b []byte) (*PlanConfig, error) {
	var cfg PlanConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, &ConfigurationError{Msg: err.Error()}
	}
	return &cfg, nil
}
