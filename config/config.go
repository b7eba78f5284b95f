package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/xvalib/aggregation"
)

// RunConfig drives one aggregation run. Defaults are the usual regulatory
// parameters; anything may be overridden in the YAML file.
type RunConfig struct {
	BaseCurrency string  `yaml:"baseCurrency" validate:"required,len=3"`
	Quantile     float64 `yaml:"quantile" default:"0.95" validate:"gt=0,lt=1"`
	// CalculationType is the collateral margining convention:
	// NoLag, Lagged1 or Lagged2.
	CalculationType string `yaml:"calculationType" default:"NoLag"`
	// AllocationMethod is one of None, Marginal, RelativeFairValueGross,
	// RelativeFairValueNet, RelativeXVA.
	AllocationMethod string `yaml:"allocationMethod" default:"None"`
	// MultiPath keeps full scenario granularity in the exposure cube;
	// otherwise it is collapsed to sample-averaged values.
	MultiPath                    bool `yaml:"multiPath" default:"true"`
	FullInitialCollateralisation bool `yaml:"fullInitialCollateralisation"`

	// DVAName identifies our own credit curve for the symmetric KVA view.
	DVAName string `yaml:"dvaName"`

	Analytics struct {
		KVA bool `yaml:"kva"`
		DIM bool `yaml:"dim"`
	} `yaml:"analytics"`

	KVA aggregation.KVAParams `yaml:"kva"`

	Log struct {
		Level string `yaml:"level" default:"info"`
	} `yaml:"log"`
}

// Load reads, defaults and validates a YAML run configuration.
func Load(path string) (*RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document into a validated RunConfig.
func Parse(raw []byte) (*RunConfig, error) {
	cfg := &RunConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config: apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
