package uflp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type FailurePolicy string

const (
	// FailAbort stops the run at the first failed sample.
	FailAbort FailurePolicy = "abort"
	// FailSkip drops a sample whose oracle call failed and keeps going.
	FailSkip FailurePolicy = "skip"
)

// OracleBranchAndBound names the built-in oracle.
const OracleBranchAndBound = "bnb"

// Config describes one generation run. Costs and Oracle are resolved from
// CostPolicy and OracleName when left nil; only the built-in oracle can be
// resolved here, the others are wired by the command line tool.
type Config struct {
	NumClient    int           `yaml:"num_client"`
	NumFacility  int           `yaml:"num_facility"`
	NumSamples   int           `yaml:"num_samples"`
	OutputPath   string        `yaml:"output_path"`
	CostPolicy   string        `yaml:"cost_policy"`
	OracleName   string        `yaml:"oracle"`
	Seed         int64         `yaml:"seed"`
	Workers      int           `yaml:"workers"`
	OnFailure    FailurePolicy `yaml:"on_failure"`
	SolveTimeout time.Duration `yaml:"solve_timeout"`
	MetricsPath  string        `yaml:"metrics_path,omitempty"`
	ManifestPath string        `yaml:"manifest_path,omitempty"`

	Costs  CostPolicy `yaml:"-"`
	Oracle Oracle     `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		NumClient:   4,
		NumFacility: 8,
		NumSamples:  10,
		OutputPath:  "facility_location.txt",
		CostPolicy:  ConstantCost{Value: DefaultOpenCost}.String(),
		OracleName:  OracleBranchAndBound,
		Workers:     1,
		OnFailure:   FailAbort,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the run parameters and resolves Costs and Oracle.
func (cfg *Config) Validate() error {
	if cfg.NumClient < 1 {
		return fmt.Errorf("%w: num_client must be at least 1, got %d", ErrInvalidParameter, cfg.NumClient)
	}
	if cfg.NumFacility < 1 {
		return fmt.Errorf("%w: num_facility must be at least 1, got %d", ErrInvalidParameter, cfg.NumFacility)
	}
	if cfg.NumSamples < 0 {
		return fmt.Errorf("%w: num_samples must not be negative, got %d", ErrInvalidParameter, cfg.NumSamples)
	}
	if cfg.OutputPath == "" {
		return fmt.Errorf("%w: output_path is required", ErrInvalidParameter)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidParameter, cfg.Workers)
	}
	if cfg.SolveTimeout < 0 {
		return fmt.Errorf("%w: negative solve_timeout %v", ErrInvalidParameter, cfg.SolveTimeout)
	}
	switch cfg.OnFailure {
	case "":
		cfg.OnFailure = FailAbort
	case FailAbort, FailSkip:
	default:
		return fmt.Errorf("%w: on_failure must be %q or %q, got %q", ErrInvalidParameter, FailAbort, FailSkip, cfg.OnFailure)
	}

	if cfg.Costs == nil {
		costs, err := ParseCostPolicy(cfg.CostPolicy)
		if err != nil {
			return err
		}
		cfg.Costs = costs
	}
	if cfg.Oracle == nil {
		if cfg.OracleName != "" && cfg.OracleName != OracleBranchAndBound {
			return fmt.Errorf("%w: oracle %q is not wired", ErrInvalidParameter, cfg.OracleName)
		}
		cfg.OracleName = OracleBranchAndBound
		cfg.Oracle = &BranchAndBound{}
	}
	return nil
}
