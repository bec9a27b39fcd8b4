package evaluate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/studyloop/churn-risk-engine/pkg/common"
)

// Config controls population eligibility and fan-out for retroactive
// accuracy evaluation.
type Config struct {
	// MinCompletedSessions a student needs to be evaluated at all.
	MinCompletedSessions int `yaml:"min_completed_sessions"`

	// ActiveTenureDays is the minimum enrollment age before an active
	// student counts as a known retention outcome.
	ActiveTenureDays int `yaml:"active_tenure_days"`

	// Concurrency bounds the per-student evaluation fan-out.
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the evaluation settings used when no engine config
// file is present.
func DefaultConfig() Config {
	return Config{
		MinCompletedSessions: 3,
		ActiveTenureDays:     90,
		Concurrency:          8,
	}
}

type engineConfigFile struct {
	Evaluation Config `yaml:"evaluation"`
}

// LoadConfig loads evaluation settings from a YAML file. Values support
// ${VAR} / ${VAR:default} environment expansion; omitted fields fall back
// to DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read engine config %s: %w", path, err)
	}

	expanded := common.ExpandEnv(string(data))

	var file engineConfigFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return Config{}, fmt.Errorf("failed to parse engine config %s: %w", path, err)
	}

	cfg := file.Evaluation
	defaults := DefaultConfig()
	if cfg.MinCompletedSessions == 0 {
		cfg.MinCompletedSessions = defaults.MinCompletedSessions
	}
	if cfg.ActiveTenureDays == 0 {
		cfg.ActiveTenureDays = defaults.ActiveTenureDays
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = defaults.Concurrency
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid engine config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings for usable ranges.
func (c Config) Validate() error {
	if c.MinCompletedSessions < 1 {
		return fmt.Errorf("min_completed_sessions must be >= 1, got %d", c.MinCompletedSessions)
	}
	if c.ActiveTenureDays < 1 {
		return fmt.Errorf("active_tenure_days must be >= 1, got %d", c.ActiveTenureDays)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	return nil
}
