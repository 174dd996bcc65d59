// Package config holds the tunables of an injection run
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	ReportTable = "table"
	ReportNone  = "none"
)

// Config holds the injection settings
type Config struct {
	// TriggerAlert invokes the alert primitive after each successful queuing
	TriggerAlert bool `yaml:"trigger_alert"`

	// VerifyWrite reads the payload back from the target after writing it
	VerifyWrite bool `yaml:"verify_write"`

	// PreviewBytes is how much of the payload is hexdumped to the debug log
	PreviewBytes int `yaml:"preview_bytes"`

	// Report selects how the per-thread report is printed: table or none
	Report string `yaml:"report"`
}

// Default returns the settings used when no file is given
func Default() *Config {
	return &Config{
		TriggerAlert: true,
		VerifyWrite:  false,
		PreviewBytes: 32,
		Report:       ReportTable,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PreviewBytes < 0 {
		return fmt.Errorf("preview_bytes must not be negative, got %d", c.PreviewBytes)
	}
	switch c.Report {
	case ReportTable, ReportNone:
	default:
		return fmt.Errorf("unknown report mode %q (want %q or %q)", c.Report, ReportTable, ReportNone)
	}
	return nil
}
