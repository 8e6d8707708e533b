// Package config handles generator configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all generator settings.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Engine   EngineConfig   `yaml:"engine"`
	Kernel   KernelConfig   `yaml:"kernel"`
	Verify   VerifyConfig   `yaml:"verify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SamplingConfig holds the discretisation used when a script omits it.
type SamplingConfig struct {
	Points        int `yaml:"points"`         // points per surface ring
	SpanDivisions int `yaml:"span_divisions"` // spanwise subdivisions
}

// EngineConfig holds DSL evaluation settings.
type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// KernelConfig holds geometry kernel settings.
type KernelConfig struct {
	MeshCells int `yaml:"mesh_cells"` // marching cubes resolution
}

// VerifyConfig controls the reference-solid cross-check.
type VerifyConfig struct {
	Reference bool    `yaml:"reference"`
	Tolerance float64 `yaml:"tolerance"` // relative volume mismatch allowed
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Points:        50,
			SpanDivisions: 10,
		},
		Engine: EngineConfig{
			Timeout: 5 * time.Second,
		},
		Kernel: KernelConfig{
			MeshCells: 200,
		},
		Verify: VerifyConfig{
			Reference: false,
			Tolerance: 0.05,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every setting that cannot be used as-is.
func (c *Config) Validate() error {
	var errs []error
	if c.Sampling.Points < 2 {
		errs = append(errs, fmt.Errorf("sampling.points is %d, must be at least 2", c.Sampling.Points))
	}
	if c.Sampling.SpanDivisions < 1 {
		errs = append(errs, fmt.Errorf("sampling.span_divisions is %d, must be at least 1", c.Sampling.SpanDivisions))
	}
	if c.Engine.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.timeout is %s, must be positive", c.Engine.Timeout))
	}
	if c.Kernel.MeshCells <= 0 {
		errs = append(errs, fmt.Errorf("kernel.mesh_cells is %d, must be positive", c.Kernel.MeshCells))
	}
	if c.Verify.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("verify.tolerance is %g, must not be negative", c.Verify.Tolerance))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	return errors.Join(errs...)
}
