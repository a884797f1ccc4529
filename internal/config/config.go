package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"dspike/internal/model"
	"dspike/internal/solver"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is not given.
const DefaultPath = "dspike.yaml"

// Config holds all dspike configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Calibration constants shared by the residual and Jacobian models
	Calibration CalibrationConfig `yaml:"calibration"`

	// Initial guess used when no flags are given
	Guess GuessConfig `yaml:"guess"`

	// Solver limits
	Solver SolverConfig `yaml:"solver"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Run history
	Store StoreConfig `yaml:"store"`
}

// CalibrationConfig lists the measured ratios, one row per equation.
type CalibrationConfig struct {
	ReferenceMass float64         `yaml:"reference_mass"`
	Isotopes      []IsotopeConfig `yaml:"isotopes"`
}

// IsotopeConfig is one ratio row: mass m and the m/reference ratios in the
// spike, the standard, and the measured mix.
type IsotopeConfig struct {
	Mass     float64 `yaml:"mass"`
	Spike    float64 `yaml:"spike"`
	Standard float64 `yaml:"standard"`
	Mix      float64 `yaml:"mix"`
}

// GuessConfig is the default starting point.
type GuessConfig struct {
	PhiRef     float64 `yaml:"phi_ref"`
	BetaSample float64 `yaml:"beta_sple"`
	BetaMix    float64 `yaml:"beta_mix"`
}

// SolverConfig configures both solve strategies.
type SolverConfig struct {
	Tolerance      float64 `yaml:"tolerance"`
	MaxIterations  int     `yaml:"max_iterations"`
	MaxEvaluations int     `yaml:"max_evaluations"`
	Method         string  `yaml:"method"` // derivative-free method: newton, bfgs, lbfgs
	Step           float64 `yaml:"step"`   // finite-difference step, 0 = default
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	c := model.DefaultConstants()
	isotopes := make([]IsotopeConfig, 0, len(c.Isotopes))
	for _, iso := range c.Isotopes {
		isotopes = append(isotopes, IsotopeConfig{
			Mass:     iso.Mass,
			Spike:    iso.Spike,
			Standard: iso.Standard,
			Mix:      iso.Mix,
		})
	}

	s := solver.DefaultSettings()
	g := model.DefaultGuess

	return &Config{
		Name:    "dspike",
		Version: "0.1.0",
		Calibration: CalibrationConfig{
			ReferenceMass: c.ReferenceMass,
			Isotopes:      isotopes,
		},
		Guess: GuessConfig{
			PhiRef:     g[model.PhiRef],
			BetaSample: g[model.BetaSample],
			BetaMix:    g[model.BetaMix],
		},
		Solver: SolverConfig{
			Tolerance:      s.Tolerance,
			MaxIterations:  s.MaxIterations,
			MaxEvaluations: s.MaxEvaluations,
			Method:         s.Method,
			Step:           s.Step,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "json",
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    filepath.Join(".dspike", "runs.db"),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv("DSPIKE_DB"); path != "" {
		c.Store.Enabled = true
		c.Store.Path = path
	}
	if level := os.Getenv("DSPIKE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if tol := os.Getenv("DSPIKE_TOLERANCE"); tol != "" {
		v, err := strconv.ParseFloat(tol, 64)
		if err != nil {
			return fmt.Errorf("invalid DSPIKE_TOLERANCE %q: %w", tol, err)
		}
		c.Solver.Tolerance = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.ToConstants(); err != nil {
		return err
	}
	if err := c.SolverSettings().Validate(); err != nil {
		return fmt.Errorf("invalid solver config: %w", err)
	}
	if !c.InitialGuess().IsFinite() {
		return fmt.Errorf("initial guess must be finite")
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store path is required when the store is enabled")
	}
	return nil
}

// ToConstants converts the calibration section into model constants.
func (c *Config) ToConstants() (model.Constants, error) {
	var out model.Constants
	if len(c.Calibration.Isotopes) != len(out.Isotopes) {
		return out, fmt.Errorf("%w: calibration needs exactly %d isotopes, got %d",
			model.ErrInvalidConstants, len(out.Isotopes), len(c.Calibration.Isotopes))
	}
	out.ReferenceMass = c.Calibration.ReferenceMass
	for i, iso := range c.Calibration.Isotopes {
		out.Isotopes[i] = model.Isotope{
			Mass:     iso.Mass,
			Spike:    iso.Spike,
			Standard: iso.Standard,
			Mix:      iso.Mix,
		}
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// SolverSettings converts the solver section into solver.Settings.
func (c *Config) SolverSettings() solver.Settings {
	return solver.Settings{
		Tolerance:      c.Solver.Tolerance,
		MaxIterations:  c.Solver.MaxIterations,
		MaxEvaluations: c.Solver.MaxEvaluations,
		Method:         c.Solver.Method,
		Step:           c.Solver.Step,
	}
}

// InitialGuess returns the configured default starting point.
func (c *Config) InitialGuess() model.Vector {
	return model.Vector{c.Guess.PhiRef, c.Guess.BetaSample, c.Guess.BetaMix}
}
