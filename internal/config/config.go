// Package config provides the solver profile used by the nearcorr command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/nearcorr"
	"github.com/katalvlaran/nearcorr/spectral"
)

const (
	// DefaultSolver is the eigensolver used when the profile names none.
	DefaultSolver = spectral.NameLAPACK

	// DefaultLogLevel is the zerolog level for the command.
	DefaultLogLevel = "info"

	// DefaultLogFormat writes human-readable lines to stderr.
	DefaultLogFormat = "console"
)

// Environment overrides, applied after the profile file.
const (
	EnvSolver        = "NEARCORR_SOLVER"
	EnvMaxIterations = "NEARCORR_MAX_ITERATIONS"
	EnvLogLevel      = "NEARCORR_LOG_LEVEL"
	EnvLogFormat     = "NEARCORR_LOG_FORMAT"
)

// ErrInvalidConfig is returned by Validate and Load for unusable values.
var ErrInvalidConfig = errors.New("config: invalid value")

// Config holds a solver profile.
type Config struct {
	// Solver settings
	Solver         string       `yaml:"solver"`          // lapack | jacobi
	Tolerance      float64      `yaml:"tolerance"`       // convergence tolerance; 0 = n*eps
	EigenTolerance float64      `yaml:"eigen_tolerance"` // reserved for the partial mode; 0 = n*eps
	MaxIterations  int          `yaml:"max_iterations"`
	Weights        []float64    `yaml:"weights"`
	Jacobi         JacobiConfig `yaml:"jacobi"`

	// Logging settings
	Log LogConfig `yaml:"log"`
}

// JacobiConfig tunes spectral.Jacobi; zero values select its defaults.
type JacobiConfig struct {
	Tolerance    float64 `yaml:"tolerance"`
	MaxRotations int     `yaml:"max_rotations"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Solver:        DefaultSolver,
		MaxIterations: nearcorr.DefaultMaxIterations,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a YAML profile, merging it over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty file decodes to io.EOF and leaves the defaults in place.
		if err = dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides profile values from the environment.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvSolver); v != "" {
		c.Solver = v
	}
	if v := os.Getenv(EnvMaxIterations); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvMaxIterations, v, ErrInvalidConfig)
		}
		c.MaxIterations = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}

	return nil
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	if _, err := c.solver(); err != nil {
		return fmt.Errorf("config: solver: %w: %w", ErrInvalidConfig, err)
	}
	if !nonNegative(c.Tolerance) || !nonNegative(c.EigenTolerance) || !nonNegative(c.Jacobi.Tolerance) {
		return fmt.Errorf("config: tolerances must be finite and non-negative: %w", ErrInvalidConfig)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("config: max_iterations=%d: %w", c.MaxIterations, ErrInvalidConfig)
	}
	if c.Jacobi.MaxRotations < 0 {
		return fmt.Errorf("config: jacobi.max_rotations=%d: %w", c.Jacobi.MaxRotations, ErrInvalidConfig)
	}
	for i, w := range c.Weights {
		if !(w > 0) || math.IsInf(w, 0) {
			return fmt.Errorf("config: weights[%d]=%v: %w", i, w, ErrInvalidConfig)
		}
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("config: log.level %q: %w", c.Log.Level, ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format %q: %w", c.Log.Format, ErrInvalidConfig)
	}

	return nil
}

// Level parses Log.Level; an empty level means DefaultLogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	if c.Log.Level == "" {
		return zerolog.ParseLevel(DefaultLogLevel)
	}

	return zerolog.ParseLevel(strings.ToLower(c.Log.Level))
}

// solver resolves the configured eigensolver, applying Jacobi tuning.
func (c *Config) solver() (spectral.Solver, error) {
	s, err := spectral.ByName(c.Solver)
	if err != nil {
		return nil, err
	}
	if _, ok := s.(spectral.Jacobi); ok {
		return spectral.Jacobi{Tol: c.Jacobi.Tolerance, MaxRotations: c.Jacobi.MaxRotations}, nil
	}

	return s, nil
}

// Options converts the profile into nearcorr options. Each tolerance is
// forwarded on its own; a zero keeps that component's size-dependent default.
func (c *Config) Options() ([]nearcorr.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s, err := c.solver()
	if err != nil {
		return nil, err
	}

	opts := []nearcorr.Option{
		nearcorr.WithSolver(s),
		nearcorr.WithMaxIterations(c.MaxIterations),
	}
	if c.Tolerance > 0 {
		opts = append(opts, nearcorr.WithConvergenceTolerance(c.Tolerance))
	}
	if c.EigenTolerance > 0 {
		opts = append(opts, nearcorr.WithEigenTolerance(c.EigenTolerance))
	}
	if len(c.Weights) > 0 {
		opts = append(opts, nearcorr.WithWeights(c.Weights))
	}

	return opts, nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
