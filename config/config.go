// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Rules      RulesConfig      `yaml:"rules"`
	Motion     MotionConfig     `yaml:"motion"`
	Scene      SceneConfig      `yaml:"scene"`
	Grid       GridConfig       `yaml:"grid"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Screen     ScreenConfig     `yaml:"screen"`
	GPU        GPUConfig        `yaml:"gpu"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds population and stepping parameters.
type SimulationConfig struct {
	ParticleCount  int     `yaml:"particle_count"`
	DT             float64 `yaml:"dt"`
	Mode           string  `yaml:"mode"`             // naive, scattered or coherent
	StepsPerUpdate int     `yaml:"steps_per_update"` // Steps per frame in graphical mode
	Seed           int64   `yaml:"seed"`             // 0 = time-based
}

// RulesConfig holds the three flocking rule radii and gains.
type RulesConfig struct {
	CohesionDistance   float64 `yaml:"cohesion_distance"`
	SeparationDistance float64 `yaml:"separation_distance"`
	AlignmentDistance  float64 `yaml:"alignment_distance"`
	CohesionScale      float64 `yaml:"cohesion_scale"`
	SeparationScale    float64 `yaml:"separation_scale"`
	AlignmentScale     float64 `yaml:"alignment_scale"`
}

// MotionConfig holds velocity limits.
type MotionConfig struct {
	MaxSpeed float64 `yaml:"max_speed"` // Per-axis clamp
}

// SceneConfig holds the simulation volume.
// Particles live in the cube [-Scale, Scale] on every axis.
type SceneConfig struct {
	Scale float64 `yaml:"scale"`
	// Layout is the initial placement: uniform or clustered.
	Layout string `yaml:"layout"`
	// ClusterFeatures is the number of noise periods across the cube for
	// the clustered layout.
	ClusterFeatures float64 `yaml:"cluster_features"`
}

// GridConfig holds uniform grid settings.
type GridConfig struct {
	// DoubleWidth sizes cells at twice the largest rule radius so only the
	// nearest octant of 8 cells is searched. Otherwise cells are one radius
	// wide and a 3x3x3 block is searched.
	DoubleWidth bool `yaml:"double_width"`
}

// ParallelConfig holds worker pool settings.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // Below this element count stages run inline
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int `yaml:"perf_window"`  // Ticks averaged by the perf collector
	StatsWindow int `yaml:"stats_window"` // Ticks between flock stats flushes
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GPUConfig holds OpenCL backend settings.
type GPUConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MaxRadius float64 // Largest of the three rule distances
	CellWidth float64 // Grid cell edge length
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.ComputeDerived()

	return cfg, nil
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks that every parameter the simulation divides by or sizes
// buffers from is usable.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"simulation.dt", c.Simulation.DT},
		{"rules.cohesion_distance", c.Rules.CohesionDistance},
		{"rules.separation_distance", c.Rules.SeparationDistance},
		{"rules.alignment_distance", c.Rules.AlignmentDistance},
		{"motion.max_speed", c.Motion.MaxSpeed},
		{"scene.scale", c.Scene.Scale},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalid, p.name, p.v)
		}
	}
	if c.Simulation.ParticleCount <= 0 {
		return fmt.Errorf("%w: simulation.particle_count must be positive, got %d", ErrInvalid, c.Simulation.ParticleCount)
	}
	switch c.Scene.Layout {
	case "", "uniform":
	case "clustered":
		if !(c.Scene.ClusterFeatures > 0) {
			return fmt.Errorf("%w: scene.cluster_features must be positive, got %v", ErrInvalid, c.Scene.ClusterFeatures)
		}
	default:
		return fmt.Errorf("%w: scene.layout must be uniform or clustered, got %q", ErrInvalid, c.Scene.Layout)
	}
	if c.Parallel.Workers < 0 {
		return fmt.Errorf("%w: parallel.workers must not be negative, got %d", ErrInvalid, c.Parallel.Workers)
	}
	return nil
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after mutating rule distances or grid settings in code.
func (c *Config) ComputeDerived() {
	r := c.Rules
	c.Derived.MaxRadius = max(r.CohesionDistance, r.SeparationDistance, r.AlignmentDistance)
	c.Derived.CellWidth = c.Derived.MaxRadius
	if c.Grid.DoubleWidth {
		c.Derived.CellWidth *= 2
	}

	if c.Simulation.StepsPerUpdate < 1 {
		c.Simulation.StepsPerUpdate = 1
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 60
	}
	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 300
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
