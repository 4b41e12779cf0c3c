// Package config provides configuration loading and access for the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all environment configuration parameters.
type Config struct {
	Screen     ScreenConfig       `yaml:"screen"`
	Physics    PhysicsConfig      `yaml:"physics"`
	Agent      AgentConfig        `yaml:"agent"`
	Arena      ArenaConfig        `yaml:"arena"`
	Fish       FishConfig         `yaml:"fish"`
	Effects    EffectsConfig      `yaml:"effects"`
	Parameters map[string]float64 `yaml:"parameters"`
	Telemetry  TelemetryConfig    `yaml:"telemetry"`
	Remote     RemoteConfig       `yaml:"remote"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds movement substrate parameters.
type PhysicsConfig struct {
	DT             float64 `yaml:"dt"`              // Seconds per fixed step
	BoundaryRadius float64 `yaml:"boundary_radius"` // Bodies are kept within this distance of the center
	AgentRadius    float64 `yaml:"agent_radius"`
	BabyRadius     float64 `yaml:"baby_radius"`
	FishRadius     float64 `yaml:"fish_radius"`
}

// AgentConfig holds penguin movement and episode parameters.
type AgentConfig struct {
	MoveSpeed      float64 `yaml:"move_speed"`      // Units per second at forward=1
	TurnSpeed      float64 `yaml:"turn_speed"`      // Degrees per second
	MaxSteps       int     `yaml:"max_steps"`       // 0 = unbounded
	DecisionPeriod int     `yaml:"decision_period"` // Steps between policy decisions
}

// RegionConfig describes a partial annulus around the arena center.
type RegionConfig struct {
	MinAngle  float64 `yaml:"min_angle"`
	MaxAngle  float64 `yaml:"max_angle"`
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
}

// ArenaConfig holds layout parameters applied on every episode reset.
type ArenaConfig struct {
	Center      [3]float64   `yaml:"center"`
	SpawnHeight float64      `yaml:"spawn_height"` // Added to every placed position
	FishCount   int          `yaml:"fish_count"`
	BabyHeading float64      `yaml:"baby_heading"`
	AgentRegion RegionConfig `yaml:"agent_region"`
	BabyRegion  RegionConfig `yaml:"baby_region"`
	FishRegion  RegionConfig `yaml:"fish_region"`
}

// FishConfig holds fish swim behavior parameters.
type FishConfig struct {
	SpeedJitterMin float64 `yaml:"speed_jitter_min"` // Swim speed multiplier range per leg
	SpeedJitterMax float64 `yaml:"speed_jitter_max"`
}

// EffectsConfig holds parameters of the transient feeding effects.
type EffectsConfig struct {
	Lifetime    float64 `yaml:"lifetime"`     // Seconds
	HeartHeight float64 `yaml:"heart_height"` // Heart offset above the baby
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Episodes per logged summary window
}

// RemoteConfig holds trainer connection parameters.
type RemoteConfig struct {
	ProtocolVersion string  `yaml:"protocol_version"`
	DialTimeout     float64 `yaml:"dial_timeout"` // Seconds
	ReadTimeout     float64 `yaml:"read_timeout"` // Seconds
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	StepPenalty float64 // -1/max_steps, or 0 when unbounded
	StepsPerSec float64 // 1/dt
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

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

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
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the step loop cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.DT <= 0 {
		errs = append(errs, fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT))
	}
	if c.Agent.DecisionPeriod <= 0 {
		errs = append(errs, fmt.Errorf("agent.decision_period must be positive, got %d", c.Agent.DecisionPeriod))
	}
	if c.Arena.FishCount < 0 {
		errs = append(errs, fmt.Errorf("arena.fish_count must not be negative, got %d", c.Arena.FishCount))
	}
	if c.Fish.SpeedJitterMax < c.Fish.SpeedJitterMin {
		errs = append(errs, fmt.Errorf("fish.speed_jitter_max (%v) below speed_jitter_min (%v)",
			c.Fish.SpeedJitterMax, c.Fish.SpeedJitterMin))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.StepsPerSec = 1 / c.Physics.DT
	c.Derived.StepPenalty = 0
	if c.Agent.MaxSteps > 0 {
		c.Derived.StepPenalty = -1 / float64(c.Agent.MaxSteps)
	}
	if c.Parameters == nil {
		c.Parameters = make(map[string]float64)
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
