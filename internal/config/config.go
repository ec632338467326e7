package config

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/control"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

const (
	DefaultDt         = 1e-6
	DefaultDuration   = 1e-2
	DefaultDecimate   = 3
	DefaultOmega      = 1e-4
	DefaultTolerance  = 1e-6
	DefaultIntegrator = "rk4"
	DefaultController = "sixstep"
)

type Config struct {
	Motor     bldc.Params     `yaml:"motor"`
	PWM       control.Config  `yaml:"pwm"`
	Sim       SimConfig       `yaml:"sim"`
	InitState InitStateConfig `yaml:"init_state"`
	SpeedLoop SpeedLoopConfig `yaml:"speed_loop"`
}

type SimConfig struct {
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Substeps   int     `yaml:"substeps"`
	Decimate   int     `yaml:"decimate"`
	Integrator string  `yaml:"integrator"`
	Controller string  `yaml:"controller"`
	Adaptive   bool    `yaml:"adaptive"`
	Tolerance  float64 `yaml:"tolerance"`
	// CoastAfter is when the coast controller opens every switch.
	CoastAfter float64 `yaml:"coast_after"`
}

type InitStateConfig struct {
	Theta float64 `yaml:"theta"`
	Omega float64 `yaml:"omega"`
	IU    float64 `yaml:"iu"`
	IV    float64 `yaml:"iv"`
	IW    float64 `yaml:"iw"`
}

type SpeedLoopConfig struct {
	Target float64 `yaml:"target"` // rad/s
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
}

func DefaultConfig() *Config {
	return &Config{
		Motor: bldc.DefaultParams(),
		PWM:   control.DefaultConfig(),
		Sim: SimConfig{
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			Substeps:   1,
			Decimate:   DefaultDecimate,
			Integrator: DefaultIntegrator,
			Controller: DefaultController,
			Tolerance:  DefaultTolerance,
			CoastAfter: DefaultDuration / 2,
		},
		InitState: InitStateConfig{
			Omega: DefaultOmega,
		},
		SpeedLoop: SpeedLoopConfig{
			Target: 300,
			Kp:     0.002,
			Ki:     0.5,
		},
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto reads a YAML file over a copy of base.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	err := multierr.Combine(
		c.Motor.Validate(),
		c.PWM.Validate(),
	)

	bad := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{bldc.ErrParameterBounds}, args...)...))
	}
	if !(c.Sim.Dt > 0) {
		bad("sim.dt must be positive, got %g", c.Sim.Dt)
	}
	if !(c.Sim.Duration > 0) {
		bad("sim.duration must be positive, got %g", c.Sim.Duration)
	}
	if c.Sim.Substeps < 1 {
		bad("sim.substeps must be at least 1, got %d", c.Sim.Substeps)
	}
	if c.Sim.Decimate < 1 {
		bad("sim.decimate must be at least 1, got %d", c.Sim.Decimate)
	}
	if c.Sim.Adaptive && !(c.Sim.Tolerance > 0) {
		bad("sim.tolerance must be positive for adaptive stepping, got %g", c.Sim.Tolerance)
	}
	if c.InitState.Omega == 0 {
		err = multierr.Append(err, fmt.Errorf("init_state.omega: %w", bldc.ErrSingularSpeed))
	}
	return err
}

// GetInitState returns (θ, ω, i_u, i_v, i_w).
func (c *Config) GetInitState() dynamo.State {
	return bldc.State{
		Theta: c.InitState.Theta,
		Omega: c.InitState.Omega,
		IU:    c.InitState.IU,
		IV:    c.InitState.IV,
		IW:    c.InitState.IW,
	}.Vector()
}

func (c *Config) GetSimConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = c.Sim.Dt
	cfg.Duration = c.Sim.Duration
	cfg.Substeps = c.Sim.Substeps
	cfg.Decimate = c.Sim.Decimate
	cfg.Adaptive = c.Sim.Adaptive
	if c.Sim.Tolerance > 0 {
		cfg.Tolerance = c.Sim.Tolerance
	}
	return cfg
}

func (c *Config) GetControllerParams() map[string]float64 {
	return map[string]float64{
		"kp":          c.SpeedLoop.Kp,
		"ki":          c.SpeedLoop.Ki,
		"kd":          c.SpeedLoop.Kd,
		"target":      c.SpeedLoop.Target,
		"duty":        c.PWM.Duty,
		"frequency":   c.PWM.Frequency,
		"coast_after": c.Sim.CoastAfter,
	}
}

// Set assigns a tunable value by the name used in sweeps and tuning.
func (c *Config) Set(name string, value float64) error {
	switch name {
	case "duty":
		c.PWM.Duty = value
	case "frequency":
		c.PWM.Frequency = value
	case "kp":
		c.SpeedLoop.Kp = value
	case "ki":
		c.SpeedLoop.Ki = value
	case "kd":
		c.SpeedLoop.Kd = value
	case "target":
		c.SpeedLoop.Target = value
	case "load_torque":
		c.Motor.LoadTorque = value
	case "supply_voltage":
		c.Motor.SupplyVoltage = value
	case "static_friction":
		c.Motor.StaticFriction = value
	case "coast_after":
		c.Sim.CoastAfter = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
