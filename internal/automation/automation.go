package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/config"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
	"github.com/igorwolfs/bldc-pysim/internal/experiment"
	"github.com/igorwolfs/bldc-pysim/internal/sim"
)

// Scenario defines a scripted set of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run of a scenario: a preset plus overrides. Empty
// fields keep the preset's value.
type ScenarioStep struct {
	Label      string             `yaml:"label"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Controller string             `yaml:"controller"`
	Duration   float64            `yaml:"duration"`
	Params     map[string]float64 `yaml:"params"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step into a full configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	name := s.Preset
	if name == "" {
		name = "reference"
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}

	if s.Integrator != "" {
		cfg.Sim.Integrator = s.Integrator
	}
	if s.Controller != "" {
		cfg.Sim.Controller = s.Controller
	}
	if s.Duration > 0 {
		cfg.Sim.Duration = s.Duration
	}
	for k, v := range s.Params {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Name labels the step, falling back to its position.
func (s ScenarioStep) Name(i int) string {
	if s.Label != "" {
		return s.Label
	}
	return fmt.Sprintf("step%d", i+1)
}

// RunScenario executes all steps concurrently, at most limit at a time.
// Results and configs keep the order of the steps.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, limit int) ([]*dynamo.Result, []*config.Config, error) {
	jobs := make([]sim.Job, 0, len(scenario.Steps))
	configs := make([]*config.Config, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(registry, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		jobs = append(jobs, exp.Job(step.Name(i)))
		configs = append(configs, cfg)
	}

	results, err := sim.Sweep(ctx, jobs, limit)
	if err != nil {
		return nil, nil, err
	}
	return results, configs, nil
}

// MonteCarloConfig repeats a run from random rotor start angles.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	// Initial angles are drawn uniformly from [0, AngleSpread).
	AngleSpread float64
	Seed        int64
	Limit       int
}

// MonteCarloResult is one trial. Err is set when the simulation failed;
// the other trials still run.
type MonteCarloResult struct {
	TrialID    int
	Theta0     float64
	FinalSpeed float64 // RPM
	Metrics    map[string]float64
	Err        error
}

func (r MonteCarloResult) Completed() bool { return r.Err == nil }

// RunMonteCarlo runs the trials concurrently. Only context cancellation
// aborts the batch.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", cfg.NumTrials)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	spread := cfg.AngleSpread
	if spread <= 0 {
		spread = 2 * math.Pi
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	for trial := range results {
		results[trial] = MonteCarloResult{TrialID: trial, Theta0: rng.Float64() * spread}
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Limit > 0 {
		g.SetLimit(cfg.Limit)
	}

	for i := range results {
		g.Go(func() error {
			r := &results[i]
			trialCfg := cfg.Base.Clone()
			trialCfg.InitState.Theta = r.Theta0

			exp, err := experiment.New(registry, trialCfg)
			if err != nil {
				r.Err = err
				return nil
			}
			res, err := exp.Run(ctx)
			if errors.Is(err, dynamo.ErrContextCanceled) {
				return err
			}
			if err != nil {
				r.Err = err
				return nil
			}

			r.Metrics = res.Metrics
			if n := len(res.States); n > 0 {
				r.FinalSpeed = res.States[n-1][1] * bldc.RadPerSecToRPM
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloSummary aggregates the completed trials.
type MonteCarloSummary struct {
	Completed int
	Failed    int
	MeanSpeed float64
	StdSpeed  float64
	MinSpeed  float64
	MaxSpeed  float64
}

func MonteCarloStats(results []MonteCarloResult) MonteCarloSummary {
	var s MonteCarloSummary
	speeds := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Completed() {
			s.Completed++
			speeds = append(speeds, r.FinalSpeed)
		} else {
			s.Failed++
		}
	}
	if len(speeds) == 0 {
		return s
	}

	s.MeanSpeed, s.StdSpeed = stat.MeanStdDev(speeds, nil)
	s.MinSpeed, s.MaxSpeed = speeds[0], speeds[0]
	for _, v := range speeds[1:] {
		s.MinSpeed = math.Min(s.MinSpeed, v)
		s.MaxSpeed = math.Max(s.MaxSpeed, v)
	}
	return s
}
