package experiment

import (
	"context"
	"fmt"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/config"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
	"github.com/igorwolfs/bldc-pysim/internal/sim"
)

// Experiment is one fully wired run: motor, integrator, controller and
// metrics, all taken from a validated configuration.
type Experiment struct {
	cfg       *config.Config
	motor     *bldc.Motor
	simulator *sim.Simulator
}

func New(reg *Registry, cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	integ, err := reg.GetIntegrator(cfg.Sim.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := reg.GetController(cfg.Sim.Controller, cfg)
	if err != nil {
		return nil, err
	}

	motor := bldc.NewMotor(cfg.Motor)
	s := sim.New(motor, integ, ctrl)
	for _, m := range reg.DefaultMetrics(motor) {
		s.AddMetric(m)
	}

	return &Experiment{cfg: cfg, motor: motor, simulator: s}, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.simulator.Run(ctx, e.cfg.GetInitState(), e.cfg.GetSimConfig())
}

// Job packages the experiment for [sim.Sweep].
func (e *Experiment) Job(name string) sim.Job {
	return sim.Job{
		Name:      name,
		Simulator: e.simulator,
		X0:        e.cfg.GetInitState(),
		Config:    e.cfg.GetSimConfig(),
	}
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Motor() *bldc.Motor     { return e.motor }
func (e *Experiment) Config() *config.Config { return e.cfg }
