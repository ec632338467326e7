package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// Simulator drives a system with a zero-order-hold controller: the control
// is computed once per macro step and held while the integrator advances
// the state across it.
type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer

	nextDt float64
}

func New(dyn dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) System() dynamo.System { return s.dyn }

// Run simulates from x0 over cfg.Duration and records every cfg.Decimate-th
// macro step. Each recorded sample holds the state, the control applied from
// that state and, when the system is a [dynamo.Debugger], its diagnostic
// vector. On failure the partial result is returned together with a
// [*dynamo.SimulationError].
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(x0, cfg); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	samples := steps/cfg.Decimate + 1
	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, samples),
		Controls: make([]dynamo.Control, 0, samples),
		Times:    make([]float64, 0, samples),
		Metrics:  make(map[string]float64),
	}
	debugger, hasDebug := s.dyn.(dynamo.Debugger)
	if hasDebug {
		result.Debug = make([][]float64, 0, samples)
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	s.nextDt = 0

	x := x0.Clone()
	for k := 0; k <= steps; k++ {
		select {
		case <-ctx.Done():
			return result, &dynamo.SimulationError{Step: k, Time: float64(k) * cfg.Dt, State: x, Wrapped: fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, ctx.Err())}
		default:
		}

		t := float64(k) * cfg.Dt
		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		if k%cfg.Decimate == 0 {
			if hasDebug {
				dbg, err := debugger.Debug(x, u, t)
				if err != nil {
					return result, &dynamo.SimulationError{Step: k, Time: t, State: x, Wrapped: err}
				}
				result.Debug = append(result.Debug, dbg)
			}
			result.States = append(result.States, x.Clone())
			result.Controls = append(result.Controls, u.Clone())
			result.Times = append(result.Times, t)
		}

		if k == steps {
			break
		}

		next, err := s.advance(x, u, t, cfg)
		if err != nil {
			return result, &dynamo.SimulationError{Step: k, Time: t, State: x, Wrapped: err}
		}
		x = next
		result.StepsTaken++
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback streams every macro step to callback without recording.
// Returning false from the callback stops the run early.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg dynamo.Config, callback func(dynamo.State, dynamo.Control, float64) bool) error {
	if err := s.validateConfig(x0, cfg); err != nil {
		return err
	}
	s.nextDt = 0

	x := x0.Clone()
	steps := cfg.Steps()
	for k := 0; k <= steps; k++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		t := float64(k) * cfg.Dt
		u := s.controller.Compute(x, t)
		if !callback(x, u, t) || k == steps {
			return nil
		}

		next, err := s.advance(x, u, t, cfg)
		if err != nil {
			return &dynamo.SimulationError{Step: k, Time: t, State: x, Wrapped: err}
		}
		x = next
	}

	return nil
}

// Step computes the control for x at time t and advances one macro step.
// It is meant for interactive front ends that pace the simulation
// themselves; the configuration is not revalidated.
func (s *Simulator) Step(x dynamo.State, t float64, cfg dynamo.Config) (dynamo.State, dynamo.Control, error) {
	u := s.controller.Compute(x, t)
	next, err := s.advance(x, u, t, cfg)
	if err != nil {
		return nil, u, err
	}
	return next, u, nil
}

// Validate checks cfg and x0 against the simulator.
func (s *Simulator) Validate(x0 dynamo.State, cfg dynamo.Config) error {
	return s.validateConfig(x0, cfg)
}

// advance carries x from t to t+cfg.Dt with the control held at u.
func (s *Simulator) advance(x dynamo.State, u dynamo.Control, t float64, cfg dynamo.Config) (dynamo.State, error) {
	var err error
	if cfg.Adaptive {
		x, err = s.adaptiveStep(x, u, t, cfg)
		if err != nil {
			return nil, err
		}
	} else {
		h := cfg.Dt / float64(cfg.Substeps)
		for j := 0; j < cfg.Substeps; j++ {
			x, err = s.integrator.Step(s.dyn, x, u, t+float64(j)*h, h)
			if err != nil {
				return nil, err
			}
		}
	}

	if w, ok := s.dyn.(dynamo.Wrapper); ok {
		x = w.Wrap(x)
	}
	if cfg.ValidateState && !x.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return x, nil
}

// adaptiveStep covers exactly one macro step with as many accepted adaptive
// steps as the tolerance demands. The last accepted step size carries over
// to the next macro step.
func (s *Simulator) adaptiveStep(x dynamo.State, u dynamo.Control, t float64, cfg dynamo.Config) (dynamo.State, error) {
	adaptive := s.integrator.(dynamo.AdaptiveIntegrator)

	remaining := cfg.Dt
	h := cfg.Dt
	if s.nextDt > 0 && s.nextDt < h {
		h = s.nextDt
	}

	for remaining > 0 {
		last := h >= remaining
		if last {
			h = remaining
		}

		next, hNext, err := adaptive.StepAdaptive(s.dyn, x, u, t, h, cfg.Tolerance)
		if errors.Is(err, dynamo.ErrStepRejected) {
			if hNext < cfg.MinDt {
				return nil, fmt.Errorf("%w: %g < %g", dynamo.ErrStepTooSmall, hNext, cfg.MinDt)
			}
			h = hNext
			continue
		}
		if err != nil {
			return nil, err
		}

		x = next
		t += h
		if last {
			remaining = 0
		} else {
			remaining -= h
		}
		s.nextDt = hNext
		h = hNext
	}

	return x, nil
}

func (s *Simulator) validateConfig(x0 dynamo.State, cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", cfg.Duration)
	}
	if cfg.Substeps < 1 {
		return fmt.Errorf("substeps must be at least 1, got %d", cfg.Substeps)
	}
	if cfg.Decimate < 1 {
		return fmt.Errorf("decimate must be at least 1, got %d", cfg.Decimate)
	}
	if cfg.Adaptive {
		if cfg.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		if _, ok := s.integrator.(dynamo.AdaptiveIntegrator); !ok {
			return dynamo.ErrNoAdaptive
		}
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: initial state has %d components, system expects %d", dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	return nil
}
