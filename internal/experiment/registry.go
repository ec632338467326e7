package experiment

import (
	"fmt"
	"sort"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/config"
	"github.com/igorwolfs/bldc-pysim/internal/control"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
	"github.com/igorwolfs/bldc-pysim/internal/integrators"
	"github.com/igorwolfs/bldc-pysim/internal/metrics"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	controllers map[string]func(*config.Config) dynamo.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]func(*config.Config) dynamo.Controller),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.controllers["sixstep"] = func(c *config.Config) dynamo.Controller {
		return control.NewSixStep(c.Motor, c.PWM)
	}
	r.controllers["speed"] = func(c *config.Config) dynamo.Controller {
		pid := control.NewPID(c.SpeedLoop.Kp, c.SpeedLoop.Ki, c.SpeedLoop.Kd, c.SpeedLoop.Target)
		return control.NewSpeedLoop(control.NewSixStep(c.Motor, c.PWM), pid)
	}
	r.controllers["coast"] = func(c *config.Config) dynamo.Controller {
		return control.NewCoast(control.NewSixStep(c.Motor, c.PWM), c.Sim.CoastAfter)
	}
	r.controllers["none"] = func(c *config.Config) dynamo.Controller {
		return control.NewCoast(nil, 0)
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, cfg *config.Config) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are recorded with every run. The current bound is the
// stall current of one driven phase pair.
func (r *Registry) DefaultMetrics(motor *bldc.Motor) []dynamo.Metric {
	p := motor.Params
	return []dynamo.Metric{
		metrics.NewMeanSpeed(),
		metrics.NewEnergyDrift(motor),
		metrics.NewCurrentLimit(p.SupplyVoltage / (2 * p.Resistance)),
		metrics.NewSwitchActivity(),
		metrics.NewConduction(motor),
	}
}
