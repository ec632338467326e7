package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type Control []float64

func (c Control) Clone() Control {
	out := make(Control, len(c))
	copy(out, c)
	return out
}

// System is the right-hand side of an initial value problem.
type System interface {
	Derive(x State, u Control, t float64) (State, error)
	StateDim() int
	ControlDim() int
}

// Hamiltonian systems expose their stored energy.
type Hamiltonian interface {
	Energy(x State) float64
}

// Wrapper normalises a state after every integration step, e.g. unwinding
// an angle back into [0, 2π).
type Wrapper interface {
	Wrap(x State) State
}

// Debugger exposes a diagnostic vector alongside the derivative. The vector
// is recorded for observability and never fed back into the dynamics.
type Debugger interface {
	Debug(x State, u Control, t float64) ([]float64, error)
	DebugLabels() []string
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) (State, error)
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Dt            float64
	Duration      float64
	Substeps      int
	Decimate      int
	Tolerance     float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1e-6,
		Duration:      1e-2,
		Substeps:      1,
		Decimate:      1,
		Tolerance:     1e-6,
		MinDt:         1e-12,
		Adaptive:      false,
		ValidateState: true,
	}
}

// Steps returns the number of macro steps covering the configured duration.
func (c Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

type Result struct {
	States     []State
	Controls   []Control
	Debug      [][]float64
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
}
