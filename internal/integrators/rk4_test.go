package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	var err error
	for i := 0; i < steps; i++ {
		x, err = integ.Step(dyn, x, nil, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerFirstOrder(t *testing.T) {
	dyn := &simpleDynamics{}
	x, err := NewEuler().Step(dyn, dynamo.State{1, 0}, nil, 0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if x[0] != 1 || x[1] != -0.1 {
		t.Errorf("got %v, want [1 -0.1]", x)
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	dyn := &simpleDynamics{}
	for name, integ := range map[string]dynamo.Integrator{
		"euler": NewEuler(),
		"rk4":   NewRK4(),
		"rk45":  NewRK45(),
	} {
		x0 := dynamo.State{1, 0}
		if _, err := integ.Step(dyn, x0, nil, 0, 0.01); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if x0[0] != 1 || x0[1] != 0 {
			t.Errorf("%s mutated its input: %v", name, x0)
		}
	}
}

func TestDeriveErrorPropagates(t *testing.T) {
	motor := bldc.NewMotor(bldc.DefaultParams())
	// a rotor at rest has no defined friction direction
	x := bldc.State{Theta: 0.5}.Vector()
	u := bldc.Switches{LowU: true, HighV: true}.Control()

	for name, integ := range map[string]dynamo.Integrator{
		"euler": NewEuler(),
		"rk4":   NewRK4(),
		"rk45":  NewRK45(),
	} {
		_, err := integ.Step(motor, x, u, 0, 1e-6)
		if !errors.Is(err, bldc.ErrSingularSpeed) {
			t.Errorf("%s: expected ErrSingularSpeed, got %v", name, err)
		}
	}
}

func TestMotorRK4MatchesEulerForSmallSteps(t *testing.T) {
	motor := bldc.NewMotor(bldc.DefaultParams())
	x0 := bldc.State{Theta: 0.5, Omega: 100}.Vector()
	u := bldc.Switches{LowU: true, HighV: true}.Control()

	xe, xr := x0.Clone(), x0.Clone()
	euler, rk4 := NewEuler(), NewRK4()
	dt := 1e-8
	var err error
	for i := 0; i < 100; i++ {
		if xe, err = euler.Step(motor, xe, u, float64(i)*dt, dt); err != nil {
			t.Fatal(err)
		}
		if xr, err = rk4.Step(motor, xr, u, float64(i)*dt, dt); err != nil {
			t.Fatal(err)
		}
	}

	for i := range xe {
		scale := math.Max(1, math.Abs(xr[i]))
		if math.Abs(xe[i]-xr[i])/scale > 1e-3 {
			t.Errorf("component %d diverged: euler=%g rk4=%g", i, xe[i], xr[i])
		}
	}
}
