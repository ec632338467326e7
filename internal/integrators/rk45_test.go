package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }

func (h *harmonicOscillator) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	var err error
	for i := 0; i < 1000; i++ {
		x, err = integrator.Step(dyn, x, nil, float64(i)*dt, dt)
		if err != nil {
			t.Fatal(err)
		}
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	var err error
	for i := 0; i < 10000; i++ {
		x, err = integrator.Step(dyn, x, nil, float64(i)*dt, dt)
		if err != nil {
			t.Fatal(err)
		}
	}

	finalEnergy := dyn.Energy(x)
	drift := math.Abs(finalEnergy-initialEnergy) / initialEnergy

	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(dyn, x0, nil, 0, 0.01, 1e-6)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}

	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}

	if newDt < 0.01 {
		t.Errorf("accepted step should not shrink dt, got %g", newDt)
	}
}

func TestRK45_AdaptiveRejects(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(dyn, x0, nil, 0, 2.0, 1e-12)
	if !errors.Is(err, dynamo.ErrStepRejected) {
		t.Fatalf("expected ErrStepRejected, got %v", err)
	}
	if newDt >= 2.0 || newDt <= 0 {
		t.Errorf("rejected step should shrink dt, got %g", newDt)
	}
	if x[0] != x0[0] || x[1] != x0[1] {
		t.Errorf("rejected step must return the input state, got %v", x)
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x4 := x0.Clone()
	x45 := x0.Clone()
	dt := 0.1

	var err error
	for i := 0; i < 100; i++ {
		if x4, err = rk4.Step(dyn, x4, nil, float64(i)*dt, dt); err != nil {
			t.Fatal(err)
		}
		if x45, err = rk45.Step(dyn, x45, nil, float64(i)*dt, dt); err != nil {
			t.Fatal(err)
		}
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	e4 := dyn.Energy(x4)
	e45 := dyn.Energy(x45)

	if math.Abs(e45-0.5) > math.Abs(e4-0.5) {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}
