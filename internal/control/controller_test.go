package control

import (
	"testing"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

func TestPID(t *testing.T) {
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0)
	ctrl.Min, ctrl.Max = -100, 100
	u := ctrl.Update(1.0, 0.0)
	if u >= 0 {
		t.Error("PID should output negative control for positive error")
	}
}

func TestPIDClampAndAntiWindup(t *testing.T) {
	ctrl := NewPID(1, 100, 0, 1000)

	for i := 0; i < 100; i++ {
		if u := ctrl.Update(0, float64(i)*0.01); u != 1 {
			t.Fatalf("step %d: expected saturated output 1, got %v", i, u)
		}
	}
	if ctrl.integral != 0 {
		t.Errorf("integral wound up to %v while saturated", ctrl.integral)
	}

	ctrl.Reset()
	if !ctrl.first {
		t.Error("Reset should restart the derivative history")
	}
}

func TestPIDParams(t *testing.T) {
	ctrl := NewPID(1, 2, 3, 4)
	if err := ctrl.SetParam("Kd", 7); err != nil {
		t.Fatal(err)
	}
	if ctrl.GetParams()["Kd"] != 7 {
		t.Error("Kd not updated")
	}
	if err := ctrl.SetParam("nope", 1); err == nil {
		t.Error("expected error for unknown param")
	}
}

func TestSpeedLoop(t *testing.T) {
	six := NewSixStep(bldc.DefaultParams(), DefaultConfig())
	loop := NewSpeedLoop(six, NewPID(0.01, 0, 0, 500))

	u := loop.Compute(dynamo.State{0.5, 0, 0, 0, 0}, 0)
	if loop.Duty() != 1 {
		t.Errorf("expected full duty far below target, got %v", loop.Duty())
	}
	sw, err := bldc.SwitchesFrom(u)
	if err != nil {
		t.Fatal(err)
	}
	if !sw.HighU {
		t.Errorf("expected the high side to conduct at full duty, got %s", sw)
	}

	loop.Reset()
	loop.Compute(dynamo.State{0.5, 1000, 0, 0, 0}, 1e-3)
	if loop.Duty() != 0 {
		t.Errorf("expected zero duty above target, got %v", loop.Duty())
	}
	sw, _ = bldc.SwitchesFrom(loop.Compute(dynamo.State{0.5, 1000, 0, 0, 0}, 1e-3+1e-6))
	if sw.HighU || sw.HighV || sw.HighW {
		t.Errorf("expected no high-side conduction at zero duty, got %s", sw)
	}
}

func TestCoast(t *testing.T) {
	six := NewSixStep(bldc.DefaultParams(), DefaultConfig())
	c := NewCoast(six, 1e-3)
	x := dynamo.State{0.5, 100, 0, 0, 0}

	before, _ := bldc.SwitchesFrom(c.Compute(x, 0))
	if before == (bldc.Switches{}) {
		t.Error("expected drive before the coast time")
	}
	after, _ := bldc.SwitchesFrom(c.Compute(x, 2e-3))
	if after != (bldc.Switches{}) {
		t.Errorf("expected all switches open after coast time, got %s", after)
	}

	if u := NewCoast(nil, 0).Compute(x, 0); len(u) != 6 {
		t.Errorf("expected six switches, got %d", len(u))
	}
}
