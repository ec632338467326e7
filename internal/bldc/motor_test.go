package bldc

import (
	"errors"
	"math"
	"testing"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

func TestMotorDimensions(t *testing.T) {
	m := NewMotor(DefaultParams())
	if m.StateDim() != 5 {
		t.Errorf("expected state dim 5, got %d", m.StateDim())
	}
	if m.ControlDim() != 6 {
		t.Errorf("expected control dim 6, got %d", m.ControlDim())
	}
}

func TestDefaultParamsMatchReference(t *testing.T) {
	p := DefaultParams()
	if math.Abs(p.Inductance()-0.00276) > 1e-15 {
		t.Errorf("expected L-M 0.00276, got %v", p.Inductance())
	}
	if math.Abs(p.Kv-30.96) > 0.01 {
		t.Errorf("expected Kv ~30.96, got %v", p.Kv)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default params invalid: %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	p.Inertia = 0
	p.Kv = -1
	p.MutualInductance = p.SelfInductance

	err := p.Validate()
	if !errors.Is(err, ErrParameterBounds) {
		t.Fatalf("expected ErrParameterBounds, got %v", err)
	}
}

func TestSinglePhaseScenario(t *testing.T) {
	m := NewMotor(DefaultParams())
	x := State{Theta: 0, Omega: 1e-4}
	sw := Switches{LowU: true}

	emf, err := m.BackEMF(x)
	if err != nil {
		t.Fatal(err)
	}
	v, err := m.Reconstruct(x, sw)
	if err != nil {
		t.Fatal(err)
	}

	if v.U != 0 {
		t.Errorf("expected V_u = 0, got %v", v.U)
	}
	if v.Star != 0-emf[PhaseU] {
		t.Errorf("expected star = -emf_u = %v, got %v", -emf[PhaseU], v.Star)
	}
	if v.V != v.Star+emf[PhaseV] || v.W != v.Star+emf[PhaseW] {
		t.Errorf("floating phases not referenced to star: %+v emf %v", v, emf)
	}
	if v.V+v.W != 2*v.Star+emf[PhaseV]+emf[PhaseW] {
		t.Errorf("V_v + V_w = %v, want %v", v.V+v.W, 2*v.Star+emf[PhaseV]+emf[PhaseW])
	}
}

func TestBackEMFShape(t *testing.T) {
	m := NewMotor(DefaultParams())
	omega := 100.0
	peak := omega * RadPerSecToRPM / m.Params.Kv

	// θ = π/4 mechanical is π/2 electrical with 4 pole pairs
	emf, err := m.BackEMF(State{Theta: math.Pi / 4, Omega: omega})
	if err != nil {
		t.Fatal(err)
	}
	want := [3]float64{peak, -peak, -peak}
	for _, p := range Phases {
		if math.Abs(emf[p]-want[p]) > 1e-9 {
			t.Errorf("emf %s = %v, want %v", p, emf[p], want[p])
		}
	}
}

func TestDynamicsIdle(t *testing.T) {
	m := NewMotor(DefaultParams())
	x := State{Theta: 0, Omega: 1e-3}

	dx, dbg, err := m.Dynamics(x, 0, Switches{})
	if err != nil {
		t.Fatal(err)
	}

	l := m.Params.Inductance()
	if dx.IU != 0 {
		t.Errorf("expected di_u/dt = 0 where emf_u = 0, got %v", dx.IU)
	}
	if math.Abs(dx.IV-(-dbg.EmfV/l)) > 1e-9 {
		t.Errorf("di_v/dt = %v, want %v", dx.IV, -dbg.EmfV/l)
	}
	if math.Abs(dx.IW-(-dbg.EmfW/l)) > 1e-9 {
		t.Errorf("di_w/dt = %v, want %v", dx.IW, -dbg.EmfW/l)
	}
	if dbg.VU != 0 || dbg.VV != 0 || dbg.VW != 0 || dbg.Star != 0 {
		t.Errorf("idle debug voltages should be zero, got %+v", dbg)
	}
	if dx.Theta != x.Omega {
		t.Errorf("dθ/dt = %v, want %v", dx.Theta, x.Omega)
	}
}

func TestDynamicsSinglePhaseAtRest(t *testing.T) {
	m := NewMotor(DefaultParams())
	x := State{Theta: 0, Omega: 1e-4}

	dx, _, err := m.Dynamics(x, 0, Switches{LowU: true})
	if err != nil {
		t.Fatal(err)
	}
	if dx.Omega != 0 {
		t.Errorf("static friction should hold the rotor, got α = %v", dx.Omega)
	}
	for name, v := range map[string]float64{"iu": dx.IU, "iv": dx.IV, "iw": dx.IW} {
		if math.Abs(v) > 1e-12 {
			t.Errorf("d%s/dt = %v, want 0", name, v)
		}
	}
}

func TestDynamicsMotoring(t *testing.T) {
	p := DefaultParams()
	m := NewMotor(p)
	x := State{Theta: math.Pi / 4, Omega: 100, IU: 4, IV: -4}

	dx, dbg, err := m.Dynamics(x, 0, Switches{HighU: true, LowV: true})
	if err != nil {
		t.Fatal(err)
	}

	te := (dbg.EmfU*x.IU + dbg.EmfV*x.IV + dbg.EmfW*x.IW) / x.Omega
	tm := te*p.PolePairs/2 - p.Damping()*x.Omega - p.LoadTorque - p.StaticFriction
	if math.Abs(dx.Omega-tm/p.Inertia) > 1e-6*math.Abs(tm/p.Inertia) {
		t.Errorf("α = %v, want %v", dx.Omega, tm/p.Inertia)
	}
	if dx.Omega <= 0 {
		t.Errorf("expected positive acceleration, got %v", dx.Omega)
	}

	want := (dbg.VU - p.Resistance*x.IU - dbg.EmfU - dbg.Star) / p.Inductance()
	if math.Abs(dx.IU-want) > 1e-9 {
		t.Errorf("di_u/dt = %v, want %v", dx.IU, want)
	}
}

func TestDynamicsSingularSpeed(t *testing.T) {
	m := NewMotor(DefaultParams())
	_, _, err := m.Dynamics(State{Omega: 0, IU: 1}, 0.5, Switches{LowU: true})
	if !errors.Is(err, ErrSingularSpeed) {
		t.Errorf("expected ErrSingularSpeed, got %v", err)
	}
}

func TestApplyStaticFriction(t *testing.T) {
	const f = 1.0
	tests := []struct {
		torque, want float64
	}{
		{0, 0},
		{0.5, 0},
		{-0.999, 0},
		{f, 0},
		{-f, 0},
		{1.5, 0.5},
		{-3, -2},
	}

	for _, tt := range tests {
		if got := ApplyStaticFriction(tt.torque, f); got != tt.want {
			t.Errorf("ApplyStaticFriction(%v) = %v, want %v", tt.torque, got, tt.want)
		}
	}
}

func TestDeriveMatchesDynamics(t *testing.T) {
	m := NewMotor(DefaultParams())
	x := State{Theta: 1.1, Omega: 250, IU: 0.3, IV: -0.1, IW: -0.2}
	sw := Switches{HighW: true, LowV: true}

	dx, dbg, err := m.Dynamics(x, 0.001, sw)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Derive(x.Vector(), sw.Control(), 0.001)
	if err != nil {
		t.Fatal(err)
	}
	want := dx.Vector()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Derive[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	debug, err := m.Debug(x.Vector(), sw.Control(), 0.001)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range dbg.Slice() {
		if debug[i] != v {
			t.Errorf("Debug[%d] = %v, want %v", i, debug[i], v)
		}
	}
}

func TestDeriveDimensionMismatch(t *testing.T) {
	m := NewMotor(DefaultParams())
	if _, err := m.Derive(dynamo.State{0, 1}, make(dynamo.Control, 6), 0); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch for short state, got %v", err)
	}
	if _, err := m.Derive(make(dynamo.State, 5), dynamo.Control{1}, 0); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch for short control, got %v", err)
	}
}

func TestOutput(t *testing.T) {
	m := NewMotor(DefaultParams())
	x := State{Theta: 0.2, Omega: 50, IU: 1, IV: -1}
	out, err := m.Output(x, Switches{HighU: true, LowV: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.IU != 1 || out.IV != -1 || out.Theta != 0.2 || out.Omega != 50 {
		t.Errorf("unexpected output %+v", out)
	}
	if out.VU != m.Params.SupplyVoltage || out.VV != 0 {
		t.Errorf("driven terminals wrong: %+v", out)
	}
}

func TestWrapAndEnergy(t *testing.T) {
	m := NewMotor(DefaultParams())

	x := m.Wrap(dynamo.State{TwoPi + 0.5, 10, 1, 2, 3})
	if math.Abs(x[0]-0.5) > 1e-12 {
		t.Errorf("expected wrapped angle 0.5, got %v", x[0])
	}

	e := m.Energy(dynamo.State{0, 10, 1, -1, 0})
	want := 0.5*m.Params.Inertia*100 + 0.5*m.Params.Inductance()*2
	if math.Abs(e-want) > 1e-15 {
		t.Errorf("energy = %v, want %v", e, want)
	}
}

func TestSwitchesRoundTrip(t *testing.T) {
	sw := Switches{LowU: true, HighW: true}
	u := sw.Control()
	if u[0] != 1 || u[5] != 1 || u[1] != 0 {
		t.Errorf("unexpected control vector %v", u)
	}
	back, err := SwitchesFrom(u)
	if err != nil {
		t.Fatal(err)
	}
	if back != sw {
		t.Errorf("round trip changed switches: %+v", back)
	}
	if sw.String() != "100001" {
		t.Errorf("String() = %q", sw.String())
	}
	if sw.SwapVW().SwapVW() != sw {
		t.Error("SwapVW is not an involution")
	}
}

func TestSetParam(t *testing.T) {
	m := NewMotor(DefaultParams())
	if err := m.SetParam("load_torque", 0.2); err != nil {
		t.Fatal(err)
	}
	if m.Params.LoadTorque != 0.2 {
		t.Errorf("load torque not applied")
	}
	if err := m.SetParam("inertia", -1); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("expected bounds error, got %v", err)
	}
	if m.Params.Inertia != DefaultParams().Inertia {
		t.Error("rejected parameter was applied")
	}
	if err := m.SetParam("bogus", 1); err == nil {
		t.Error("expected error for unknown param")
	}
}
