package bldc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// Motor is a BLDC motor with trapezoidal back-EMF behind a six-switch
// inverter. It holds no state between calls.
type Motor struct {
	Params Params
}

func NewMotor(p Params) *Motor {
	return &Motor{Params: p}
}

func (m *Motor) StateDim() int   { return len(StateLabels) }
func (m *Motor) ControlDim() int { return len(SwitchLabels) }

// BackEMF returns the per-phase back-EMF. Phases are spaced 120° electrical.
func (m *Motor) BackEMF(x State) ([3]float64, error) {
	var emf [3]float64
	peak := x.Omega * RadPerSecToRPM / m.Params.Kv
	for _, p := range Phases {
		angle := NormalizeAngle(x.Theta*m.Params.ElectricalRatio() + float64(p)*TwoPi/3)
		shape, err := Trapezoid(angle)
		if err != nil {
			return emf, fmt.Errorf("back-emf phase %s: %w", p, err)
		}
		emf[p] = peak * shape
	}
	return emf, nil
}

// ApplyStaticFriction removes a symmetric dead-band of width friction around
// zero torque. Torques inside the band, boundary included, become zero.
func ApplyStaticFriction(torque, friction float64) float64 {
	switch {
	case math.Abs(torque) <= friction:
		return 0
	case torque > 0:
		return torque - friction
	default:
		return torque + friction
	}
}

// Dynamics returns dx/dt for state x under switches sw, together with the
// back-EMF and voltage diagnostics of the evaluation.
func (m *Motor) Dynamics(x State, t float64, sw Switches) (State, Debug, error) {
	p := m.Params

	emf, err := m.BackEMF(x)
	if err != nil {
		return State{}, Debug{}, err
	}

	if x.Omega == 0 {
		return State{}, Debug{}, fmt.Errorf("t=%g: %w", t, ErrSingularSpeed)
	}
	currents := x.Currents()
	etorque := floats.Dot(emf[:], currents[:]) / x.Omega

	mtorque := etorque*p.ElectricalRatio() - p.Damping()*x.Omega - p.LoadTorque
	mtorque = ApplyStaticFriction(mtorque, p.StaticFriction)

	v, err := ReconstructVoltages(sw, emf, p.SupplyVoltage)
	if err != nil {
		return State{}, Debug{}, err
	}

	l := p.Inductance()
	dx := State{
		Theta: x.Omega,
		Omega: mtorque / p.Inertia,
		IU:    (v.U - p.Resistance*x.IU - emf[PhaseU] - v.Star) / l,
		IV:    (v.V - p.Resistance*x.IV - emf[PhaseV] - v.Star) / l,
		IW:    (v.W - p.Resistance*x.IW - emf[PhaseW] - v.Star) / l,
	}
	dbg := Debug{
		EmfU: emf[PhaseU], EmfV: emf[PhaseV], EmfW: emf[PhaseW],
		VU: v.U, VV: v.V, VW: v.W,
		Star: v.Star,
	}
	return dx, dbg, nil
}

// Output returns currents, terminal voltages, angle and speed.
func (m *Motor) Output(x State, sw Switches) (Output, error) {
	v, err := m.Reconstruct(x, sw)
	if err != nil {
		return Output{}, err
	}
	return Output{
		IU: x.IU, IV: x.IV, IW: x.IW,
		VU: v.U, VV: v.V, VW: v.W,
		Theta: x.Theta, Omega: x.Omega,
	}, nil
}

func (m *Motor) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	s, sw, err := unpack(x, u)
	if err != nil {
		return nil, err
	}
	dx, _, err := m.Dynamics(s, t, sw)
	if err != nil {
		return nil, err
	}
	return dx.Vector(), nil
}

func (m *Motor) Debug(x dynamo.State, u dynamo.Control, t float64) ([]float64, error) {
	s, sw, err := unpack(x, u)
	if err != nil {
		return nil, err
	}
	_, dbg, err := m.Dynamics(s, t, sw)
	if err != nil {
		return nil, err
	}
	return dbg.Slice(), nil
}

func (m *Motor) DebugLabels() []string {
	return DebugLabels
}

// Wrap brings the rotor angle back into [0, 2π).
func (m *Motor) Wrap(x dynamo.State) dynamo.State {
	out := x.Clone()
	if len(out) > 0 {
		out[0] = NormalizeAngle(out[0])
	}
	return out
}

// Energy is the kinetic energy of the rotor plus the magnetic energy stored
// in the phase inductances.
func (m *Motor) Energy(x dynamo.State) float64 {
	s, err := StateFrom(x)
	if err != nil {
		return 0
	}
	currents := s.Currents()
	return 0.5*m.Params.Inertia*s.Omega*s.Omega + 0.5*m.Params.Inductance()*floats.Dot(currents[:], currents[:])
}

func (m *Motor) GetParams() map[string]float64 {
	p := m.Params
	return map[string]float64{
		"inertia":         p.Inertia,
		"kv":              p.Kv,
		"resistance":      p.Resistance,
		"supply_voltage":  p.SupplyVoltage,
		"static_friction": p.StaticFriction,
		"load_torque":     p.LoadTorque,
	}
}

func (m *Motor) SetParam(name string, value float64) error {
	p := m.Params
	switch name {
	case "inertia":
		p.Inertia = value
	case "kv":
		p.Kv = value
	case "resistance":
		p.Resistance = value
	case "supply_voltage":
		p.SupplyVoltage = value
	case "static_friction":
		p.StaticFriction = value
	case "load_torque":
		p.LoadTorque = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	m.Params = p
	return nil
}

func unpack(x dynamo.State, u dynamo.Control) (State, Switches, error) {
	s, err := StateFrom(x)
	if err != nil {
		return State{}, Switches{}, err
	}
	sw, err := SwitchesFrom(u)
	if err != nil {
		return State{}, Switches{}, err
	}
	return s, sw, nil
}
