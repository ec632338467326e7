package bldc

import (
	"fmt"

	"go.uber.org/multierr"
)

// Params is the immutable parameter set of one motor and its supply.
type Params struct {
	Inertia             float64 `yaml:"inertia"`               // kg·m²
	ShaftTimeConstant   float64 `yaml:"shaft_time_constant"`   // s, damping = Inertia / ShaftTimeConstant
	Kv                  float64 `yaml:"kv"`                    // RPM per volt
	SelfInductance      float64 `yaml:"self_inductance"`       // H
	MutualInductance    float64 `yaml:"mutual_inductance"`     // H
	Resistance          float64 `yaml:"resistance"`            // Ω per phase
	SupplyVoltage       float64 `yaml:"supply_voltage"`        // V
	PolePairs           float64 `yaml:"pole_pairs"`            // electrical angle = mechanical × PolePairs/2
	StaticFriction      float64 `yaml:"static_friction"`       // N·m
	LoadTorque          float64 `yaml:"load_torque"`           // N·m
	DiodeForwardVoltage float64 `yaml:"diode_forward_voltage"` // V, diagnostics only
}

func DefaultParams() Params {
	return Params{
		Inertia:             0.000007,
		ShaftTimeConstant:   0.006,
		Kv:                  1000.0 / 32.3,
		SelfInductance:      0.00207,
		MutualInductance:    -0.00069,
		Resistance:          11.9,
		SupplyVoltage:       100,
		PolePairs:           4,
		StaticFriction:      1,
		LoadTorque:          0,
		DiodeForwardVoltage: 1.3,
	}
}

// Damping is the viscous damping coefficient in N·m/(rad/s).
func (p Params) Damping() float64 {
	return p.Inertia / p.ShaftTimeConstant
}

// Inductance is the effective per-phase inductance L - M.
func (p Params) Inductance() float64 {
	return p.SelfInductance - p.MutualInductance
}

// ElectricalRatio scales a mechanical angle to an electrical one.
func (p Params) ElectricalRatio() float64 {
	return p.PolePairs / 2
}

// ElectricalAngle maps a mechanical rotor angle into [0, 2π) electrical.
func (p Params) ElectricalAngle(theta float64) float64 {
	return NormalizeAngle(theta * p.ElectricalRatio())
}

// Validate reports every parameter outside its valid range.
func (p Params) Validate() error {
	var err error
	positive := func(name string, v float64) {
		if !(v > 0) {
			err = multierr.Append(err, fmt.Errorf("%w: %s must be positive, got %g", ErrParameterBounds, name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) {
			err = multierr.Append(err, fmt.Errorf("%w: %s must not be negative, got %g", ErrParameterBounds, name, v))
		}
	}

	positive("inertia", p.Inertia)
	positive("shaft_time_constant", p.ShaftTimeConstant)
	positive("kv", p.Kv)
	positive("self_inductance - mutual_inductance", p.Inductance())
	positive("supply_voltage", p.SupplyVoltage)
	positive("pole_pairs", p.PolePairs)
	nonNegative("resistance", p.Resistance)
	nonNegative("static_friction", p.StaticFriction)
	nonNegative("diode_forward_voltage", p.DiodeForwardVoltage)
	return err
}
