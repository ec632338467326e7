package metrics

import (
	"math"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// EnergyDrift is the largest deviation of the stored energy from its first
// sample, relative to the peak energy seen so far. A rotor spun up from
// rest therefore reports at most 1 instead of dividing by a near-zero
// starting energy. Systems that are not [dynamo.Hamiltonian] report zero.
type EnergyDrift struct {
	dyn dynamo.System

	initial  float64
	current  float64
	peak     float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(dyn dynamo.System) *EnergyDrift {
	return &EnergyDrift{dyn: dyn}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	h, ok := e.dyn.(dynamo.Hamiltonian)
	if !ok {
		return
	}

	energy := h.Energy(x)
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.peak = math.Max(e.peak, math.Abs(energy))
	e.samples++

	if e.peak > 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e.initial)/e.peak)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Final is the energy at the last sample, in joules.
func (e *EnergyDrift) Final() float64 { return e.current }

// Peak is the largest stored energy seen, in joules.
func (e *EnergyDrift) Peak() float64 { return e.peak }

func (e *EnergyDrift) Reset() {
	*e = EnergyDrift{dyn: e.dyn}
}
