// Package bldc models a three-phase brushless DC motor driven by a
// six-switch inverter.
//
// The package is the electromechanical core of the simulator:
//
//   - [NormalizeAngle], [Trapezoid]: angle helpers and the back-EMF shape
//   - [Motor.Reconstruct]: terminal and star-point voltages for a switch vector
//   - [Motor.Dynamics]: rotor and phase-current derivatives plus a [Debug] vector
//
// [Motor] also implements [dynamo.System] so any integrator can advance it.
//
// # Limitations
//
// Freewheeling-diode conduction is not modelled. A floating phase is assumed
// to carry zero current, which only holds under continuous conduction. Use
// [Voltages.Freewheeling] to find the samples where that assumption breaks.
package bldc
