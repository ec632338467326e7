// Package dynamo provides the shared simulation primitives used by the motor
// model, the controllers and the stepping loop.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Controller]: feedback controller interface
//   - [Metric], [Observer]: per-step observation hooks
//
// Systems may fail while deriving (a broken invariant, a singular input);
// every right-hand-side evaluation therefore returns an error which the
// integrators pass through unchanged.
//
// # Example
//
//	motor := bldc.NewMotor(bldc.DefaultParams())
//	integ := integrators.NewRK4()
//	s := sim.New(motor, integ, control.NewSixStep(motor.Params, control.DefaultPWM()))
//	result, err := s.Run(ctx, x0, cfg)
package dynamo
