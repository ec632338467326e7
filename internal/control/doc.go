// Package control provides inverter controllers for the BLDC motor.
//
// Controllers implement the [dynamo.Controller] interface and return the six
// switch commands as a [dynamo.Control] vector (lu, hu, lv, hv, lw, hw):
//
//   - [SixStep]: angle-table commutation with a fixed PWM duty
//   - [SpeedLoop]: six-step commutation whose duty a [PID] regulates
//   - [Coast]: drives with another controller, then opens every switch
//
// # Usage
//
//	six := control.NewSixStep(params, control.DefaultConfig())
//	s := sim.New(motor, integ, six)
//	// Controller.Compute is called once per macro step
//
// [SpeedLoop] implements [dynamo.Configurable] for live tuning.
package control
