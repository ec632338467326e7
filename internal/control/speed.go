package control

import (
	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// SpeedLoop regulates rotor speed by letting a PID choose the PWM duty of
// six-step commutation. The PID target is in rad/s.
type SpeedLoop struct {
	six  *SixStep
	pid  *PID
	duty float64
}

func NewSpeedLoop(six *SixStep, pid *PID) *SpeedLoop {
	pid.Min, pid.Max = 0, 1
	return &SpeedLoop{six: six, pid: pid, duty: six.cfg.Duty}
}

func (s *SpeedLoop) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) < 2 {
		return bldc.Switches{}.Control()
	}
	s.duty = s.pid.Update(x[1], t)
	return s.six.commutate(x[0], t, s.duty).Control()
}

// Duty is the duty applied by the most recent Compute.
func (s *SpeedLoop) Duty() float64 { return s.duty }

func (s *SpeedLoop) Reset() {
	s.pid.Reset()
	s.duty = s.six.cfg.Duty
}

func (s *SpeedLoop) GetParams() map[string]float64 { return s.pid.GetParams() }

func (s *SpeedLoop) SetParam(name string, value float64) error {
	return s.pid.SetParam(name, value)
}
