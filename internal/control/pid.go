package control

import "fmt"

// PID is a discrete PID regulator driven by the measured value and its
// sample time. Output is clamped to [Min, Max]; the integral stops winding
// while the output saturates.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	Min, Max float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		Min:    0,
		Max:    1,
		first:  true,
	}
}

func (p *PID) Update(measured, t float64) float64 {
	err := p.Target - measured

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.clamp(p.Kp * err)
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.clamp(p.Kp*err + p.Ki*p.integral)
	}

	integral := p.integral + err*dt
	derivative := (err - p.prevErr) / dt
	raw := p.Kp*err + p.Ki*integral + p.Kd*derivative
	out := p.clamp(raw)
	if out == raw {
		p.integral = integral
	}

	p.prevErr = err
	p.prevT = t
	return out
}

func (p *PID) clamp(v float64) float64 {
	if v < p.Min {
		return p.Min
	}
	if v > p.Max {
		return p.Max
	}
	return v
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
