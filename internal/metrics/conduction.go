package metrics

import (
	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// Conduction is the fraction of samples in which no floating phase would
// forward-bias a freewheeling diode. Below 1 the open-phase model is being
// used outside its range.
type Conduction struct {
	motor      *bldc.Motor
	violations int
	samples    int
	phases     map[bldc.Phase]int
}

func NewConduction(motor *bldc.Motor) *Conduction {
	return &Conduction{motor: motor, phases: make(map[bldc.Phase]int)}
}

func (c *Conduction) Name() string { return "conduction" }

func (c *Conduction) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s, err := bldc.StateFrom(x)
	if err != nil {
		return
	}
	sw, err := bldc.SwitchesFrom(u)
	if err != nil {
		return
	}
	v, err := c.motor.Reconstruct(s, sw)
	if err != nil {
		return
	}

	c.samples++
	p := c.motor.Params
	if bad := v.Freewheeling(sw, p.SupplyVoltage, p.DiodeForwardVoltage); len(bad) > 0 {
		c.violations++
		for _, ph := range bad {
			c.phases[ph]++
		}
	}
}

func (c *Conduction) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

// Violations counts the samples in which each phase would have conducted.
func (c *Conduction) Violations() map[bldc.Phase]int {
	out := make(map[bldc.Phase]int, len(c.phases))
	for k, v := range c.phases {
		out[k] = v
	}
	return out
}

func (c *Conduction) Reset() {
	c.violations = 0
	c.samples = 0
	c.phases = make(map[bldc.Phase]int)
}
