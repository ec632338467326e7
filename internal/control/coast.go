package control

import (
	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// Coast passes through Drive until time After, then opens every switch so
// the rotor runs down on its own. A nil Drive coasts from the start.
type Coast struct {
	Drive dynamo.Controller
	After float64
}

func NewCoast(drive dynamo.Controller, after float64) *Coast {
	return &Coast{Drive: drive, After: after}
}

func (c *Coast) Compute(x dynamo.State, t float64) dynamo.Control {
	if c.Drive == nil || t >= c.After {
		return bldc.Switches{}.Control()
	}
	return c.Drive.Compute(x, t)
}
