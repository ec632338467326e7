package metrics

import (
	"math"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// CurrentLimit is the fraction of samples whose phase currents all stay
// within ±limit. It assumes the motor state layout (θ, ω, i_u, i_v, i_w).
type CurrentLimit struct {
	name       string
	limit      float64
	violations int
	samples    int
	peak       float64
}

func NewCurrentLimit(limit float64) *CurrentLimit {
	return &CurrentLimit{
		name:  "current_limit",
		limit: limit,
	}
}

func (c *CurrentLimit) Name() string {
	return c.name
}

func (c *CurrentLimit) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 5 {
		return
	}
	c.samples++
	over := false
	for _, i := range x[2:5] {
		a := math.Abs(i)
		c.peak = math.Max(c.peak, a)
		if a > c.limit {
			over = true
		}
	}
	if over {
		c.violations++
	}
}

func (c *CurrentLimit) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

// Peak is the largest absolute phase current seen.
func (c *CurrentLimit) Peak() float64 { return c.peak }

func (c *CurrentLimit) Reset() {
	c.violations = 0
	c.samples = 0
	c.peak = 0
}
