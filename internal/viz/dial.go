package viz

import (
	"math"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
)

// DrawRotor draws the stator ring, a short tick on each phase axis (drawn
// longer while the phase is driven) and the rotor at mechanical angle theta.
// Angles grow counter-clockwise from the positive x axis.
func DrawRotor(c *Canvas, theta float64, sw bldc.Switches) {
	cw, ch := c.Width*2, c.Height*4
	cx, cy := cw/2, ch/2
	r := min(cw, ch)/2 - 2
	if r < 4 {
		return
	}

	c.DrawCircle(cx, cy, r)

	for _, p := range bldc.Phases {
		a := float64(p) * bldc.TwoPi / 3
		inner := 0.8
		if sw.Enabled(p) {
			inner = 0.6
		}
		x0, y0 := polar(cx, cy, inner*float64(r), a)
		x1, y1 := polar(cx, cy, float64(r), a)
		c.DrawLine(x0, y0, x1, y1)
	}

	x, y := polar(cx, cy, 0.5*float64(r), theta)
	c.DrawLine(cx, cy, x, y)
	c.DrawCircle(x, y, 2)
}

func polar(cx, cy int, radius, angle float64) (int, int) {
	return cx + int(math.Round(radius*math.Cos(angle))), cy - int(math.Round(radius*math.Sin(angle)))
}
