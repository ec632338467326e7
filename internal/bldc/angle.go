package bldc

import (
	"fmt"
	"math"
)

const (
	TwoPi = 2 * math.Pi

	// RadPerSecToRPM converts an angular speed in rad/s to RPM.
	RadPerSecToRPM = 60 / TwoPi

	sixth = math.Pi / 6
)

// NormalizeAngle reduces alpha into [0, 2π).
func NormalizeAngle(alpha float64) float64 {
	beta := math.Mod(alpha, TwoPi)
	if beta < 0 {
		beta += TwoPi
		// a remainder of -ε rounds up to exactly 2π
		if beta >= TwoPi {
			beta = 0
		}
	}
	return beta
}

// Trapezoid returns the normalised back-EMF shape at an electrical angle in
// [0, 2π]: a ramp up over the first 30°, a 120° plateau at 1, a 60° ramp
// down, a 120° plateau at -1 and a final ramp back to 0.
func Trapezoid(angle float64) (float64, error) {
	switch {
	case angle >= 0 && angle <= sixth:
		return clampUnit(angle / sixth), nil
	case angle > sixth && angle <= 5*sixth:
		return 1, nil
	case angle > 5*sixth && angle <= 7*sixth:
		return clampUnit(-(angle - math.Pi) / sixth), nil
	case angle > 7*sixth && angle <= 11*sixth:
		return -1, nil
	case angle > 11*sixth && angle <= TwoPi:
		return clampUnit((angle - TwoPi) / sixth), nil
	}
	return 0, fmt.Errorf("%w: %v rad", ErrAngleDomain, angle)
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
