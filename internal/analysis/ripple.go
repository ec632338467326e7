package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
)

type RippleStats struct {
	Mean       float64
	Min, Max   float64
	PeakToPeak float64
	RMS        float64
	// Ratio is PeakToPeak/|Mean|, NaN when the mean is zero.
	Ratio float64
}

func Ripple(data []float64) (RippleStats, error) {
	if len(data) == 0 {
		return RippleStats{}, fmt.Errorf("%w: no samples", ErrTooShort)
	}
	n := float64(len(data))
	s := RippleStats{
		Mean: floats.Sum(data) / n,
		Min:  floats.Min(data),
		Max:  floats.Max(data),
		RMS:  floats.Norm(data, 2) / math.Sqrt(n),
	}
	s.PeakToPeak = s.Max - s.Min
	if s.Mean != 0 {
		s.Ratio = s.PeakToPeak / math.Abs(s.Mean)
	} else {
		s.Ratio = math.NaN()
	}
	return s, nil
}

// Torque rebuilds the electromagnetic shaft torque of every sample from the
// stored angle, speed and phase currents. Samples with ω = 0 yield NaN.
func Torque(p bldc.Params, theta, omega, iu, iv, iw []float64) ([]float64, error) {
	n := len(theta)
	if len(omega) != n || len(iu) != n || len(iv) != n || len(iw) != n {
		return nil, fmt.Errorf("analysis: torque inputs differ in length")
	}

	motor := bldc.NewMotor(p)
	out := make([]float64, n)
	for i := range out {
		if omega[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		x := bldc.State{Theta: theta[i], Omega: omega[i], IU: iu[i], IV: iv[i], IW: iw[i]}
		emf, err := motor.BackEMF(x)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		currents := x.Currents()
		out[i] = floats.Dot(emf[:], currents[:]) / omega[i] * p.ElectricalRatio()
	}
	return out, nil
}
