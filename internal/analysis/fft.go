package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

var ErrTooShort = errors.New("analysis: signal too short")

type Spectrum struct {
	Freqs     []float64 // Hz
	Amplitude []float64
}

// PowerSpectrum returns the single-sided amplitude spectrum of data sampled
// at sampleRate. The mean is removed first, so bin 0 is always zero.
func PowerSpectrum(data []float64, sampleRate float64) (*Spectrum, error) {
	n := len(data)
	if n < 4 {
		return nil, fmt.Errorf("%w: %d samples", ErrTooShort, n)
	}
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("analysis: sample rate must be positive, got %g", sampleRate)
	}

	centred := make([]float64, n)
	copy(centred, data)
	floats.AddConst(-floats.Sum(data)/float64(n), centred)

	coeffs := fft.FFTReal(centred)

	bins := n/2 + 1
	spectrum := &Spectrum{
		Freqs:     make([]float64, bins),
		Amplitude: make([]float64, bins),
	}
	for k := 0; k < bins; k++ {
		spectrum.Freqs[k] = float64(k) * sampleRate / float64(n)
		amp := cmplx.Abs(coeffs[k]) / float64(n)
		if k > 0 && !(n%2 == 0 && k == n/2) {
			amp *= 2
		}
		spectrum.Amplitude[k] = amp
	}
	spectrum.Amplitude[0] = 0
	return spectrum, nil
}

// DominantFrequency is the frequency of the largest non-DC bin.
func DominantFrequency(data []float64, sampleRate float64) (float64, error) {
	spectrum, err := PowerSpectrum(data, sampleRate)
	if err != nil {
		return 0, err
	}
	k := floats.MaxIdx(spectrum.Amplitude[1:]) + 1
	return spectrum.Freqs[k], nil
}
