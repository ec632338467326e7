package bldc

import "errors"

var (
	// ErrAngleDomain indicates the back-EMF waveform was evaluated outside [0, 2π].
	ErrAngleDomain = errors.New("bldc: angle outside waveform domain")

	// ErrUnmatchedExcitation indicates a switch vector no voltage case covers.
	ErrUnmatchedExcitation = errors.New("bldc: no voltage case matches excitation")

	// ErrSingularSpeed indicates a zero rotor speed reached the torque equation.
	ErrSingularSpeed = errors.New("bldc: singular speed (omega == 0) in torque equation")

	// ErrParameterBounds indicates a motor parameter outside its valid range.
	ErrParameterBounds = errors.New("bldc: parameter out of valid bounds")
)
