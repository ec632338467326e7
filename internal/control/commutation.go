package control

import (
	"fmt"
	"math"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// Config is the commutation configuration, built once per run.
type Config struct {
	Frequency float64 `yaml:"frequency"` // PWM frequency, Hz
	Duty      float64 `yaml:"duty"`      // on fraction of each PWM period
	// SwapVW exchanges the V and W switch pairs after the table lookup. The
	// step table assumes the opposite phase rotation to the motor model;
	// the swap relabels the phases so the rotor turns forward.
	SwapVW bool `yaml:"swap_vw"`
}

func DefaultConfig() Config {
	return Config{
		Frequency: 16000,
		Duty:      0.6,
		SwapVW:    true,
	}
}

func (c Config) Period() float64 {
	return 1 / c.Frequency
}

func (c Config) Validate() error {
	if !(c.Frequency > 0) {
		return fmt.Errorf("%w: pwm frequency must be positive, got %g", bldc.ErrParameterBounds, c.Frequency)
	}
	if c.Duty < 0 || c.Duty > 1 || math.IsNaN(c.Duty) {
		return fmt.Errorf("%w: pwm duty must be in [0, 1], got %g", bldc.ErrParameterBounds, c.Duty)
	}
	return nil
}

// window is one entry of the commutation table: a closed interval of
// electrical angle, the low-side switch held closed across it and the
// high-side switch chopped by PWM.
type window struct {
	from, to float64
	low      bldc.Phase
	high     bldc.Phase
}

const sixth = math.Pi / 6

var table = [...]window{
	{0, 1 * sixth, bldc.PhaseV, bldc.PhaseW},
	{1 * sixth, 3 * sixth, bldc.PhaseW, bldc.PhaseU},
	{3 * sixth, 5 * sixth, bldc.PhaseW, bldc.PhaseU},
	{5 * sixth, 7 * sixth, bldc.PhaseU, bldc.PhaseV},
	{7 * sixth, 9 * sixth, bldc.PhaseU, bldc.PhaseV},
	{9 * sixth, 11 * sixth, bldc.PhaseV, bldc.PhaseW},
	{11 * sixth, 12 * sixth, bldc.PhaseV, bldc.PhaseW},
}

// Windows is the number of entries in the commutation table.
const Windows = len(table)

// SixStep commutates from the rotor angle alone. It holds no state between
// calls.
type SixStep struct {
	cfg   Config
	ratio float64
}

func NewSixStep(p bldc.Params, cfg Config) *SixStep {
	return &SixStep{cfg: cfg, ratio: p.ElectricalRatio()}
}

func (s *SixStep) Config() Config { return s.cfg }

// Window returns the index of the first table window containing the
// electrical angle. Shared boundaries resolve to the earlier window.
func Window(elecAngle float64) (int, bool) {
	for i, w := range table {
		if w.from <= elecAngle && elecAngle <= w.to {
			return i, true
		}
	}
	return 0, false
}

// PWMOn reports whether the high-side switch conducts at time t.
func PWMOn(t, period, duty float64) bool {
	return math.Mod(t, period) <= duty*period
}

// Commutate returns the switch command for mechanical angle theta at time t.
func (s *SixStep) Commutate(theta, t float64) bldc.Switches {
	return s.commutate(theta, t, s.cfg.Duty)
}

func (s *SixStep) commutate(theta, t, duty float64) bldc.Switches {
	var sw bldc.Switches

	elec := bldc.NormalizeAngle(theta * s.ratio)
	i, ok := Window(elec)
	if !ok {
		return sw
	}

	w := table[i]
	sw.SetLow(w.low, true)
	if PWMOn(t, s.cfg.Period(), duty) {
		sw.SetHigh(w.high, true)
	}

	if s.cfg.SwapVW {
		sw = sw.SwapVW()
	}
	return sw
}

func (s *SixStep) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) == 0 {
		return bldc.Switches{}.Control()
	}
	return s.Commutate(x[0], t).Control()
}
