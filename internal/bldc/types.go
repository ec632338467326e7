package bldc

import (
	"fmt"
	"strings"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

type Phase int

const (
	PhaseU Phase = iota
	PhaseV
	PhaseW
)

// Phases lists the three phases in state-vector order.
var Phases = [3]Phase{PhaseU, PhaseV, PhaseW}

func (p Phase) String() string {
	switch p {
	case PhaseU:
		return "U"
	case PhaseV:
		return "V"
	case PhaseW:
		return "W"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Column labels of the flattened vectors.
var (
	StateLabels  = []string{"theta", "omega", "iu", "iv", "iw"}
	SwitchLabels = []string{"lu", "hu", "lv", "hv", "lw", "hw"}
	DebugLabels  = []string{"emf_u", "emf_v", "emf_w", "vu", "vv", "vw", "vstar"}
)

// State is the motor state. The same shape carries time derivatives when
// returned from [Motor.Dynamics].
type State struct {
	Theta float64 // rotor angle, rad
	Omega float64 // rotor speed, rad/s
	IU    float64 // phase currents, A
	IV    float64
	IW    float64
}

// StateFrom reads a flattened (θ, ω, iu, iv, iw) vector.
func StateFrom(x dynamo.State) (State, error) {
	if len(x) != len(StateLabels) {
		return State{}, fmt.Errorf("%w: state has %d components, want %d", dynamo.ErrDimensionMismatch, len(x), len(StateLabels))
	}
	return State{Theta: x[0], Omega: x[1], IU: x[2], IV: x[3], IW: x[4]}, nil
}

func (s State) Vector() dynamo.State {
	return dynamo.State{s.Theta, s.Omega, s.IU, s.IV, s.IW}
}

func (s State) Currents() [3]float64 {
	return [3]float64{s.IU, s.IV, s.IW}
}

// Switches is the inverter command: one low-side and one high-side switch
// per phase. Low and high of the same phase are never both closed.
type Switches struct {
	LowU, HighU bool
	LowV, HighV bool
	LowW, HighW bool
}

// SwitchesFrom reads a flattened (lu, hu, lv, hv, lw, hw) control vector;
// any component above 0.5 is a closed switch.
func SwitchesFrom(u dynamo.Control) (Switches, error) {
	if len(u) != len(SwitchLabels) {
		return Switches{}, fmt.Errorf("%w: control has %d components, want %d", dynamo.ErrDimensionMismatch, len(u), len(SwitchLabels))
	}
	return Switches{
		LowU: u[0] > 0.5, HighU: u[1] > 0.5,
		LowV: u[2] > 0.5, HighV: u[3] > 0.5,
		LowW: u[4] > 0.5, HighW: u[5] > 0.5,
	}, nil
}

func (s Switches) Control() dynamo.Control {
	return dynamo.Control{flag(s.LowU), flag(s.HighU), flag(s.LowV), flag(s.HighV), flag(s.LowW), flag(s.HighW)}
}

func (s Switches) High(p Phase) bool {
	switch p {
	case PhaseU:
		return s.HighU
	case PhaseV:
		return s.HighV
	case PhaseW:
		return s.HighW
	}
	return false
}

func (s Switches) Low(p Phase) bool {
	switch p {
	case PhaseU:
		return s.LowU
	case PhaseV:
		return s.LowV
	case PhaseW:
		return s.LowW
	}
	return false
}

// Enabled reports whether either switch of phase p is closed.
func (s Switches) Enabled(p Phase) bool {
	return s.High(p) || s.Low(p)
}

func (s *Switches) SetHigh(p Phase, on bool) {
	switch p {
	case PhaseU:
		s.HighU = on
	case PhaseV:
		s.HighV = on
	case PhaseW:
		s.HighW = on
	}
}

func (s *Switches) SetLow(p Phase, on bool) {
	switch p {
	case PhaseU:
		s.LowU = on
	case PhaseV:
		s.LowV = on
	case PhaseW:
		s.LowW = on
	}
}

// SwapVW exchanges the V and W switch pairs.
func (s Switches) SwapVW() Switches {
	s.LowV, s.LowW = s.LowW, s.LowV
	s.HighV, s.HighW = s.HighW, s.HighV
	return s
}

// String renders the switches as lu hu lv hv lw hw bits, e.g. "100001".
func (s Switches) String() string {
	var sb strings.Builder
	for _, v := range s.Control() {
		if v > 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func flag(on bool) float64 {
	if on {
		return 1
	}
	return 0
}

// Voltages holds the terminal voltages to ground and the star point voltage.
type Voltages struct {
	U, V, W float64
	Star    float64
}

func (v Voltages) Terminal(p Phase) float64 {
	switch p {
	case PhaseU:
		return v.U
	case PhaseV:
		return v.V
	case PhaseW:
		return v.W
	}
	return 0
}

func (v *Voltages) setTerminal(p Phase, value float64) {
	switch p {
	case PhaseU:
		v.U = value
	case PhaseV:
		v.V = value
	case PhaseW:
		v.W = value
	}
}

// Debug is the diagnostic vector of one dynamics evaluation.
type Debug struct {
	EmfU, EmfV, EmfW float64
	VU, VV, VW       float64
	Star             float64
}

func (d Debug) Slice() []float64 {
	return []float64{d.EmfU, d.EmfV, d.EmfW, d.VU, d.VV, d.VW, d.Star}
}

// Output is the measurable view of the motor: currents, terminal voltages,
// angle and speed.
type Output struct {
	IU, IV, IW float64
	VU, VV, VW float64
	Theta      float64
	Omega      float64
}
