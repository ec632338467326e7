package bldc

// ExcitationKind counts how many phases the inverter is driving.
type ExcitationKind int

const (
	Idle   ExcitationKind = iota // no phase driven
	Single                       // one phase driven, two floating
	Pair                         // two phases driven, one floating
	Full                         // all three phases driven
)

func (k ExcitationKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Single:
		return "single"
	case Pair:
		return "pair"
	case Full:
		return "full"
	}
	return "unknown"
}

// Excitation classifies a switch vector once so voltage reconstruction can
// dispatch on it. Driven and Floating are listed in rotation order starting
// after the first floating (Pair) or driven (Single) phase.
type Excitation struct {
	Kind     ExcitationKind
	Driven   []Phase
	Floating []Phase
}

func Classify(sw Switches) Excitation {
	var driven, floating []Phase
	for _, p := range Phases {
		if sw.Enabled(p) {
			driven = append(driven, p)
		} else {
			floating = append(floating, p)
		}
	}

	switch len(driven) {
	case 0:
		return Excitation{Kind: Idle, Floating: floating}
	case 1:
		i := driven[0]
		return Excitation{Kind: Single, Driven: driven, Floating: []Phase{next(i, 1), next(i, 2)}}
	case 2:
		i := floating[0]
		return Excitation{Kind: Pair, Driven: []Phase{next(i, 1), next(i, 2)}, Floating: floating}
	default:
		return Excitation{Kind: Full, Driven: driven}
	}
}

func next(p Phase, n int) Phase {
	return Phase((int(p) + n) % 3)
}
