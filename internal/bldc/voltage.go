package bldc

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Reconstruct returns the terminal and star voltages the inverter produces
// for state x under switch vector sw.
func (m *Motor) Reconstruct(x State, sw Switches) (Voltages, error) {
	emf, err := m.BackEMF(x)
	if err != nil {
		return Voltages{}, err
	}
	return ReconstructVoltages(sw, emf, m.Params.SupplyVoltage)
}

// ReconstructVoltages infers the floating star point from whichever phases
// are driven. A driven phase sits at vdc when its high switch is closed and
// at 0 otherwise; a floating phase carries no current, so its terminal
// voltage is its back-EMF on top of the star voltage.
func ReconstructVoltages(sw Switches, emf [3]float64, vdc float64) (Voltages, error) {
	var v Voltages
	exc := Classify(sw)

	switch exc.Kind {
	case Idle:
		return v, nil

	case Full:
		// resistive and inductive drops are not included here
		for _, p := range Phases {
			v.setTerminal(p, drivenVoltage(sw, p, vdc))
		}
		v.Star = (floats.Sum([]float64{v.U, v.V, v.W}) - floats.Sum(emf[:])) / 3
		return v, nil

	case Pair:
		if len(exc.Driven) != 2 || len(exc.Floating) != 1 {
			break
		}
		j, k, i := exc.Driven[0], exc.Driven[1], exc.Floating[0]
		v.setTerminal(j, drivenVoltage(sw, j, vdc))
		v.setTerminal(k, drivenVoltage(sw, k, vdc))
		v.Star = (v.Terminal(j) + v.Terminal(k) - emf[j] - emf[k]) / 2
		v.setTerminal(i, emf[i]+v.Star)
		return v, nil

	case Single:
		if len(exc.Driven) != 1 || len(exc.Floating) != 2 {
			break
		}
		i, j, k := exc.Driven[0], exc.Floating[0], exc.Floating[1]
		v.setTerminal(i, drivenVoltage(sw, i, vdc))
		v.Star = v.Terminal(i) - emf[i]
		v.setTerminal(j, v.Star+emf[j])
		v.setTerminal(k, v.Star+emf[k])
		return v, nil
	}

	return Voltages{}, fmt.Errorf("%w: %s excitation with switches %s", ErrUnmatchedExcitation, exc.Kind, sw)
}

func drivenVoltage(sw Switches, p Phase, vdc float64) float64 {
	if sw.High(p) {
		return vdc
	}
	return 0
}

// Freewheeling returns the floating phases whose reconstructed terminal
// voltage leaves [-vdf, vdc+vdf]. A freewheeling diode would conduct there,
// which the zero-current assumption for floating phases ignores.
func (v Voltages) Freewheeling(sw Switches, vdc, vdf float64) []Phase {
	var out []Phase
	for _, p := range Phases {
		if sw.Enabled(p) {
			continue
		}
		if vt := v.Terminal(p); vt > vdc+vdf || vt < -vdf {
			out = append(out, p)
		}
	}
	return out
}
