package control

import (
	"errors"
	"math"
	"testing"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

func TestWindowCoverage(t *testing.T) {
	const n = 200000
	for i := 0; i < n; i++ {
		angle := bldc.TwoPi * float64(i) / n
		idx, ok := Window(angle)
		if !ok {
			t.Fatalf("no window for electrical angle %v", angle)
		}
		w := table[idx]
		if angle < w.from || angle > w.to {
			t.Fatalf("window %d [%v, %v] does not contain %v", idx, w.from, w.to, angle)
		}

		containing := 0
		for _, w := range table {
			if w.from <= angle && angle <= w.to {
				containing++
			}
		}
		if containing > 2 {
			t.Fatalf("angle %v covered by %d windows", angle, containing)
		}
		if containing == 2 && !onBoundary(angle) {
			t.Fatalf("angle %v covered twice away from a boundary", angle)
		}
	}
}

func onBoundary(angle float64) bool {
	for _, w := range table {
		if angle == w.from || angle == w.to {
			return true
		}
	}
	return false
}

func TestWindowTable(t *testing.T) {
	if Windows != 7 {
		t.Fatalf("expected 7 windows, got %d", Windows)
	}
	if table[0].from != 0 || table[len(table)-1].to != 12*sixth {
		t.Error("table does not span a full electrical revolution")
	}
	for i := 1; i < len(table); i++ {
		if table[i].from != table[i-1].to {
			t.Errorf("gap between window %d and %d", i-1, i)
		}
	}
}

func TestWindowBoundaryFirstMatch(t *testing.T) {
	idx, ok := Window(table[1].to)
	if !ok || idx != 1 {
		t.Errorf("boundary should resolve to the earlier window, got %d", idx)
	}
	if _, ok := Window(-0.1); ok {
		t.Error("negative angle should not match")
	}
}

func TestCommutate(t *testing.T) {
	p := bldc.DefaultParams()
	cfg := DefaultConfig()

	// θ = 0.5 rad is 1.0 rad electrical: window 1, low W, high U
	tests := []struct {
		name   string
		swap   bool
		t      float64
		expect bldc.Switches
	}{
		{"pwm on, swapped", true, 0, bldc.Switches{LowV: true, HighU: true}},
		{"pwm off, swapped", true, 0.9 * cfg.Period(), bldc.Switches{LowV: true}},
		{"pwm on, table order", false, 0, bldc.Switches{LowW: true, HighU: true}},
		{"pwm on next period", true, 10*cfg.Period() + 0.1*cfg.Period(), bldc.Switches{LowV: true, HighU: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.SwapVW = tt.swap
			six := NewSixStep(p, c)
			got := six.Commutate(0.5, tt.t)
			if got != tt.expect {
				t.Errorf("Commutate = %s, want %s", got, tt.expect)
			}
		})
	}
}

func TestCommutateNeverShortsAPhase(t *testing.T) {
	six := NewSixStep(bldc.DefaultParams(), DefaultConfig())
	for i := 0; i < 5000; i++ {
		theta := float64(i) * 0.003
		for _, tm := range []float64{0, 0.3 / 16000, 0.8 / 16000} {
			sw := six.Commutate(theta, tm)
			for _, p := range bldc.Phases {
				if sw.High(p) && sw.Low(p) {
					t.Fatalf("θ=%v t=%v: phase %s shorted (%s)", theta, tm, p, sw)
				}
			}
			if !sw.Enabled(bldc.PhaseU) && !sw.Enabled(bldc.PhaseV) && !sw.Enabled(bldc.PhaseW) {
				t.Fatalf("θ=%v: no low-side switch closed", theta)
			}
		}
	}
}

func TestSwapInvolution(t *testing.T) {
	six := NewSixStep(bldc.DefaultParams(), Config{Frequency: 16000, Duty: 0.6, SwapVW: false})
	for i := 0; i < 100; i++ {
		sw := six.Commutate(float64(i)*0.05, 0)
		if sw.SwapVW().SwapVW() != sw {
			t.Fatalf("swap applied twice changed %s", sw)
		}
	}
}

func TestPWMOn(t *testing.T) {
	period := 1.0 / 16000
	tests := []struct {
		t    float64
		duty float64
		on   bool
	}{
		{0, 0.6, true},
		{0.5 * period, 0.6, true},
		{0.7 * period, 0.6, false},
		{0.7 * period, 1, true},
		{0.1 * period, 0, false},
		{0, 0, true},
	}

	for _, tt := range tests {
		if got := PWMOn(tt.t, period, tt.duty); got != tt.on {
			t.Errorf("PWMOn(t=%v, duty=%v) = %v, want %v", tt.t, tt.duty, got, tt.on)
		}
	}
}

func TestComputeMatchesCommutate(t *testing.T) {
	six := NewSixStep(bldc.DefaultParams(), DefaultConfig())
	x := dynamo.State{2.2, 100, 0, 0, 0}
	u := six.Compute(x, 1e-5)
	want := six.Commutate(2.2, 1e-5).Control()
	for i := range want {
		if u[i] != want[i] {
			t.Fatalf("Compute = %v, want %v", u, want)
		}
	}
	if len(six.Compute(nil, 0)) != 6 {
		t.Error("empty state should still produce six switches")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, c := range []Config{
		{Frequency: 0, Duty: 0.5},
		{Frequency: 16000, Duty: 1.5},
		{Frequency: 16000, Duty: math.NaN()},
	} {
		if err := c.Validate(); !errors.Is(err, bldc.ErrParameterBounds) {
			t.Errorf("config %+v: expected bounds error, got %v", c, err)
		}
	}
}
