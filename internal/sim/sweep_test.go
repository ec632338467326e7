package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
	"github.com/igorwolfs/bldc-pysim/internal/integrators"
)

func TestSweepKeepsOrder(t *testing.T) {
	var jobs []Job
	for i := 1; i <= 8; i++ {
		jobs = append(jobs, Job{
			Name:      "decay",
			Simulator: New(&testDynamics{}, integrators.NewRK4(), &testController{}),
			X0:        dynamo.State{float64(i)},
			Config:    baseConfig(),
		})
	}

	results, err := Sweep(context.Background(), jobs, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, res := range results {
		x0 := float64(i + 1)
		final := res.States[len(res.States)-1][0]
		if math.Abs(final-x0*math.Exp(-1)) > 1e-5 {
			t.Errorf("job %d: final %g, want %g", i, final, x0*math.Exp(-1))
		}
	}
}

func TestSweepError(t *testing.T) {
	jobs := []Job{
		{Name: "ok", Simulator: New(&testDynamics{}, integrators.NewEuler(), &testController{}), X0: dynamo.State{1}, Config: baseConfig()},
		{Name: "bad", Simulator: New(&testDynamics{failAfter: 0.2}, integrators.NewEuler(), &testController{}), X0: dynamo.State{1}, Config: baseConfig()},
	}

	_, err := Sweep(context.Background(), jobs, 0)
	if !errors.Is(err, errBoom) {
		t.Errorf("expected errBoom, got %v", err)
	}
}
