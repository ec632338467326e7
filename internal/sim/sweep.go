package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// Job is one independent run of a sweep. Simulators hold integrator scratch
// space, so every job needs its own.
type Job struct {
	Name      string
	Simulator *Simulator
	X0        dynamo.State
	Config    dynamo.Config
}

// Sweep runs jobs concurrently with at most limit in flight (no limit when
// limit <= 0). Results keep the order of jobs. The first failure cancels
// the remaining jobs and is returned with the job name attached.
func Sweep(ctx context.Context, jobs []Job, limit int) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, job := range jobs {
		g.Go(func() error {
			res, err := job.Simulator.Run(ctx, job.X0, job.Config)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
