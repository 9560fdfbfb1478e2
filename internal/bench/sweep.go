// internal/bench/sweep.go
package bench

import (
	"context"
	"fmt"

	"github.com/mwiater/metron/internal/logging"
)

// SweepAxes lists the values swept per parameter. The cartesian product of
// the three axes defines the grid.
type SweepAxes struct {
	Concurrency []int     `json:"sweep_concurrency"`
	MaxTokens   []int     `json:"sweep_max_tokens"`
	Temperature []float64 `json:"sweep_temperature"`
}

// Validate reports an axis with no values.
func (a SweepAxes) Validate() error {
	if len(a.Concurrency) == 0 {
		return fmt.Errorf("sweep_concurrency must list at least one value")
	}
	if len(a.MaxTokens) == 0 {
		return fmt.Errorf("sweep_max_tokens must list at least one value")
	}
	if len(a.Temperature) == 0 {
		return fmt.Errorf("sweep_temperature must list at least one value")
	}
	return nil
}

// GeneratorFactory builds a fresh adapter for one grid point. A new adapter
// per point lets the connection pool track the point's concurrency limit.
type GeneratorFactory func(params Parameters) (Generator, error)

// RunSweep executes one benchmark per grid point, sequentially, in grid
// order, returning one result per point. The first failing point aborts the
// sweep.
func RunSweep(ctx context.Context, newGenerator GeneratorFactory, base RunConfig, axes SweepAxes) ([]Result, error) {
	if err := axes.Validate(); err != nil {
		return nil, err
	}
	grid := BuildParameterGrid(base.Parameters, axes.Concurrency, axes.MaxTokens, axes.Temperature)

	results := make([]Result, 0, len(grid))
	for i, params := range grid {
		logging.LogEvent("Sweep point %d of %d: concurrency=%d max_tokens=%d temperature=%g",
			i+1, len(grid), params.Concurrency, params.MaxTokens, params.Temperature)

		gen, err := newGenerator(params)
		if err != nil {
			return nil, fmt.Errorf("sweep point %d: %w", i+1, err)
		}

		cfg := base
		cfg.Parameters = params
		result, err := NewExecutor(gen, cfg).Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("sweep point %d: %w", i+1, err)
		}
		results = append(results, result)
	}
	return results, nil
}
